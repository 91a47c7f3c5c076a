package opt

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

// tailCall turns the first self-recursive tail call of f into a jump back
// to the entry block. Arguments are staged through fresh temporaries
// before any parameter is overwritten, since an argument may read a parameter.
func tailCall(ctx context.Context, s *ir.Session, f *ir.Func) bool {
	entry := f.Entry()

	for _, b := range f.Blocks {
		call, params, ok := findTailCall(f, b)
		if !ok {
			continue
		}

		start := call - len(params)

		code := append([]ir.Instr{}, b.Instrs[:start]...)
		tmps := make([]ir.Operand, len(params))

		for i, p := range params {
			tmps[i] = s.NewTemp()

			code = append(code, ir.Instr{Op: ir.Assign, Result: tmps[i], Arg1: p.Arg1})
		}

		for i, p := range f.Params {
			code = append(code, ir.Instr{Op: ir.Assign, Result: ir.Var(p.Name), Arg1: tmps[i]})
		}

		code = append(code, ir.Instr{Op: ir.Jump, Arg1: ir.Label(entry)})

		b.Instrs = code

		tlog.SpanFromContext(ctx).V("tailcall").Printw("tail call eliminated", "func", f.Name, "block", b.Label, "params", len(params))

		return true
	}

	return false
}

// findTailCall checks that b ends with a self call whose result is returned,
// preceded by exactly one param per parameter of f.
func findTailCall(f *ir.Func, b *ir.Block) (call int, params []ir.Instr, ok bool) {
	n := len(b.Instrs)
	if n < 2 {
		return 0, nil, false
	}

	ret, x := b.Instrs[n-1], b.Instrs[n-2]

	if ret.Op != ir.Ret || x.Op != ir.Call || x.Arg1 != ir.Label(f.Name) {
		return 0, nil, false
	}

	if !ret.Arg1.IsNone() && ret.Arg1 != x.Result {
		return 0, nil, false
	}

	call = n - 2
	start := call

	for start > 0 && b.Instrs[start-1].Op == ir.ParamOp {
		start--
	}

	params = b.Instrs[start:call]

	if len(params) != len(f.Params) {
		return 0, nil, false
	}

	if x.Arg2.IsConst() && x.Arg2.Value != int64(len(params)) {
		return 0, nil, false
	}

	return call, params, true
}
