package opt

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	Options struct {
		// Global adds constant propagation and CSE driven by
		// dataflow analyses to the fixed-point loop.
		Global bool

		// MaxIter bounds the fixed-point loop. Zero means DefaultMaxIter.
		MaxIter int
	}

	Stats struct {
		Iterations int
		Changes    map[string]int
	}

	// Pass rewrites f in place and reports whether it changed anything.
	Pass struct {
		Name string
		Run  func(ctx context.Context, s *ir.Session, f *ir.Func) bool
	}
)

const DefaultMaxIter = 100

var ErrNoFixedPoint = errors.New("optimizer did not reach a fixed point")

var (
	FoldPass     = Pass{Name: "fold", Run: fold}
	TailCallPass = Pass{Name: "tailcall", Run: tailCall}
	SimplifyPass = Pass{Name: "simplify", Run: simplify}
	CSEPass      = Pass{Name: "cse", Run: cse}
	CopyPass     = Pass{Name: "copyprop", Run: copyProp}
	DCEPass      = Pass{Name: "dce", Run: dce}

	ConstPropPass = Pass{Name: "constprop", Run: constProp}
	GlobalCSEPass = Pass{Name: "gcse", Run: globalCSE}
)

// Run optimizes every function of the session module: constant folding
// once, tail-call elimination until it finds nothing more, then the
// local passes in a loop until a whole sweep changes nothing.
func Run(ctx context.Context, s *ir.Session, opts Options) (st Stats, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "optimize", "funcs", len(s.Module.Funcs), "global", opts.Global)
	defer tr.Finish("iterations", &st.Iterations, "err", &err)

	st.Changes = map[string]int{}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	for _, f := range s.Module.Funcs {
		st.apply(ctx, s, f, FoldPass)

		for st.apply(ctx, s, f, TailCallPass) {
		}
	}

	loop := []Pass{SimplifyPass, CSEPass, CopyPass, DCEPass}

	if opts.Global {
		loop = append(loop, ConstPropPass, GlobalCSEPass)
	}

	for {
		if st.Iterations == maxIter {
			return st, errors.Wrap(ErrNoFixedPoint, "after %d iterations", st.Iterations)
		}

		st.Iterations++

		changed := false

		for _, p := range loop {
			for _, f := range s.Module.Funcs {
				if st.apply(ctx, s, f, p) {
					changed = true
				}
			}
		}

		if !changed {
			break
		}
	}

	return st, nil
}

func (st *Stats) apply(ctx context.Context, s *ir.Session, f *ir.Func, p Pass) bool {
	if !p.Run(ctx, s, f) {
		return false
	}

	st.Changes[p.Name]++

	tlog.SpanFromContext(ctx).V("opt_pass").Printw("pass changed func", "pass", p.Name, "func", f.Name, "instrs", f.NumInstrs())

	return true
}
