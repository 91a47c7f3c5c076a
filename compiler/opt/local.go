package opt

import (
	"context"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/df"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

// fold replaces ops on literals with an assignment of the result.
// Division and modulo by zero are left for the target to execute.
func fold(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			if foldInstr(&b.Instrs[i]) {
				changed = true
			}
		}
	}

	return changed
}

func foldInstr(x *ir.Instr) bool {
	var v int64
	var ok bool

	switch {
	case x.Op.IsBinary() && x.Arg1.IsConst() && x.Arg2.IsConst():
		v, ok = ir.Eval(x.Op, x.Arg1.Value, x.Arg2.Value)
	case x.Op == ir.Not && x.Arg1.IsConst():
		v, ok = ir.Eval(ir.Not, x.Arg1.Value, 0)
	}

	if !ok {
		return false
	}

	*x = ir.Instr{Op: ir.Assign, Result: x.Result, Arg1: ir.Const(v)}

	return true
}

// simplify applies algebraic identities with 0, 1 and -1.
func simplify(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			x := &b.Instrs[i]

			y, ok := simplifyInstr(*x)
			if !ok {
				continue
			}

			*x = y
			changed = true
		}
	}

	return changed
}

func simplifyInstr(x ir.Instr) (ir.Instr, bool) {
	if !x.Op.IsBinary() {
		return x, false
	}

	assign := func(o ir.Operand) (ir.Instr, bool) {
		return ir.Instr{Op: ir.Assign, Result: x.Result, Arg1: o}, true
	}

	neg := func(o ir.Operand) (ir.Instr, bool) {
		if o.IsConst() {
			return assign(ir.Const(-o.Value))
		}

		return ir.Instr{Op: ir.Sub, Result: x.Result, Arg1: ir.Const(0), Arg2: o}, true
	}

	is := func(o ir.Operand, v int64) bool { return o.IsConst() && o.Value == v }

	a, b := x.Arg1, x.Arg2

	switch x.Op {
	case ir.Add:
		switch {
		case is(b, 0):
			return assign(a)
		case is(a, 0):
			return assign(b)
		}
	case ir.Sub:
		switch {
		case a == b && a.IsStorage():
			return assign(ir.Const(0))
		case is(b, 0):
			return assign(a)
		}
	case ir.Mul:
		switch {
		case is(a, 0) || is(b, 0):
			return assign(ir.Const(0))
		case is(b, 1):
			return assign(a)
		case is(a, 1):
			return assign(b)
		case is(b, -1):
			return neg(a)
		case is(a, -1):
			return neg(b)
		}
	case ir.Div:
		switch {
		case is(b, 1):
			return assign(a)
		case is(b, -1):
			return neg(a)
		}
	case ir.Mod:
		if is(b, 1) || is(b, -1) {
			return assign(ir.Const(0))
		}
	}

	return x, false
}

// cse reuses values of expressions already computed in the same block.
func cse(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	for _, b := range f.Blocks {
		if cseBlock(b, df.Avail{}) {
			changed = true
		}
	}

	return changed
}

// cseBlock rewrites recomputations of expressions in avail, which is
// updated as the block is walked.
func cseBlock(b *ir.Block, avail df.Avail) (changed bool) {
	for i := range b.Instrs {
		x := &b.Instrs[i]

		if e, ok := df.MakeExpr(*x); ok {
			if h, ok := avail[e]; ok {
				*x = ir.Instr{Op: ir.Assign, Result: x.Result, Arg1: h}
				changed = true
			}
		}

		avail.Update(*x)
	}

	return changed
}

// copyProp makes reads of copies read the original and drops self-assignments.
func copyProp(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	for _, b := range f.Blocks {
		copies := map[ir.Operand]ir.Operand{}
		code := b.Instrs[:0]

		for _, x := range b.Instrs {
			x.ReadsInto(func(o ir.Operand) ir.Operand {
				src, ok := copies[o]
				if !ok {
					return o
				}

				changed = true

				return src
			})

			if x.Op == ir.Assign && x.Result == x.Arg1 {
				changed = true
				continue
			}

			if d, ok := x.Def(); ok {
				delete(copies, d)

				for k, v := range copies {
					if v == d {
						delete(copies, k)
					}
				}

				if x.Op == ir.Assign && x.Arg1.IsStorage() {
					copies[d] = x.Arg1
				}
			}

			code = append(code, x)
		}

		b.Instrs = code
	}

	return changed
}

// dce drops pure instructions whose result is never read anywhere in f.
// The read set is recomputed after every round of removals.
func dce(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	for {
		read := map[ir.Operand]bool{}

		for _, b := range f.Blocks {
			for _, x := range b.Instrs {
				for _, u := range x.Uses() {
					if u.IsStorage() {
						read[u] = true
					}
				}
			}
		}

		removed := false

		for _, b := range f.Blocks {
			code := b.Instrs[:0]

			for _, x := range b.Instrs {
				if x.Op.IsPure() && !read[x.Result] {
					removed = true
					continue
				}

				code = append(code, x)
			}

			b.Instrs = code
		}

		if !removed {
			return changed
		}

		changed = true
	}
}
