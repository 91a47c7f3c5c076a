package opt

import (
	"context"
	"maps"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/df"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

// constProp replaces reads of operands known to be constant with the literal
// and folds instructions whose operands all became literals.
func constProp(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	g := cfg.Build(ctx, f)
	r := df.Constants(ctx, g)

	for i, n := range g.Nodes {
		c := maps.Clone(r.In[i])
		b := g.Block(n)

		for j := range b.Instrs {
			x := &b.Instrs[j]

			x.ReadsInto(func(o ir.Operand) ir.Operand {
				v, ok := c[o]
				if !ok {
					return o
				}

				changed = true

				return ir.Const(v)
			})

			if foldInstr(x) {
				changed = true
			}

			c.Update(*x)
		}
	}

	return changed
}

// globalCSE reuses values of expressions available on entry to a block.
func globalCSE(ctx context.Context, s *ir.Session, f *ir.Func) (changed bool) {
	g := cfg.Build(ctx, f)
	r := df.Available(ctx, g)

	for i, n := range g.Nodes {
		if cseBlock(g.Block(n), maps.Clone(r.In[i])) {
			changed = true
		}
	}

	return changed
}
