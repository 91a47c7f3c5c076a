package df

import (
	"context"
	"maps"

	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Consts maps operands known to hold exactly one value.
	Consts map[ir.Operand]int64
)

// Value resolves o through the bindings.
func (c Consts) Value(o ir.Operand) (int64, bool) {
	if o.IsConst() {
		return o.Value, true
	}

	v, ok := c[o]

	return v, ok
}

// Update applies x to c. The written operand loses its binding and gets
// a new one if x computes a value from known constants.
func (c Consts) Update(x ir.Instr) {
	d, ok := x.Def()
	if !ok {
		return
	}

	v, known := c.eval(x)

	delete(c, d)

	if known {
		c[d] = v
	}
}

func (c Consts) eval(x ir.Instr) (int64, bool) {
	switch {
	case x.Op == ir.Assign:
		return c.Value(x.Arg1)
	case x.Op == ir.Not:
		a, ok := c.Value(x.Arg1)
		if !ok {
			return 0, false
		}

		return ir.Eval(ir.Not, a, 0)
	case x.Op.IsBinary():
		a, ok := c.Value(x.Arg1)
		if !ok {
			return 0, false
		}

		b, ok := c.Value(x.Arg2)
		if !ok {
			return 0, false
		}

		return ir.Eval(x.Op, a, b)
	}

	return 0, false
}

// Constants computes constant bindings on entry to and exit from every node.
// A binding survives a merge only if all predecessors agree on the value.
func Constants(ctx context.Context, g *cfg.Graph) *Result[Consts] {
	r := forward(g, forwardProblem[Consts]{
		empty: func() Consts { return Consts{} },
		meet: func(preds []Consts) Consts {
			in := maps.Clone(preds[0])

			for _, p := range preds[1:] {
				for o, v := range in {
					if pv, ok := p[o]; !ok || pv != v {
						delete(in, o)
					}
				}
			}

			return in
		},
		transfer: func(n *cfg.Node, in Consts) Consts {
			out := maps.Clone(in)

			for _, x := range g.Block(n).Instrs {
				out.Update(x)
			}

			return out
		},
		equal: func(a, b Consts) bool { return maps.Equal(a, b) },
	})

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_consts") {
		for i, n := range g.Nodes {
			tr.Printw("constants", "func", g.Func.Name, "block", g.Block(n).Label, "in", r.In[i], "out", r.Out[i])
		}
	}

	return r
}
