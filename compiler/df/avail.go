package df

import (
	"context"
	"maps"

	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Expr identifies a computation. Operands of commutative ops are
	// ordered so a+b and b+a are the same Expr.
	Expr struct {
		Op   ir.Op
		L, R ir.Operand
	}

	// Avail maps available expressions to the operand holding their value.
	Avail map[Expr]ir.Operand
)

// MakeExpr returns the Expr computed by x if x is a binary op with at least
// one variable or temporary operand.
func MakeExpr(x ir.Instr) (Expr, bool) {
	if !x.Op.IsBinary() || !x.Arg1.IsStorage() && !x.Arg2.IsStorage() {
		return Expr{}, false
	}

	e := Expr{Op: x.Op, L: x.Arg1, R: x.Arg2}

	if x.Op.IsCommutative() && less(e.R, e.L) {
		e.L, e.R = e.R, e.L
	}

	return e, true
}

func (e Expr) Mentions(o ir.Operand) bool {
	return e.L == o || e.R == o
}

func (e Expr) String() string {
	return e.L.String() + " " + e.Op.Symbol() + " " + e.R.String()
}

// Kill removes every expression mentioning o or held in o.
func (a Avail) Kill(o ir.Operand) {
	for e, h := range a {
		if h == o || e.Mentions(o) {
			delete(a, e)
		}
	}
}

// Update applies x to a: the written operand is killed, then the expression
// x computes becomes available unless x overwrote one of its own operands.
func (a Avail) Update(x ir.Instr) {
	d, ok := x.Def()
	if !ok {
		return
	}

	a.Kill(d)

	if e, ok := MakeExpr(x); ok && !e.Mentions(d) {
		a[e] = d
	}
}

// Available computes expressions available on entry to and exit from every node.
func Available(ctx context.Context, g *cfg.Graph) *Result[Avail] {
	r := forward(g, forwardProblem[Avail]{
		empty: func() Avail { return Avail{} },
		meet: func(preds []Avail) Avail {
			in := maps.Clone(preds[0])

			for _, p := range preds[1:] {
				for e, h := range in {
					if ph, ok := p[e]; !ok || ph != h {
						delete(in, e)
					}
				}
			}

			return in
		},
		transfer: func(n *cfg.Node, in Avail) Avail {
			out := maps.Clone(in)

			for _, x := range g.Block(n).Instrs {
				out.Update(x)
			}

			return out
		},
		equal: func(a, b Avail) bool { return maps.Equal(a, b) },
	})

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_avail") {
		for i, n := range g.Nodes {
			tr.Printw("available", "func", g.Func.Name, "block", g.Block(n).Label, "in", len(r.In[i]), "out", len(r.Out[i]))
		}
	}

	return r
}

func less(a, b ir.Operand) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}

	switch a.Kind {
	case ir.KindVar, ir.KindLabel:
		return a.Name < b.Name
	case ir.KindTemp:
		return a.ID < b.ID
	case ir.KindConst:
		return a.Value < b.Value
	}

	return false
}
