package df

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/set"
)

// Liveness fills Def, Use, LiveIn and LiveOut of every node of g
// and returns the number of sweeps it took to converge.
func Liveness(ctx context.Context, g *cfg.Graph) (iters int) {
	for _, n := range g.Nodes {
		n.Def, n.Use = set.Bits{}, set.Bits{}
		n.LiveIn, n.LiveOut = set.Bits{}, set.Bits{}

		for _, x := range g.Block(n).Instrs {
			for _, u := range x.Uses() {
				if !u.IsStorage() {
					continue
				}

				id := g.Vars.ID(u)

				if !n.Def.IsSet(id) {
					n.Use.Set(id)
				}
			}

			if d, ok := x.Def(); ok {
				n.Def.Set(g.Vars.ID(d))
			}
		}
	}

	for changed := true; changed; {
		changed = false
		iters++

		for i := len(g.Nodes) - 1; i >= 0; i-- {
			n := g.Nodes[i]

			for _, s := range n.Succs {
				n.LiveOut.Or(g.Nodes[s].LiveIn)
			}

			in := n.LiveOut.Copy()
			in.AndNot(n.Def)
			in.Or(n.Use)

			if n.LiveIn.Or(in) {
				changed = true
			}
		}
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_liveness") {
		for _, n := range g.Nodes {
			tr.Printw("liveness", "func", g.Func.Name, "block", g.Block(n).Label,
				"use", g.Vars.Keys(n.Use), "def", g.Vars.Keys(n.Def),
				"in", g.Vars.Keys(n.LiveIn), "out", g.Vars.Keys(n.LiveOut))
		}
	}

	return iters
}

// LiveAfter returns the set live right after each instruction of n.
// Liveness must have been run on g.
func LiveAfter(g *cfg.Graph, n *cfg.Node) []set.Bits {
	code := g.Block(n).Instrs
	r := make([]set.Bits, len(code))

	live := n.LiveOut.Copy()

	for i := len(code) - 1; i >= 0; i-- {
		r[i] = live.Copy()

		step(g, &live, code[i])
	}

	return r
}

// step moves live from after x to before x.
func step(g *cfg.Graph, live *set.Bits, x ir.Instr) {
	if d, ok := x.Def(); ok {
		live.Clear(g.Vars.ID(d))
	}

	for _, u := range x.Uses() {
		if u.IsStorage() {
			live.Set(g.Vars.ID(u))
		}
	}
}
