package regalloc

import (
	"context"
	"sort"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/df"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/set"
)

type (
	// Interval is the closed range of positions in the function's linear
	// instruction stream where Op may hold a value still to be read.
	Interval struct {
		Op         ir.Operand
		Start, End int

		seq int
	}
)

// Intervals computes one interval per variable and temporary of f,
// ordered by Start, ties in the order the backward replay first met them.
// Blocks are laid out in order, an empty block takes one position.
// Parameters start at position 0, where the prologue writes them.
func Intervals(ctx context.Context, f *ir.Func) []Interval {
	g := cfg.Build(ctx, f)
	df.Liveness(ctx, g)

	byOp := map[ir.Operand]*Interval{}
	var order []ir.Operand

	extend := func(o ir.Operand, pos int) {
		iv, ok := byOp[o]
		if !ok {
			byOp[o] = &Interval{Op: o, Start: pos, End: pos}
			order = append(order, o)

			return
		}

		iv.Start = min(iv.Start, pos)
		iv.End = max(iv.End, pos)
	}

	for _, p := range f.Params {
		extend(ir.Var(p.Name), 0)
	}

	base := 0

	for _, n := range g.Nodes {
		code := g.Block(n).Instrs
		end := base + max(len(code), 1) - 1

		live := n.LiveOut.Copy()

		eachVar(g, live, func(o ir.Operand) { extend(o, end) })

		for i := len(code) - 1; i >= 0; i-- {
			x := code[i]
			pos := base + i

			if d, ok := x.Def(); ok {
				extend(d, pos)
				live.Clear(g.Vars.ID(d))
			}

			for _, u := range x.Uses() {
				if u.IsStorage() {
					extend(u, pos)
					live.Set(g.Vars.ID(u))
				}
			}
		}

		eachVar(g, live, func(o ir.Operand) { extend(o, base) })

		base = end + 1
	}

	r := make([]Interval, 0, len(order))

	for i, o := range order {
		iv := *byOp[o]
		iv.seq = i
		r = append(r, iv)
	}

	sort.SliceStable(r, func(i, j int) bool { return r[i].Start < r[j].Start })

	return r
}

func eachVar(g *cfg.Graph, s set.Bits, f func(o ir.Operand)) {
	s.Range(func(id int) bool {
		f(g.Vars.Key(id))
		return true
	})
}

func (iv Interval) Overlaps(x Interval) bool {
	return iv.Start <= x.End && x.Start <= iv.End
}
