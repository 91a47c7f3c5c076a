package df

import (
	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
)

type (
	// Result holds per-node state of a forward analysis.
	// In and Out are indexed like Graph.Nodes.
	Result[S any] struct {
		In  []S
		Out []S

		Iterations int
	}

	forwardProblem[S any] struct {
		empty    func() S
		meet     func(preds []S) S
		transfer func(n *cfg.Node, in S) S
		equal    func(a, b S) bool
	}
)

// forward runs naive sweeps over nodes in order until no Out changes.
// The entry node starts from empty whatever its predecessors are.
// Out of a node not yet computed is the lattice top and is skipped by meet.
// Nodes unreachable from the entry never contribute to a meet and end
// up with empty In and Out.
func forward[S any](g *cfg.Graph, p forwardProblem[S]) *Result[S] {
	r := &Result[S]{
		In:  make([]S, len(g.Nodes)),
		Out: make([]S, len(g.Nodes)),
	}

	live := reachable(g)
	done := make([]bool, len(g.Nodes))

	for changed := true; changed; {
		changed = false
		r.Iterations++

		for i, n := range g.Nodes {
			if !live[i] {
				continue
			}

			var in S

			if i == 0 {
				in = p.empty()
			} else {
				var preds []S

				for _, pi := range n.Preds {
					if done[pi] {
						preds = append(preds, r.Out[pi])
					}
				}

				if len(preds) == 0 {
					continue
				}

				in = p.meet(preds)
			}

			out := p.transfer(n, in)

			if !done[i] || !p.equal(out, r.Out[i]) {
				changed = true
			}

			done[i] = true
			r.In[i] = in
			r.Out[i] = out
		}
	}

	for i := range g.Nodes {
		if !done[i] {
			r.In[i] = p.empty()
			r.Out[i] = p.empty()
		}
	}

	return r
}

// reachable marks nodes reachable from the entry.
func reachable(g *cfg.Graph) []bool {
	live := make([]bool, len(g.Nodes))
	if len(g.Nodes) == 0 {
		return live
	}

	q := []int{0}
	live[0] = true

	for len(q) != 0 {
		n := g.Nodes[q[len(q)-1]]
		q = q[:len(q)-1]

		for _, s := range n.Succs {
			if !live[s] {
				live[s] = true
				q = append(q, s)
			}
		}
	}

	return live
}
