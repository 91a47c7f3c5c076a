package cfg

import (
	"context"
	"fmt"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/set"
)

type (
	// Node is one basic block in the graph. Block, Preds and Succs are
	// indexes into Func.Blocks and Graph.Nodes, which are parallel.
	Node struct {
		Block int

		Preds []int
		Succs []int

		// Filled by df.Liveness. Bits are ids in Graph.Vars.
		Def     set.Bits
		Use     set.Bits
		LiveIn  set.Bits
		LiveOut set.Bits
	}

	Graph struct {
		Func  *ir.Func
		Nodes []*Node

		// Vars interns operand identities for the sets in Node.
		Vars *set.Index[ir.Operand]

		Anomalies []Anomaly

		byLabel map[string]int
	}

	// Anomaly is a construction problem which is reported but not fatal.
	Anomaly struct {
		Block string
		Msg   string
	}
)

// Build makes a graph for f. Blocks of f must not be added or removed
// while the graph is in use; instructions may change, but the graph
// then describes the old control flow and must be rebuilt.
func Build(ctx context.Context, f *ir.Func) *Graph {
	g := &Graph{
		Func:    f,
		Nodes:   make([]*Node, len(f.Blocks)),
		Vars:    set.NewIndex[ir.Operand](),
		byLabel: make(map[string]int, len(f.Blocks)),
	}

	for i, b := range f.Blocks {
		g.Nodes[i] = &Node{Block: i}

		if _, dup := g.byLabel[b.Label]; dup {
			g.report(ctx, b.Label, "duplicate block label")
			continue
		}

		g.byLabel[b.Label] = i
	}

	for i, b := range f.Blocks {
		last, ok := b.Last()

		switch {
		case ok && last.Op == ir.Ret:
		case ok && last.Op == ir.Jump:
			g.jump(ctx, i, last)
		case ok && last.Op.IsCondJump():
			g.jump(ctx, i, last)
			g.fallthru(ctx, i)
		default:
			g.report(ctx, b.Label, "block has no terminator")
			g.fallthru(ctx, i)
		}
	}

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_cfg") {
		for _, n := range g.Nodes {
			tr.Printw("cfg node", "func", f.Name, "block", g.Block(n).Label, "preds", n.Preds, "succs", n.Succs)
		}
	}

	return g
}

func (g *Graph) jump(ctx context.Context, from int, x ir.Instr) {
	l, _ := x.Target()

	to, ok := g.byLabel[l]
	if !ok {
		g.report(ctx, g.Func.Blocks[from].Label, fmt.Sprintf("jump to unknown label %q", l))
		return
	}

	g.addEdge(from, to)
}

func (g *Graph) fallthru(ctx context.Context, from int) {
	if from+1 == len(g.Nodes) {
		g.report(ctx, g.Func.Blocks[from].Label, "falls off the end of function")
		return
	}

	g.addEdge(from, from+1)
}

// addEdge links both directions at once, ignoring duplicates.
func (g *Graph) addEdge(from, to int) {
	for _, s := range g.Nodes[from].Succs {
		if s == to {
			return
		}
	}

	g.Nodes[from].Succs = append(g.Nodes[from].Succs, to)
	g.Nodes[to].Preds = append(g.Nodes[to].Preds, from)
}

func (g *Graph) report(ctx context.Context, block, msg string) {
	g.Anomalies = append(g.Anomalies, Anomaly{Block: block, Msg: msg})

	tlog.SpanFromContext(ctx).V("cfg").Printw("cfg anomaly", "func", g.Func.Name, "block", block, "msg", msg, "from", loc.Caller(1))
}

func (g *Graph) Block(n *Node) *ir.Block {
	return g.Func.Blocks[n.Block]
}

func (g *Graph) Node(label string) (*Node, bool) {
	i, ok := g.byLabel[label]
	if !ok {
		return nil, false
	}

	return g.Nodes[i], true
}

func (g *Graph) Entry() *Node {
	if len(g.Nodes) == 0 {
		return nil
	}

	return g.Nodes[0]
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("block %v: %v", a.Block, a.Msg)
}
