package df

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/cfg"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/parse"
)

const loop = `
func f(n) {
entry:
	i = 0
	s = 0
loop:
	c = i < n
	ifz c, done
body:
	s = s + i
	i = i + 1
	jump loop
done:
	ret s
}
`

func build(t *testing.T, text string) *cfg.Graph {
	t.Helper()

	m := parse.MustParse(text)
	require.Len(t, m.Funcs, 1)

	return cfg.Build(context.Background(), m.Funcs[0])
}

func keys(g *cfg.Graph, n *cfg.Node, in bool) []string {
	s := n.LiveOut
	if in {
		s = n.LiveIn
	}

	r := []string{}

	for _, o := range g.Vars.Keys(s) {
		r = append(r, o.Key())
	}

	return r
}

func TestLiveness(t *testing.T) {
	g := build(t, loop)

	iters := Liveness(context.Background(), g)
	assert.Greater(t, iters, 0)

	node := func(l string) *cfg.Node {
		n, ok := g.Node(l)
		require.True(t, ok)
		return n
	}

	assert.ElementsMatch(t, []string{"n"}, keys(g, node("entry"), true))
	assert.ElementsMatch(t, []string{"i", "s", "n"}, keys(g, node("loop"), true))
	assert.ElementsMatch(t, []string{"i", "s", "n"}, keys(g, node("body"), false))
	assert.ElementsMatch(t, []string{"s"}, keys(g, node("done"), true))
	assert.Empty(t, keys(g, node("done"), false))

	for _, n := range g.Nodes {
		assert.True(t, n.LiveIn.Contains(n.Use), "block %v: live in must contain use", g.Block(n).Label)

		for _, s := range n.Succs {
			assert.True(t, n.LiveOut.Contains(g.Nodes[s].LiveIn), "block %v", g.Block(n).Label)
		}
	}
}

func TestLiveAfter(t *testing.T) {
	g := build(t, loop)
	Liveness(context.Background(), g)

	body, _ := g.Node("body")
	after := LiveAfter(g, body)
	require.Len(t, after, 3)

	id := func(o ir.Operand) int {
		id, ok := g.Vars.Lookup(o)
		require.True(t, ok)
		return id
	}

	assert.True(t, after[0].IsSet(id(ir.Var("s"))))
	assert.True(t, after[0].IsSet(id(ir.Var("i"))))
	assert.True(t, after[2].Equal(body.LiveOut))
}

func TestAvailable(t *testing.T) {
	g := build(t, `
func f(a, b, c) {
entry:
	x = a + b
	ifz c, other
then:
	y = b + a
	jump join
other:
	z = a * b
	a = 7
join:
	ret x
}
`)

	r := Available(context.Background(), g)

	then, _ := g.Node("then")
	other, _ := g.Node("other")
	join, _ := g.Node("join")

	sum := Expr{Op: ir.Add, L: ir.Var("a"), R: ir.Var("b")}

	e, ok := MakeExpr(ir.Instr{Op: ir.Add, Result: ir.Var("y"), Arg1: ir.Var("b"), Arg2: ir.Var("a")})
	require.True(t, ok)
	assert.Equal(t, sum, e, "commutative operands are ordered")

	e, ok = MakeExpr(ir.Instr{Op: ir.Sub, Result: ir.Var("y"), Arg1: ir.Var("b"), Arg2: ir.Var("a")})
	require.True(t, ok)
	assert.NotEqual(t, Expr{Op: ir.Sub, L: ir.Var("a"), R: ir.Var("b")}, e)

	_, ok = MakeExpr(ir.Instr{Op: ir.Add, Result: ir.Var("y"), Arg1: ir.Const(1), Arg2: ir.Const(2)})
	assert.False(t, ok)

	assert.Equal(t, ir.Var("x"), r.In[then.Block][sum])
	assert.Equal(t, ir.Var("x"), r.In[other.Block][sum])

	assert.NotContains(t, r.Out[other.Block], sum, "a is reassigned")
	assert.NotContains(t, r.In[join.Block], sum, "killed on one path")
}

func TestAvailSelfKill(t *testing.T) {
	a := Avail{}

	a.Update(ir.Instr{Op: ir.Add, Result: ir.Var("x"), Arg1: ir.Var("x"), Arg2: ir.Const(1)})
	assert.Empty(t, a)

	a.Update(ir.Instr{Op: ir.Add, Result: ir.Var("y"), Arg1: ir.Var("x"), Arg2: ir.Const(1)})
	assert.Len(t, a, 1)

	a.Update(ir.Instr{Op: ir.Assign, Result: ir.Var("y"), Arg1: ir.Const(0)})
	assert.Empty(t, a, "holder overwritten")
}

func TestConstants(t *testing.T) {
	g := build(t, `
func f(c) {
entry:
	x = 2
	y = 5
	q = 1 / 0
	ifz c, other
then:
	y = 5
	z = 3
	jump join
other:
	z = 4
join:
	w = x + y
	ret w
}
`)

	r := Constants(context.Background(), g)

	join, _ := g.Node("join")
	in := r.In[join.Block]

	assert.Equal(t, int64(2), in[ir.Var("x")])
	assert.Equal(t, int64(5), in[ir.Var("y")])
	assert.NotContains(t, in, ir.Var("z"), "predecessors disagree")
	assert.NotContains(t, in, ir.Var("q"), "division by zero is not evaluated")
	assert.NotContains(t, in, ir.Var("c"))

	v, ok := r.Out[join.Block].Value(ir.Var("w"))
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)
}

func TestConstantsLoop(t *testing.T) {
	g := build(t, loop)

	r := Constants(context.Background(), g)

	l, _ := g.Node("loop")

	assert.NotContains(t, r.In[l.Block], ir.Var("i"), "changed in the loop body")
	assert.NotContains(t, r.In[l.Block], ir.Var("s"))
}

func TestUnreachable(t *testing.T) {
	g := build(t, `
func f() {
entry:
	x = 1
	ret x
dead:
	y = x + 1
	jump dead
}
`)

	r := Constants(context.Background(), g)

	dead, _ := g.Node("dead")
	assert.Empty(t, r.In[dead.Block])
	assert.Empty(t, r.Out[dead.Block])
}

func TestEntryWithBackEdge(t *testing.T) {
	g := build(t, `
func f(n, acc) {
entry:
	c = n <= 1
	ifz c, rec
base:
	jump end
rec:
	n = n - 1
	jump entry
dead:
	acc = 5
	x = 1
	jump end
end:
	ret acc
}
`)

	r := Constants(context.Background(), g)

	entry, _ := g.Node("entry")
	end, _ := g.Node("end")
	dead, _ := g.Node("dead")

	assert.Empty(t, r.In[entry.Block])
	assert.NotContains(t, r.In[end.Block], ir.Var("acc"), "unreachable block must not feed the merge")
	assert.NotContains(t, r.In[end.Block], ir.Var("x"))
	assert.Empty(t, r.Out[dead.Block])

	a := Available(context.Background(), g)
	assert.Empty(t, a.In[entry.Block])
}
