package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	for _, tc := range []struct {
		op   Op
		a, b int64
		r    int64
		ok   bool
	}{
		{Add, 2, 3, 5, true},
		{Sub, 2, 3, -1, true},
		{Mul, -4, 3, -12, true},
		{Div, 7, 2, 3, true},
		{Div, -7, 2, -3, true},
		{Div, 7, 0, 0, false},
		{Mod, 7, 3, 1, true},
		{Mod, -7, 3, -1, true},
		{Mod, 7, 0, 0, false},
		{Eq, 3, 3, 1, true},
		{Neq, 3, 3, 0, true},
		{Lt, 2, 3, 1, true},
		{Gt, 2, 3, 0, true},
		{Le, 3, 3, 1, true},
		{Ge, 2, 3, 0, true},
		{Not, 0, 0, 1, true},
		{Not, 5, 0, 0, true},
		{Assign, 1, 1, 0, false},

		{Add, math.MaxInt32, 1, math.MinInt32, true},
		{Sub, math.MinInt32, 1, math.MaxInt32, true},
		{Mul, 65536, 65536, 0, true},
		{Mul, 65536, 32768, math.MinInt32, true},
		{Div, math.MinInt32, -1, math.MinInt32, true},
		{Mod, math.MinInt32, -1, 0, true},
		{Gt, 1 << 32, 0, 0, true},
	} {
		r, ok := Eval(tc.op, tc.a, tc.b)
		assert.Equal(t, tc.ok, ok, "%v %d %d", tc.op, tc.a, tc.b)

		if tc.ok {
			assert.Equal(t, tc.r, r, "%v %d %d", tc.op, tc.a, tc.b)
		}
	}
}

func TestOperandEquality(t *testing.T) {
	assert.Equal(t, Var("x"), Var("x"))
	assert.NotEqual(t, Var("x"), Var("y"))
	assert.NotEqual(t, Var("t1"), Temp(1))
	assert.NotEqual(t, Const(1), Temp(1))
	assert.NotEqual(t, Label("x"), Var("x"))

	assert.True(t, None.IsNone())
	assert.True(t, Var("x").IsStorage())
	assert.True(t, Temp(3).IsStorage())
	assert.False(t, Const(3).IsStorage())
	assert.False(t, Label("l").IsStorage())

	assert.Equal(t, "t3", Temp(3).String())
	assert.Equal(t, "-5", Const(-5).String())
	assert.Equal(t, "_", None.String())

	assert.Equal(t, Const(math.MinInt32), Const(math.MaxInt32+1))
	assert.Equal(t, Const(0), Const(1<<32))
}

func TestInstrUsesDef(t *testing.T) {
	add := Instr{Op: Add, Result: Temp(0), Arg1: Var("a"), Arg2: Const(1)}
	assert.Equal(t, []Operand{Var("a"), Const(1)}, add.Uses())

	d, ok := add.Def()
	assert.True(t, ok)
	assert.Equal(t, Temp(0), d)

	call := Instr{Op: Call, Result: Var("r"), Arg1: Label("f"), Arg2: Const(0)}
	assert.Empty(t, call.Uses())

	d, ok = call.Def()
	assert.True(t, ok)
	assert.Equal(t, Var("r"), d)

	_, ok = Instr{Op: Call, Arg1: Label("f"), Arg2: Const(0)}.Def()
	assert.False(t, ok)

	jz := Instr{Op: JumpIfZero, Arg1: Var("c"), Arg2: Label("L")}
	assert.Equal(t, []Operand{Var("c")}, jz.Uses())

	l, ok := jz.Target()
	assert.True(t, ok)
	assert.Equal(t, "L", l)

	_, ok = Instr{Op: Ret}.Def()
	assert.False(t, ok)
}

func TestReadsInto(t *testing.T) {
	x := Instr{Op: Add, Result: Var("a"), Arg1: Var("a"), Arg2: Const(2)}

	x.ReadsInto(func(o Operand) Operand { return Var("b") })

	assert.Equal(t, Instr{Op: Add, Result: Var("a"), Arg1: Var("b"), Arg2: Const(2)}, x)
}

func TestOpSymbols(t *testing.T) {
	for op := Add; op <= Ge; op++ {
		s := op.Symbol()
		require.NotEmpty(t, s, "%v", op)

		back, ok := OpBySymbol(s)
		require.True(t, ok, "%v", s)
		assert.Equal(t, op, back)
	}

	_, ok := OpBySymbol("&&")
	assert.False(t, ok)
}

func TestSessionTemps(t *testing.T) {
	m := &Module{Funcs: []*Func{
		{Name: "a", Blocks: []*Block{{Label: "entry", Instrs: []Instr{
			{Op: Assign, Result: Temp(4), Arg1: Const(1)},
			{Op: Ret, Arg1: Temp(4)},
		}}}},
		{Name: "b", Blocks: []*Block{{Label: "entry", Instrs: []Instr{
			{Op: Add, Result: Var("x"), Arg1: Temp(9), Arg2: Const(1)},
			{Op: Ret},
		}}}},
	}}

	s := NewSession(m)

	assert.Equal(t, Temp(10), s.NewTemp())
	assert.Equal(t, Temp(11), s.NewTemp())
}
