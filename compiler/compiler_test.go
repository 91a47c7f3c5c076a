package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/back"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/format"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/parse"
)

func TestCompile(t *testing.T) {
	ctx := context.Background()

	obj, err := Compile(ctx, "main.ir", []byte(`
func main() {
	x = 2 + 3
	y = x * 1
	ret y
}
`), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{
		".text",
		".globl main",
		"main:",
		"addi sp, sp, -16",
		"sw ra, 12(sp)",
		"sw fp, 8(sp)",
		"addi fp, sp, 16",
		"sw s1, -12(fp)",
		".Lmain.entry:",
		"li t0, 5",
		"mv s1, t0",
		"mv a0, s1",
		"j .Lmain_ret",
		".Lmain_ret:",
		"lw s1, -12(fp)",
		"lw ra, 12(sp)",
		"lw fp, 8(sp)",
		"addi sp, sp, 16",
		"ret",
	}, asm.Lines(obj))
}

func TestOptimize(t *testing.T) {
	m := parse.MustParse(`
func main() {
entry:
	x = 4
	ifz x, a
b:
	y = x + 1
	ret y
a:
	ret 0
}
`)

	cfg := DefaultConfig()
	cfg.Global = true

	st, err := Optimize(context.Background(), m, cfg)
	require.NoError(t, err)

	assert.Greater(t, st.Iterations, 1)
	assert.Contains(t, format.String(m), "ret 5")
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "bad.ir", []byte("func main() {\n\tx = = 1\n}\n"), DefaultConfig())

	var se parse.SyntaxError
	require.True(t, errors.As(err, &se), "%v", err)
	assert.Equal(t, "bad.ir", se.File)
	assert.Equal(t, 2, se.Line)

	_, err = Compile(ctx, "lib.ir", []byte("func f() {\n\tret\n}\n"), DefaultConfig())
	assert.True(t, errors.Is(err, back.ErrNoMain), "%v", err)
}
