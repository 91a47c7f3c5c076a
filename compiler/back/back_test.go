package back

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/opt"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/parse"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/regalloc"
)

const program = `
func fact(n, acc) {
entry:
	c = n <= 1
	ifz c, rec
base:
	ret acc
rec:
	t1 = n - 1
	t2 = acc * n
	param t1
	param t2
	r = call fact, 2
	ret r
}

func cmp(a, b) {
entry:
	e = a == b
	d = a != b
	l = a < b
	g = a > b
	le = a <= b
	ge = a >= b
	q = a / b
	m = a % b
	x = !e
	s = e + d
	s = s + l
	s = s + g
	s = s + le
	s = s + ge
	s = s + q
	s = s + m
	s = s + x
	ifnz s, out
zero:
	ret 0
out:
	ret s
}

func main() {
entry:
	param 5
	param 1
	r = call fact, 2
	param r
	param 3
	v = call cmp, 2
	ret v
}
`

var mnemonics = map[string]bool{
	"li": true, "mv": true, "addi": true,
	"lw": true, "sw": true,
	"add": true, "sub": true, "mul": true, "div": true, "rem": true,
	"sgt": true, "xori": true,
	"j": true, "beqz": true, "call": true, "ret": true,
}

func compile(t *testing.T, alloc, text string, optimize bool) []string {
	t.Helper()

	m := parse.MustParse(text)

	if optimize {
		_, err := opt.Run(context.Background(), ir.NewSession(m), opt.Options{})
		require.NoError(t, err)
	}

	obj, err := New(alloc).CompilePackage(context.Background(), nil, m)
	require.NoError(t, err, "alloc %v", alloc)

	return asm.Lines(obj)
}

func TestAllAllocators(t *testing.T) {
	for _, alloc := range regalloc.Names {
		for _, optimize := range []bool{false, true} {
			lines := compile(t, alloc, program, optimize)

			require.NotEmpty(t, lines)
			assert.Equal(t, ".text", lines[0])
			assert.Equal(t, ".globl main", lines[1], "main goes first")
			assert.Equal(t, "main:", lines[2])

			rets := 0

			for _, l := range lines {
				if strings.HasPrefix(l, ".") || strings.HasSuffix(l, ":") {
					continue
				}

				mn, _, _ := strings.Cut(l, " ")

				if mn == "ret" {
					rets++
				}

				assert.True(t, mnemonics[mn], "alloc %v: unexpected instruction %q", alloc, l)
			}

			assert.Equal(t, 3, rets, "one shared epilogue per function")

			assert.Contains(t, lines, ".Lmain_ret:")
			assert.Contains(t, lines, ".Lfact_ret:")
			assert.Contains(t, lines, ".Lcmp_ret:")
			assert.Contains(t, lines, "call cmp")
		}
	}
}

func TestTailCallCodegen(t *testing.T) {
	for _, alloc := range regalloc.Names {
		lines := compile(t, alloc, program, true)

		fact := section(lines, "fact:", ".Lfact_ret:")
		require.NotEmpty(t, fact, alloc)

		calls, jumps := 0, 0

		for _, l := range fact {
			switch l {
			case "call fact":
				calls++
			case "j .Lfact.entry":
				jumps++
			}
		}

		assert.Zero(t, calls, alloc)
		assert.Equal(t, 1, jumps, alloc)

		assert.Contains(t, section(lines, "main:", ".Lmain_ret:"), "call fact", alloc)
	}
}

func section(lines []string, from, to string) []string {
	for i, l := range lines {
		if l != from {
			continue
		}

		for j := i; j < len(lines); j++ {
			if lines[j] == to {
				return lines[i:j]
			}
		}
	}

	return nil
}

func TestComparisons(t *testing.T) {
	lines := compile(t, "spill", `
func main() {
	a = 3
	b = 4
	e = a == b
	l = a < b
	ge = a >= b
	ret e
}
`, false)

	text := strings.Join(lines, "\n")

	assert.Contains(t, text, strings.Join([]string{
		"lw t0, -12(fp)",
		"lw t1, -16(fp)",
		"sgt t2, t0, t1",
		"sgt t0, t1, t0",
		"add t0, t0, t2",
		"xori t0, t0, 1",
		"sw t0, -20(fp)",
	}, "\n"))

	assert.Contains(t, text, strings.Join([]string{
		"lw t0, -12(fp)",
		"lw t1, -16(fp)",
		"sgt t0, t1, t0",
		"sw t0, -24(fp)",
	}, "\n"))

	assert.Contains(t, text, strings.Join([]string{
		"lw t0, -12(fp)",
		"lw t1, -16(fp)",
		"sgt t0, t1, t0",
		"xori t0, t0, 1",
		"sw t0, -28(fp)",
	}, "\n"))

	assert.Contains(t, text, strings.Join([]string{
		"lw a0, -20(fp)",
		"j .Lmain_ret",
	}, "\n"))
}

func TestBranches(t *testing.T) {
	lines := compile(t, "spill", `
func main() {
entry:
	c = 1
	ifnz c, yes
no:
	ifz c, yes
	ret 0
yes:
	ret 1
}
`, false)

	text := strings.Join(lines, "\n")

	assert.Contains(t, text, strings.Join([]string{
		"lw t0, -12(fp)",
		"beqz t0, .Lmain_skip1",
		"j .Lmain.yes",
		".Lmain_skip1:",
	}, "\n"))

	assert.Contains(t, text, strings.Join([]string{
		"lw t0, -12(fp)",
		"beqz t0, .Lmain.yes",
	}, "\n"))
}

func TestGreedySyncsAtCalls(t *testing.T) {
	lines := compile(t, "greedy", `
func main() {
	x = 7
	param x
	y = call id, 1
	z = x + y
	ret z
}

func id(p) {
	ret p
}
`, false)

	call := -1
	for i, l := range lines {
		if l == "call id" {
			call = i
			break
		}
	}

	require.NotEqual(t, -1, call)

	// x is cached in a temporary register, it must be in its slot before the call
	assert.Equal(t, "sw t3, -12(fp)", lines[call-1])
	assert.Equal(t, "mv t3, a0", lines[call+1])
}

func TestErrors(t *testing.T) {
	m := parse.MustParse("func f() {\n\tret\n}\n")

	_, err := New("linear").CompilePackage(context.Background(), nil, m)
	assert.True(t, errors.Is(err, ErrNoMain), "%v", err)

	m = parse.MustParse("func main() {\n\tparam 1\n\tparam 2\n\tparam 3\n\tparam 4\n\tparam 5\n\tparam 6\n\tparam 7\n\tparam 8\n\tparam 9\n\tcall g\n\tret\n}\n")

	_, err = New("spill").CompilePackage(context.Background(), nil, m)
	assert.True(t, errors.Is(err, ErrTooManyArgs), "%v", err)

	m = parse.MustParse("func main() {\n\tret\n}\n")

	_, err = New("nope").CompilePackage(context.Background(), nil, m)
	assert.True(t, errors.Is(err, regalloc.ErrUnknownAllocator), "%v", err)
}

func TestFrameLimit(t *testing.T) {
	gen := func(n int) *ir.Module {
		var b strings.Builder

		b.WriteString("func main() {\n\tx0 = 1\n")

		for i := 1; i < n; i++ {
			fmt.Fprintf(&b, "\tx%d = x%d + 1\n", i, i-1)
		}

		fmt.Fprintf(&b, "\tret x%d\n}\n", n-1)

		return parse.MustParse(b.String())
	}

	obj, err := New("spill").CompilePackage(context.Background(), nil, gen(500))
	require.NoError(t, err)
	assert.Contains(t, asm.Lines(obj), "addi sp, sp, -2016")

	_, err = New("spill").CompilePackage(context.Background(), nil, gen(600))
	assert.True(t, errors.Is(err, ErrFrameTooLarge), "%v", err)
}
