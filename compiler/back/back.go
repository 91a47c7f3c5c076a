package back

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm/riscv"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/regalloc"
)

type (
	Compiler struct {
		// NewAlloc returns a fresh allocator. One is used per function.
		NewAlloc func() (regalloc.Allocator, error)
	}

	funContext struct {
		*ir.Func

		a regalloc.Allocator

		nparam int
		nskip  int
	}
)

var (
	ErrNoMain      = errors.New("no main function")
	ErrTooManyArgs = errors.New("too many call arguments")
	ErrUnsupported = errors.New("unsupported instruction")

	ErrFrameTooLarge = errors.New("stack frame too large")
)

// New returns a compiler using the named allocation strategy.
func New(alloc string) *Compiler {
	return &Compiler{
		NewAlloc: func() (regalloc.Allocator, error) { return regalloc.New(alloc) },
	}
}

// CompilePackage appends assembly for every function of m to b, main first.
func (c *Compiler) CompilePackage(ctx context.Context, b []byte, m *ir.Module) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile module", "funcs", len(m.Funcs))
	defer tr.Finish("err", &err)

	main := m.Func("main")
	if main == nil {
		return nil, ErrNoMain
	}

	b = asm.Directive(b, ".text")

	b, err = c.compileFunc(ctx, b, main)
	if err != nil {
		return nil, errors.Wrap(err, "func %v", main.Name)
	}

	for _, f := range m.Funcs {
		if f == main {
			continue
		}

		b = append(b, '\n')

		b, err = c.compileFunc(ctx, b, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	if tr.If("omit_out") {
		b = nil
	}

	return b, nil
}

// compileFunc generates the body first, so the frame size is final
// when the prologue is emitted.
func (c *Compiler) compileFunc(ctx context.Context, b []byte, fn *ir.Func) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile func", "name", fn.Name, "params", len(fn.Params), "blocks", len(fn.Blocks))
	defer tr.Finish("err", &err)

	a, err := c.NewAlloc()
	if err != nil {
		return nil, errors.Wrap(err, "new allocator")
	}

	err = a.Prepare(ctx, fn)
	if err != nil {
		return nil, errors.Wrap(err, "prepare allocator")
	}

	f := &funContext{Func: fn, a: a}

	var body []byte

	for _, bl := range fn.Blocks {
		body = asm.Label(body, f.blockLabel(bl.Label))

		for _, x := range bl.Instrs {
			body, err = f.instr(body, x)
			if err != nil {
				return nil, errors.Wrap(err, "block %v: %v", bl.Label, x.Op)
			}
		}

		body = f.sync(body)
	}

	if size := a.StackSize(); size > riscv.MaxFrame {
		return nil, errors.Wrap(ErrFrameTooLarge, "%d > %d bytes", size, riscv.MaxFrame)
	}

	b = asm.Directive(b, ".globl", fn.Name)
	b = asm.Label(b, fn.Name)
	b = a.Prologue(b)
	b = append(b, body...)
	b = a.Epilogue(b)

	tr.Printw("func compiled", "stack", a.StackSize())

	return b, nil
}

func (f *funContext) instr(b []byte, x ir.Instr) (_ []byte, err error) {
	if x.Op.IsBinary() {
		return f.binary(b, x)
	}

	switch x.Op {
	case ir.Not:
		b, err = f.a.Load(b, x.Arg1, riscv.T0)
		if err != nil {
			return nil, err
		}

		b = riscv.Li(b, riscv.T1, 0)
		b = notEqual(b)
		b = asm.Op(b, "xori", riscv.T0, riscv.T0, 1)

		return f.a.Store(b, x.Result, riscv.T0)
	case ir.Assign:
		b, err = f.a.Load(b, x.Arg1, riscv.T0)
		if err != nil {
			return nil, err
		}

		return f.a.Store(b, x.Result, riscv.T0)
	case ir.ParamOp:
		if f.nparam == len(riscv.Args) {
			return nil, errors.Wrap(ErrTooManyArgs, "more than %d", len(riscv.Args))
		}

		b, err = f.a.Load(b, x.Arg1, riscv.Args[f.nparam])
		if err != nil {
			return nil, err
		}

		f.nparam++

		return b, nil
	case ir.Call:
		b = f.sync(b)
		b = riscv.Call(b, x.Arg1.Name)
		f.nparam = 0

		if x.Result.IsNone() {
			return b, nil
		}

		return f.a.Store(b, x.Result, riscv.A0)
	case ir.Ret:
		if !x.Arg1.IsNone() {
			b, err = f.a.Load(b, x.Arg1, riscv.A0)
			if err != nil {
				return nil, err
			}
		}

		b = f.sync(b)

		return riscv.Jump(b, f.a.EpilogueLabel()), nil
	case ir.Jump:
		b = f.sync(b)

		return riscv.Jump(b, f.blockLabel(x.Arg1.Name)), nil
	case ir.JumpIfZero, ir.JumpIfNZero:
		b, err = f.a.Load(b, x.Arg1, riscv.T0)
		if err != nil {
			return nil, err
		}

		b = f.sync(b)

		target := f.blockLabel(x.Arg2.Name)

		if x.Op == ir.JumpIfZero {
			return riscv.Beqz(b, riscv.T0, target), nil
		}

		skip := f.skipLabel()

		b = riscv.Beqz(b, riscv.T0, skip)
		b = riscv.Jump(b, target)
		b = asm.Label(b, skip)

		return b, nil
	case ir.LabelOp:
		b = f.sync(b)

		return asm.Label(b, f.blockLabel(x.Arg1.Name)), nil
	}

	return nil, errors.Wrap(ErrUnsupported, "%v", x.Op)
}

// binary computes Arg1 op Arg2 in t0 using t1 and t2 as scratch.
// The target has only sgt for comparisons; the rest are derived from it.
func (f *funContext) binary(b []byte, x ir.Instr) (_ []byte, err error) {
	b, err = f.a.Load(b, x.Arg1, riscv.T0)
	if err != nil {
		return nil, err
	}

	b, err = f.a.Load(b, x.Arg2, riscv.T1)
	if err != nil {
		return nil, err
	}

	t0, t1 := riscv.T0, riscv.T1

	switch x.Op {
	case ir.Add:
		b = asm.Op(b, "add", t0, t0, t1)
	case ir.Sub:
		b = asm.Op(b, "sub", t0, t0, t1)
	case ir.Mul:
		b = asm.Op(b, "mul", t0, t0, t1)
	case ir.Div:
		b = asm.Op(b, "div", t0, t0, t1)
	case ir.Mod:
		b = asm.Op(b, "rem", t0, t0, t1)
	case ir.Gt:
		b = asm.Op(b, "sgt", t0, t0, t1)
	case ir.Lt:
		b = asm.Op(b, "sgt", t0, t1, t0)
	case ir.Le:
		b = asm.Op(b, "sgt", t0, t0, t1)
		b = asm.Op(b, "xori", t0, t0, 1)
	case ir.Ge:
		b = asm.Op(b, "sgt", t0, t1, t0)
		b = asm.Op(b, "xori", t0, t0, 1)
	case ir.Neq:
		b = notEqual(b)
	case ir.Eq:
		b = notEqual(b)
		b = asm.Op(b, "xori", t0, t0, 1)
	default:
		return nil, errors.Wrap(ErrUnsupported, "%v", x.Op)
	}

	return f.a.Store(b, x.Result, riscv.T0)
}

// notEqual sets t0 to t0 != t1: exactly one of the two strict
// comparisons holds when they differ.
func notEqual(b []byte) []byte {
	b = asm.Op(b, "sgt", riscv.T2, riscv.T0, riscv.T1)
	b = asm.Op(b, "sgt", riscv.T0, riscv.T1, riscv.T0)
	b = asm.Op(b, "add", riscv.T0, riscv.T0, riscv.T2)

	return b
}

func (f *funContext) sync(b []byte) []byte {
	if s, ok := f.a.(regalloc.Syncer); ok {
		return s.Sync(b)
	}

	return b
}

func (f *funContext) blockLabel(l string) string {
	return ".L" + f.Name + "." + l
}

func (f *funContext) skipLabel() string {
	f.nskip++

	return fmt.Sprintf(".L%s_skip%d", f.Name, f.nskip)
}
