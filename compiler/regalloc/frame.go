package regalloc

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm/riscv"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// frame is the stack frame of one function. Offsets are relative to fp,
	// which points at the top of the frame:
	//
	//	-4	saved ra
	//	-8	saved caller fp
	//	-12...	saved callee-saved registers
	//	...	stack slots
	frame struct {
		fn *ir.Func

		known map[ir.Operand]bool

		saved []riscv.Reg
		slots map[ir.Operand]int
		nslot int
	}

	// static is an allocator whose decisions are all made in Prepare.
	// Every operand is either in regs or has a slot for the whole function.
	static struct {
		frame

		regs map[ir.Operand]riscv.Reg
	}
)

const fixedWords = 2 // ra and fp

func (f *frame) reset(fn *ir.Func) error {
	if len(fn.Params) > len(riscv.Args) {
		return errors.Wrap(ErrTooManyParams, "func %v: %d > %d", fn.Name, len(fn.Params), len(riscv.Args))
	}

	f.fn = fn
	f.known = map[ir.Operand]bool{}
	f.saved = nil
	f.slots = map[ir.Operand]int{}
	f.nslot = 0

	for _, o := range operands(fn) {
		f.known[o] = true
	}

	return nil
}

// slot returns the fp offset of o, assigning a new slot on first use.
// Callee-saved registers must be chosen before the first slot is assigned.
func (f *frame) slot(o ir.Operand) int {
	if off, ok := f.slots[o]; ok {
		return off
	}

	f.nslot++
	off := -riscv.WordSize * (fixedWords + len(f.saved) + f.nslot)
	f.slots[o] = off

	return off
}

func (f *frame) StackSize() int {
	return riscv.AlignStack(riscv.WordSize * (fixedWords + len(f.saved) + f.nslot))
}

func (f *frame) EpilogueLabel() string {
	return ".L" + f.fn.Name + "_ret"
}

func (f *frame) savedOffset(i int) int {
	return -riscv.WordSize * (fixedWords + 1 + i)
}

// prologue allocates the frame, saves ra, fp and callee-saved registers,
// and moves parameters from argument registers to their homes.
func (f *frame) prologue(b []byte, home func(o ir.Operand) (riscv.Reg, bool)) []byte {
	size := f.StackSize()

	b = riscv.Addi(b, riscv.SP, riscv.SP, -size)
	b = riscv.Sw(b, riscv.RA, size-4, riscv.SP)
	b = riscv.Sw(b, riscv.FP, size-8, riscv.SP)
	b = riscv.Addi(b, riscv.FP, riscv.SP, size)

	for i, r := range f.saved {
		b = riscv.Sw(b, r, f.savedOffset(i), riscv.FP)
	}

	for i, p := range f.fn.Params {
		o := ir.Var(p.Name)

		if r, ok := home(o); ok {
			b = riscv.Mv(b, r, riscv.Args[i])
			continue
		}

		if off, ok := f.slots[o]; ok {
			b = riscv.Sw(b, riscv.Args[i], off, riscv.FP)
		}
	}

	return b
}

func (f *frame) Epilogue(b []byte) []byte {
	size := f.StackSize()

	b = append(b, f.EpilogueLabel()...)
	b = append(b, ":\n"...)

	for i, r := range f.saved {
		b = riscv.Lw(b, r, f.savedOffset(i), riscv.FP)
	}

	b = riscv.Lw(b, riscv.RA, size-4, riscv.SP)
	b = riscv.Lw(b, riscv.FP, size-8, riscv.SP)
	b = riscv.Addi(b, riscv.SP, riscv.SP, size)
	b = riscv.Ret(b)

	return b
}

func (f *frame) unknown(o ir.Operand) error {
	tlog.Printw("operand not allocated", "func", f.fn.Name, "operand", o, "from", loc.Caller(1))

	return errors.Wrap(ErrUnknownOperand, "func %v: %v", f.fn.Name, o.String())
}

func (s *static) reset(fn *ir.Func) error {
	s.regs = map[ir.Operand]riscv.Reg{}

	return s.frame.reset(fn)
}

// useRegs records which callee-saved registers the mapping occupies, in pool order.
func (s *static) useRegs(pool []riscv.Reg) {
	used := map[riscv.Reg]bool{}

	for _, r := range s.regs {
		used[r] = true
	}

	for _, r := range pool {
		if used[r] {
			s.saved = append(s.saved, r)
		}
	}
}

// spillRest gives a slot to every known operand without a register.
func (s *static) spillRest() {
	for _, o := range operands(s.fn) {
		if _, ok := s.regs[o]; !ok {
			s.slot(o)
		}
	}
}

func (s *static) Prologue(b []byte) []byte {
	return s.prologue(b, func(o ir.Operand) (riscv.Reg, bool) {
		r, ok := s.regs[o]
		return r, ok
	})
}

func (s *static) Load(b []byte, o ir.Operand, dst riscv.Reg) ([]byte, error) {
	if o.IsConst() {
		return riscv.Li(b, dst, o.Value), nil
	}

	if r, ok := s.regs[o]; ok {
		if r != dst {
			b = riscv.Mv(b, dst, r)
		}

		return b, nil
	}

	if off, ok := s.slots[o]; ok {
		return riscv.Lw(b, dst, off, riscv.FP), nil
	}

	return b, s.unknown(o)
}

func (s *static) Store(b []byte, o ir.Operand, src riscv.Reg) ([]byte, error) {
	if r, ok := s.regs[o]; ok {
		if r != src {
			b = riscv.Mv(b, r, src)
		}

		return b, nil
	}

	if off, ok := s.slots[o]; ok {
		return riscv.Sw(b, src, off, riscv.FP), nil
	}

	return b, s.unknown(o)
}

func (s *static) RegMap() map[ir.Operand]riscv.Reg {
	m := make(map[ir.Operand]riscv.Reg, len(s.regs))

	for o, r := range s.regs {
		m[o] = r
	}

	return m
}

func (s *static) dump(ctx context.Context, name string) {
	tr := tlog.SpanFromContext(ctx)
	if !tr.If("dump_alloc") {
		return
	}

	for _, o := range operands(s.fn) {
		if r, ok := s.regs[o]; ok {
			tr.Printw("allocated", "alloc", name, "func", s.fn.Name, "operand", o, "reg", r)
		} else {
			tr.Printw("allocated", "alloc", name, "func", s.fn.Name, "operand", o, "slot", s.slots[o])
		}
	}
}
