package regalloc

import (
	"context"

	"tlog.app/go/errors"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm/riscv"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Allocator places IR operands in registers or stack slots for one function
	// at a time. Prepare resets all state; the other methods are valid until
	// the next Prepare. Text is appended to b and the extended slice returned.
	Allocator interface {
		Prepare(ctx context.Context, f *ir.Func) error

		Prologue(b []byte) []byte
		Epilogue(b []byte) []byte
		EpilogueLabel() string

		Load(b []byte, o ir.Operand, dst riscv.Reg) ([]byte, error)
		Store(b []byte, o ir.Operand, src riscv.Reg) ([]byte, error)

		// StackSize is the frame size, a multiple of riscv.StackAlign.
		StackSize() int
	}

	// Syncer is implemented by allocators which keep values in registers
	// between instructions. Sync writes modified values back to their stack
	// slots and forgets all register contents. The code generator calls it
	// wherever control may leave straight-line code.
	Syncer interface {
		Sync(b []byte) []byte
	}

	// Mapper exposes the operand to register mapping in effect.
	Mapper interface {
		RegMap() map[ir.Operand]riscv.Reg
	}
)

var (
	ErrUnknownOperand   = errors.New("operand is not allocated")
	ErrTooManyParams    = errors.New("too many parameters")
	ErrUnknownAllocator = errors.New("unknown allocator")
)

var Names = []string{"spill", "greedy", "linear", "smart"}

// New returns a fresh allocator by strategy name.
func New(name string) (Allocator, error) {
	switch name {
	case "spill":
		return NewSpill(), nil
	case "greedy":
		return NewGreedy(riscv.Cache...), nil
	case "linear":
		return NewLinear(riscv.CalleeSaved...), nil
	case "smart":
		return NewSmart(riscv.CalleeSaved...), nil
	}

	return nil, errors.Wrap(ErrUnknownAllocator, "%q", name)
}

// operands lists variables and temporaries of f in order of first
// appearance, parameters first.
func operands(f *ir.Func) []ir.Operand {
	var l []ir.Operand
	seen := map[ir.Operand]bool{}

	add := func(o ir.Operand) {
		if !o.IsStorage() || seen[o] {
			return
		}

		seen[o] = true
		l = append(l, o)
	}

	for _, p := range f.Params {
		add(ir.Var(p.Name))
	}

	for _, b := range f.Blocks {
		for _, x := range b.Instrs {
			for _, u := range x.Uses() {
				add(u)
			}

			if d, ok := x.Def(); ok {
				add(d)
			}
		}
	}

	return l
}
