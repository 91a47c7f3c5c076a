package regalloc

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm/riscv"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Greedy caches values in a small pool of registers while code is
	// generated. On a miss the next register in round-robin order is taken
	// and its previous owner written back to its stack slot if modified.
	// Every operand has a stack slot, assigned when first needed.
	Greedy struct {
		frame

		pool  []riscv.Reg
		owner []ir.Operand // by pool index, None if free
		dirty []bool
		where map[ir.Operand]int

		next int
	}
)

func NewGreedy(pool ...riscv.Reg) *Greedy {
	return &Greedy{pool: pool}
}

func (a *Greedy) Prepare(ctx context.Context, f *ir.Func) error {
	err := a.reset(f)
	if err != nil {
		return err
	}

	a.owner = make([]ir.Operand, len(a.pool))
	a.dirty = make([]bool, len(a.pool))
	a.where = map[ir.Operand]int{}
	a.next = 0

	for _, p := range f.Params {
		a.slot(ir.Var(p.Name))
	}

	tlog.SpanFromContext(ctx).V("dump_alloc").Printw("greedy prepared", "func", f.Name, "regs", len(a.pool))

	return nil
}

func (a *Greedy) Prologue(b []byte) []byte {
	return a.prologue(b, func(ir.Operand) (riscv.Reg, bool) { return "", false })
}

func (a *Greedy) Load(b []byte, o ir.Operand, dst riscv.Reg) ([]byte, error) {
	if o.IsConst() {
		return riscv.Li(b, dst, o.Value), nil
	}

	if !a.known[o] {
		return b, a.unknown(o)
	}

	i, ok := a.where[o]
	if !ok {
		b, i = a.acquire(b, o)
		b = riscv.Lw(b, a.pool[i], a.slot(o), riscv.FP)
	}

	return riscv.Mv(b, dst, a.pool[i]), nil
}

func (a *Greedy) Store(b []byte, o ir.Operand, src riscv.Reg) ([]byte, error) {
	if !a.known[o] {
		return b, a.unknown(o)
	}

	i, ok := a.where[o]
	if !ok {
		b, i = a.acquire(b, o)
	}

	a.dirty[i] = true

	return riscv.Mv(b, a.pool[i], src), nil
}

// acquire takes the next pool register round-robin for o,
// writing back the value it held.
func (a *Greedy) acquire(b []byte, o ir.Operand) ([]byte, int) {
	if len(a.pool) == 0 {
		panic("greedy allocator with empty register pool")
	}

	i := a.next
	a.next = (a.next + 1) % len(a.pool)

	b = a.evict(b, i)

	a.owner[i] = o
	a.where[o] = i

	return b, i
}

func (a *Greedy) evict(b []byte, i int) []byte {
	old := a.owner[i]
	if old.IsNone() {
		return b
	}

	if a.dirty[i] {
		b = riscv.Sw(b, a.pool[i], a.slot(old), riscv.FP)
	}

	delete(a.where, old)
	a.owner[i] = ir.None
	a.dirty[i] = false

	return b
}

func (a *Greedy) Sync(b []byte) []byte {
	for i := range a.pool {
		b = a.evict(b, i)
	}

	a.next = 0

	return b
}

func (a *Greedy) RegMap() map[ir.Operand]riscv.Reg {
	m := make(map[ir.Operand]riscv.Reg, len(a.where))

	for o, i := range a.where {
		m[o] = a.pool[i]
	}

	return m
}
