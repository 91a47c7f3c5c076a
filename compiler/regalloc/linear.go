package regalloc

import (
	"context"
	"sort"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm/riscv"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Linear is a linear-scan allocator over whole-function live intervals.
	Linear struct {
		static

		pool []riscv.Reg

		intervals []Interval
		spilled   []ir.Operand
	}
)

func NewLinear(pool ...riscv.Reg) *Linear {
	return &Linear{pool: pool}
}

func (a *Linear) Prepare(ctx context.Context, f *ir.Func) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "linear scan", "func", f.Name, "regs", len(a.pool))
	defer tr.Finish("err", &err)

	err = a.reset(f)
	if err != nil {
		return err
	}

	a.spilled = a.spilled[:0]
	a.intervals = Intervals(ctx, f)

	unhandled := heap.Heap[Interval]{Less: byStart}

	for _, iv := range a.intervals {
		unhandled.Push(iv)
	}

	free := append([]riscv.Reg{}, a.pool...)
	var active []Interval // sorted by End

	insert := func(iv Interval) {
		i := sort.Search(len(active), func(i int) bool { return active[i].End > iv.End })

		active = append(active, Interval{})
		copy(active[i+1:], active[i:])
		active[i] = iv
	}

	for unhandled.Len() != 0 {
		cur := unhandled.Pop()

		for len(active) != 0 && active[0].End < cur.Start {
			free = append(free, a.regs[active[0].Op])
			active = active[1:]
		}

		if len(free) != 0 {
			a.regs[cur.Op] = free[0]
			free = free[1:]

			insert(cur)

			continue
		}

		if len(active) != 0 && active[len(active)-1].End > cur.End {
			victim := active[len(active)-1]
			active = active[:len(active)-1]

			a.regs[cur.Op] = a.regs[victim.Op]
			delete(a.regs, victim.Op)

			a.spilled = append(a.spilled, victim.Op)

			insert(cur)

			tr.V("linear_spill").Printw("spill active", "victim", victim.Op, "end", victim.End, "for", cur.Op)

			continue
		}

		a.spilled = append(a.spilled, cur.Op)

		tr.V("linear_spill").Printw("spill current", "op", cur.Op, "start", cur.Start, "end", cur.End)
	}

	a.useRegs(a.pool)
	a.spillRest()
	a.dump(ctx, "linear")

	tr.Printw("allocated", "intervals", len(a.intervals), "in_regs", len(a.regs), "spilled", len(a.spilled), "saved", a.saved)

	return nil
}

// Intervals returns the live intervals computed by the last Prepare, ordered by Start.
func (a *Linear) Intervals() []Interval { return a.intervals }

func (a *Linear) Spilled() []ir.Operand { return a.spilled }

func byStart(d []Interval, i, j int) bool {
	if d[i].Start != d[j].Start {
		return d[i].Start < d[j].Start
	}

	return d[i].seq < d[j].seq
}
