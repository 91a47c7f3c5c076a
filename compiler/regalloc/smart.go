package regalloc

import (
	"context"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm/riscv"
	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Smart gives registers to the most frequently accessed operands
	// for the whole function and keeps the rest on the stack.
	Smart struct {
		static

		pool []riscv.Reg

		freq map[ir.Operand]int
	}

	ranked struct {
		op   ir.Operand
		freq int
		seq  int
	}
)

func NewSmart(pool ...riscv.Reg) *Smart {
	return &Smart{pool: pool}
}

func (a *Smart) Prepare(ctx context.Context, f *ir.Func) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "smart spill", "func", f.Name, "regs", len(a.pool))
	defer tr.Finish("err", &err)

	err = a.reset(f)
	if err != nil {
		return err
	}

	a.freq = Frequencies(f)

	q := heap.Heap[ranked]{Less: byFreq}

	for i, o := range operands(f) {
		q.Push(ranked{op: o, freq: a.freq[o], seq: i})
	}

	for _, r := range a.pool {
		if q.Len() == 0 {
			break
		}

		x := q.Pop()
		a.regs[x.op] = r

		tr.V("smart_rank").Printw("register", "op", x.op, "freq", x.freq, "reg", r)
	}

	a.useRegs(a.pool)
	a.spillRest()
	a.dump(ctx, "smart")

	tr.Printw("allocated", "in_regs", len(a.regs), "spilled", len(a.slots), "saved", a.saved)

	return nil
}

// Frequencies counts reads and writes of every variable and temporary of f.
func Frequencies(f *ir.Func) map[ir.Operand]int {
	m := map[ir.Operand]int{}

	for _, b := range f.Blocks {
		for _, x := range b.Instrs {
			for _, u := range x.Uses() {
				if u.IsStorage() {
					m[u]++
				}
			}

			if d, ok := x.Def(); ok {
				m[d]++
			}
		}
	}

	return m
}

func byFreq(d []ranked, i, j int) bool {
	if d[i].freq != d[j].freq {
		return d[i].freq > d[j].freq
	}

	return d[i].seq < d[j].seq
}
