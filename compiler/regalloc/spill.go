package regalloc

import (
	"context"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

type (
	// Spill keeps every variable and temporary on the stack.
	// It is the reference the other strategies are checked against.
	Spill struct {
		static
	}
)

func NewSpill() *Spill { return &Spill{} }

func (a *Spill) Prepare(ctx context.Context, f *ir.Func) error {
	err := a.reset(f)
	if err != nil {
		return err
	}

	a.spillRest()
	a.dump(ctx, "spill")

	return nil
}
