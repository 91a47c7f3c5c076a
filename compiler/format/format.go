package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

// String formats a module or function ignoring errors, for tests and dumps.
func String(x any) string {
	b, err := Format(context.Background(), nil, x)
	if err != nil {
		return err.Error()
	}

	return string(b)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *ir.Module:
		return formatModule(ctx, b, x, d)
	case *ir.Func:
		return formatFunc(ctx, b, x, d)
	case *ir.Block:
		return formatBlock(ctx, b, x, d)
	case ir.Instr:
		return formatInstr(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatModule(ctx context.Context, b []byte, x *ir.Module, d int) (_ []byte, err error) {
	for i, f := range x.Funcs {
		if i != 0 {
			b = append(b, '\n')
		}

		b, err = formatFunc(ctx, b, f, d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, x *ir.Func, d int) (_ []byte, err error) {
	b = app(b, d, "func %v(", x.Name)

	for i, p := range x.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = append(b, p.Name...)
	}

	b = append(b, ") {\n"...)

	for _, bl := range x.Blocks {
		b, err = formatBlock(ctx, b, bl, d)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", bl.Label)
		}
	}

	b = app(b, d, "}\n")

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, x *ir.Block, d int) (_ []byte, err error) {
	b = app(b, d, "%v:\n", x.Label)

	for _, in := range x.Instrs {
		b, err = formatInstr(ctx, b, in, d+1)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func formatInstr(ctx context.Context, b []byte, x ir.Instr, d int) ([]byte, error) {
	switch {
	case x.Op.IsBinary():
		return app(b, d, "%v = %v %v %v\n", x.Result, x.Arg1, x.Op.Symbol(), x.Arg2), nil
	}

	switch x.Op {
	case ir.Not:
		b = app(b, d, "%v = !%v\n", x.Result, x.Arg1)
	case ir.Assign:
		b = app(b, d, "%v = %v\n", x.Result, x.Arg1)
	case ir.ParamOp:
		b = app(b, d, "param %v\n", x.Arg1)
	case ir.Call:
		if !x.Result.IsNone() {
			b = app(b, d, "%v = ", x.Result)
			d = 0
		}

		b = app(b, d, "call %v, %v\n", x.Arg1, x.Arg2)
	case ir.Ret:
		if x.Arg1.IsNone() {
			b = app(b, d, "ret\n")
		} else {
			b = app(b, d, "ret %v\n", x.Arg1)
		}
	case ir.Jump:
		b = app(b, d, "jump %v\n", x.Arg1)
	case ir.JumpIfZero:
		b = app(b, d, "ifz %v, %v\n", x.Arg1, x.Arg2)
	case ir.JumpIfNZero:
		b = app(b, d, "ifnz %v, %v\n", x.Arg1, x.Arg2)
	case ir.LabelOp:
		b = app(b, d, "label %v\n", x.Arg1)
	default:
		return nil, errors.New("unsupported op: %v", x.Op)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
