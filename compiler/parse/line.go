package parse

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/ir"
)

func (s *fileState) parseLine(line string) error {
	switch {
	case strings.HasPrefix(line, "func "):
		return s.parseFuncHeader(line)
	case line == "}":
		if s.f == nil {
			return s.errorf("unexpected closing brace")
		}

		s.f, s.b = nil, nil

		return nil
	}

	if s.f == nil {
		return s.errorf("statement outside of func: %q", line)
	}

	if l, ok := strings.CutSuffix(line, ":"); ok && isIdent(l) {
		if s.findBlock(l) != nil {
			return s.errorf("duplicate block label %v", l)
		}

		s.b = &ir.Block{Label: l}
		s.f.Blocks = append(s.f.Blocks, s.b)

		return nil
	}

	x, err := s.parseInstr(line)
	if err != nil {
		return err
	}

	if s.b == nil {
		s.b = &ir.Block{Label: "entry"}
		s.f.Blocks = append(s.f.Blocks, s.b)
	}

	s.b.Instrs = append(s.b.Instrs, x)

	return nil
}

func (s *fileState) parseFuncHeader(line string) error {
	if s.f != nil {
		return s.errorf("nested func")
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, "func "))

	open := strings.IndexByte(rest, '(')
	clos := strings.LastIndexByte(rest, ')')

	if open < 0 || clos < open || strings.TrimSpace(rest[clos+1:]) != "{" {
		return s.errorf("bad func header: %q", line)
	}

	name := strings.TrimSpace(rest[:open])
	if !isIdent(name) {
		return s.errorf("bad func name: %q", name)
	}

	if s.m.Func(name) != nil {
		return s.errorf("duplicate func %v", name)
	}

	f := &ir.Func{Name: name}

	if params := strings.TrimSpace(rest[open+1 : clos]); params != "" {
		for _, p := range strings.Split(params, ",") {
			p = strings.TrimSpace(p)

			if !isIdent(p) || isTemp(p) {
				return s.errorf("bad param name: %q", p)
			}

			f.Params = append(f.Params, ir.Param{Name: p})
		}
	}

	s.m.Funcs = append(s.m.Funcs, f)
	s.f = f
	s.b = nil

	return nil
}

func (s *fileState) parseInstr(line string) (x ir.Instr, err error) {
	tk := strings.Fields(strings.ReplaceAll(line, ",", " "))

	switch tk[0] {
	case "param":
		if len(tk) != 2 {
			return x, s.errorf("param: one operand expected")
		}

		x.Op = ir.ParamOp
		x.Arg1, err = s.operand(tk[1])

		return x, err
	case "call":
		return s.parseCall(ir.None, tk[1:])
	case "ret":
		x.Op = ir.Ret

		switch len(tk) {
		case 1:
		case 2:
			x.Arg1, err = s.operand(tk[1])
		default:
			return x, s.errorf("ret: too many operands")
		}

		return x, err
	case "jump", "label":
		if len(tk) != 2 || !isIdent(tk[1]) {
			return x, s.errorf("%v: label expected", tk[0])
		}

		x.Op = ir.Jump
		if tk[0] == "label" {
			x.Op = ir.LabelOp
		}

		x.Arg1 = ir.Label(tk[1])

		return x, nil
	case "ifz", "ifnz":
		if len(tk) != 3 || !isIdent(tk[2]) {
			return x, s.errorf("%v: operand and label expected", tk[0])
		}

		x.Op = ir.JumpIfZero
		if tk[0] == "ifnz" {
			x.Op = ir.JumpIfNZero
		}

		x.Arg1, err = s.operand(tk[1])
		x.Arg2 = ir.Label(tk[2])

		return x, err
	}

	if len(tk) < 3 || tk[1] != "=" {
		return x, s.errorf("unknown instruction: %q", line)
	}

	res, err := s.operand(tk[0])
	if err != nil {
		return x, err
	}

	if !res.IsStorage() {
		return x, s.errorf("result must be a variable or temporary: %q", tk[0])
	}

	rhs := tk[2:]

	switch {
	case rhs[0] == "call":
		return s.parseCall(res, rhs[1:])
	case len(rhs) == 1 && strings.HasPrefix(rhs[0], "!") && len(rhs[0]) > 1:
		x = ir.Instr{Op: ir.Not, Result: res}
		x.Arg1, err = s.operand(rhs[0][1:])
	case len(rhs) == 2 && rhs[0] == "!":
		x = ir.Instr{Op: ir.Not, Result: res}
		x.Arg1, err = s.operand(rhs[1])
	case len(rhs) == 1:
		x = ir.Instr{Op: ir.Assign, Result: res}
		x.Arg1, err = s.operand(rhs[0])
	case len(rhs) == 3:
		op, ok := ir.OpBySymbol(rhs[1])
		if !ok {
			return x, s.errorf("unknown operator: %q", rhs[1])
		}

		x = ir.Instr{Op: op, Result: res}

		x.Arg1, err = s.operand(rhs[0])
		if err != nil {
			return x, err
		}

		x.Arg2, err = s.operand(rhs[2])
	default:
		return x, s.errorf("bad expression: %q", line)
	}

	return x, err
}

// parseCall reads "f [N]". Without N the argument count is the number
// of params right before the call in the current block.
func (s *fileState) parseCall(res ir.Operand, tk []string) (x ir.Instr, err error) {
	if len(tk) < 1 || len(tk) > 2 || !isIdent(tk[0]) {
		return x, s.errorf("call: callee expected")
	}

	x = ir.Instr{Op: ir.Call, Result: res, Arg1: ir.Label(tk[0])}

	if len(tk) == 2 {
		n, err := strconv.ParseInt(tk[1], 10, 64)
		if err != nil || n < 0 {
			return x, s.errorf("call: bad argument count: %q", tk[1])
		}

		x.Arg2 = ir.Const(n)

		return x, nil
	}

	n := 0

	if s.b != nil {
		for i := len(s.b.Instrs) - 1; i >= 0 && s.b.Instrs[i].Op == ir.ParamOp; i-- {
			n++
		}
	}

	x.Arg2 = ir.Const(int64(n))

	return x, nil
}

func (s *fileState) operand(t string) (ir.Operand, error) {
	if v, err := strconv.ParseInt(t, 10, 64); err == nil {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return ir.None, s.errorf("constant does not fit 32 bits: %v", t)
		}

		return ir.Const(v), nil
	}

	if isTemp(t) {
		id, _ := strconv.Atoi(t[1:])

		return ir.Temp(id), nil
	}

	if isIdent(t) {
		return ir.Var(t), nil
	}

	return ir.None, s.errorf("bad operand: %q", t)
}

func (s *fileState) findBlock(l string) *ir.Block {
	for _, b := range s.f.Blocks {
		if b.Label == l {
			return b
		}
	}

	return nil
}

func isTemp(t string) bool {
	if len(t) < 2 || t[0] != 't' {
		return false
	}

	for _, c := range t[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

func isIdent(t string) bool {
	if t == "" {
		return false
	}

	for i, c := range t {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		case c >= '0' && c <= '9' && i != 0:
		case c >= utf8.RuneSelf:
		default:
			return false
		}
	}

	return true
}
