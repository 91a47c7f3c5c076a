package ir

import "tlog.app/go/tlog/tlwire"

type (
	Op int

	Instr struct {
		Op     Op
		Result Operand
		Arg1   Operand
		Arg2   Operand
	}

	Block struct {
		Label  string
		Instrs []Instr
	}

	Param struct {
		Name string
	}

	Func struct {
		Name   string
		Params []Param
		Blocks []*Block
	}

	Module struct {
		Funcs []*Func
	}
)

// Binary arithmetic and relational ops come first so IsBinary is a range check.
const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Gt
	Le
	Ge

	Not
	Assign

	ParamOp
	Call
	Ret

	Jump
	JumpIfZero
	JumpIfNZero
	LabelOp

	opLast
)

var opNames = [...]string{
	Add:         "ADD",
	Sub:         "SUB",
	Mul:         "MUL",
	Div:         "DIV",
	Mod:         "MOD",
	Eq:          "EQ",
	Neq:         "NEQ",
	Lt:          "LT",
	Gt:          "GT",
	Le:          "LE",
	Ge:          "GE",
	Not:         "NOT",
	Assign:      "ASSIGN",
	ParamOp:     "PARAM",
	Call:        "CALL",
	Ret:         "RET",
	Jump:        "JUMP",
	JumpIfZero:  "JUMP_IF_ZERO",
	JumpIfNZero: "JUMP_IF_NZERO",
	LabelOp:     "LABEL",
}

func (op Op) String() string {
	if op < 0 || op >= opLast {
		return "OP?"
	}

	return opNames[op]
}

func (op Op) IsBinary() bool { return op >= Add && op <= Ge }

// IsPure reports ops which only compute Result from their arguments.
func (op Op) IsPure() bool { return op.IsBinary() || op == Not || op == Assign }

func (op Op) IsCommutative() bool {
	switch op {
	case Add, Mul, Eq, Neq:
		return true
	}

	return false
}

func (op Op) IsCondJump() bool { return op == JumpIfZero || op == JumpIfNZero }

// IsTerminator reports ops which end a block: no fallthrough after Jump and Ret,
// a conditional jump falls through when not taken.
func (op Op) IsTerminator() bool {
	return op == Jump || op == Ret || op.IsCondJump()
}

// Target returns the label a control transfer goes to.
func (x Instr) Target() (string, bool) {
	switch x.Op {
	case Jump, LabelOp:
		return x.Arg1.Name, x.Arg1.Kind == KindLabel
	case JumpIfZero, JumpIfNZero:
		return x.Arg2.Name, x.Arg2.Kind == KindLabel
	}

	return "", false
}

// Uses returns operands the instruction reads. Labels and constants are included,
// callers filter with IsStorage.
func (x Instr) Uses() []Operand {
	switch {
	case x.Op.IsBinary():
		return []Operand{x.Arg1, x.Arg2}
	}

	switch x.Op {
	case Not, Assign, ParamOp, Ret, JumpIfZero, JumpIfNZero:
		return []Operand{x.Arg1}
	}

	return nil
}

// Def returns the operand written by the instruction.
func (x Instr) Def() (Operand, bool) {
	switch {
	case x.Op.IsPure(), x.Op == Call:
		return x.Result, x.Result.IsStorage()
	}

	return None, false
}

// ReadsInto calls f for every storage operand slot the instruction reads,
// letting f replace it.
func (x *Instr) ReadsInto(f func(o Operand) Operand) {
	switch {
	case x.Op.IsBinary():
		if x.Arg1.IsStorage() {
			x.Arg1 = f(x.Arg1)
		}

		if x.Arg2.IsStorage() {
			x.Arg2 = f(x.Arg2)
		}
	case x.Op == Not, x.Op == Assign, x.Op == ParamOp, x.Op == Ret, x.Op.IsCondJump():
		if x.Arg1.IsStorage() {
			x.Arg1 = f(x.Arg1)
		}
	}
}

func (b *Block) Last() (Instr, bool) {
	if len(b.Instrs) == 0 {
		return Instr{}, false
	}

	return b.Instrs[len(b.Instrs)-1], true
}

func (f *Func) Entry() string {
	if len(f.Blocks) == 0 {
		return ""
	}

	return f.Blocks[0].Label
}

func (f *Func) IsParam(o Operand) bool {
	if o.Kind != KindVar {
		return false
	}

	for _, p := range f.Params {
		if p.Name == o.Name {
			return true
		}
	}

	return false
}

func (f *Func) NumInstrs() (n int) {
	for _, b := range f.Blocks {
		n += len(b.Instrs)
	}

	return n
}

func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

func (x Instr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	for _, kv := range [4][2]string{
		{"op", x.Op.String()},
		{"res", x.Result.String()},
		{"a1", x.Arg1.String()},
		{"a2", x.Arg2.String()},
	} {
		b = e.AppendString(b, kv[0])
		b = e.AppendString(b, kv[1])
	}

	return b
}

var opSymbols = map[Op]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Mod: "%",
	Eq:  "==",
	Neq: "!=",
	Lt:  "<",
	Gt:  ">",
	Le:  "<=",
	Ge:  ">=",
}

// Symbol is the infix spelling of a binary op in IR text.
func (op Op) Symbol() string { return opSymbols[op] }

func OpBySymbol(s string) (Op, bool) {
	for op, sym := range opSymbols {
		if sym == s {
			return op, true
		}
	}

	return 0, false
}
