package ir

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	Kind uint8

	// Operand is a value: two operands are equal iff == holds.
	// Fields not used by Kind stay zero.
	Operand struct {
		Kind  Kind
		Name  string // Var, Label
		ID    int    // Temp
		Value int64  // Const
	}
)

const (
	KindNone Kind = iota
	KindVar
	KindTemp
	KindConst
	KindLabel
)

var None = Operand{}

func Var(name string) Operand { return Operand{Kind: KindVar, Name: name} }
func Temp(id int) Operand     { return Operand{Kind: KindTemp, ID: id} }

// Const makes a literal. Values are target words, v is truncated to 32 bits.
func Const(v int64) Operand { return Operand{Kind: KindConst, Value: int64(int32(v))} }

func Label(name string) Operand { return Operand{Kind: KindLabel, Name: name} }

func (o Operand) IsNone() bool  { return o.Kind == KindNone }
func (o Operand) IsConst() bool { return o.Kind == KindConst }

// IsStorage reports whether the operand names a storage location: a Var or a Temp.
func (o Operand) IsStorage() bool { return o.Kind == KindVar || o.Kind == KindTemp }

// Key is the operand identity used in diagnostics and dumps.
func (o Operand) Key() string {
	switch o.Kind {
	case KindVar:
		return o.Name
	case KindTemp:
		return "t" + strconv.Itoa(o.ID)
	}

	return ""
}

func (o Operand) String() string {
	switch o.Kind {
	case KindVar, KindLabel:
		return o.Name
	case KindTemp:
		return "t" + strconv.Itoa(o.ID)
	case KindConst:
		return strconv.FormatInt(o.Value, 10)
	}

	return "_"
}

func (o Operand) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if o.Kind == KindNone {
		return e.AppendNil(b)
	}

	return e.AppendString(b, o.String())
}
