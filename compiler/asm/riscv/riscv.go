package riscv

import (
	"fmt"

	"github.com/poxiaochangkong/Compiler-sub000/compiler/asm"
)

type (
	Reg string
)

const (
	SP Reg = "sp"
	FP Reg = "fp"
	RA Reg = "ra"

	T0 Reg = "t0"
	T1 Reg = "t1"
	T2 Reg = "t2"
	T3 Reg = "t3"
	T4 Reg = "t4"
	T5 Reg = "t5"
	T6 Reg = "t6"

	A0 Reg = "a0"
)

const (
	WordSize   = 4
	StackAlign = 16

	// MaxImm is the largest addi, lw and sw immediate.
	MaxImm = 1<<11 - 1

	// MaxFrame is the largest aligned frame addressable with immediates from sp and fp.
	MaxFrame = MaxImm / StackAlign * StackAlign
)

var (
	Args = []Reg{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}

	CalleeSaved = []Reg{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11"}

	// Scratch registers are used by the code generator within one instruction.
	Scratch = []Reg{T0, T1, T2}

	// Cache registers may hold values between instructions but not across calls.
	Cache = []Reg{T3, T4, T5, T6}
)

func Mem(off int, base Reg) string {
	return fmt.Sprintf("%d(%s)", off, base)
}

func Li(b []byte, rd Reg, v int64) []byte { return asm.Op(b, "li", rd, v) }
func Mv(b []byte, rd, rs Reg) []byte      { return asm.Op(b, "mv", rd, rs) }

func Addi(b []byte, rd, rs Reg, imm int) []byte { return asm.Op(b, "addi", rd, rs, imm) }

func Lw(b []byte, rd Reg, off int, base Reg) []byte { return asm.Op(b, "lw", rd, Mem(off, base)) }
func Sw(b []byte, rs Reg, off int, base Reg) []byte { return asm.Op(b, "sw", rs, Mem(off, base)) }

func Jump(b []byte, label string) []byte         { return asm.Op(b, "j", label) }
func Beqz(b []byte, rs Reg, label string) []byte { return asm.Op(b, "beqz", rs, label) }
func Call(b []byte, fn string) []byte            { return asm.Op(b, "call", fn) }
func Ret(b []byte) []byte                        { return asm.Op(b, "ret") }

// AlignStack rounds a frame size up to the stack alignment.
func AlignStack(n int) int {
	return (n + StackAlign - 1) / StackAlign * StackAlign
}
