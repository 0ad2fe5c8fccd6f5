// Package amd64 describes the x86-64 System V registers and AT&T operands.
package amd64

import (
	"math"
	"strconv"

	"github.com/katiehur5/toy-compiler/compiler/asm"
)

type (
	Reg int

	// Slot is a stack slot addressed relative to the frame pointer.
	Slot int64

	// Imm is an immediate operand.
	Imm int64
)

const (
	RAX Reg = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9

	NumRegs
)

const (
	// Acc holds operation results and the return value.
	Acc = RAX
	// Scratch holds the right operand; its low byte is the shift count.
	Scratch = RCX

	FP = RBP
	SP = RSP

	// WordSize is the size of one stack slot.
	WordSize = 8
)

// ArgRegs are integer argument registers in parameter order.
var ArgRegs = [...]Reg{RDI, RSI, RDX, RCX, R8, R9}

// PoolOrder is the allocation order of general purpose registers.
var PoolOrder = [...]Reg{RAX, RBX, R9, R8, RCX, RDX, RSI, RDI}

var (
	names  = [NumRegs]string{"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp", "r8", "r9"}
	names8 = [NumRegs]string{"al", "bl", "cl", "dl", "sil", "dil", "bpl", "spl", "r8b", "r9b"}
)

var (
	_ asm.Operand = RAX
	_ asm.Operand = Slot(0)
	_ asm.Operand = Imm(0)
)

func (r Reg) String() string {
	if r < 0 || r >= NumRegs {
		return "%reg" + strconv.Itoa(int(r))
	}

	return "%" + names[r]
}

func (r Reg) AppendOperand(b []byte) []byte {
	return append(b, r.String()...)
}

// Low8 is the low byte register of r.
func (r Reg) Low8() asm.Label {
	return asm.Label("%" + names8[r])
}

// SlotN is the n-th 8 byte slot below the frame pointer, starting from 1.
func SlotN(n int) Slot {
	return Slot(-WordSize * int64(n))
}

func (s Slot) AppendOperand(b []byte) []byte {
	b = strconv.AppendInt(b, int64(s), 10)
	return append(b, "(%rbp)"...)
}

func (s Slot) String() string {
	return string(s.AppendOperand(nil))
}

func (x Imm) AppendOperand(b []byte) []byte {
	b = append(b, '$')
	return strconv.AppendInt(b, int64(x), 10)
}

func (x Imm) String() string {
	return string(x.AppendOperand(nil))
}

// Fits32 reports whether x can be encoded as a sign-extended 32-bit immediate.
func (x Imm) Fits32() bool {
	return x >= math.MinInt32 && x <= math.MaxInt32
}
