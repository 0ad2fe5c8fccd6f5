package asm

import (
	"github.com/nikandfor/hacked/hfmt"
)

type (
	// Operand is anything that can appear as an instruction operand.
	Operand interface {
		AppendOperand(b []byte) []byte
	}

	// Label is a symbol name used as a call or jump target.
	Label string
)

// Append writes one instruction line: mnemonic followed by comma separated operands.
func Append(b []byte, mnemonic string, ops ...Operand) []byte {
	b = append(b, mnemonic...)

	for i, op := range ops {
		if i == 0 {
			b = append(b, ' ')
		} else {
			b = append(b, ", "...)
		}

		b = op.AppendOperand(b)
	}

	return append(b, '\n')
}

// Global writes the symbol export directive and the label itself.
func Global(b []byte, name Label) []byte {
	return hfmt.Appendf(b, ".globl %s\n%s:\n", string(name), string(name))
}

func (l Label) AppendOperand(b []byte) []byte {
	return append(b, l...)
}
