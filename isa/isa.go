// Package isa defines the contract every architecture decoder's instruction
// type satisfies, so the disassembly driver and the lifter can walk ARM,
// x86 and RISC-V instruction streams through one interface instead of a
// string-keyed opcode table.
package isa

import "github.com/go-baretk/baretk/ir"

// Instruction is one decoded unit: a fixed position and width in the byte
// stream, a textual form, and a lift to the shared expression IR.
type Instruction interface {
	// Offset is the byte offset within the section this instruction was
	// decoded from.
	Offset() uint64
	// Size is the instruction's width in bytes (variable for x86 and the
	// RISC-V compressed extension).
	Size() int
	// Print renders the instruction as "mnemonic operand, operand, ...".
	Print() string
	// Lift translates the instruction into the shared expression IR.
	Lift() ir.Expr
}

// Unknown is the placeholder an ISA decoder emits when it meets a bit
// pattern it cannot decode, or there are too few bytes remaining for any
// valid encoding. It keeps the disassembly walk going: offsets and symbol
// positions downstream stay aligned even through undecodable bytes.
type Unknown struct {
	At     uint64
	Width  int
	Reason string
}

func (u Unknown) Offset() uint64 { return u.At }
func (u Unknown) Size() int      { return u.Width }
func (u Unknown) Print() string {
	if u.Reason != "" {
		return "unk ; " + u.Reason
	}
	return "unk"
}
func (u Unknown) Lift() ir.Expr { return ir.Nop{} }
