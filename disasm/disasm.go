// Package disasm walks a Program's decodable section with the ISA-selected
// decoder and renders the resulting instruction list as assembly text.
package disasm

import (
	"fmt"
	"strings"

	"github.com/go-baretk/baretk/arm"
	"github.com/go-baretk/baretk/isa"
	"github.com/go-baretk/baretk/prog"
	"github.com/go-baretk/baretk/riscv"
	"github.com/go-baretk/baretk/x86"
)

// Disassembly is the decoded instruction list for one section, tagged with
// the ISA that produced it.
type Disassembly struct {
	Program      *prog.Program
	SectionName  string
	Instructions []isa.Instruction
}

// Disassemble walks p's decodable section and returns the decoded
// instruction list. Unrecognized bytes become isa.Unknown placeholders so
// offset continuity is preserved; decoding never fails outright.
func Disassemble(p *prog.Program) (*Disassembly, error) {
	section, ok := p.DecodeSection()
	if !ok {
		return nil, fmt.Errorf("disasm: program has no decodable section")
	}

	var instrs []isa.Instruction
	code := section.Bytes
	off := 0
	for off < len(code) {
		// ARM instructions are fixed 4 bytes wide; a section with fewer than
		// 4 bytes left cannot hold one, so decoding stops and emits nothing
		// for the remainder rather than a partial-width Unknown.
		if p.Machine == prog.MachineARM && off+4 > len(code) {
			break
		}
		ins, n, ok := tryDecode(p.Machine, code, off)
		if ok {
			instrs = append(instrs, ins)
			off += n
			continue
		}
		width := unknownWidth(p.Machine, code, off)
		instrs = append(instrs, isa.Unknown{At: uint64(off), Width: width, Reason: "unrecognized opcode"})
		off += width
	}

	return &Disassembly{Program: p, SectionName: section.Name, Instructions: instrs}, nil
}

func tryDecode(m prog.Machine, code []byte, off int) (isa.Instruction, int, bool) {
	switch m {
	case prog.MachineARM:
		ins, ok := arm.Decode(code, off)
		if !ok {
			return nil, 0, false
		}
		return ins, ins.Size(), true
	case prog.MachineRISCV:
		ins, ok := riscv.Decode(code, off)
		if !ok {
			return nil, 0, false
		}
		return ins, ins.Size(), true
	default: // x86, amd64, unknown defaults to x86
		ins, ok := x86.Decode(code, off)
		if !ok {
			return nil, 0, false
		}
		return ins, ins.Size(), true
	}
}

// unknownWidth picks the default Unknown placeholder width for the
// machine's decoder: 4 for ARM (Disassemble already guarantees 4 full bytes
// remain before calling this), 1 for x86, and 4 or 2 for RISC-V depending on
// the low two bits of the next halfword. A RISC-V 32-bit encoding cut short
// by the end of the section gets a 2-byte placeholder, and a single trailing
// byte gets a 1-byte one, so no placeholder runs past the section.
func unknownWidth(m prog.Machine, code []byte, off int) int {
	switch m {
	case prog.MachineARM:
		return 4
	case prog.MachineRISCV:
		if off+2 > len(code) {
			return len(code) - off
		}
		if code[off]&0x3 == 0x3 && off+4 <= len(code) {
			return 4
		}
		return 2
	default:
		return 1
	}
}

// Print renders the disassembly as assembly text: a section header, then
// one "_<offset8hex>: mnemonic operands" line per instruction, or a
// "symbolname:" label line at a symbol's address.
func (d *Disassembly) Print() string {
	var b strings.Builder
	section := d.Program.Sections[d.SectionName]
	fmt.Fprintf(&b, ".section %s\n", d.SectionName)
	fmt.Fprintf(&b, ".org 0x%x\n", section.Addr)

	symbols := d.Program.SymbolsInRange(section.Addr, section.End())
	symAt := make(map[uint64]string, len(symbols))
	for _, s := range symbols {
		symAt[s.Addr-section.Addr] = s.Name
	}

	for _, ins := range d.Instructions {
		if name, ok := symAt[ins.Offset()]; ok {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		fmt.Fprintf(&b, "_%08x: %s\n", ins.Offset(), ins.Print())
	}
	return b.String()
}
