// Package prog models the container-agnostic input a decoder consumes:
// sections, segments, symbols and the handful of tags (bit width, endianness,
// machine) that select which decoder runs.
package prog

import "sort"

// Endianness of word loads within a Program's sections.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// Machine selects the decoder a Program's .text section is fed to.
type Machine string

const (
	MachineUnknown Machine = "unknown"
	MachineARM     Machine = "arm"
	MachineX86     Machine = "x86"
	MachineAMD64   Machine = "amd64"
	MachineRISCV   Machine = "riscv"
)

// Permission bits for a Segment.
type Perm uint8

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
)

// Section is a contiguous named byte range with a load address. Immutable
// after container parse.
type Section struct {
	Name  string
	Addr  uint64
	Bytes []byte
}

// End returns the address one past the last byte of the section.
func (s *Section) End() uint64 {
	return s.Addr + uint64(len(s.Bytes))
}

// Segment is a loadable region of the binary. Informational for the core.
type Segment struct {
	Perm   Perm
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	Size   uint64
}

// Symbol maps a name to an address and size.
type Symbol struct {
	Name string
	Addr uint64
	Size uint64
}

// Program is the complete input to the decoder/lifter pipeline.
type Program struct {
	Bits       int // 32 or 64
	Endianness Endianness
	Machine    Machine
	EntryPoint uint64
	Segments   []Segment
	Sections   map[string]*Section
	Symbols    map[string]*Symbol
}

// New builds an empty Program: no sections, segments or symbols.
func New(bits int, endianness Endianness, machine Machine) *Program {
	return &Program{
		Bits:       bits,
		Endianness: endianness,
		Machine:    machine,
		Sections:   make(map[string]*Section),
		Symbols:    make(map[string]*Symbol),
	}
}

// FromBytes builds a Program with a single "file" section covering the
// whole input and one RWX segment — the fallback used when no structured
// container can be recognized. Mirrors original_source/src/prog.rs's
// build_program_from_binary.
func FromBytes(data []byte, bits int, endianness Endianness, machine Machine) *Program {
	p := New(bits, endianness, machine)
	cp := make([]byte, len(data))
	copy(cp, data)
	p.Sections["file"] = &Section{Name: "file", Addr: 0, Bytes: cp}
	p.Segments = append(p.Segments, Segment{
		Perm: PermRead | PermWrite | PermExec,
		Size: uint64(len(data)),
	})
	return p
}

// DecodeSection selects the section the decoder walks: ".text" if present,
// else the whole-file fallback "file" section.
func (p *Program) DecodeSection() (*Section, bool) {
	if s, ok := p.Sections[".text"]; ok {
		return s, true
	}
	if s, ok := p.Sections["file"]; ok {
		return s, true
	}
	return nil, false
}

// SymbolsInRange returns the symbols whose address lies within
// [lo, hi), sorted by address, ascending.
func (p *Program) SymbolsInRange(lo, hi uint64) []*Symbol {
	var out []*Symbol
	for _, sym := range p.Symbols {
		if sym.Addr >= lo && sym.Addr < hi {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// SymbolAt returns the symbol whose address equals addr, if any.
func (p *Program) SymbolAt(addr uint64) (*Symbol, bool) {
	for _, sym := range p.Symbols {
		if sym.Addr == addr {
			return sym, true
		}
	}
	return nil, false
}
