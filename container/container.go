// Package container recognizes ELF, PE and raw binary input and builds a
// prog.Program from it. This is the boundary layer: container parsing is an
// external collaborator to the decoder/lifter core, never a blocking
// dependency of it.
package container

import (
	"bytes"
	"debug/elf"
	"debug/pe"
	"fmt"

	"github.com/go-baretk/baretk/prog"
)

var (
	elfMagic = []byte{0x7F, 'E', 'L', 'F'}
	peMagic  = []byte{'M', 'Z'}
)

// Load inspects data's header and dispatches to the matching loader, falling
// back to prog.FromBytes when no recognized container signature is present
// or when the matched container's header fails to parse: a malformed
// ELF/PE never fails the process, it just degrades to the raw-binary path.
func Load(data []byte) (*prog.Program, error) {
	switch {
	case bytes.HasPrefix(data, elfMagic):
		if p, err := loadELF(data); err == nil {
			return p, nil
		}
		return prog.FromBytes(data, 64, prog.LittleEndian, prog.MachineUnknown), nil
	case bytes.HasPrefix(data, peMagic):
		if p, err := loadPE(data); err == nil {
			return p, nil
		}
		return prog.FromBytes(data, 64, prog.LittleEndian, prog.MachineUnknown), nil
	default:
		return prog.FromBytes(data, 64, prog.LittleEndian, prog.MachineUnknown), nil
	}
}

func loadELF(data []byte) (*prog.Program, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("container: malformed elf: %w", err)
	}
	defer f.Close()

	bits := 32
	if f.Class == elf.ELFCLASS64 {
		bits = 64
	}
	endianness := prog.LittleEndian
	if f.Data == elf.ELFDATA2MSB {
		endianness = prog.BigEndian
	}

	p := prog.New(bits, endianness, machineFromELF(f.Machine))
	p.EntryPoint = f.Entry

	for _, s := range f.Sections {
		if s.Type == elf.SHT_NOBITS || s.Size == 0 {
			continue
		}
		raw, err := s.Data()
		if err != nil {
			continue
		}
		p.Sections[s.Name] = &prog.Section{Name: s.Name, Addr: s.Addr, Bytes: raw}
	}

	for _, seg := range f.Progs {
		if seg.Type != elf.PT_LOAD {
			continue
		}
		p.Segments = append(p.Segments, prog.Segment{
			Perm:   permFromELFFlags(seg.Flags),
			Offset: seg.Off,
			VAddr:  seg.Vaddr,
			PAddr:  seg.Paddr,
			Size:   seg.Filesz,
		})
	}

	syms, _ := f.Symbols()
	for _, sym := range syms {
		if sym.Name == "" || elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		p.Symbols[sym.Name] = &prog.Symbol{Name: sym.Name, Addr: sym.Value, Size: sym.Size}
	}

	return p, nil
}

func loadPE(data []byte) (*prog.Program, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("container: malformed pe: %w", err)
	}
	defer f.Close()

	bits := 32
	if f.Machine == pe.IMAGE_FILE_MACHINE_AMD64 {
		bits = 64
	}

	p := prog.New(bits, prog.LittleEndian, machineFromPE(f.Machine))

	for _, s := range f.Sections {
		raw, err := s.Data()
		if err != nil {
			continue
		}
		p.Sections[s.Name] = &prog.Section{Name: s.Name, Addr: uint64(s.VirtualAddress), Bytes: raw}
	}

	for _, sym := range f.Symbols {
		if sym.Name == "" {
			continue
		}
		p.Symbols[sym.Name] = &prog.Symbol{Name: sym.Name, Addr: uint64(sym.Value)}
	}

	return p, nil
}

func machineFromELF(m elf.Machine) prog.Machine {
	switch m {
	case elf.EM_ARM:
		return prog.MachineARM
	case elf.EM_386:
		return prog.MachineX86
	case elf.EM_X86_64:
		return prog.MachineAMD64
	case elf.EM_RISCV:
		return prog.MachineRISCV
	default:
		return prog.MachineUnknown
	}
}

func machineFromPE(m uint16) prog.Machine {
	switch m {
	case pe.IMAGE_FILE_MACHINE_I386:
		return prog.MachineX86
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return prog.MachineAMD64
	case pe.IMAGE_FILE_MACHINE_ARM, pe.IMAGE_FILE_MACHINE_ARMNT:
		return prog.MachineARM
	default:
		return prog.MachineUnknown
	}
}

func permFromELFFlags(f elf.ProgFlag) prog.Perm {
	var p prog.Perm
	if f&elf.PF_R != 0 {
		p |= prog.PermRead
	}
	if f&elf.PF_W != 0 {
		p |= prog.PermWrite
	}
	if f&elf.PF_X != 0 {
		p |= prog.PermExec
	}
	return p
}
