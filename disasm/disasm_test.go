package disasm

import (
	"strings"
	"testing"

	"github.com/go-baretk/baretk/prog"
)

func TestDisassembleX86SectionCoversAllBytes(t *testing.T) {
	code := []byte{0x55, 0x48, 0x89, 0xE5, 0x5D, 0xC3}
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}

	d, err := Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var total int
	for _, ins := range d.Instructions {
		total += ins.Size()
	}
	if total != len(code) {
		t.Fatalf("instruction sizes sum to %d, want %d", total, len(code))
	}
}

func TestDisassembleEmitsUnknownOnBadOpcode(t *testing.T) {
	// 0x0F alone (two-byte escape, unimplemented here) should fall back to Unknown.
	code := []byte{0x0F}
	p := prog.New(32, prog.LittleEndian, prog.MachineX86)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}

	d, err := Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Instructions) != 1 {
		t.Fatalf("got %d instructions, want 1", len(d.Instructions))
	}
	if d.Instructions[0].Size() != 1 {
		t.Fatalf("expected a 1-byte Unknown placeholder for x86")
	}
}

func TestDisassembleStopsOnTruncatedARMWord(t *testing.T) {
	// a 3-byte ARM section cannot hold a single fixed-width 4-byte
	// instruction: decoding stops and emits nothing, rather than a
	// partial-width Unknown placeholder.
	code := []byte{0x01, 0x02, 0x03}
	p := prog.New(32, prog.LittleEndian, prog.MachineARM)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}

	d, err := Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Instructions) != 0 {
		t.Fatalf("got %d instructions, want 0", len(d.Instructions))
	}
}

func TestPrintIncludesSectionHeaderAndOffsets(t *testing.T) {
	code := []byte{0xC3}
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}
	d, err := Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := d.Print()
	if !strings.Contains(out, ".section file") || !strings.Contains(out, "_00000000: ret") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintEmitsSymbolLabel(t *testing.T) {
	code := []byte{0xC3, 0x90}
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}
	p.Symbols["entry"] = &prog.Symbol{Name: "entry", Addr: 1}

	d, err := Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := d.Print()
	if !strings.Contains(out, "entry:\n_00000001: nop") {
		t.Fatalf("expected a symbol label before offset 1, got:\n%s", out)
	}
}
