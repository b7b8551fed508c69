package lift

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-baretk/baretk/disasm"
	"github.com/go-baretk/baretk/ir"
	"github.com/go-baretk/baretk/prog"
)

func TestProgramInsertsLabelAtSymbolOffset(t *testing.T) {
	code := []byte{0xC3, 0x90} // ret, nop
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}
	p.Symbols["entry"] = &prog.Symbol{Name: "entry", Addr: 1}

	d, err := disasm.Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exprs := Program(d)
	want := []ir.Expr{ir.Return{}, ir.Label{Name: "entry"}, ir.Nop{}}
	if diff := cmp.Diff(want, exprs); diff != "" {
		t.Fatalf("Program() mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramLiftsLabelInstructionInstead(t *testing.T) {
	// regression: a symbol coinciding with an instruction's offset must not
	// drop that instruction's own semantics from the IR list.
	code := []byte{0xC3, 0xC3} // ret, ret
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}
	p.Symbols["entry"] = &prog.Symbol{Name: "entry", Addr: 0}

	d, err := disasm.Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exprs := Program(d)
	want := []ir.Expr{ir.Label{Name: "entry"}, ir.Return{}, ir.Return{}}
	if diff := cmp.Diff(want, exprs); diff != "" {
		t.Fatalf("Program() mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeListTracksStoresAndLoads(t *testing.T) {
	b := NewExprBuilder()
	store := ir.Store{Dest: ir.Register{Name: "rax"}, Src: ir.Register{Name: "rbx"}}
	b.recordUses(store)
	b.NextID++

	cl := b.ChangeLists["rax"]
	if cl == nil || len(cl.Stores) != 1 || cl.LastStore != 1 {
		t.Fatalf("expected rax to have one recorded store at id 1, got %+v", cl)
	}
	rbx := b.ChangeLists["rbx"]
	if rbx == nil || len(rbx.Loads) != 1 || rbx.LastLoad != 1 {
		t.Fatalf("expected rbx to have one recorded load at id 1, got %+v", rbx)
	}
}

func TestSymbolResolverSubstitutesCallTarget(t *testing.T) {
	code := []byte{0xE8, 0x00, 0x00, 0x00, 0x00} // call rel32, target = offset+5
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}
	p.Symbols["foo"] = &prog.Symbol{Name: "foo", Addr: 5}

	d, err := disasm.Disassemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exprs := Program(d)
	resolver := SymbolResolverFor(d)
	if got, want := exprs[0].Print(resolver), "foo()"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
