package decomp

import (
	"strings"
	"testing"

	"github.com/go-baretk/baretk/prog"
)

func TestFromProgramPrintsFunctionHeaderAndBody(t *testing.T) {
	code := []byte{0x55, 0x48, 0x89, 0xE5, 0x5D, 0xC3}
	p := prog.New(64, prog.LittleEndian, prog.MachineAMD64)
	p.Sections["file"] = &prog.Section{Name: "file", Bytes: code}

	dc, err := FromProgram(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := dc.Print()
	if !strings.HasPrefix(out, "fn sub_00000000:\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "do:\n") {
		t.Fatalf("expected a push/pop Group rendered with \"do:\", got:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Fatalf("expected a return statement, got:\n%s", out)
	}
}
