package isa

import "testing"

func TestUnknownSatisfiesInstruction(t *testing.T) {
	var i Instruction = Unknown{At: 0x10, Width: 4, Reason: "unrecognized opcode"}
	if i.Offset() != 0x10 {
		t.Fatalf("got offset %d, want 0x10", i.Offset())
	}
	if i.Size() != 4 {
		t.Fatalf("got size %d, want 4", i.Size())
	}
	if i.Print() == "" {
		t.Fatal("Print should not be empty")
	}
	if i.Lift() == nil {
		t.Fatal("Lift should return a non-nil placeholder expression")
	}
}
