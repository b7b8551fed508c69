package riscv

import (
	"testing"

	"github.com/go-baretk/baretk/ir"
)

func TestDecodeADDI(t *testing.T) {
	// 0x00100513 = addi a0, Zero, 1
	code := []byte{0x13, 0x05, 0x10, 0x00}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "addi a0, Zero, 1"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	lifted := ins.Lift()
	store, ok := lifted.(ir.Store)
	if !ok {
		t.Fatalf("expected a Store, got %T", lifted)
	}
	if store.Dest.(ir.Register).Name != "a0" {
		t.Fatal("expected destination register a0")
	}
}

func TestDecodeCompressedJR(t *testing.T) {
	code := []byte{0x82, 0x80}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "ret"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, ok := ins.Lift().(ir.Return); !ok {
		t.Fatalf("expected Return, got %T", ins.Lift())
	}
}

func TestCompressedJRMatchesExplicitJALR(t *testing.T) {
	// JALR x0, x5, 0 : opcode=1100111, funct3=0, rd=0, rs1=5, imm=0
	word := uint32(0b0000000_00000_00101_000_00000_1100111)
	code := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
	explicit, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}

	cjr := []byte{0x82, 0x82} // C.JR x5: rd field = 00101
	compressed, ok := Decode(cjr, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}

	if explicit.Lift() != compressed.Lift() {
		t.Fatalf("expected identical lifted IR: explicit=%+v compressed=%+v", explicit.Lift(), compressed.Lift())
	}
}

func TestTruncatedThirtyTwoBitInstruction(t *testing.T) {
	code := []byte{0x13, 0x05, 0x10}
	if _, ok := Decode(code, 0); ok {
		t.Fatal("expected decode to fail with only 3 bytes available for a 4-byte instruction")
	}
}
