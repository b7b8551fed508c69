package arm

import (
	"testing"

	"github.com/go-baretk/baretk/ir"
)

func TestDecodeDataProcessingMovImmediate(t *testing.T) {
	// 0xE3A02004 = mov r2, #4
	code := []byte{0x04, 0x20, 0xA0, 0xE3}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "mov r2, #4"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecodeZeroWordIsAndEq(t *testing.T) {
	code := []byte{0x00, 0x00, 0x00, 0x00}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if ins.Op != OpAND {
		t.Fatalf("got op %v, want AND", ins.Op)
	}
	if ins.Cond != CondEQ {
		t.Fatalf("got cond %v, want EQ", ins.Cond)
	}
	if ins.SetFlags {
		t.Fatal("set-flags bit should be clear")
	}
}

func TestDecodeBranch(t *testing.T) {
	// word 0xEAFFFFF9 (opcode B, imm24 = 0xFFFFF9 = -7) at offset 0x20:
	// target = 0x20 + 8 + (-7 << 2) = 0x0C
	code := make([]byte, 0x24)
	copy(code[0x20:], []byte{0xF9, 0xFF, 0xFF, 0xEA})
	ins, ok := Decode(code, 0x20)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "b _0000000c"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMovSameRegisterIsNop(t *testing.T) {
	// mov r1, r1 : cond=AL(1110), 00, opcode MOV(1101), S=0, Rn=0000, Rd=0001, Operand2=reg Rm=r1 no shift
	// 1110 00 0 1101 0 0000 0001 00000000 0001
	code := []byte{0x01, 0x10, 0xA0, 0xE1}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "nop"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecodeBicLiftsToAndNot(t *testing.T) {
	// 0xE3C1000F = bic r0, r1, #15 (I=1, opcode=1110=BIC, Rn=r1, Rd=r0, imm8=15)
	code := []byte{0x0F, 0x00, 0xC1, 0xE3}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "bic r0, r1, #15"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	want := ir.Store{
		Dest: ir.Register{Name: "r0"},
		Src: ir.Binary{
			Op:  ir.OpAnd,
			Lhs: ir.Register{Name: "r1"},
			Rhs: ir.Binary{Op: ir.OpXor, Lhs: ir.Constant{Value: 15}, Rhs: ir.Constant{Value: -1}},
		},
	}
	if got := ins.Lift(); got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestTruncatedInputFailsToDecode(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03}
	if _, ok := Decode(code, 0); ok {
		t.Fatal("expected decode to fail on a 3-byte buffer")
	}
}
