package x86

import "testing"

func TestDecodeRet(t *testing.T) {
	ins, ok := Decode([]byte{0xC3}, 0)
	if !ok || ins.Print() != "ret" {
		t.Fatalf("got %+v, ok=%v", ins, ok)
	}
}

func TestDecodeNop(t *testing.T) {
	ins, ok := Decode([]byte{0x90}, 0)
	if !ok || ins.Print() != "nop" {
		t.Fatalf("got %+v, ok=%v", ins, ok)
	}
}

func TestDecodePushMovPopRet(t *testing.T) {
	code := []byte{0x55, 0x48, 0x89, 0xE5, 0x5D, 0xC3}
	off := 0
	var prints []string
	for off < len(code) {
		ins, ok := Decode(code, off)
		if !ok {
			t.Fatalf("decode failed at offset %d", off)
		}
		prints = append(prints, ins.Print())
		off += ins.Size()
	}
	want := []string{"push rbp", "mov rbp, rsp", "pop rbp", "ret"}
	if len(prints) != len(want) {
		t.Fatalf("got %v, want %v", prints, want)
	}
	for i := range want {
		if prints[i] != want[i] {
			t.Fatalf("instruction %d: got %q, want %q", i, prints[i], want[i])
		}
	}
}

func TestCallRel32(t *testing.T) {
	code := make([]byte, 0x105)
	copy(code[0x100:], []byte{0xE8, 0x00, 0x00, 0x00, 0x00})
	ins, ok := Decode(code, 0x100)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if got, want := ins.Print(), "call 0x105"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTestOpcode0x84LiftsToTest(t *testing.T) {
	// 0x84 0xC0 = test al, al
	code := []byte{0x84, 0xC0}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if ins.Mnemonic != "test" {
		t.Fatalf("got mnemonic %q, want test (the 0x84 TEST-vs-MOV lifter bug must not be reproduced)", ins.Mnemonic)
	}
}

func TestRexWWidensMovToQWord(t *testing.T) {
	// 48 89 E5 = mov rbp, rsp
	code := []byte{0x48, 0x89, 0xE5}
	ins, ok := Decode(code, 0)
	if !ok {
		t.Fatal("expected a successful decode")
	}
	if !ins.RexW {
		t.Fatal("expected RexW to be set")
	}
	if ins.Size() != 3 {
		t.Fatalf("got size %d, want 3", ins.Size())
	}
	if ins.Dst.Size != SizeQWord || ins.Src.Size != SizeQWord {
		t.Fatalf("got operand sizes %d/%d, want QWORD", ins.Dst.Size, ins.Src.Size)
	}
}

func TestMovImmediateByte(t *testing.T) {
	// B0 05 = mov al, 5
	code := []byte{0xB0, 0x05}
	ins, ok := Decode(code, 0)
	if !ok || ins.Print() != "mov al, 5" {
		t.Fatalf("got %+v ok=%v", ins, ok)
	}
}
