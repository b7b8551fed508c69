package ir

import "testing"

func TestBinaryPrint(t *testing.T) {
	e := Binary{Op: OpAdd, Lhs: Register{Name: "r0"}, Rhs: Constant{Value: 4}}
	if got, want := e.Print(nil), "(r0 + 4)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDereferencePrint(t *testing.T) {
	e := Dereference{Size: 4, Addr: Register{Name: "rsp"}}
	if got, want := e.Print(nil), "*u32(rsp)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCallSubstitutesSymbol(t *testing.T) {
	resolver := func(addr uint64) (string, bool) {
		if addr == 0x1000 {
			return "main", true
		}
		return "", false
	}
	e := Call{Target: Constant{Value: 0x1000}}
	if got, want := e.Print(resolver), "main()"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCallWithoutSymbolFallsBackToExpr(t *testing.T) {
	e := Call{Target: Constant{Value: 0x2000}}
	if got, want := e.Print(nil), "(8192)()"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGotoSubstitutesSymbol(t *testing.T) {
	resolver := func(addr uint64) (string, bool) {
		return "loop", addr == 0x20
	}
	e := Goto{Target: Constant{Value: 0x20}}
	if got, want := e.Print(resolver), "goto loop"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStorePrint(t *testing.T) {
	e := Store{Dest: Register{Name: "r2"}, Src: Constant{Value: 4}}
	if got, want := e.Print(nil), "r2 = 4"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGroupPrint(t *testing.T) {
	e := Group{Exprs: []Expr{
		Store{Dest: Register{Name: "sp"}, Src: Binary{Op: OpSub, Lhs: Register{Name: "sp"}, Rhs: Constant{Value: 4}}},
		Store{Dest: Dereference{Size: 4, Addr: Register{Name: "sp"}}, Src: Register{Name: "r0"}},
	}}
	want := "do:\n    sp = (sp - 4)\n    *u32(sp) = r0"
	if got := e.Print(nil); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSpecialPrint(t *testing.T) {
	e := Special{Name: "syscall", Args: []Expr{Register{Name: "r0"}, Constant{Value: 1}}}
	if got, want := e.Print(nil), "$syscall(r0, 1)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReturnAndNop(t *testing.T) {
	if (Return{}).Print(nil) != "return" {
		t.Fatal("Return should print \"return\"")
	}
	if (Nop{}).Print(nil) != "nop" {
		t.Fatal("Nop should print \"nop\"")
	}
}
