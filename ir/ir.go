// Package ir defines the expression tree every architecture's lifter targets
// and the pseudocode printer that renders it. Keeping the tree small and
// shared across ARM, x86 and RISC-V is what lets one decompiler front end
// serve all three decoders.
package ir

import (
	"fmt"
	"strings"
)

// BinOp names a Binary expression's operator.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpLsl
	OpLsr
	OpAsr
	OpCmp
	OpLt
	OpGt
	OpLte
	OpGte
	OpEq
	OpNeq
	OpRor
	OpAndAnd
	OpOrOr
)

var binOpSymbol = map[BinOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpAnd: "&", OpOr: "|", OpXor: "^",
	OpLsl: "<<", OpLsr: ">>", OpAsr: ">>>", OpLt: "<", OpGt: ">", OpLte: "<=",
	OpGte: ">=", OpEq: "==", OpNeq: "!=", OpAndAnd: "&&", OpOrOr: "||",
}

// Expr is one node of the shared decompilation IR. Every lifter, regardless
// of source architecture, builds a tree of these.
type Expr interface {
	// Print renders the node as pseudocode. symbols resolves a constant
	// address to a name for Call/Goto targets; it may be nil.
	Print(symbols SymbolResolver) string
}

// SymbolResolver maps an address to a symbol name, if one covers it.
type SymbolResolver func(addr uint64) (string, bool)

// Constant is a literal integer operand.
type Constant struct{ Value int64 }

func (c Constant) Print(SymbolResolver) string { return fmt.Sprintf("%d", c.Value) }

// Register names a machine register by its architecture-specific name.
type Register struct{ Name string }

func (r Register) Print(SymbolResolver) string { return r.Name }

// Label marks a symbol's address in the instruction stream. Printed as
// "name:" by the enclosing printer rather than inline.
type Label struct{ Name string }

func (l Label) Print(SymbolResolver) string { return l.Name }

// Dereference reads Size bytes of memory at the address Addr evaluates to.
type Dereference struct {
	Size uint8
	Addr Expr
}

func (d Dereference) Print(symbols SymbolResolver) string {
	inner := d.Addr.Print(symbols)
	switch d.Size {
	case 1:
		return fmt.Sprintf("*u8(%s)", inner)
	case 2:
		return fmt.Sprintf("*u16(%s)", inner)
	case 4:
		return fmt.Sprintf("*u32(%s)", inner)
	case 8:
		return fmt.Sprintf("*u64(%s)", inner)
	default:
		return fmt.Sprintf("*(%s)", inner)
	}
}

// Binary applies Op to Lhs and Rhs.
type Binary struct {
	Op       BinOp
	Lhs, Rhs Expr
}

func (b Binary) Print(symbols SymbolResolver) string {
	lhs := b.Lhs.Print(symbols)
	rhs := b.Rhs.Print(symbols)
	if b.Op == OpCmp {
		return fmt.Sprintf("cmp(%s, %s)", lhs, rhs)
	}
	sym, ok := binOpSymbol[b.Op]
	if !ok {
		sym = "?"
	}
	return fmt.Sprintf("(%s %s %s)", lhs, sym, rhs)
}

// Store assigns Src to Dest.
type Store struct{ Dest, Src Expr }

func (s Store) Print(symbols SymbolResolver) string {
	return fmt.Sprintf("%s = %s", s.Dest.Print(symbols), s.Src.Print(symbols))
}

// Call invokes Target, substituting the callee's symbol name when Target is
// a Constant address covered by a known symbol.
type Call struct{ Target Expr }

func (c Call) Print(symbols SymbolResolver) string {
	if k, ok := c.Target.(Constant); ok && symbols != nil {
		if name, found := symbols(uint64(k.Value)); found {
			return fmt.Sprintf("%s()", name)
		}
	}
	return fmt.Sprintf("(%s)()", c.Target.Print(symbols))
}

// Goto is an unconditional jump to Target, with the same symbol
// substitution behavior as Call.
type Goto struct{ Target Expr }

func (g Goto) Print(symbols SymbolResolver) string {
	if k, ok := g.Target.(Constant); ok && symbols != nil {
		if name, found := symbols(uint64(k.Value)); found {
			return fmt.Sprintf("goto %s", name)
		}
	}
	return fmt.Sprintf("goto (%s)", g.Target.Print(symbols))
}

// If is a conditional. Else is nil for a one-armed conditional.
type If struct {
	Cond, Then, Else Expr
}

func (i If) Print(symbols SymbolResolver) string {
	out := fmt.Sprintf("if (%s) %s", i.Cond.Print(symbols), i.Then.Print(symbols))
	if i.Else != nil {
		out += fmt.Sprintf("\nelse %s", i.Else.Print(symbols))
	}
	return out
}

// Group bundles several expressions into one compound statement, used for
// instructions (like LDM/STM or PUSH/POP) that expand to more than one
// primitive effect.
type Group struct{ Exprs []Expr }

func (g Group) Print(symbols SymbolResolver) string {
	var b strings.Builder
	b.WriteString("do:\n")
	for i, e := range g.Exprs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("    ")
		b.WriteString(e.Print(symbols))
	}
	return b.String()
}

// Special represents an architecture-specific effect with no general
// expression shape (e.g. a syscall trap, a barrier, an undefined-behavior
// marker).
type Special struct {
	Name string
	Args []Expr
}

func (s Special) Print(symbols SymbolResolver) string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.Print(symbols)
	}
	return fmt.Sprintf("$%s(%s)", s.Name, strings.Join(parts, ", "))
}

// Nop lifts from an instruction with no modeled semantic effect.
type Nop struct{}

func (Nop) Print(SymbolResolver) string { return "nop" }

// Return lifts a function-return instruction.
type Return struct{}

func (Return) Print(SymbolResolver) string { return "return" }
