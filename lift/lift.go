// Package lift assembles the IR list for a disassembly: it runs each
// decoded instruction's Lift, interleaves Label expressions at symbol
// addresses, and keeps the per-register change-list bookkeeping that seeds
// a future data-flow pass.
package lift

import (
	"sort"

	"github.com/go-baretk/baretk/disasm"
	"github.com/go-baretk/baretk/ir"
)

// ChangeList is the append-only per-register log of statement ids at which
// a register is stored, loaded, or used. Nothing in the core consumes this
// yet; it is a contract preserved for a future SSA pass.
type ChangeList struct {
	Uses      []uint64
	Stores    []uint64
	Loads     []uint64
	LastStore uint64
	LastLoad  uint64
}

func (c *ChangeList) addUse(id uint64) { c.Uses = append(c.Uses, id) }

func (c *ChangeList) addStore(id uint64) {
	c.Stores = append(c.Stores, id)
	c.LastStore = id
	c.addUse(id)
}

func (c *ChangeList) addLoad(id uint64) {
	c.Loads = append(c.Loads, id)
	c.LastLoad = id
	c.addUse(id)
}

// ExprBuilder tracks the statement-id counter and the per-register change
// lists while an instruction list is being lifted.
type ExprBuilder struct {
	NextID      uint64
	ChangeLists map[string]*ChangeList
}

// NewExprBuilder returns a builder with its statement-id counter seeded at
// 1, matching the driver's own numbering.
func NewExprBuilder() *ExprBuilder {
	return &ExprBuilder{NextID: 1, ChangeLists: make(map[string]*ChangeList)}
}

func (b *ExprBuilder) changeList(reg string) *ChangeList {
	if cl, ok := b.ChangeLists[reg]; ok {
		return cl
	}
	cl := &ChangeList{}
	b.ChangeLists[reg] = cl
	return cl
}

// recordUses walks a lifted Expr looking for Store nodes whose destination
// or source is a bare Register, and records the use in that register's
// change list at the current statement id.
func (b *ExprBuilder) recordUses(e ir.Expr) {
	switch v := e.(type) {
	case ir.Store:
		if r, ok := v.Dest.(ir.Register); ok {
			b.changeList(r.Name).addStore(b.NextID)
		}
		if r, ok := v.Src.(ir.Register); ok {
			b.changeList(r.Name).addLoad(b.NextID)
		}
	case ir.Group:
		for _, sub := range v.Exprs {
			b.recordUses(sub)
		}
	}
}

// Lift lowers one instruction to an Expr and records its register uses.
func (b *ExprBuilder) Lift(i interface{ Lift() ir.Expr }) ir.Expr {
	expr := i.Lift()
	b.recordUses(expr)
	return expr
}

// Program builds the full IR list for a Disassembly: a Label is inserted
// before each instruction whose offset matches a symbol's address, and the
// instruction itself is always lifted alongside it — the Label never
// replaces the lift, it only precedes it. Each instruction still consumes
// exactly one statement id.
func Program(d *disasm.Disassembly) []ir.Expr {
	section := d.Program.Sections[d.SectionName]
	symbols := d.Program.SymbolsInRange(section.Addr, section.End())
	byOffset := make(map[uint64]string, len(symbols))
	for _, s := range symbols {
		byOffset[s.Addr-section.Addr] = s.Name
	}

	builder := NewExprBuilder()
	exprs := make([]ir.Expr, 0, len(d.Instructions))
	for _, ins := range d.Instructions {
		if name, ok := byOffset[ins.Offset()]; ok {
			exprs = append(exprs, ir.Label{Name: name})
		}
		exprs = append(exprs, builder.Lift(ins))
		builder.NextID++
	}
	return exprs
}

// SymbolResolverFor builds an ir.SymbolResolver from a Program's symbol
// table, letting the printer substitute names into Call/Goto targets.
// Lifted Call/Goto constants carry section-relative addresses (the same
// basis as Instruction.Offset), so the resolver is keyed the same way. It
// covers every symbol at or above the section's start address, including
// call targets that lie past the section's end.
func SymbolResolverFor(d *disasm.Disassembly) ir.SymbolResolver {
	section := d.Program.Sections[d.SectionName]
	symbols := d.Program.SymbolsInRange(section.Addr, ^uint64(0))
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Addr < symbols[j].Addr })
	byOffset := make(map[uint64]string, len(symbols))
	for _, s := range symbols {
		byOffset[s.Addr-section.Addr] = s.Name
	}
	return func(addr uint64) (string, bool) {
		name, ok := byOffset[addr]
		return name, ok
	}
}
