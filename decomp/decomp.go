// Package decomp ties a Disassembly, the lifter's IR list and the IR
// printer together into one pseudocode function unit.
package decomp

import (
	"fmt"
	"strings"

	"github.com/go-baretk/baretk/disasm"
	"github.com/go-baretk/baretk/ir"
	"github.com/go-baretk/baretk/lift"
	"github.com/go-baretk/baretk/prog"
)

// Decomp holds a disassembly and its lifted expression list.
type Decomp struct {
	Disassembly *disasm.Disassembly
	Exprs       []ir.Expr
	resolver    ir.SymbolResolver
}

// FromProgram disassembles p and lifts the result into a Decomp.
func FromProgram(p *prog.Program) (*Decomp, error) {
	d, err := disasm.Disassemble(p)
	if err != nil {
		return nil, fmt.Errorf("decomp: %w", err)
	}
	return FromDisassembly(d), nil
}

// FromDisassembly lifts an existing Disassembly into a Decomp.
func FromDisassembly(d *disasm.Disassembly) *Decomp {
	return &Decomp{
		Disassembly: d,
		Exprs:       lift.Program(d),
		resolver:    lift.SymbolResolverFor(d),
	}
}

// Print renders the function header and one indented IR line per
// statement; a Label expression prints as "name:" instead of being
// indented, matching the disassembly printer's label convention.
func (dc *Decomp) Print() string {
	section := dc.Disassembly.Program.Sections[dc.Disassembly.SectionName]
	var b strings.Builder
	fmt.Fprintf(&b, "fn sub_%08x:\n", section.Addr)
	for _, e := range dc.Exprs {
		if lbl, ok := e.(ir.Label); ok {
			fmt.Fprintf(&b, "%s:\n", lbl.Name)
			continue
		}
		fmt.Fprintf(&b, "    %s\n", e.Print(dc.resolver))
	}
	return b.String()
}
