package prog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytesWholeFileFallback(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	p := FromBytes(data, 32, LittleEndian, MachineARM)

	sect, ok := p.DecodeSection()
	require.True(t, ok, "expected a decodable section")
	require.Equal(t, "file", sect.Name)
	require.Len(t, p.Segments, 1)
	require.Equal(t, uint64(len(data)), p.Segments[0].Size, "expected one RWX segment covering the whole file")
}

func TestDecodeSectionPrefersText(t *testing.T) {
	p := New(64, LittleEndian, MachineX86)
	p.Sections["file"] = &Section{Name: "file", Addr: 0, Bytes: []byte{0x90}}
	p.Sections[".text"] = &Section{Name: ".text", Addr: 0x1000, Bytes: []byte{0xC3}}

	sect, ok := p.DecodeSection()
	require.True(t, ok)
	require.Equal(t, ".text", sect.Name, "expected .text to be preferred over file fallback")
}

func TestSymbolsInRange(t *testing.T) {
	p := New(64, LittleEndian, MachineX86)
	p.Symbols["main"] = &Symbol{Name: "main", Addr: 0x1000}
	p.Symbols["foo"] = &Symbol{Name: "foo", Addr: 0x1010}
	p.Symbols["outside"] = &Symbol{Name: "outside", Addr: 0x2000}

	syms := p.SymbolsInRange(0x1000, 0x1020)
	require.Len(t, syms, 2)
	require.LessOrEqual(t, syms[0].Addr, syms[1].Addr, "symbols should be sorted by address")
}

func TestSymbolAt(t *testing.T) {
	p := New(64, LittleEndian, MachineX86)
	p.Symbols["foo"] = &Symbol{Name: "foo", Addr: 0x105}

	sym, ok := p.SymbolAt(0x105)
	require.True(t, ok, "expected to find symbol foo at 0x105")
	require.Equal(t, "foo", sym.Name)

	_, ok = p.SymbolAt(0x106)
	require.False(t, ok, "did not expect a symbol at 0x106")
}
