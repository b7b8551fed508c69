// Package x86 decodes the variable-length x86/x86-64 instruction subset
// named in the core design: the arithmetic/logic/compare groups, push/pop,
// immediate arithmetic, test/mov, nop, mov-immediate, ret and call rel32.
package x86

import (
	"fmt"

	"github.com/go-baretk/baretk/bits"
	"github.com/go-baretk/baretk/ir"
)

// Size is an operand's width in bytes.
type Size uint8

const (
	SizeByte  Size = 1
	SizeWord  Size = 2
	SizeDWord Size = 4
	SizeQWord Size = 8
)

func (s Size) ptrKeyword() string {
	switch s {
	case SizeByte:
		return "BYTE PTR"
	case SizeWord:
		return "WORD PTR"
	case SizeQWord:
		return "QWORD PTR"
	default:
		return "DWORD PTR"
	}
}

var byteLow = [...]string{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil",
	"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"}
var byteHigh = [...]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}
var wordNames = [...]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
	"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w"}
var dwordNames = [...]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"}
var qwordNames = [...]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}

// regName returns the register mnemonic for encoded register reg at the
// given operand size. highByte selects the legacy AH/CH/DH/BH slot for a
// byte-size reg in [4,7] when no REX prefix is present.
func regName(reg int, size Size, highByte bool) string {
	switch size {
	case SizeByte:
		if highByte && reg >= 4 && reg <= 7 {
			return byteHigh[reg]
		}
		return byteLow[reg]
	case SizeWord:
		return wordNames[reg]
	case SizeQWord:
		return qwordNames[reg]
	default:
		return dwordNames[reg]
	}
}

// ArithOp is one of the eight arithmetic/logic/compare groups sharing the
// 0x00-0x3C opcode layout, and the 0x80/0x83 immediate-group selector.
type ArithOp uint8

const (
	ArithAdd ArithOp = iota
	ArithOr
	ArithAdc
	ArithSbb
	ArithAnd
	ArithSub
	ArithXor
	ArithCmp
)

var arithMnemonic = [...]string{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}
var arithToIR = [...]ir.BinOp{ir.OpAdd, ir.OpOr, ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpSub, ir.OpXor, ir.OpCmp}

// OperandKind discriminates a decoded Operand.
type OperandKind uint8

const (
	OperandReg OperandKind = iota
	OperandMem
	OperandImm
)

// Operand is a decoded x86 operand: a register, a memory reference, or an
// immediate.
type Operand struct {
	Kind OperandKind
	Size Size

	Reg int // valid when Kind == OperandReg

	// Memory form.
	HasBase  bool
	Base     int
	HasIndex bool
	Index    int
	Scale    uint8
	Disp     int32
	RIPRel   bool

	Imm int64
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return regName(o.Reg, o.Size, true)
	case OperandImm:
		return fmt.Sprintf("%d", o.Imm)
	default:
		return o.memString()
	}
}

func (o Operand) memString() string {
	var inner string
	switch {
	case o.RIPRel:
		inner = fmt.Sprintf("rip%+d", o.Disp)
	case o.HasBase && o.HasIndex:
		inner = fmt.Sprintf("%s+%s*%d", qwordNames[o.Base], qwordNames[o.Index], o.Scale)
		if o.Disp != 0 {
			inner += fmt.Sprintf("%+d", o.Disp)
		}
	case o.HasBase:
		inner = qwordNames[o.Base]
		if o.Disp != 0 {
			inner += fmt.Sprintf("%+d", o.Disp)
		}
	default:
		inner = fmt.Sprintf("%d", o.Disp)
	}
	return fmt.Sprintf("%s [%s]", o.Size.ptrKeyword(), inner)
}

func (o Operand) toExpr() ir.Expr {
	switch o.Kind {
	case OperandReg:
		return ir.Register{Name: regName(o.Reg, o.Size, true)}
	case OperandImm:
		return ir.Constant{Value: o.Imm}
	default:
		addr := memAddrExpr(o)
		return ir.Dereference{Size: uint8(o.Size), Addr: addr}
	}
}

func memAddrExpr(o Operand) ir.Expr {
	switch {
	case o.RIPRel:
		return ir.Binary{Op: ir.OpAdd, Lhs: ir.Register{Name: "rip"}, Rhs: ir.Constant{Value: int64(o.Disp)}}
	case o.HasBase && o.HasIndex:
		scaled := ir.Expr(ir.Binary{Op: ir.OpMul, Lhs: ir.Register{Name: qwordNames[o.Index]}, Rhs: ir.Constant{Value: int64(o.Scale)}})
		base := ir.Expr(ir.Binary{Op: ir.OpAdd, Lhs: ir.Register{Name: qwordNames[o.Base]}, Rhs: scaled})
		if o.Disp != 0 {
			return ir.Binary{Op: ir.OpAdd, Lhs: base, Rhs: ir.Constant{Value: int64(o.Disp)}}
		}
		return base
	case o.HasBase:
		if o.Disp == 0 {
			return ir.Register{Name: qwordNames[o.Base]}
		}
		return ir.Binary{Op: ir.OpAdd, Lhs: ir.Register{Name: qwordNames[o.Base]}, Rhs: ir.Constant{Value: int64(o.Disp)}}
	default:
		return ir.Constant{Value: int64(o.Disp)}
	}
}

// Instruction is one decoded x86/x86-64 instruction.
type Instruction struct {
	Mnemonic string
	At       uint64
	Len      int
	RexW     bool

	HasDst, HasSrc bool
	Dst, Src       Operand

	IsRet  bool
	IsNop  bool
	IsCall bool
	CallTarget int64
}

func (i Instruction) Offset() uint64 { return i.At }
func (i Instruction) Size() int      { return i.Len }

// Decode decodes one instruction from code at off. A leading REX.W byte
// (0x48) is handled by a recursive decode of the following bytes and folded
// into the returned instruction's offset and size.
func Decode(code []byte, off int) (Instruction, bool) {
	return decode(code, off, false, 0)
}

func decode(code []byte, off int, rexW bool, prefixLen int) (Instruction, bool) {
	if off >= len(code) {
		return Instruction{}, false
	}
	opcode := code[off]

	// REX.W prefix: recursive decode at off+1, then fold the prefix byte
	// into the returned instruction's offset and size.
	if opcode == 0x48 && !rexW {
		ins, ok := decode(code, off+1, true, prefixLen+1)
		if !ok {
			return Instruction{}, false
		}
		ins.At -= 1
		ins.Len += 1
		ins.RexW = true
		return ins, true
	}

	dwordSize := Size(SizeDWord)
	if rexW {
		dwordSize = SizeQWord
	}

	switch {
	case opcode <= 0x3C && (opcode&0x7) <= 0x04 && opcode/8 <= 7:
		return decodeArithGroup(code, off, opcode, dwordSize)
	case opcode >= 0x50 && opcode <= 0x57:
		reg := int(opcode - 0x50)
		return Instruction{
			Mnemonic: "push", At: uint64(off), Len: 1,
			HasSrc: true, Src: Operand{Kind: OperandReg, Size: SizeQWord, Reg: reg},
		}, true
	case opcode >= 0x58 && opcode <= 0x5F:
		reg := int(opcode - 0x58)
		return Instruction{
			Mnemonic: "pop", At: uint64(off), Len: 1,
			HasDst: true, Dst: Operand{Kind: OperandReg, Size: SizeQWord, Reg: reg},
		}, true
	case opcode == 0x80 || opcode == 0x83:
		return decodeArithImm(code, off, opcode, dwordSize)
	case opcode == 0x84 || opcode == 0x85:
		return decodeTest(code, off, opcode, dwordSize)
	case opcode >= 0x88 && opcode <= 0x8B:
		return decodeMovRM(code, off, opcode, dwordSize)
	case opcode == 0x90:
		return Instruction{Mnemonic: "nop", At: uint64(off), Len: 1, IsNop: true}, true
	case opcode >= 0xB0 && opcode <= 0xB7:
		reg := int(opcode - 0xB0)
		if off+2 > len(code) {
			return Instruction{}, false
		}
		imm := code[off+1]
		return Instruction{
			Mnemonic: "mov", At: uint64(off), Len: 2,
			HasDst: true, Dst: Operand{Kind: OperandReg, Size: SizeByte, Reg: reg},
			HasSrc: true, Src: Operand{Kind: OperandImm, Size: SizeByte, Imm: int64(imm)},
		}, true
	case opcode >= 0xB8 && opcode <= 0xBF:
		reg := int(opcode - 0xB8)
		if off+5 > len(code) {
			return Instruction{}, false
		}
		imm := bits.LoadU32(code, off+1, bits.LittleEndian)
		return Instruction{
			Mnemonic: "mov", At: uint64(off), Len: 5,
			HasDst: true, Dst: Operand{Kind: OperandReg, Size: dwordSize, Reg: reg},
			HasSrc: true, Src: Operand{Kind: OperandImm, Size: dwordSize, Imm: int64(imm)},
		}, true
	case opcode == 0xC3:
		return Instruction{Mnemonic: "ret", At: uint64(off), Len: 1, IsRet: true}, true
	case opcode == 0xE8:
		if off+5 > len(code) {
			return Instruction{}, false
		}
		rel := int32(bits.LoadU32(code, off+1, bits.LittleEndian))
		target := int64(off) + 5 + int64(rel)
		return Instruction{
			Mnemonic: "call", At: uint64(off), Len: 5, IsCall: true, CallTarget: target,
		}, true
	}

	return Instruction{}, false
}

// decodeArithGroup handles 0x00..0x3C: eight groups x five forms
// (Eb,Gb | Ev,Gv | Gb,Eb | Gv,Ev | AL,Ib).
func decodeArithGroup(code []byte, off int, opcode byte, dwordSize Size) (Instruction, bool) {
	group := ArithOp(opcode / 8)
	form := opcode % 8
	at := uint64(off)
	mnemonic := arithMnemonic[group]

	if form == 4 {
		if off+2 > len(code) {
			return Instruction{}, false
		}
		imm := code[off+1]
		return Instruction{
			Mnemonic: mnemonic, At: at, Len: 2,
			HasDst: true, Dst: Operand{Kind: OperandReg, Size: SizeByte, Reg: 0},
			HasSrc: true, Src: Operand{Kind: OperandImm, Size: SizeByte, Imm: int64(imm)},
		}, true
	}

	size := SizeByte
	if form == 1 || form == 3 {
		size = dwordSize
	}
	swap := form == 2 || form == 3

	rm, reg, n, ok := decodeModRM(code, off+1, size)
	if !ok {
		return Instruction{}, false
	}
	ins := Instruction{Mnemonic: mnemonic, At: at, Len: 1 + n, HasDst: true, HasSrc: true}
	regOp := Operand{Kind: OperandReg, Size: size, Reg: reg}
	if swap {
		ins.Dst, ins.Src = regOp, rm
	} else {
		ins.Dst, ins.Src = rm, regOp
	}
	return ins, true
}

// decodeArithImm handles 0x80/0x83: arithmetic with an 8-bit immediate
// against a ModR/M operand, operation chosen by the reg field.
func decodeArithImm(code []byte, off int, opcode byte, dwordSize Size) (Instruction, bool) {
	size := SizeByte
	if opcode == 0x83 {
		size = dwordSize
	}
	rm, regField, n, ok := decodeModRM(code, off+1, size)
	if !ok {
		return Instruction{}, false
	}
	immOff := off + 1 + n
	if immOff >= len(code) {
		return Instruction{}, false
	}
	imm := int64(int8(code[immOff]))
	group := ArithOp(regField)
	return Instruction{
		Mnemonic: arithMnemonic[group], At: uint64(off), Len: 1 + n + 1,
		HasDst: true, Dst: rm,
		HasSrc: true, Src: Operand{Kind: OperandImm, Size: size, Imm: imm},
	}, true
}

func decodeTest(code []byte, off int, opcode byte, dwordSize Size) (Instruction, bool) {
	size := SizeByte
	if opcode == 0x85 {
		size = dwordSize
	}
	rm, reg, n, ok := decodeModRM(code, off+1, size)
	if !ok {
		return Instruction{}, false
	}
	return Instruction{
		Mnemonic: "test", At: uint64(off), Len: 1 + n,
		HasDst: true, Dst: rm,
		HasSrc: true, Src: Operand{Kind: OperandReg, Size: size, Reg: reg},
	}, true
}

func decodeMovRM(code []byte, off int, opcode byte, dwordSize Size) (Instruction, bool) {
	size := SizeByte
	if opcode == 0x89 || opcode == 0x8B {
		size = dwordSize
	}
	swap := opcode == 0x8A || opcode == 0x8B
	rm, reg, n, ok := decodeModRM(code, off+1, size)
	if !ok {
		return Instruction{}, false
	}
	ins := Instruction{Mnemonic: "mov", At: uint64(off), Len: 1 + n, HasDst: true, HasSrc: true}
	regOp := Operand{Kind: OperandReg, Size: size, Reg: reg}
	if swap {
		ins.Dst, ins.Src = regOp, rm
	} else {
		ins.Dst, ins.Src = rm, regOp
	}
	return ins, true
}

// decodeModRM reads the ModR/M byte (and SIB/displacement, if any) at off,
// returning the r/m operand, the reg field, and the number of bytes the
// whole ModR/M form consumed.
func decodeModRM(code []byte, off int, size Size) (rm Operand, reg int, n int, ok bool) {
	if off >= len(code) {
		return Operand{}, 0, 0, false
	}
	b := code[off]
	mod := bits.Extract(uint32(b), 7, 6)
	reg = int(bits.Extract(uint32(b), 5, 3))
	rmField := int(bits.Extract(uint32(b), 2, 0))
	n = 1

	if mod == 0b11 {
		return Operand{Kind: OperandReg, Size: size, Reg: rmField}, reg, n, true
	}

	m := Operand{Kind: OperandMem, Size: size}

	if mod == 0b00 && rmField == 4 {
		if off+1 >= len(code) {
			return Operand{}, 0, 0, false
		}
		sib := code[off+1]
		n++
		scale := uint8(1) << bits.Extract(uint32(sib), 7, 6)
		index := int(bits.Extract(uint32(sib), 5, 3))
		base := int(bits.Extract(uint32(sib), 2, 0))
		m.Scale = scale
		if index != 4 {
			m.HasIndex, m.Index = true, index
		}
		m.HasBase, m.Base = true, base
		return m, reg, n, true
	}
	if mod == 0b00 && rmField == 5 {
		if off+5 > len(code) {
			return Operand{}, 0, 0, false
		}
		disp := int32(bits.LoadU32(code, off+1, bits.LittleEndian))
		n += 4
		m.RIPRel = true
		m.Disp = disp
		return m, reg, n, true
	}
	if mod == 0b00 {
		m.HasBase, m.Base = true, rmField
		return m, reg, n, true
	}
	if mod == 0b01 {
		if off+2 > len(code) {
			return Operand{}, 0, 0, false
		}
		m.HasBase, m.Base = true, rmField
		m.Disp = int32(int8(code[off+1]))
		n++
		return m, reg, n, true
	}
	// mod == 0b10: 32-bit displacement, not in the named subset but decoded
	// for completeness since the ModR/M shape is identical to mod=01.
	if off+5 > len(code) {
		return Operand{}, 0, 0, false
	}
	m.HasBase, m.Base = true, rmField
	m.Disp = int32(bits.LoadU32(code, off+1, bits.LittleEndian))
	n += 4
	return m, reg, n, true
}

// Print renders the instruction in Intel syntax.
func (i Instruction) Print() string {
	switch {
	case i.IsRet:
		return "ret"
	case i.IsNop:
		return "nop"
	case i.IsCall:
		return fmt.Sprintf("call 0x%x", i.CallTarget)
	}
	if i.HasDst && i.HasSrc {
		return fmt.Sprintf("%s %s, %s", i.Mnemonic, i.Dst.String(), i.Src.String())
	}
	if i.HasSrc {
		return fmt.Sprintf("%s %s", i.Mnemonic, i.Src.String())
	}
	if i.HasDst {
		return fmt.Sprintf("%s %s", i.Mnemonic, i.Dst.String())
	}
	return i.Mnemonic
}

// Lift translates the instruction to the shared expression IR.
func (i Instruction) Lift() ir.Expr {
	switch {
	case i.IsRet:
		return ir.Return{}
	case i.IsNop:
		return ir.Nop{}
	case i.IsCall:
		return ir.Call{Target: ir.Constant{Value: i.CallTarget}}
	case i.Mnemonic == "push":
		sp := ir.Register{Name: "rsp"}
		return ir.Group{Exprs: []ir.Expr{
			ir.Store{Dest: sp, Src: ir.Binary{Op: ir.OpSub, Lhs: sp, Rhs: ir.Constant{Value: 8}}},
			ir.Store{Dest: ir.Dereference{Size: 8, Addr: sp}, Src: i.Src.toExpr()},
		}}
	case i.Mnemonic == "pop":
		sp := ir.Register{Name: "rsp"}
		return ir.Group{Exprs: []ir.Expr{
			ir.Store{Dest: i.Dst.toExpr(), Src: ir.Dereference{Size: 8, Addr: sp}},
			ir.Store{Dest: sp, Src: ir.Binary{Op: ir.OpAdd, Lhs: sp, Rhs: ir.Constant{Value: 8}}},
		}}
	case i.Mnemonic == "mov":
		return ir.Store{Dest: i.Dst.toExpr(), Src: i.Src.toExpr()}
	case i.Mnemonic == "test":
		return ir.Binary{Op: ir.OpAnd, Lhs: i.Dst.toExpr(), Rhs: i.Src.toExpr()}
	case i.Mnemonic == "cmp":
		return ir.Binary{Op: ir.OpCmp, Lhs: i.Dst.toExpr(), Rhs: i.Src.toExpr()}
	case isArith(i.Mnemonic):
		op := arithIROp(i.Mnemonic)
		return ir.Store{Dest: i.Dst.toExpr(), Src: ir.Binary{Op: op, Lhs: i.Dst.toExpr(), Rhs: i.Src.toExpr()}}
	default:
		return ir.Nop{}
	}
}

func isArith(m string) bool {
	switch m {
	case "add", "or", "adc", "sbb", "and", "sub", "xor":
		return true
	}
	return false
}

func arithIROp(m string) ir.BinOp {
	for idx, name := range arithMnemonic {
		if name == m {
			return arithToIR[idx]
		}
	}
	return ir.OpAdd
}
