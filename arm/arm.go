// Package arm decodes 32-bit ARM A32 instruction words into a tagged
// Instruction, prints them in the "mnemonic{cond}{s} Rd, Rn, operand2"
// style, and lifts every decoded form to the shared IR.
package arm

import (
	"fmt"
	"strings"

	"github.com/go-baretk/baretk/bits"
	"github.com/go-baretk/baretk/ir"
)

// Cond is one of ARM's 14 conditional codes, plus AL (always, printed as
// the empty string).
type Cond uint8

const (
	CondEQ Cond = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
)

var condNames = [...]string{"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc", "hi", "ls", "ge", "lt", "gt", "le", ""}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return ""
}

// Op tags the decoded instruction's operation.
type Op uint8

const (
	OpBX Op = iota
	OpB
	OpBL
	OpLDM
	OpSTM
	OpMUL
	OpMLA
	OpMRS
	OpMSR
	OpSWI
	OpLDR
	OpSTR
	OpAND
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
	OpUnknown
)

var opMnemonic = map[Op]string{
	OpBX: "bx", OpB: "b", OpBL: "bl", OpLDM: "ldm", OpSTM: "stm",
	OpMUL: "mul", OpMLA: "mla", OpMRS: "mrs", OpMSR: "msr", OpSWI: "swi",
	OpLDR: "ldr", OpSTR: "str", OpAND: "and", OpEOR: "eor", OpSUB: "sub",
	OpRSB: "rsb", OpADD: "add", OpADC: "adc", OpSBC: "sbc", OpRSC: "rsc",
	OpTST: "tst", OpTEQ: "teq", OpCMP: "cmp", OpCMN: "cmn", OpORR: "orr",
	OpMOV: "mov", OpBIC: "bic", OpMVN: "mvn",
}

// dataProcOps maps the 4-bit data-processing opcode field to an Op, in the
// order the field is encoded (bextr(24,21)).
var dataProcOps = [...]Op{OpAND, OpEOR, OpSUB, OpRSB, OpADD, OpADC, OpSBC, OpRSC,
	OpTST, OpTEQ, OpCMP, OpCMN, OpORR, OpMOV, OpBIC, OpMVN}

// ShiftType is ARM's four register-shift kinds.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

var shiftNames = [...]string{"lsl", "lsr", "asr", "ror"}

func regName(n int) string {
	switch n {
	case 13:
		return "sp"
	case 14:
		return "lr"
	case 15:
		return "pc"
	default:
		return fmt.Sprintf("r%d", n)
	}
}

// Operand2 is the data-processing second operand: either a shifted
// register or a rotated 8-bit immediate.
type Operand2 struct {
	IsImm     bool
	Imm       uint32 // effective value after rotation, when IsImm
	Rm        int
	Shift     ShiftType
	ShiftImm  uint32
	ShiftByRs bool
	Rs        int
}

func (o Operand2) String() string {
	if o.IsImm {
		return fmt.Sprintf("#%d", o.Imm)
	}
	if o.ShiftImm == 0 && !o.ShiftByRs {
		return regName(o.Rm)
	}
	if o.ShiftByRs {
		return fmt.Sprintf("%s, %s %s", regName(o.Rm), shiftNames[o.Shift], regName(o.Rs))
	}
	return fmt.Sprintf("%s, %s #%d", regName(o.Rm), shiftNames[o.Shift], o.ShiftImm)
}

// Instruction is one decoded ARM A32 word.
type Instruction struct {
	Op       Op
	At       uint64
	Cond     Cond
	SetFlags bool

	Rd, Rn, Rm, Rs int

	Operand2  Operand2
	HasOper2  bool

	// Branch
	Disp int32

	// LDM/STM
	AddrMode  string // DA, IA, DB, IB
	WriteBack bool
	RegList   uint16
	BaseReg   int

	// LDR/STR
	Load    bool
	ImmOff  bool
	OffImm  int32
	OffReg  int

	// MRS/MSR
	UseSPSR bool
	MsrMask string // "f", "c", "" (full)
}

func (i Instruction) Offset() uint64 { return i.At }
func (i Instruction) Size() int      { return 4 }

// Decode reads one 32-bit little-endian ARM word at byte offset off within
// code and returns the decoded instruction, or ok=false on an unrecognized
// bit pattern.
func Decode(code []byte, off int) (Instruction, bool) {
	if off+4 > len(code) {
		return Instruction{}, false
	}
	w := bits.LoadU32(code, off, bits.LittleEndian)
	cond := Cond(bits.Extract(w, 31, 28))
	if cond > CondAL {
		cond = CondAL
	}

	// 1. BX
	if bits.Extract(w, 27, 4) == 0b000100101111111111110001 {
		return Instruction{Op: OpBX, At: uint64(off), Cond: cond, Rm: int(bits.Extract(w, 3, 0))}, true
	}

	// 2. B / BL
	if bits.Extract(w, 27, 25) == 0b101 {
		link := bits.Extract(w, 24, 24) == 1
		disp := bits.ExtractSigned(w, 23, 0) << 2
		op := OpB
		if link {
			op = OpBL
		}
		return Instruction{Op: op, At: uint64(off), Cond: cond, Disp: disp}, true
	}

	// 3. LDM / STM
	if bits.Extract(w, 27, 25) == 0b100 {
		load := bits.Extract(w, 20, 20) == 1
		modes := [...]string{"DA", "IA", "DB", "IB"}
		mode := modes[bits.Extract(w, 24, 23)]
		wb := bits.Extract(w, 21, 21) == 1
		op := OpSTM
		if load {
			op = OpLDM
		}
		return Instruction{
			Op: op, At: uint64(off), Cond: cond,
			AddrMode: mode, WriteBack: wb,
			RegList: uint16(bits.Extract(w, 15, 0)),
			BaseReg: int(bits.Extract(w, 19, 16)),
			Load:    load,
		}, true
	}

	// 4. MUL / MLA
	if bits.Extract(w, 27, 22) == 0 && bits.Extract(w, 7, 4) == 0b1001 {
		mla := bits.Extract(w, 21, 21) == 1
		op := OpMUL
		if mla {
			op = OpMLA
		}
		return Instruction{
			Op: op, At: uint64(off), Cond: cond,
			SetFlags: bits.Extract(w, 20, 20) == 1,
			Rd:       int(bits.Extract(w, 19, 16)),
			Rn:       int(bits.Extract(w, 15, 12)),
			Rs:       int(bits.Extract(w, 11, 8)),
			Rm:       int(bits.Extract(w, 3, 0)),
		}, true
	}

	// 5. MRS / MSR
	if bits.Extract(w, 27, 23) == 0b00010 && bits.Extract(w, 21, 20) == 0b00 && bits.Extract(w, 7, 4) == 0 {
		useSPSR := bits.Extract(w, 22, 22) == 1
		return Instruction{
			Op: OpMRS, At: uint64(off), Cond: cond,
			Rd: int(bits.Extract(w, 15, 12)), UseSPSR: useSPSR,
		}, true
	}
	if bits.Extract(w, 27, 23) == 0b00010 && bits.Extract(w, 21, 21) == 1 {
		useSPSR := bits.Extract(w, 22, 22) == 1
		mask := ""
		if bits.Extract(w, 19, 19) == 1 && bits.Extract(w, 16, 16) == 0 {
			mask = "f"
		} else if bits.Extract(w, 16, 16) == 1 && bits.Extract(w, 19, 19) == 0 {
			mask = "c"
		}
		in := Operand2{}
		if bits.Extract(w, 25, 25) == 1 {
			imm8 := bits.Extract(w, 7, 0)
			rot := bits.Extract(w, 11, 8)
			in = Operand2{IsImm: true, Imm: rotateRight(imm8, rot*2)}
		} else {
			in = Operand2{Rm: int(bits.Extract(w, 3, 0))}
		}
		return Instruction{
			Op: OpMSR, At: uint64(off), Cond: cond,
			UseSPSR: useSPSR, MsrMask: mask, Operand2: in, HasOper2: true,
		}, true
	}

	// 6. SWI
	if bits.Extract(w, 27, 24) == 0b1111 {
		return Instruction{Op: OpSWI, At: uint64(off), Cond: cond, Disp: int32(bits.Extract(w, 23, 0))}, true
	}

	// 7. LDR / STR
	if bits.Extract(w, 27, 26) == 0b01 {
		load := bits.Extract(w, 20, 20) == 1
		immOff := bits.Extract(w, 25, 25) == 0
		op := OpSTR
		if load {
			op = OpLDR
		}
		ins := Instruction{
			Op: op, At: uint64(off), Cond: cond, Load: load,
			Rd: int(bits.Extract(w, 15, 12)),
			Rn: int(bits.Extract(w, 19, 16)),
		}
		if immOff {
			ins.ImmOff = true
			ins.OffImm = int32(bits.Extract(w, 11, 0))
		} else {
			ins.OffReg = int(bits.Extract(w, 3, 0))
		}
		return ins, true
	}

	// 8. Data-processing
	if bits.Extract(w, 27, 26) == 0b00 {
		opIdx := bits.Extract(w, 24, 21)
		op := dataProcOps[opIdx]
		setFlags := bits.Extract(w, 20, 20) == 1
		rn := int(bits.Extract(w, 19, 16))
		rd := int(bits.Extract(w, 15, 12))
		var o2 Operand2
		if bits.Extract(w, 25, 25) == 1 {
			imm8 := bits.Extract(w, 7, 0)
			rot := bits.Extract(w, 11, 8)
			o2 = Operand2{IsImm: true, Imm: rotateRight(imm8, rot*2)}
		} else {
			rm := int(bits.Extract(w, 3, 0))
			shiftType := ShiftType(bits.Extract(w, 6, 5))
			if bits.Extract(w, 4, 4) == 1 {
				o2 = Operand2{Rm: rm, Shift: shiftType, ShiftByRs: true, Rs: int(bits.Extract(w, 11, 8))}
			} else {
				o2 = Operand2{Rm: rm, Shift: shiftType, ShiftImm: bits.Extract(w, 11, 7)}
			}
		}
		return Instruction{
			Op: op, At: uint64(off), Cond: cond, SetFlags: setFlags,
			Rn: rn, Rd: rd, Operand2: o2, HasOper2: true,
		}, true
	}

	return Instruction{}, false
}

func rotateRight(x uint32, n uint32) uint32 {
	n &= 31
	return (x >> n) | (x << (32 - n))
}

// Print renders the instruction in ARM assembly syntax.
func (i Instruction) Print() string {
	cs := i.Cond.String()
	sfx := ""
	if i.SetFlags {
		sfx = "s"
	}

	switch i.Op {
	case OpBX:
		return fmt.Sprintf("bx%s %s", cs, regName(i.Rm))
	case OpB, OpBL:
		target := i.At + 8 + uint64(int64(i.Disp))
		return fmt.Sprintf("%s%s _%08x", opMnemonic[i.Op], cs, target)
	case OpLDM, OpSTM:
		mnemonic := fmt.Sprintf("%s%s", opMnemonic[i.Op], cs)
		wb := ""
		if i.WriteBack {
			wb = "!"
		}
		if i.BaseReg == 13 && i.AddrMode == "IA" && i.Op == OpLDM && cs == "" {
			return fmt.Sprintf("pop {%s}", regListString(i.RegList))
		}
		if i.BaseReg == 13 && i.AddrMode == "DB" && i.Op == OpSTM && cs == "" {
			return fmt.Sprintf("push {%s}", regListString(i.RegList))
		}
		return fmt.Sprintf("%s%s %s%s, {%s}", mnemonic, strings.ToLower(i.AddrMode), regName(i.BaseReg), wb, regListString(i.RegList))
	case OpMUL:
		return fmt.Sprintf("mul%s%s %s, %s, %s", cs, sfx, regName(i.Rd), regName(i.Rm), regName(i.Rs))
	case OpMLA:
		return fmt.Sprintf("mla%s%s %s, %s, %s, %s", cs, sfx, regName(i.Rd), regName(i.Rm), regName(i.Rs), regName(i.Rn))
	case OpMRS:
		bank := "CPSR"
		if i.UseSPSR {
			bank = "SPSR"
		}
		return fmt.Sprintf("mrs%s %s, %s", cs, regName(i.Rd), bank)
	case OpMSR:
		bank := "CPSR"
		if i.UseSPSR {
			bank = "SPSR"
		}
		if i.MsrMask != "" {
			bank += "_" + i.MsrMask
		}
		return fmt.Sprintf("msr%s %s, %s", cs, bank, i.Operand2.String())
	case OpSWI:
		return fmt.Sprintf("swi%s #%d", cs, i.Disp)
	case OpLDR, OpSTR:
		if i.ImmOff {
			return fmt.Sprintf("%s%s %s, [%s, #%d]", opMnemonic[i.Op], cs, regName(i.Rd), regName(i.Rn), i.OffImm)
		}
		return fmt.Sprintf("%s%s %s, [%s, %s]", opMnemonic[i.Op], cs, regName(i.Rd), regName(i.Rn), regName(i.OffReg))
	case OpMOV, OpMVN:
		if i.Op == OpMOV && !i.Operand2.IsImm && i.Operand2.ShiftImm == 0 && !i.Operand2.ShiftByRs && i.Operand2.Rm == i.Rd {
			return "nop"
		}
		return fmt.Sprintf("%s%s%s %s, %s", opMnemonic[i.Op], cs, sfx, regName(i.Rd), i.Operand2.String())
	case OpTST, OpTEQ, OpCMP, OpCMN:
		return fmt.Sprintf("%s%s %s, %s", opMnemonic[i.Op], cs, regName(i.Rn), i.Operand2.String())
	default:
		return fmt.Sprintf("%s%s%s %s, %s, %s", opMnemonic[i.Op], cs, sfx, regName(i.Rd), regName(i.Rn), i.Operand2.String())
	}
}

func regListString(mask uint16) string {
	var names []string
	for n := 0; n < 16; n++ {
		if mask&(1<<uint(n)) != 0 {
			names = append(names, regName(n))
		}
	}
	return strings.Join(names, ", ")
}

// Lift translates the instruction to the shared expression IR. ARM lifting
// is implemented for every form this decoder recognizes.
func (i Instruction) Lift() ir.Expr {
	switch i.Op {
	case OpBX:
		return ir.Goto{Target: ir.Register{Name: regName(i.Rm)}}
	case OpB:
		target := int64(i.At) + 8 + int64(i.Disp)
		return ir.Goto{Target: ir.Constant{Value: target}}
	case OpBL:
		target := int64(i.At) + 8 + int64(i.Disp)
		return ir.Call{Target: ir.Constant{Value: target}}
	case OpMOV:
		if !i.Operand2.IsImm && i.Operand2.ShiftImm == 0 && !i.Operand2.ShiftByRs && i.Operand2.Rm == i.Rd {
			return ir.Nop{}
		}
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: operand2ToExpr(i.Operand2)}
	case OpMVN:
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: ir.OpXor, Lhs: operand2ToExpr(i.Operand2), Rhs: ir.Constant{Value: -1}}}
	case OpBIC:
		// Rd = Rn AND NOT(op2); negate op2 the same way OpMVN does, then AND.
		notOp2 := ir.Binary{Op: ir.OpXor, Lhs: operand2ToExpr(i.Operand2), Rhs: ir.Constant{Value: -1}}
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: ir.OpAnd, Lhs: ir.Register{Name: regName(i.Rn)}, Rhs: notOp2}}
	case OpADD, OpADC, OpSUB, OpSBC, OpRSB, OpRSC, OpAND, OpEOR, OpORR:
		binOp := armBinOp(i.Op)
		lhs := ir.Expr(ir.Register{Name: regName(i.Rn)})
		rhs := operand2ToExpr(i.Operand2)
		if i.Op == OpRSB || i.Op == OpRSC {
			lhs, rhs = rhs, lhs
		}
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: binOp, Lhs: lhs, Rhs: rhs}}
	case OpCMP:
		return ir.Binary{Op: ir.OpCmp, Lhs: ir.Register{Name: regName(i.Rn)}, Rhs: operand2ToExpr(i.Operand2)}
	case OpCMN:
		return ir.Binary{Op: ir.OpCmp, Lhs: ir.Register{Name: regName(i.Rn)}, Rhs: ir.Binary{Op: ir.OpSub, Lhs: ir.Constant{Value: 0}, Rhs: operand2ToExpr(i.Operand2)}}
	case OpTST:
		return ir.Binary{Op: ir.OpAnd, Lhs: ir.Register{Name: regName(i.Rn)}, Rhs: operand2ToExpr(i.Operand2)}
	case OpTEQ:
		return ir.Binary{Op: ir.OpXor, Lhs: ir.Register{Name: regName(i.Rn)}, Rhs: operand2ToExpr(i.Operand2)}
	case OpMUL:
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: ir.OpMul, Lhs: ir.Register{Name: regName(i.Rm)}, Rhs: ir.Register{Name: regName(i.Rs)}}}
	case OpMLA:
		mul := ir.Binary{Op: ir.OpMul, Lhs: ir.Register{Name: regName(i.Rm)}, Rhs: ir.Register{Name: regName(i.Rs)}}
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: ir.OpAdd, Lhs: mul, Rhs: ir.Register{Name: regName(i.Rn)}}}
	case OpLDR:
		addr := ldrStrAddr(i)
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Dereference{Size: 4, Addr: addr}}
	case OpSTR:
		addr := ldrStrAddr(i)
		return ir.Store{Dest: ir.Dereference{Size: 4, Addr: addr}, Src: ir.Register{Name: regName(i.Rd)}}
	case OpLDM:
		return ir.Group{Exprs: ldmStmExprs(i)}
	case OpSTM:
		return ir.Group{Exprs: ldmStmExprs(i)}
	case OpSWI:
		return ir.Special{Name: "swi", Args: []ir.Expr{ir.Constant{Value: int64(i.Disp)}}}
	case OpMRS:
		bank := "CPSR"
		if i.UseSPSR {
			bank = "SPSR"
		}
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Register{Name: bank}}
	case OpMSR:
		bank := "CPSR"
		if i.UseSPSR {
			bank = "SPSR"
		}
		return ir.Store{Dest: ir.Register{Name: bank}, Src: operand2ToExpr(i.Operand2)}
	default:
		return ir.Nop{}
	}
}

func ldrStrAddr(i Instruction) ir.Expr {
	base := ir.Expr(ir.Register{Name: regName(i.Rn)})
	if i.ImmOff {
		if i.OffImm == 0 {
			return base
		}
		return ir.Binary{Op: ir.OpAdd, Lhs: base, Rhs: ir.Constant{Value: int64(i.OffImm)}}
	}
	return ir.Binary{Op: ir.OpAdd, Lhs: base, Rhs: ir.Register{Name: regName(i.OffReg)}}
}

func ldmStmExprs(i Instruction) []ir.Expr {
	var exprs []ir.Expr
	base := regName(i.BaseReg)
	for n := 0; n < 16; n++ {
		if i.RegList&(1<<uint(n)) == 0 {
			continue
		}
		r := regName(n)
		if i.Load {
			exprs = append(exprs, ir.Store{Dest: ir.Register{Name: r}, Src: ir.Dereference{Size: 4, Addr: ir.Register{Name: base}}})
		} else {
			exprs = append(exprs, ir.Store{Dest: ir.Dereference{Size: 4, Addr: ir.Register{Name: base}}, Src: ir.Register{Name: r}})
		}
	}
	return exprs
}

func operand2ToExpr(o Operand2) ir.Expr {
	if o.IsImm {
		return ir.Constant{Value: int64(o.Imm)}
	}
	rm := ir.Expr(ir.Register{Name: regName(o.Rm)})
	if o.ShiftImm == 0 && !o.ShiftByRs {
		return rm
	}
	var shiftOp ir.BinOp
	switch o.Shift {
	case ShiftLSL:
		shiftOp = ir.OpLsl
	case ShiftLSR:
		shiftOp = ir.OpLsr
	case ShiftASR:
		shiftOp = ir.OpAsr
	case ShiftROR:
		shiftOp = ir.OpRor
	}
	var amount ir.Expr
	if o.ShiftByRs {
		amount = ir.Register{Name: regName(o.Rs)}
	} else {
		amount = ir.Constant{Value: int64(o.ShiftImm)}
	}
	return ir.Binary{Op: shiftOp, Lhs: rm, Rhs: amount}
}

func armBinOp(op Op) ir.BinOp {
	switch op {
	case OpADD, OpADC:
		return ir.OpAdd
	case OpSUB, OpSBC, OpRSB, OpRSC:
		return ir.OpSub
	case OpAND:
		return ir.OpAnd
	case OpEOR:
		return ir.OpXor
	case OpORR:
		return ir.OpOr
	default:
		return ir.OpAdd
	}
}
