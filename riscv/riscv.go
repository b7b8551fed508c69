// Package riscv decodes 32-bit RV32I/64I+M and 16-bit compressed (Zca)
// RISC-V instructions, prints them with the usual idiom rewrites
// (sext.w, j, ret, beqz, bnez), and lifts the mapped subset to the shared
// expression IR.
package riscv

import (
	"fmt"

	"github.com/go-baretk/baretk/bits"
	"github.com/go-baretk/baretk/ir"
)

var regNames = [...]string{
	"Zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func regName(r int) string {
	if r < 0 || r >= len(regNames) {
		return fmt.Sprintf("x%d", r)
	}
	return regNames[r]
}

// Op tags the decoded instruction's operation.
type Op uint8

const (
	OpLUI Op = iota
	OpAUIPC
	OpJAL
	OpJALR
	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU
	OpADDI
	OpSLLI
	OpSLTI
	OpSLTIU
	OpXORI
	OpSRLI
	OpSRAI
	OpORI
	OpANDI
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpCSRRW
	OpSB
	OpSH
	OpSW
	OpSD
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpADD
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpSLL
	OpSRL
	OpSRA
	OpSLT
	OpSLTU
	OpMUL
	OpMULW
	OpADDW
	OpSUBW
	OpSRLW
	OpSRAW
	OpSLLW
)

var mnemonic = map[Op]string{
	OpLUI: "lui", OpAUIPC: "auipc", OpJAL: "jal", OpJALR: "jalr",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLD: "ld", OpLBU: "lbu", OpLHU: "lhu", OpLWU: "lwu",
	OpADDI: "addi", OpSLLI: "slli", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori",
	OpSRLI: "srli", OpSRAI: "srai", OpORI: "ori", OpANDI: "andi",
	OpADDIW: "addiw", OpSLLIW: "slliw", OpSRLIW: "srliw", OpSRAIW: "sraiw",
	OpCSRRW: "csrrw",
	OpSB: "sb", OpSH: "sh", OpSW: "sw", OpSD: "sd",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpADD: "add", OpSUB: "sub", OpAND: "and", OpOR: "or", OpXOR: "xor",
	OpSLL: "sll", OpSRL: "srl", OpSRA: "sra", OpSLT: "slt", OpSLTU: "sltu",
	OpMUL: "mul", OpMULW: "mulw",
	OpADDW: "addw", OpSUBW: "subw", OpSRLW: "srlw", OpSRAW: "sraw", OpSLLW: "sllw",
}

// Instruction is one decoded RISC-V instruction, 2 or 4 bytes wide.
type Instruction struct {
	Operation Op
	At        uint64
	Width     int
	Rd        int
	Rs1       int
	Rs2       int
	Imm       int64
	HasRd     bool
	HasRs1    bool
	HasRs2    bool
	HasImm    bool
	Compressed bool
}

func (i Instruction) Offset() uint64 { return i.At }
func (i Instruction) Size() int      { return i.Width }

// Decode decodes one instruction from code at off. It inspects the low two
// bits of the first halfword to choose between the 32-bit and the 16-bit
// compressed encodings.
func Decode(code []byte, off int) (Instruction, bool) {
	if off+2 > len(code) {
		return Instruction{}, false
	}
	half := bits.LoadU16(code, off, bits.LittleEndian)
	if half&0x3 == 0x3 {
		if off+4 > len(code) {
			return Instruction{}, false
		}
		return decode32(code, off)
	}
	return decode16(code, off, half)
}

func decode32(code []byte, off int) (Instruction, bool) {
	w := bits.LoadU32(code, off, bits.LittleEndian)
	opcode := bits.Extract(w, 6, 0)
	funct3 := bits.Extract(w, 14, 12)
	funct7 := bits.Extract(w, 31, 25)
	rd := int(bits.Extract(w, 11, 7))
	rs1 := int(bits.Extract(w, 19, 15))
	rs2 := int(bits.Extract(w, 24, 20))
	base := Instruction{At: uint64(off), Width: 4}

	switch opcode {
	case 0b0110111: // LUI
		imm := int64(int32(w & 0xFFFFF000))
		base.Operation, base.Rd, base.HasRd, base.Imm, base.HasImm = OpLUI, rd, true, imm, true
		return base, true
	case 0b0010111: // AUIPC
		imm := int64(int32(w & 0xFFFFF000))
		base.Operation, base.Rd, base.HasRd, base.Imm, base.HasImm = OpAUIPC, rd, true, imm, true
		return base, true
	case 0b1101111: // JAL
		imm20 := bits.Extract(w, 31, 31)
		imm10_1 := bits.Extract(w, 30, 21)
		imm11 := bits.Extract(w, 20, 20)
		imm19_12 := bits.Extract(w, 19, 12)
		raw := (imm20 << 20) | (imm19_12 << 12) | (imm11 << 11) | (imm10_1 << 1)
		imm := int64(bits.SignExtend(raw, 21))
		base.Operation, base.Rd, base.HasRd, base.Imm, base.HasImm = OpJAL, rd, true, imm, true
		return base, true
	case 0b1100111: // JALR
		imm := int64(bits.ExtractSigned(w, 31, 20))
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
			OpJALR, rd, true, rs1, true, imm, true
		return base, true
	case 0b0000011: // loads
		ops := map[uint32]Op{0: OpLB, 1: OpLH, 2: OpLW, 3: OpLD, 4: OpLBU, 5: OpLHU, 6: OpLWU}
		op, ok := ops[funct3]
		if !ok {
			return Instruction{}, false
		}
		imm := int64(bits.ExtractSigned(w, 31, 20))
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
			op, rd, true, rs1, true, imm, true
		return base, true
	case 0b0010011: // immediate ALU
		imm := int64(bits.ExtractSigned(w, 31, 20))
		var op Op
		switch funct3 {
		case 0:
			op = OpADDI
		case 1:
			op = OpSLLI
			imm = int64(bits.Extract(w, 24, 20))
		case 2:
			op = OpSLTI
		case 3:
			op = OpSLTIU
		case 4:
			op = OpXORI
		case 5:
			if funct7>>1 == 0b0100000>>1 && bits.Extract(w, 30, 30) == 1 {
				op = OpSRAI
			} else {
				op = OpSRLI
			}
			imm = int64(bits.Extract(w, 24, 20))
		case 6:
			op = OpORI
		case 7:
			op = OpANDI
		default:
			return Instruction{}, false
		}
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
			op, rd, true, rs1, true, imm, true
		return base, true
	case 0b0011011: // narrow immediate ALU (*W)
		imm := int64(bits.ExtractSigned(w, 31, 20))
		var op Op
		switch funct3 {
		case 0:
			op = OpADDIW
		case 1:
			op = OpSLLIW
			imm = int64(bits.Extract(w, 24, 20))
		case 5:
			if bits.Extract(w, 30, 30) == 1 {
				op = OpSRAIW
			} else {
				op = OpSRLIW
			}
			imm = int64(bits.Extract(w, 24, 20))
		default:
			return Instruction{}, false
		}
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
			op, rd, true, rs1, true, imm, true
		return base, true
	case 0b1110011: // CSRRW and friends; only CSRRW is named in scope
		if funct3 == 0b001 {
			imm := int64(bits.Extract(w, 31, 20))
			base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
				OpCSRRW, rd, true, rs1, true, imm, true
			return base, true
		}
		return Instruction{}, false
	case 0b0100011: // stores
		ops := map[uint32]Op{0: OpSB, 1: OpSH, 2: OpSW, 3: OpSD}
		op, ok := ops[funct3]
		if !ok {
			return Instruction{}, false
		}
		immHi := bits.Extract(w, 31, 25)
		immLo := bits.Extract(w, 11, 7)
		raw := (immHi << 5) | immLo
		imm := int64(bits.SignExtend(raw, 12))
		base.Operation, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2, base.Imm, base.HasImm =
			op, rs1, true, rs2, true, imm, true
		return base, true
	case 0b1100011: // branches
		ops := map[uint32]Op{0: OpBEQ, 1: OpBNE, 4: OpBLT, 5: OpBGE, 6: OpBLTU, 7: OpBGEU}
		op, ok := ops[funct3]
		if !ok {
			return Instruction{}, false
		}
		b12 := bits.Extract(w, 31, 31)
		b11 := bits.Extract(w, 7, 7)
		b10_5 := bits.Extract(w, 30, 25)
		b4_1 := bits.Extract(w, 11, 8)
		raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
		imm := int64(bits.SignExtend(raw, 13))
		base.Operation, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2, base.Imm, base.HasImm =
			op, rs1, true, rs2, true, imm, true
		return base, true
	case 0b0110011: // R-type ALU, including the M extension
		if funct7 == 0b0000001 {
			if funct3 != 0 {
				return Instruction{}, false
			}
			base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2 =
				OpMUL, rd, true, rs1, true, rs2, true
			return base, true
		}
		var op Op
		switch funct3 {
		case 0:
			if funct7 == 0b0100000 {
				op = OpSUB
			} else {
				op = OpADD
			}
		case 1:
			op = OpSLL
		case 2:
			op = OpSLT
		case 3:
			op = OpSLTU
		case 4:
			op = OpXOR
		case 5:
			if funct7 == 0b0100000 {
				op = OpSRA
			} else {
				op = OpSRL
			}
		case 6:
			op = OpOR
		case 7:
			op = OpAND
		}
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2 =
			op, rd, true, rs1, true, rs2, true
		return base, true
	case 0b0111011: // narrow R-type ALU (*W)
		if funct7 == 0b0000001 && funct3 == 0 {
			base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2 =
				OpMULW, rd, true, rs1, true, rs2, true
			return base, true
		}
		var op Op
		switch funct3 {
		case 0:
			if funct7 == 0b0100000 {
				op = OpSUBW
			} else {
				op = OpADDW
			}
		case 1:
			op = OpSLLW
		case 5:
			if funct7 == 0b0100000 {
				op = OpSRAW
			} else {
				op = OpSRLW
			}
		default:
			return Instruction{}, false
		}
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2 =
			op, rd, true, rs1, true, rs2, true
		return base, true
	}

	return Instruction{}, false
}

func creg(x uint16) int { return int(x) + 8 }

func decode16(code []byte, off int, half uint16) (Instruction, bool) {
	op := bits.Extract16(half, 1, 0)
	funct := bits.Extract16(half, 15, 13)
	base := Instruction{At: uint64(off), Width: 2, Compressed: true}

	switch {
	case op == 0b00 && funct == 0b010: // C.LW
		rdp := creg(bits.Extract16(half, 4, 2))
		rs1p := creg(bits.Extract16(half, 9, 7))
		uimm := (uint32(bits.Extract16(half, 5, 5)) << 6) |
			(uint32(bits.Extract16(half, 12, 10)) << 3) |
			(uint32(bits.Extract16(half, 6, 6)) << 2)
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
			OpLW, rdp, true, rs1p, true, int64(uimm), true
		return base, true

	case op == 0b01 && funct == 0b000: // C.ADDI
		rd := int(bits.Extract16(half, 11, 7))
		imm := compressedImm6(half)
		base.Operation, base.Rd, base.HasRd, base.Imm, base.HasImm = OpADDI, rd, true, imm, true
		base.Rs1, base.HasRs1 = rd, true
		return base, true

	case op == 0b01 && funct == 0b010: // C.LI
		rd := int(bits.Extract16(half, 11, 7))
		imm := compressedImm6(half)
		base.Operation, base.Rd, base.HasRd, base.Imm, base.HasImm = OpADDI, rd, true, imm, true
		base.Rs1, base.HasRs1 = 0, true
		return base, true

	case op == 0b01 && funct == 0b011: // C.LUI
		rd := int(bits.Extract16(half, 11, 7))
		imm6 := uint32(bits.Extract16(half, 6, 2)) | (uint32(bits.Extract16(half, 12, 12)) << 5)
		imm := int64(bits.SignExtend(imm6, 6)) << 12
		base.Operation, base.Rd, base.HasRd, base.Imm, base.HasImm = OpLUI, rd, true, imm, true
		return base, true

	case op == 0b01 && funct == 0b100 && bits.Extract16(half, 11, 10) == 0b11:
		rdp := creg(bits.Extract16(half, 9, 7))
		rs2p := creg(bits.Extract16(half, 4, 2))
		bit12 := bits.Extract16(half, 12, 12)
		sel := bits.Extract16(half, 6, 5)
		var op Op
		switch {
		case bit12 == 0 && sel == 0b00:
			op = OpSUB
		case bit12 == 0 && sel == 0b01:
			op = OpXOR
		case bit12 == 0 && sel == 0b10:
			op = OpOR
		case bit12 == 0 && sel == 0b11:
			op = OpAND
		case bit12 == 1 && sel == 0b00:
			op = OpSUBW
		case bit12 == 1 && sel == 0b01:
			op = OpADDW
		default:
			return Instruction{}, false
		}
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2 =
			op, rdp, true, rdp, true, rs2p, true
		return base, true

	case op == 0b01 && funct == 0b101: // C.J
		imm := compressedJumpImm(half)
		base.Operation, base.Imm, base.HasImm, base.Rd, base.HasRd = OpJAL, imm, true, 0, true
		return base, true

	case op == 0b01 && (funct == 0b110 || funct == 0b111): // C.BEQZ / C.BNEZ
		rs1p := creg(bits.Extract16(half, 9, 7))
		imm := compressedBranchImm(half)
		op := OpBEQ
		if funct == 0b111 {
			op = OpBNE
		}
		base.Operation, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2, base.Imm, base.HasImm =
			op, rs1p, true, 0, true, imm, true
		return base, true

	case op == 0b10 && funct == 0b010: // C.LWSP
		rd := int(bits.Extract16(half, 11, 7))
		uimm := (uint32(bits.Extract16(half, 3, 2)) << 6) |
			(uint32(bits.Extract16(half, 12, 12)) << 5) |
			(uint32(bits.Extract16(half, 6, 4)) << 2)
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Imm, base.HasImm =
			OpLW, rd, true, 2, true, int64(uimm), true
		return base, true

	case op == 0b10 && funct == 0b100:
		rd := int(bits.Extract16(half, 11, 7))
		rs2 := int(bits.Extract16(half, 6, 2))
		bit12 := bits.Extract16(half, 12, 12)
		if bit12 == 0 {
			if rs2 == 0 { // C.JR
				base.Operation, base.Rs1, base.HasRs1, base.Rd, base.HasRd = OpJALR, rd, true, 0, true
				return base, true
			}
			// C.MV
			base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1 = OpADDI, rd, true, rs2, true
			base.Imm, base.HasImm = 0, true
			return base, true
		}
		if rs2 == 0 {
			if rd == 0 { // C.EBREAK, out of named scope; treat as unknown
				return Instruction{}, false
			}
			// C.JALR
			base.Operation, base.Rs1, base.HasRs1, base.Rd, base.HasRd = OpJALR, rd, true, 1, true
			return base, true
		}
		// C.ADD
		base.Operation, base.Rd, base.HasRd, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2 =
			OpADD, rd, true, rd, true, rs2, true
		return base, true

	case op == 0b10 && funct == 0b110: // C.SWSP
		rs2 := int(bits.Extract16(half, 6, 2))
		uimm := (uint32(bits.Extract16(half, 8, 7)) << 6) | (uint32(bits.Extract16(half, 12, 9)) << 2)
		base.Operation, base.Rs1, base.HasRs1, base.Rs2, base.HasRs2, base.Imm, base.HasImm =
			OpSW, 2, true, rs2, true, int64(uimm), true
		return base, true
	}

	return Instruction{}, false
}

func compressedImm6(half uint16) int64 {
	raw := uint32(bits.Extract16(half, 6, 2)) | (uint32(bits.Extract16(half, 12, 12)) << 5)
	return int64(bits.SignExtend(raw, 6))
}

func compressedJumpImm(half uint16) int64 {
	b11 := bits.Extract16(half, 12, 12)
	b4 := bits.Extract16(half, 11, 11)
	b9_8 := bits.Extract16(half, 10, 9)
	b10 := bits.Extract16(half, 8, 8)
	b6 := bits.Extract16(half, 7, 7)
	b7 := bits.Extract16(half, 6, 6)
	b3_1 := bits.Extract16(half, 5, 3)
	b5 := bits.Extract16(half, 2, 2)
	raw := (uint32(b11) << 11) | (uint32(b10) << 10) | (uint32(b9_8) << 8) | (uint32(b7) << 7) |
		(uint32(b6) << 6) | (uint32(b5) << 5) | (uint32(b4) << 4) | (uint32(b3_1) << 1)
	return int64(bits.SignExtend(raw, 11))
}

func compressedBranchImm(half uint16) int64 {
	b8 := bits.Extract16(half, 12, 12)
	b4_3 := bits.Extract16(half, 11, 10)
	b7_6 := bits.Extract16(half, 6, 5)
	b2_1 := bits.Extract16(half, 4, 3)
	b5 := bits.Extract16(half, 2, 2)
	raw := (uint32(b8) << 8) | (uint32(b7_6) << 6) | (uint32(b5) << 5) | (uint32(b4_3) << 3) | (uint32(b2_1) << 1)
	return int64(bits.SignExtend(raw, 9))
}

// Print renders the instruction in RISC-V assembly syntax, applying the
// idiomatic rewrites the driver's printer uses (sext.w, j, ret, beqz,
// bnez) without changing the decoded semantics.
func (i Instruction) Print() string {
	switch i.Operation {
	case OpADDIW:
		if i.HasImm && i.Imm == 0 {
			return fmt.Sprintf("sext.w %s, %s", regName(i.Rd), regName(i.Rs1))
		}
	case OpJAL:
		if i.Rd == 0 {
			return fmt.Sprintf("j %+d", i.Imm)
		}
		return fmt.Sprintf("jal %s, %+d", regName(i.Rd), i.Imm)
	case OpJALR:
		if i.Rd == 0 && i.Rs1 == 1 && i.Imm == 0 {
			return "ret"
		}
		return fmt.Sprintf("jalr %s, %s, %d", regName(i.Rd), regName(i.Rs1), i.Imm)
	case OpBEQ:
		if i.Rs2 == 0 {
			return fmt.Sprintf("beqz %s, %+d", regName(i.Rs1), i.Imm)
		}
	case OpBNE:
		if i.Rs2 == 0 {
			return fmt.Sprintf("bnez %s, %+d", regName(i.Rs1), i.Imm)
		}
	}

	name := mnemonic[i.Operation]
	switch {
	case i.HasRd && i.HasRs1 && i.HasRs2:
		return fmt.Sprintf("%s %s, %s, %s", name, regName(i.Rd), regName(i.Rs1), regName(i.Rs2))
	case i.HasRd && i.HasRs1 && i.HasImm:
		return fmt.Sprintf("%s %s, %s, %d", name, regName(i.Rd), regName(i.Rs1), i.Imm)
	case i.HasRd && i.HasImm:
		return fmt.Sprintf("%s %s, %d", name, regName(i.Rd), i.Imm)
	case i.HasRs1 && i.HasRs2 && i.HasImm:
		return fmt.Sprintf("%s %s, %s, %d", name, regName(i.Rs1), regName(i.Rs2), i.Imm)
	default:
		return name
	}
}

// Lift translates the instruction to the shared expression IR, per the
// RISC-V semantic map.
func (i Instruction) Lift() ir.Expr {
	pc := int64(i.At)
	switch i.Operation {
	case OpADD, OpSUB, OpAND, OpOR, OpXOR, OpMUL:
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: riscvBinOp(i.Operation), Lhs: ir.Register{Name: regName(i.Rs1)}, Rhs: ir.Register{Name: regName(i.Rs2)}}}
	case OpADDI, OpXORI, OpORI, OpANDI:
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: riscvBinOp(i.Operation), Lhs: ir.Register{Name: regName(i.Rs1)}, Rhs: ir.Constant{Value: i.Imm}}}
	case OpLB, OpLH, OpLW, OpLD:
		size := loadSize(i.Operation)
		var addr ir.Expr = ir.Register{Name: regName(i.Rs1)}
		if i.Imm != 0 {
			addr = ir.Binary{Op: ir.OpAdd, Lhs: addr, Rhs: ir.Constant{Value: i.Imm}}
		}
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Dereference{Size: size, Addr: addr}}
	case OpSB, OpSH, OpSW, OpSD:
		size := storeSize(i.Operation)
		var addr ir.Expr = ir.Register{Name: regName(i.Rs2)}
		if i.Imm != 0 {
			addr = ir.Binary{Op: ir.OpAdd, Lhs: addr, Rhs: ir.Constant{Value: i.Imm}}
		}
		return ir.Store{Dest: ir.Dereference{Size: size, Addr: addr}, Src: ir.Register{Name: regName(i.Rs1)}}
	case OpLUI:
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Constant{Value: i.Imm}}
	case OpAUIPC:
		return ir.Store{Dest: ir.Register{Name: regName(i.Rd)}, Src: ir.Binary{Op: ir.OpAdd, Lhs: ir.Binary{Op: ir.OpAnd, Lhs: ir.Register{Name: "pc"}, Rhs: ir.Constant{Value: ^int64(0xFFFFF)}}, Rhs: ir.Constant{Value: i.Imm}}}
	case OpJAL:
		target := pc + i.Imm
		if i.Rd == 0 {
			return ir.Goto{Target: ir.Constant{Value: target}}
		}
		if i.Rd == 1 {
			return ir.Call{Target: ir.Constant{Value: target}}
		}
		return ir.Special{Name: "jal", Args: []ir.Expr{ir.Register{Name: regName(i.Rd)}, ir.Constant{Value: target}}}
	case OpJALR:
		if i.Rd == 0 && i.Rs1 == 1 && i.Imm == 0 {
			return ir.Return{}
		}
		if i.Rd == 0 {
			return ir.Goto{Target: ir.Register{Name: regName(i.Rs1)}}
		}
		if i.Rd == 1 {
			return ir.Call{Target: ir.Register{Name: regName(i.Rs1)}}
		}
		return ir.Special{Name: "jalr", Args: []ir.Expr{ir.Register{Name: regName(i.Rd)}, ir.Register{Name: regName(i.Rs1)}, ir.Constant{Value: i.Imm}}}
	case OpBEQ, OpBNE, OpBLT, OpBGE:
		cmpOp := branchCmpOp(i.Operation)
		var rhs ir.Expr = ir.Register{Name: regName(i.Rs2)}
		if i.Rs2 == 0 {
			rhs = ir.Constant{Value: 0}
		}
		cond := ir.Binary{Op: cmpOp, Lhs: ir.Register{Name: regName(i.Rs1)}, Rhs: rhs}
		return ir.If{Cond: cond, Then: ir.Goto{Target: ir.Constant{Value: pc + i.Imm}}}
	default:
		return ir.Nop{}
	}
}

func riscvBinOp(op Op) ir.BinOp {
	switch op {
	case OpADD:
		return ir.OpAdd
	case OpSUB:
		return ir.OpSub
	case OpAND, OpANDI:
		return ir.OpAnd
	case OpOR, OpORI:
		return ir.OpOr
	case OpXOR, OpXORI:
		return ir.OpXor
	case OpMUL:
		return ir.OpMul
	case OpADDI:
		return ir.OpAdd
	default:
		return ir.OpAdd
	}
}

func branchCmpOp(op Op) ir.BinOp {
	switch op {
	case OpBEQ:
		return ir.OpEq
	case OpBNE:
		return ir.OpNeq
	case OpBLT:
		return ir.OpLt
	case OpBGE:
		return ir.OpGte
	default:
		return ir.OpEq
	}
}

func loadSize(op Op) uint8 {
	switch op {
	case OpLB:
		return 1
	case OpLH:
		return 2
	case OpLW:
		return 4
	case OpLD:
		return 8
	default:
		return 4
	}
}

func storeSize(op Op) uint8 {
	switch op {
	case OpSB:
		return 1
	case OpSH:
		return 2
	case OpSW:
		return 4
	case OpSD:
		return 8
	default:
		return 4
	}
}
