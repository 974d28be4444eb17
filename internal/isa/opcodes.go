/*
 * riscvsim - RV64IMAFDC opcode and instruction-field constants.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package isa holds the RV64IMAFDC instruction encoding: opcode,
// funct3/funct7/funct5 field constants, the immediate decoder, CSR
// address constants, and compressed-instruction (RVC) expansion.
package isa

// Base opcode field (inst[6:0]) values, all ending in 11 (uncompressed).
const (
	OpLoad    uint32 = 0x03
	OpLoadFP  uint32 = 0x07
	OpMiscMem uint32 = 0x0f
	OpImm     uint32 = 0x13
	OpAUIPC   uint32 = 0x17
	OpImm32   uint32 = 0x1b
	OpStore   uint32 = 0x23
	OpStoreFP uint32 = 0x27
	OpAMO     uint32 = 0x2f
	OpReg     uint32 = 0x33
	OpLUI     uint32 = 0x37
	OpReg32   uint32 = 0x3b
	OpFMAdd   uint32 = 0x43
	OpFMSub   uint32 = 0x47
	OpFNMSub  uint32 = 0x4b
	OpFNMAdd  uint32 = 0x4f
	OpFP      uint32 = 0x53
	OpBranch  uint32 = 0x63
	OpJALR    uint32 = 0x67
	OpJAL     uint32 = 0x6f
	OpSystem  uint32 = 0x73
)

// Field extraction helpers.
func Opcode(inst uint32) uint32  { return inst & 0x7f }
func Rd(inst uint32) int         { return int((inst >> 7) & 0x1f) }
func Funct3(inst uint32) uint32  { return (inst >> 12) & 0x7 }
func Rs1(inst uint32) int        { return int((inst >> 15) & 0x1f) }
func Rs2(inst uint32) int        { return int((inst >> 20) & 0x1f) }
func Rs3(inst uint32) int        { return int((inst >> 27) & 0x1f) }
func Funct7(inst uint32) uint32  { return (inst >> 25) & 0x7f }
func Funct5(inst uint32) uint32  { return (inst >> 27) & 0x1f }
func Funct2(inst uint32) uint32  { return (inst >> 25) & 0x3 }
func AqRl(inst uint32) (aq, rl bool) {
	return (inst>>26)&1 != 0, (inst>>25)&1 != 0
}

// Funct3 codes shared by loads/stores/branches.
const (
	F3Byte  uint32 = 0x0
	F3Half  uint32 = 0x1
	F3Word  uint32 = 0x2
	F3Dword uint32 = 0x3
	F3BU    uint32 = 0x4
	F3HU    uint32 = 0x5
	F3WU    uint32 = 0x6
)

// Funct3 codes for OP_BRANCH.
const (
	F3BEQ  uint32 = 0x0
	F3BNE  uint32 = 0x1
	F3BLT  uint32 = 0x4
	F3BGE  uint32 = 0x5
	F3BLTU uint32 = 0x6
	F3BGEU uint32 = 0x7
)

// Funct3 codes for OP_IMM / OP_REG (integer ALU).
const (
	F3ADDSUB uint32 = 0x0
	F3SLL    uint32 = 0x1
	F3SLT    uint32 = 0x2
	F3SLTU   uint32 = 0x3
	F3XOR    uint32 = 0x4
	F3SRLSRA uint32 = 0x5
	F3OR     uint32 = 0x6
	F3AND    uint32 = 0x7
)

// Funct3 codes for OP_SYSTEM (CSR + privileged).
const (
	F3PRIV  uint32 = 0x0
	F3CSRRW uint32 = 0x1
	F3CSRRS uint32 = 0x2
	F3CSRRC uint32 = 0x3
	F3CSRRWI uint32 = 0x5
	F3CSRRSI uint32 = 0x6
	F3CSRRCI uint32 = 0x7
)

// Funct7 top bit distinguishing SUB from ADD, SRA from SRL, and the
// M-extension (funct7==1) from the base integer ops.
const (
	Funct7Alt  uint32 = 0x20
	Funct7Mext uint32 = 0x01
)

// Funct3 codes for the M extension (mul/div family), sharing OpReg.
const (
	F3MUL    uint32 = 0x0
	F3MULH   uint32 = 0x1
	F3MULHSU uint32 = 0x2
	F3MULHU  uint32 = 0x3
	F3DIV    uint32 = 0x4
	F3DIVU   uint32 = 0x5
	F3REM    uint32 = 0x6
	F3REMU   uint32 = 0x7
)

// AMO funct5 codes (OpAMO).
const (
	F5LR      uint32 = 0x02
	F5SC      uint32 = 0x03
	F5AMOSWAP uint32 = 0x01
	F5AMOADD  uint32 = 0x00
	F5AMOXOR  uint32 = 0x04
	F5AMOAND  uint32 = 0x0c
	F5AMOOR   uint32 = 0x08
	F5AMOMIN  uint32 = 0x10
	F5AMOMAX  uint32 = 0x14
	F5AMOMINU uint32 = 0x18
	F5AMOMAXU uint32 = 0x1c
)

// Funct5 codes for OP_FP (funct7[6:2]).
const (
	F5FADD    uint32 = 0x00
	F5FSUB    uint32 = 0x01
	F5FMUL    uint32 = 0x02
	F5FDIV    uint32 = 0x03
	F5FSQRT   uint32 = 0x0b
	F5FSGNJ   uint32 = 0x04
	F5FMINMAX uint32 = 0x05
	F5FCVTToI uint32 = 0x18
	F5FCVtoF  uint32 = 0x1a
	F5FMVXW   uint32 = 0x1c // FCLASS / FMV.X.W share this funct5
	F5FCMP    uint32 = 0x14
	F5FMVWX   uint32 = 0x1e // FMV.W.X
	F5FCVTSD  uint32 = 0x08 // FCVT.S.D / FCVT.D.S
)

// Funct2 fmt field for OP_FP / FMADD family: 0=S(single), 1=D(double).
const (
	FmtS uint32 = 0x0
	FmtD uint32 = 0x1
)

// ECALL/EBREAK/MRET/SRET/WFI/SFENCE.VMA full 32-bit encodings
// (funct12 in bits [31:20], with OpSystem/F3PRIV/rd=rs1=0 except
// SFENCE.VMA which uses rs2/rs1).
const (
	Funct12ECALL  uint32 = 0x000
	Funct12EBREAK uint32 = 0x001
	Funct12SRET   uint32 = 0x102
	Funct12MRET   uint32 = 0x302
	Funct12WFI    uint32 = 0x105
	Funct7SFENCE  uint32 = 0x09
)

// SYS_EXIT is the a7 value bare-metal programs use with ECALL to
// request a clean simulator exit; a0 carries the exit code.
const SysExit = 93
