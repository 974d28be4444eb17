/*
 * riscvsim - Decode stage: instruction field extraction and control generation.
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

package cpu

import (
	"github.com/loopcycle/riscvsim/internal/isa"
	"github.com/loopcycle/riscvsim/internal/trap"
)

// decode turns ifID into the decode->execute latch: it classifies the
// instruction by opcode/funct3/funct7, builds the resulting
// ControlSignals, reads the source operands, and carries forward any
// trap raised during fetch or decoding itself.
func (c *Cpu) decode() {
	inst := c.ifID.Inst
	pc := c.ifID.PC
	fetchTrap := c.idExFault
	c.idExFault = trap.Trap{}

	if !fetchTrap.Present() && (inst == nopInstruction || inst == 0) {
		c.idEx = idExBubble()
		c.idEx.PC = pc
		return
	}

	var ctrl ControlSignals
	var decodeTrap trap.Trap
	if !fetchTrap.Present() {
		ctrl, decodeTrap = decodeLogic(inst, pc)
	}

	t := fetchTrap
	if !t.Present() {
		t = decodeTrap
	}

	rs1 := isa.Rs1(inst)
	rs2 := isa.Rs2(inst)
	rs3 := isa.Rs3(inst)
	rd := isa.Rd(inst)
	imm := immediateFor(inst)

	var rv1, rv2, rv3 uint64
	if ctrl.Rs1FP {
		rv1 = c.Regs.ReadF(rs1)
	} else {
		rv1 = c.Regs.Read(rs1)
	}
	if ctrl.Rs2FP {
		rv2 = c.Regs.ReadF(rs2)
	} else {
		rv2 = c.Regs.Read(rs2)
	}
	if ctrl.Rs3FP {
		rv3 = c.Regs.ReadF(rs3)
	}

	c.idEx = IdEx{
		PC: pc, Inst: inst,
		Rs1: rs1, Rs2: rs2, Rs3: rs3, Rd: rd,
		Imm: imm,
		Rv1: rv1, Rv2: rv2, Rv3: rv3,
		Ctrl: ctrl,
		Trap: t,
	}
}

func immediateFor(inst uint32) int64 {
	switch isa.Opcode(inst) {
	case isa.OpLUI, isa.OpAUIPC:
		return isa.ImmU(inst)
	case isa.OpJAL:
		return isa.ImmJ(inst)
	case isa.OpBranch:
		return isa.ImmB(inst)
	case isa.OpStore, isa.OpStoreFP:
		return isa.ImmS(inst)
	default:
		return isa.ImmI(inst)
	}
}

// decodeLogic classifies inst by opcode and produces its
// ControlSignals, or an illegal-instruction/breakpoint trap for
// encodings this core does not implement.
func decodeLogic(inst uint32, pc uint64) (ControlSignals, trap.Trap) {
	c := ControlSignals{aSrc: aSrcReg1, bSrc: bSrcImm, Alu: AluAdd}
	opcode := isa.Opcode(inst)
	f3 := isa.Funct3(inst)
	f7 := isa.Funct7(inst)

	illegal := func() (ControlSignals, trap.Trap) {
		return ControlSignals{}, trap.IllegalInstructionTrap(uint64(inst))
	}

	switch opcode {
	case isa.OpLUI:
		c.RegWrite = true
		c.aSrc = aSrcZero

	case isa.OpAUIPC:
		c.RegWrite = true
		c.aSrc = aSrcPC

	case isa.OpJAL:
		c.RegWrite = true
		c.Jump = true

	case isa.OpJALR:
		c.RegWrite = true
		c.Jump = true
		c.Alu = AluAdd

	case isa.OpBranch:
		c.Branch = true
		c.bSrc = bSrcReg2
		switch f3 {
		case isa.F3BEQ, isa.F3BNE, isa.F3BLT, isa.F3BGE, isa.F3BLTU, isa.F3BGEU:
		default:
			return illegal()
		}

	case isa.OpLoad:
		c.RegWrite = true
		c.MemRead = true
		c.Alu = AluAdd
		switch f3 {
		case isa.F3Byte:
			c.Width, c.SignedLoad = WidthByte, true
		case isa.F3Half:
			c.Width, c.SignedLoad = WidthHalf, true
		case isa.F3Word:
			c.Width, c.SignedLoad = WidthWord, true
		case isa.F3Dword:
			c.Width, c.SignedLoad = WidthDouble, true
		case isa.F3BU:
			c.Width = WidthByte
		case isa.F3HU:
			c.Width = WidthHalf
		case isa.F3WU:
			c.Width = WidthWord
		default:
			return illegal()
		}

	case isa.OpLoadFP:
		c.FPRegWrite = true
		c.MemRead = true
		c.Alu = AluAdd
		switch f3 {
		case 0x2:
			c.Width = WidthWord
		case 0x3:
			c.Width = WidthDouble
		default:
			return illegal()
		}

	case isa.OpStore:
		c.MemWrite = true
		c.bSrc = bSrcImm
		c.Alu = AluAdd
		switch f3 {
		case isa.F3Byte:
			c.Width = WidthByte
		case isa.F3Half:
			c.Width = WidthHalf
		case isa.F3Word:
			c.Width = WidthWord
		case isa.F3Dword:
			c.Width = WidthDouble
		default:
			return illegal()
		}

	case isa.OpStoreFP:
		c.MemWrite = true
		c.Rs2FP = true
		c.bSrc = bSrcImm
		c.Alu = AluAdd
		switch f3 {
		case 0x2:
			c.Width = WidthWord
		case 0x3:
			c.Width = WidthDouble
		default:
			return illegal()
		}

	case isa.OpAMO:
		switch f3 {
		case isa.F3Word:
			c.Width = WidthWord
		case isa.F3Dword:
			c.Width = WidthDouble
		default:
			return illegal()
		}
		f5 := f7 >> 2
		switch f5 {
		case isa.F5LR:
			c.AtomicOp = AtomicLR
		case isa.F5SC:
			c.AtomicOp = AtomicSC
		case isa.F5AMOSWAP:
			c.AtomicOp = AtomicSwap
		case isa.F5AMOADD:
			c.AtomicOp = AtomicAdd
		case isa.F5AMOXOR:
			c.AtomicOp = AtomicXor
		case isa.F5AMOAND:
			c.AtomicOp = AtomicAnd
		case isa.F5AMOOR:
			c.AtomicOp = AtomicOr
		case isa.F5AMOMIN:
			c.AtomicOp = AtomicMin
		case isa.F5AMOMAX:
			c.AtomicOp = AtomicMax
		case isa.F5AMOMINU:
			c.AtomicOp = AtomicMinu
		case isa.F5AMOMAXU:
			c.AtomicOp = AtomicMaxu
		default:
			return illegal()
		}
		c.Alu = AluAdd
		c.aSrc = aSrcReg1
		c.bSrc = bSrcZero
		c.RegWrite = true
		c.MemRead = true
		if c.AtomicOp != AtomicLR {
			c.MemWrite = true
		}

	case isa.OpImm, isa.OpImm32:
		c.RegWrite = true
		c.IsRV32 = opcode == isa.OpImm32
		switch f3 {
		case isa.F3ADDSUB:
			c.Alu = AluAdd
		case isa.F3SLT:
			c.Alu = AluSlt
		case isa.F3SLTU:
			c.Alu = AluSltu
		case isa.F3XOR:
			c.Alu = AluXor
		case isa.F3OR:
			c.Alu = AluOr
		case isa.F3AND:
			c.Alu = AluAnd
		case isa.F3SLL:
			c.Alu = AluSll
		case isa.F3SRLSRA:
			if f7&isa.Funct7Alt != 0 {
				c.Alu = AluSra
			} else {
				c.Alu = AluSrl
			}
		default:
			return illegal()
		}

	case isa.OpReg, isa.OpReg32:
		c.RegWrite = true
		c.IsRV32 = opcode == isa.OpReg32
		c.bSrc = bSrcReg2
		op, ok := regAluOp(f3, f7)
		if !ok {
			return illegal()
		}
		c.Alu = op

	case isa.OpFP:
		fmt := f7 & 0x3
		opBits := f7 >> 2
		c.IsRV32 = fmt == isa.FmtS
		c.Rs1FP = true
		c.Rs2FP = true
		c.FPRegWrite = true
		c.bSrc = bSrcReg2
		op, fpRegWrite, regWrite, rs1FP, aSrc, ok := fpAluOp(opBits, f3, isa.Rs2(inst))
		if !ok {
			return illegal()
		}
		c.Alu = op
		c.FPRegWrite = fpRegWrite
		c.RegWrite = regWrite
		c.Rs1FP = rs1FP
		c.aSrc = aSrc

	case isa.OpFMAdd, isa.OpFMSub, isa.OpFNMAdd, isa.OpFNMSub:
		c.Rs1FP = true
		c.Rs2FP = true
		c.Rs3FP = true
		c.FPRegWrite = true
		c.bSrc = bSrcReg2
		switch opcode {
		case isa.OpFMAdd:
			c.Alu = AluFMAdd
		case isa.OpFMSub:
			c.Alu = AluFMSub
		case isa.OpFNMAdd:
			c.Alu = AluFNMAdd
		case isa.OpFNMSub:
			c.Alu = AluFNMSub
		}
		c.IsRV32 = f7&0x3 == 0

	case isa.OpSystem:
		c.IsSystem = true
		switch {
		case f3 == isa.F3PRIV && inst>>20 == isa.Funct12ECALL:
		case f3 == isa.F3PRIV && inst>>20 == isa.Funct12EBREAK:
			return ControlSignals{}, trap.BreakpointTrap()
		case f3 == isa.F3PRIV && inst>>20 == isa.Funct12MRET:
			c.IsMret = true
		case f3 == isa.F3PRIV && inst>>20 == isa.Funct12SRET:
			c.IsSret = true
		case f3 == isa.F3PRIV && isa.Funct7(inst) == isa.Funct7SFENCE:
			// SFENCE.VMA: treated as a privileged no-op signaled via IsSystem
			// with CsrOp left None; execute flushes the TLBs.
		case f3 == isa.F3PRIV && inst>>20 == isa.Funct12WFI:
			// WFI: treated as a no-op that simply yields the cycle.
		default:
			c.CsrAddr = uint32(inst >> 20)
			c.aSrc = aSrcReg1
			c.bSrc = bSrcZero
			switch f3 {
			case isa.F3CSRRW:
				c.CsrOp = CsrRW
			case isa.F3CSRRS:
				c.CsrOp = CsrRS
			case isa.F3CSRRC:
				c.CsrOp = CsrRC
			case isa.F3CSRRWI:
				c.CsrOp = CsrRWI
			case isa.F3CSRRSI:
				c.CsrOp = CsrRSI
			case isa.F3CSRRCI:
				c.CsrOp = CsrRCI
			default:
				return illegal()
			}
			c.RegWrite = isa.Rd(inst) != 0
		}

	case isa.OpMiscMem:
		// FENCE / FENCE.I: no-op in this in-order single-hart core.

	default:
		return illegal()
	}

	_ = pc
	return c, trap.Trap{}
}

func regAluOp(f3, f7 uint32) (AluOp, bool) {
	base := f7 == 0
	alt := f7 == isa.Funct7Alt
	mext := f7 == isa.Funct7Mext

	switch {
	case f3 == isa.F3ADDSUB && base:
		return AluAdd, true
	case f3 == isa.F3ADDSUB && alt:
		return AluSub, true
	case f3 == isa.F3SLL && base:
		return AluSll, true
	case f3 == isa.F3SLT && base:
		return AluSlt, true
	case f3 == isa.F3SLTU && base:
		return AluSltu, true
	case f3 == isa.F3XOR && base:
		return AluXor, true
	case f3 == isa.F3SRLSRA && base:
		return AluSrl, true
	case f3 == isa.F3SRLSRA && alt:
		return AluSra, true
	case f3 == isa.F3OR && base:
		return AluOr, true
	case f3 == isa.F3AND && base:
		return AluAnd, true
	case f3 == isa.F3ADDSUB && mext:
		return AluMul, true
	case f3 == isa.F3SLL && mext:
		return AluMulh, true
	case f3 == isa.F3SLT && mext:
		return AluMulhsu, true
	case f3 == isa.F3SLTU && mext:
		return AluMulhu, true
	case f3 == isa.F3XOR && mext:
		return AluDiv, true
	case f3 == isa.F3SRLSRA && mext:
		return AluDivu, true
	case f3 == isa.F3OR && mext:
		return AluRem, true
	case f3 == isa.F3AND && mext:
		return AluRemu, true
	default:
		return 0, false
	}
}

// fpAluOp classifies the OP_FP funct7-derived op_bits/funct3 pair,
// returning the ALU op and the (possibly overridden) register-write
// destination kind, mirroring the teacher's per-case overrides for
// FCMP/FCLASS/FMV/FCVT, which route to the integer file instead of FP.
func fpAluOp(opBits, f3 uint32, rs2 int) (op AluOp, fpRegWrite, regWrite, rs1FP bool, aSrc opASrc, ok bool) {
	fpRegWrite, regWrite, rs1FP, aSrc = true, false, true, aSrcReg1

	switch opBits {
	case isa.F5FADD:
		return AluFAdd, fpRegWrite, regWrite, rs1FP, aSrc, true
	case isa.F5FSUB:
		return AluFSub, fpRegWrite, regWrite, rs1FP, aSrc, true
	case isa.F5FMUL:
		return AluFMul, fpRegWrite, regWrite, rs1FP, aSrc, true
	case isa.F5FDIV:
		return AluFDiv, fpRegWrite, regWrite, rs1FP, aSrc, true
	case isa.F5FSQRT:
		return AluFSqrt, fpRegWrite, regWrite, rs1FP, aSrc, true
	case isa.F5FSGNJ:
		switch f3 {
		case 0x0:
			return AluFSgnJ, fpRegWrite, regWrite, rs1FP, aSrc, true
		case 0x1:
			return AluFSgnJN, fpRegWrite, regWrite, rs1FP, aSrc, true
		case 0x2:
			return AluFSgnJX, fpRegWrite, regWrite, rs1FP, aSrc, true
		}
		return 0, false, false, false, aSrc, false
	case isa.F5FMINMAX:
		switch f3 {
		case 0x0:
			return AluFMin, fpRegWrite, regWrite, rs1FP, aSrc, true
		case 0x1:
			return AluFMax, fpRegWrite, regWrite, rs1FP, aSrc, true
		}
		return 0, false, false, false, aSrc, false
	case isa.F5FCMP:
		switch f3 {
		case 0x2:
			return AluFEq, false, true, true, aSrc, true
		case 0x1:
			return AluFLt, false, true, true, aSrc, true
		case 0x0:
			return AluFLe, false, true, true, aSrc, true
		}
		return 0, false, false, false, aSrc, false
	case isa.F5FMVXW:
		switch f3 {
		case 0x0:
			return AluFMvToX, false, true, true, aSrc, true
		case 0x1:
			return AluFClass, false, true, true, aSrc, true
		}
		return 0, false, false, false, aSrc, false
	case isa.F5FMVWX:
		return AluFMvToF, true, false, false, aSrcReg1, true
	case isa.F5FCVTToI:
		if rs2 == 0 || rs2 == 1 {
			return AluFCvtWS, false, true, true, aSrc, true
		}
		return AluFCvtLS, false, true, true, aSrc, true
	case isa.F5FCVtoF:
		if rs2 == 0 || rs2 == 1 {
			return AluFCvtSW, true, false, false, aSrcReg1, true
		}
		return AluFCvtSL, true, false, false, aSrcReg1, true
	case isa.F5FCVTSD:
		if rs2 == 1 {
			return AluFCvtSD, fpRegWrite, regWrite, rs1FP, aSrc, true
		}
		return AluFCvtDS, fpRegWrite, regWrite, rs1FP, aSrc, true
	}
	return 0, false, false, false, aSrc, false
}
