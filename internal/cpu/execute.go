/*
 * riscvsim - Execute stage: ALU, CSR read-modify-write, branch/jump resolution.
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
	"math"

	"github.com/loopcycle/riscvsim/internal/isa"
	"github.com/loopcycle/riscvsim/internal/trap"
)

func boxF32(f float32) uint64 {
	return uint64(math.Float32bits(f)) | 0xffffffff00000000
}

// alu evaluates op over operands a/b/c (c used only by the fused
// multiply-add family), honoring is32 for W-suffixed integer ops.
func alu(op AluOp, a, b, c uint64, is32 bool) uint64 {
	sh6 := uint(b & 0x3f)
	sh5 := uint(b & 0x1f)

	switch op {
	case AluAdd:
		if is32 {
			return uint64(int64(int32(int32(a) + int32(b))))
		}
		return a + b
	case AluSub:
		if is32 {
			return uint64(int64(int32(int32(a) - int32(b))))
		}
		return a - b
	case AluSll:
		if is32 {
			return uint64(int64(int32(uint32(a) << sh5)))
		}
		return a << sh6
	case AluSrl:
		if is32 {
			return uint64(int64(int32(uint32(a) >> sh5)))
		}
		return a >> sh6
	case AluSra:
		if is32 {
			return uint64(int64(int32(a) >> sh5))
		}
		return uint64(int64(a) >> sh6)
	case AluOr:
		return a | b
	case AluAnd:
		return a & b
	case AluXor:
		return a ^ b
	case AluSlt:
		if is32 {
			return boolU64(int32(a) < int32(b))
		}
		return boolU64(int64(a) < int64(b))
	case AluSltu:
		if is32 {
			return boolU64(uint32(a) < uint32(b))
		}
		return boolU64(a < b)
	case AluMul:
		if is32 {
			return uint64(int64(int32(int32(a) * int32(b))))
		}
		return a * b
	case AluMulh:
		if is32 {
			return uint64((int64(int32(a)) * int64(int32(b))) >> 32)
		}
		hi, _ := bits128Mul(int64(a), int64(b))
		return hi
	case AluMulhsu:
		if is32 {
			return uint64((int64(int32(a)) * int64(uint32(b))) >> 32)
		}
		hi, _ := bits128MulSU(int64(a), b)
		return hi
	case AluMulhu:
		if is32 {
			return uint64(int64((uint64(uint32(a)) * uint64(uint32(b))) >> 32))
		}
		hiU, _ := bitsMul64(a, b)
		return hiU
	case AluDiv:
		if is32 {
			if int32(b) == 0 {
				return ^uint64(0)
			}
			return uint64(int64(int32(int32(a) / int32(b))))
		}
		if b == 0 {
			return ^uint64(0)
		}
		return uint64(int64(a) / int64(b))
	case AluDivu:
		if is32 {
			if uint32(b) == 0 {
				return ^uint64(0)
			}
			return uint64(int64(int32(uint32(a) / uint32(b))))
		}
		if b == 0 {
			return ^uint64(0)
		}
		return a / b
	case AluRem:
		if is32 {
			if int32(b) == 0 {
				return a
			}
			return uint64(int64(int32(int32(a) % int32(b))))
		}
		if b == 0 {
			return a
		}
		return uint64(int64(a) % int64(b))
	case AluRemu:
		if is32 {
			if uint32(b) == 0 {
				return a
			}
			return uint64(int64(int32(uint32(a) % uint32(b))))
		}
		if b == 0 {
			return a
		}
		return a % b
	default:
		if is32 {
			return aluF32(op, a, b, c)
		}
		return aluF64(op, a, b, c)
	}
}

func boolU64(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

func aluF32(op AluOp, a, b, c uint64) uint64 {
	fa := math.Float32frombits(uint32(a))
	fb := math.Float32frombits(uint32(b))
	fc := math.Float32frombits(uint32(c))
	switch op {
	case AluFAdd:
		return boxF32(fa + fb)
	case AluFSub:
		return boxF32(fa - fb)
	case AluFMul:
		return boxF32(fa * fb)
	case AluFDiv:
		return boxF32(fa / fb)
	case AluFSqrt:
		return boxF32(float32(math.Sqrt(float64(fa))))
	case AluFMin:
		return boxF32(float32(math.Min(float64(fa), float64(fb))))
	case AluFMax:
		return boxF32(float32(math.Max(float64(fa), float64(fb))))
	case AluFMAdd:
		return boxF32(float32(math.FMA(float64(fa), float64(fb), float64(fc))))
	case AluFMSub:
		return boxF32(float32(math.FMA(float64(fa), float64(fb), float64(-fc))))
	case AluFNMAdd:
		return boxF32(float32(math.FMA(float64(-fa), float64(fb), float64(-fc))))
	case AluFNMSub:
		return boxF32(float32(math.FMA(float64(-fa), float64(fb), float64(fc))))
	case AluFSgnJ:
		return boxF32(math.Float32frombits((math.Float32bits(fa) &^ 0x80000000) | (math.Float32bits(fb) & 0x80000000)))
	case AluFSgnJN:
		return boxF32(math.Float32frombits((math.Float32bits(fa) &^ 0x80000000) | (^math.Float32bits(fb) & 0x80000000)))
	case AluFSgnJX:
		return boxF32(math.Float32frombits(math.Float32bits(fa) ^ (math.Float32bits(fb) & 0x80000000)))
	case AluFEq:
		return boolU64(fa == fb)
	case AluFLt:
		return boolU64(fa < fb)
	case AluFLe:
		return boolU64(fa <= fb)
	case AluFCvtWS:
		return uint64(int64(int32(fa)))
	case AluFCvtLS:
		return uint64(int64(fa))
	case AluFCvtSW:
		return boxF32(float32(int32(a)))
	case AluFCvtSL:
		return boxF32(float32(int64(a)))
	case AluFCvtDS:
		return math.Float64bits(float64(math.Float32frombits(uint32(a))))
	case AluFMvToF:
		return boxF32(math.Float32frombits(uint32(a)))
	case AluFMvToX:
		return uint64(int64(int32(a)))
	default:
		return 0
	}
}

func aluF64(op AluOp, a, b, c uint64) uint64 {
	fa := math.Float64frombits(a)
	fb := math.Float64frombits(b)
	fc := math.Float64frombits(c)
	switch op {
	case AluFAdd:
		return math.Float64bits(fa + fb)
	case AluFSub:
		return math.Float64bits(fa - fb)
	case AluFMul:
		return math.Float64bits(fa * fb)
	case AluFDiv:
		return math.Float64bits(fa / fb)
	case AluFSqrt:
		return math.Float64bits(math.Sqrt(fa))
	case AluFMin:
		return math.Float64bits(math.Min(fa, fb))
	case AluFMax:
		return math.Float64bits(math.Max(fa, fb))
	case AluFMAdd:
		return math.Float64bits(math.FMA(fa, fb, fc))
	case AluFMSub:
		return math.Float64bits(math.FMA(fa, fb, -fc))
	case AluFNMAdd:
		return math.Float64bits(math.FMA(-fa, fb, -fc))
	case AluFNMSub:
		return math.Float64bits(math.FMA(-fa, fb, fc))
	case AluFSgnJ:
		return math.Float64bits(math.Float64frombits((math.Float64bits(fa) &^ (1 << 63)) | (math.Float64bits(fb) & (1 << 63))))
	case AluFSgnJN:
		return math.Float64bits(math.Float64frombits((math.Float64bits(fa) &^ (1 << 63)) | (^math.Float64bits(fb) & (1 << 63))))
	case AluFSgnJX:
		return math.Float64bits(math.Float64frombits(math.Float64bits(fa) ^ (math.Float64bits(fb) & (1 << 63))))
	case AluFEq:
		return boolU64(fa == fb)
	case AluFLt:
		return boolU64(fa < fb)
	case AluFLe:
		return boolU64(fa <= fb)
	case AluFCvtWS:
		return uint64(int64(int32(fa)))
	case AluFCvtLS:
		return uint64(int64(fa))
	case AluFCvtSD:
		return boxF32(float32(fa))
	case AluFCvtSW:
		return math.Float64bits(float64(int32(a)))
	case AluFCvtSL:
		return math.Float64bits(float64(int64(a)))
	case AluFMvToF:
		return a
	case AluFMvToX:
		return a
	default:
		return 0
	}
}

func bits128Mul(a, b int64) (hi, lo uint64) {
	var sa, sb uint64 = uint64(a), uint64(b)
	negA, negB := a < 0, b < 0
	if negA {
		sa = -sa
	}
	if negB {
		sb = -sb
	}
	hiU, loU := bitsMul64(sa, sb)
	if negA != negB {
		loU = ^loU + 1
		hiU = ^hiU
		if loU == 0 {
			hiU++
		}
	}
	return hiU, loU
}

func bits128MulSU(a int64, b uint64) (hi, lo uint64) {
	sa := uint64(a)
	neg := a < 0
	if neg {
		sa = -sa
	}
	hiU, loU := bitsMul64(sa, b)
	if neg {
		loU = ^loU + 1
		hiU = ^hiU
		if loU == 0 {
			hiU++
		}
	}
	return hiU, loU
}

func bitsMul64(a, b uint64) (hi, lo uint64) {
	aLo, aHi := a&0xffffffff, a>>32
	bLo, bHi := b&0xffffffff, b>>32

	t := aLo * bLo
	w0 := t & 0xffffffff
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & 0xffffffff
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	lo = (t << 32) | w0
	hi = aHi*bHi + w2 + k
	return hi, lo
}

// execute consumes idEx, resolving ALU/CSR/branch/jump/system
// instructions and latching ExMem, or propagating a carried trap.
func (c *Cpu) execute() error {
	id := c.idEx

	if id.Trap.Present() {
		c.exMem = ExMem{PC: id.PC, Inst: id.Inst, Rd: id.Rd, Ctrl: id.Ctrl, Trap: id.Trap}
		return nil
	}

	fwdA, fwdB, fwdC := forwardOperands(id, c.exMem, c.wbLatch)
	storeData := fwdB

	var opA uint64
	switch id.Ctrl.aSrc {
	case aSrcReg1:
		opA = fwdA
	case aSrcPC:
		opA = id.PC
	case aSrcZero:
		opA = 0
	}
	var opB uint64
	switch id.Ctrl.bSrc {
	case bSrcReg2:
		opB = fwdB
	case bSrcImm:
		opB = uint64(id.Imm)
	case bSrcZero:
		opB = 0
	}
	opC := fwdC

	if id.Ctrl.IsSystem {
		if id.Ctrl.IsMret {
			c.doMret()
			c.idEx = idExBubble()
			c.exMem = ExMem{}
			return nil
		}
		if id.Ctrl.IsSret {
			c.doSret()
			c.idEx = idExBubble()
			c.exMem = ExMem{}
			return nil
		}

		if isa.Funct3(id.Inst) == isa.F3PRIV && isa.Funct7(id.Inst) == isa.Funct7SFENCE {
			c.MMU.FlushAll()
			c.idEx = idExBubble()
			c.exMem = ExMem{}
			return nil
		}
		if isa.Funct3(id.Inst) == isa.F3PRIV && id.Inst>>20 == isa.Funct12WFI {
			c.idEx = idExBubble()
			c.exMem = ExMem{}
			return nil
		}

		if isa.Funct3(id.Inst) == isa.F3PRIV && id.Inst>>20 == isa.Funct12ECALL {
			probe := IdEx{Rs1: isa.RegA7, Rs2: isa.RegA0, Rs3: isa.RegA0 + 1,
				Rv1: c.Regs.Read(isa.RegA7), Rv2: c.Regs.Read(isa.RegA0), Rv3: c.Regs.Read(isa.RegA0 + 1)}
			a7, a0, a1 := forwardOperands(probe, c.exMem, c.wbLatch)
			if a7 == isa.SysExit {
				c.RequestExit(int(int32(a0)))
				return nil
			}
			if a0 == isa.SysExit {
				c.RequestExit(int(int32(a1)))
				return nil
			}
			c.enterTrap(trap.EnvCallTrap(c.Privilege), id.PC)
			c.idEx = idExBubble()
			c.exMem = ExMem{}
			return nil
		}

		if id.Ctrl.CsrOp != CsrNone {
			old := c.csrRead(id.Ctrl.CsrAddr)
			var src uint64
			switch id.Ctrl.CsrOp {
			case CsrRWI, CsrRSI, CsrRCI:
				src = uint64(id.Rs1) & 0x1f
			default:
				src = fwdA
			}
			var newVal uint64
			switch id.Ctrl.CsrOp {
			case CsrRW, CsrRWI:
				newVal = src
			case CsrRS, CsrRSI:
				newVal = old | src
			case CsrRC, CsrRCI:
				newVal = old &^ src
			}
			c.csrWrite(id.Ctrl.CsrAddr, newVal)

			c.ifID = ifIDBubble()
			c.idEx = idExBubble()
			c.PC = id.PC + 4

			c.exMem = ExMem{PC: id.PC, Inst: id.Inst, Rd: id.Rd, Alu: old, StoreData: storeData, Ctrl: id.Ctrl}
			return nil
		}
	}

	var aluOut uint64
	switch id.Ctrl.Alu {
	case AluFCvtSW:
		if id.Ctrl.IsRV32 {
			aluOut = boxF32(float32(int32(opA)))
		} else {
			aluOut = math.Float64bits(float64(int32(opA)))
		}
	case AluFCvtSL:
		if id.Ctrl.IsRV32 {
			aluOut = boxF32(float32(int64(opA)))
		} else {
			aluOut = math.Float64bits(float64(int64(opA)))
		}
	case AluFCvtSD:
		aluOut = boxF32(float32(math.Float64frombits(opA)))
	case AluFCvtDS:
		aluOut = math.Float64bits(float64(math.Float32frombits(uint32(opA))))
	case AluFMvToF:
		if id.Ctrl.IsRV32 {
			aluOut = boxF32(math.Float32frombits(uint32(opA)))
		} else {
			aluOut = opA
		}
	default:
		aluOut = alu(id.Ctrl.Alu, opA, opB, opC, id.Ctrl.IsRV32)
	}

	if id.Ctrl.Branch {
		var taken bool
		switch isa.Funct3(id.Inst) {
		case isa.F3BEQ:
			taken = opA == opB
		case isa.F3BNE:
			taken = opA != opB
		case isa.F3BLT:
			taken = int64(opA) < int64(opB)
		case isa.F3BGE:
			taken = int64(opA) >= int64(opB)
		case isa.F3BLTU:
			taken = opA < opB
		case isa.F3BGEU:
			taken = opA >= opB
		}
		actual := id.PC + uint64(id.Imm)
		fallthrough_ := id.PC + 4
		nextInstPC := c.ifID.PC

		var mispred bool
		redirect := c.PC
		if taken {
			if nextInstPC != actual {
				mispred, redirect = true, actual
			}
		} else if nextInstPC != fallthrough_ {
			mispred, redirect = true, fallthrough_
		}

		c.BranchPredictor.UpdateBranch(id.PC, taken, actual)
		c.Stats.BranchesTotal++

		if mispred {
			c.Stats.BranchMispredicts++
			c.PC = redirect
			c.ifID = ifIDBubble()
			c.idEx = idExBubble()
		}
	}

	if id.Ctrl.Jump {
		isJALR := isa.Opcode(id.Inst) == isa.OpJALR
		isCall := isa.Opcode(id.Inst) == isa.OpJAL && id.Rd == isa.RegRA
		isRet := isJALR && id.Rd == isa.RegZero && id.Rs1 == isa.RegRA

		var actual uint64
		if isJALR {
			actual = (fwdA + uint64(id.Imm)) &^ 1
		} else {
			actual = id.PC + uint64(id.Imm)
		}

		nextInstPC := c.ifID.PC
		if nextInstPC != actual {
			c.Stats.BranchMispredicts++
			c.PC = actual
			c.ifID = ifIDBubble()
			c.idEx = idExBubble()
		}
		c.Stats.BranchesTotal++

		if isCall {
			c.BranchPredictor.OnCall(id.PC, id.PC+4)
			c.BranchPredictor.UpdateBTB(id.PC, actual)
		} else if isRet {
			c.BranchPredictor.OnReturn()
		} else {
			c.BranchPredictor.UpdateBTB(id.PC, actual)
		}
	}

	c.exMem = ExMem{PC: id.PC, Inst: id.Inst, Rd: id.Rd, Alu: aluOut, StoreData: storeData, Ctrl: id.Ctrl}
	return nil
}
