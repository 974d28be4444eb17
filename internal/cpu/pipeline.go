/*
 * riscvsim - Pipeline latches and control signals for the 5-stage core.
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

// Package cpu implements the in-order 5-stage RV64IMAFDC core: CSR
// file, fetch/decode/execute/memory/write-back stages, hazard
// detection and forwarding, trap entry, and the ELF/raw-binary loader.
package cpu

import "github.com/loopcycle/riscvsim/internal/trap"

const nopInstruction uint32 = 0x00000013 // addi x0, x0, 0

// AluOp selects the execute-stage ALU operation.
type AluOp int

const (
	AluAdd AluOp = iota
	AluSub
	AluSll
	AluSlt
	AluSltu
	AluXor
	AluSrl
	AluSra
	AluOr
	AluAnd
	AluMul
	AluMulh
	AluMulhsu
	AluMulhu
	AluDiv
	AluDivu
	AluRem
	AluRemu
	AluFAdd
	AluFSub
	AluFMul
	AluFDiv
	AluFSqrt
	AluFMin
	AluFMax
	AluFMAdd
	AluFMSub
	AluFNMAdd
	AluFNMSub
	AluFCvtWS
	AluFCvtLS
	AluFCvtSW
	AluFCvtSL
	AluFCvtSD
	AluFCvtDS
	AluFSgnJ
	AluFSgnJN
	AluFSgnJX
	AluFEq
	AluFLt
	AluFLe
	AluFClass
	AluFMvToX
	AluFMvToF
)

// AtomicOp selects the AMO/LR/SC execute-stage read-modify-write.
type AtomicOp int

const (
	AtomicNone AtomicOp = iota
	AtomicLR
	AtomicSC
	AtomicSwap
	AtomicAdd
	AtomicXor
	AtomicAnd
	AtomicOr
	AtomicMin
	AtomicMax
	AtomicMinu
	AtomicMaxu
)

// MemWidth selects the memory-stage access width.
type MemWidth int

const (
	WidthNone MemWidth = iota
	WidthByte
	WidthHalf
	WidthWord
	WidthDouble
)

type opASrc int

const (
	aSrcReg1 opASrc = iota
	aSrcPC
	aSrcZero
)

type opBSrc int

const (
	bSrcImm opBSrc = iota
	bSrcReg2
	bSrcZero
)

// CsrOp selects the CSRRx read-modify-write combinator.
type CsrOp int

const (
	CsrNone CsrOp = iota
	CsrRW
	CsrRS
	CsrRC
	CsrRWI
	CsrRSI
	CsrRCI
)

// ControlSignals is the full decode output driving every later stage.
type ControlSignals struct {
	RegWrite   bool
	FPRegWrite bool
	MemRead    bool
	MemWrite   bool
	Branch     bool
	Jump       bool
	IsRV32     bool
	Width      MemWidth
	SignedLoad bool
	Alu        AluOp
	aSrc       opASrc
	bSrc       opBSrc
	IsSystem   bool
	CsrAddr    uint32
	IsMret     bool
	IsSret     bool
	CsrOp      CsrOp
	Rs1FP      bool
	Rs2FP      bool
	Rs3FP      bool
	AtomicOp   AtomicOp
}

// IfID is the fetch -> decode latch.
type IfID struct {
	PC   uint64
	Inst uint32
}

func ifIDBubble() IfID { return IfID{Inst: nopInstruction} }

// IdEx is the decode -> execute latch.
type IdEx struct {
	PC   uint64
	Inst uint32
	Rs1, Rs2, Rs3 int
	Rd            int
	Imm           int64
	Rv1, Rv2, Rv3 uint64
	Ctrl          ControlSignals
	Trap          trap.Trap
}

func idExBubble() IdEx {
	return IdEx{Inst: nopInstruction}
}

// ExMem is the execute -> memory latch.
type ExMem struct {
	PC        uint64
	Inst      uint32
	Rd        int
	Alu       uint64
	StoreData uint64
	Ctrl      ControlSignals
	Trap      trap.Trap
}

// MemWb is the memory -> write-back latch.
type MemWb struct {
	PC       uint64
	Inst     uint32
	Rd       int
	Alu      uint64
	LoadData uint64
	Ctrl     ControlSignals
	Trap     trap.Trap
}
