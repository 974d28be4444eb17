/*
 * riscvsim - Memory stage: address translation, cache-timed loads/stores, atomics.
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

import "github.com/loopcycle/riscvsim/internal/trap"

func widthBytes(w MemWidth) uint64 {
	switch w {
	case WidthByte:
		return 1
	case WidthHalf:
		return 2
	case WidthWord:
		return 4
	case WidthDouble:
		return 8
	default:
		return 0
	}
}

func (c *Cpu) readMem(paddr uint64, w MemWidth) uint64 {
	switch w {
	case WidthByte:
		return uint64(c.Bus.ReadU8(paddr))
	case WidthHalf:
		return uint64(c.Bus.ReadU16(paddr))
	case WidthWord:
		return uint64(c.Bus.ReadU32(paddr))
	case WidthDouble:
		return c.Bus.ReadU64(paddr)
	default:
		return 0
	}
}

func (c *Cpu) writeMem(paddr uint64, w MemWidth, val uint64) {
	switch w {
	case WidthByte:
		c.Bus.WriteU8(paddr, uint8(val))
	case WidthHalf:
		c.Bus.WriteU16(paddr, uint16(val))
	case WidthWord:
		c.Bus.WriteU32(paddr, uint32(val))
	case WidthDouble:
		c.Bus.WriteU64(paddr, val)
	}
}

// signOrZeroExtend widens a loaded value of width w to 64 bits,
// honoring signedLoad for integer loads (FP loads never sign-extend:
// a 32-bit float is NaN-boxed by the caller instead).
func signOrZeroExtend(val uint64, w MemWidth, signed bool) uint64 {
	if !signed {
		return val
	}
	switch w {
	case WidthByte:
		return uint64(int64(int8(val)))
	case WidthHalf:
		return uint64(int64(int16(val)))
	case WidthWord:
		return uint64(int64(int32(val)))
	default:
		return val
	}
}

// isAligned reports whether an access of size bytes at addr falls on
// a natural boundary; byte accesses are always aligned.
func isAligned(addr, size uint64) bool {
	return size <= 1 || addr%size == 0
}

// crossesCacheLine reports whether an access of size bytes starting
// at addr spans two lines of a lineSize-byte cache.
func crossesCacheLine(addr, size, lineSize uint64) bool {
	if size == 0 || lineSize == 0 {
		return false
	}
	lineMask := lineSize - 1
	return (addr&lineMask)+(size-1) >= lineSize
}

// splitReadMem reassembles an unaligned load from nbytes individual
// byte reads, little-endian.
func (c *Cpu) splitReadMem(paddr uint64, nbytes uint64) uint64 {
	var result uint64
	for i := uint64(0); i < nbytes; i++ {
		result |= uint64(c.Bus.ReadU8(paddr+i)) << (i * 8)
	}
	return result
}

// splitWriteMem decomposes an unaligned store into nbytes individual
// byte writes, little-endian.
func (c *Cpu) splitWriteMem(paddr uint64, nbytes uint64, val uint64) {
	for i := uint64(0); i < nbytes; i++ {
		c.Bus.WriteU8(paddr+i, uint8(val>>(i*8)))
	}
}

// memoryAccess consumes exMem, performing the load/store/atomic
// read-modify-write it specifies. A translation fault from the ExMem
// latch is latched into MemWb rather than applied, for the write-back
// stage to raise as a trap. Unaligned loads/stores are split into
// byte-granular accesses rather than trapping; AMO/LR/SC still
// require natural alignment and trap otherwise.
func (c *Cpu) memoryAccess() error {
	ex := c.exMem

	if ex.Trap.Present() {
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, Ctrl: ex.Ctrl, Trap: ex.Trap}
		return nil
	}

	if !ex.Ctrl.MemRead && !ex.Ctrl.MemWrite {
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, Alu: ex.Alu, Ctrl: ex.Ctrl}
		return nil
	}

	vaddr := ex.Alu
	nbytes := widthBytes(ex.Ctrl.Width)
	aligned := isAligned(vaddr, nbytes)

	if ex.Ctrl.AtomicOp != AtomicNone {
		if !aligned {
			t := trap.StoreAddrMisalignedTrap(vaddr)
			if ex.Ctrl.AtomicOp == AtomicLR {
				t = trap.LoadAddrMisalignedTrap(vaddr)
			}
			c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, Ctrl: ex.Ctrl, Trap: t}
			return nil
		}
		return c.atomicAccess(ex, vaddr)
	}

	access := trap.AccessRead
	if ex.Ctrl.MemWrite {
		access = trap.AccessWrite
	}
	paddr, _, tr := c.translate(trap.VirtAddr(vaddr), access)
	if tr.Present() {
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, Ctrl: ex.Ctrl, Trap: tr}
		return nil
	}
	stall := c.simulateMemoryAccess(ex.PC, paddr, access)
	if !aligned && crossesCacheLine(vaddr, nbytes, uint64(c.Caches.L1D.LineSize())) {
		stall++
	}
	c.stallCycles += stall

	var loadData uint64
	if ex.Ctrl.MemRead {
		var raw uint64
		if aligned {
			raw = c.readMem(paddr.Val(), ex.Ctrl.Width)
		} else {
			raw = c.splitReadMem(paddr.Val(), nbytes)
		}
		if ex.Ctrl.FPRegWrite && ex.Ctrl.Width == WidthWord {
			loadData = raw | 0xffffffff00000000
		} else {
			loadData = signOrZeroExtend(raw, ex.Ctrl.Width, ex.Ctrl.SignedLoad)
		}
	}
	if ex.Ctrl.MemWrite {
		if aligned {
			c.writeMem(paddr.Val(), ex.Ctrl.Width, ex.StoreData)
		} else {
			c.splitWriteMem(paddr.Val(), nbytes, ex.StoreData)
		}
	}

	c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, Alu: ex.Alu, LoadData: loadData, Ctrl: ex.Ctrl}
	return nil
}

// atomicAccess implements LR/SC/AMO: LR records a reservation, SC
// checks and clears it, every other AMO performs the read-modify-
// write unconditionally. Each is a single bus round trip in this
// model rather than a true indivisible multi-cycle sequence.
func (c *Cpu) atomicAccess(ex ExMem, vaddr uint64) error {
	paddr, _, tr := c.translate(trap.VirtAddr(vaddr), trap.AccessWrite)
	if tr.Present() {
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, Ctrl: ex.Ctrl, Trap: tr}
		return nil
	}
	c.stallCycles += c.simulateMemoryAccess(ex.PC, paddr, trap.AccessWrite)

	switch ex.Ctrl.AtomicOp {
	case AtomicLR:
		old := signOrZeroExtend(c.readMem(paddr.Val(), ex.Ctrl.Width), ex.Ctrl.Width, true)
		c.loadReservation = paddr.Val()
		c.haveLoadReservation = true
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, LoadData: old, Ctrl: ex.Ctrl}
		return nil

	case AtomicSC:
		var result uint64 = 1
		if c.haveLoadReservation && c.loadReservation == paddr.Val() {
			c.writeMem(paddr.Val(), ex.Ctrl.Width, ex.StoreData)
			result = 0
		}
		c.haveLoadReservation = false
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, LoadData: result, Ctrl: ex.Ctrl}
		return nil

	default:
		old := signOrZeroExtend(c.readMem(paddr.Val(), ex.Ctrl.Width), ex.Ctrl.Width, true)
		operand := int64(ex.StoreData)
		var newVal uint64
		switch ex.Ctrl.AtomicOp {
		case AtomicSwap:
			newVal = ex.StoreData
		case AtomicAdd:
			newVal = uint64(int64(old) + operand)
		case AtomicXor:
			newVal = old ^ ex.StoreData
		case AtomicAnd:
			newVal = old & ex.StoreData
		case AtomicOr:
			newVal = old | ex.StoreData
		case AtomicMin:
			if int64(old) < operand {
				newVal = old
			} else {
				newVal = ex.StoreData
			}
		case AtomicMax:
			if int64(old) > operand {
				newVal = old
			} else {
				newVal = ex.StoreData
			}
		case AtomicMinu:
			if old < ex.StoreData {
				newVal = old
			} else {
				newVal = ex.StoreData
			}
		case AtomicMaxu:
			if old > ex.StoreData {
				newVal = old
			} else {
				newVal = ex.StoreData
			}
		}
		c.writeMem(paddr.Val(), ex.Ctrl.Width, newVal)
		c.haveLoadReservation = false
		c.memWb = MemWb{PC: ex.PC, Inst: ex.Inst, Rd: ex.Rd, LoadData: old, Ctrl: ex.Ctrl}
		return nil
	}
}
