/*
 * riscvsim - Fetch stage: PC translation, RVC expansion, branch prediction.
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
	"github.com/loopcycle/riscvsim/internal/isa/rvc"
	"github.com/loopcycle/riscvsim/internal/trap"
)

// fetch reads one instruction at the current PC into ifID, expanding
// a compressed half-word via rvc.Expand and advancing PC by 2 or 4.
// A faulting fetch still latches a (dummy) instruction carrying the
// trap, so the decode stage surfaces it in program order.
func (c *Cpu) fetch() error {
	pc := c.PC

	if pc&1 != 0 {
		c.ifID = IfID{PC: pc, Inst: nopInstruction}
		c.idExFault = trap.InstructionAddrMisalignedTrap(pc)
		return nil
	}

	paddr, cycles, tr := c.translate(trap.VirtAddr(pc), trap.AccessFetch)
	if tr.Present() {
		c.ifID = IfID{PC: pc, Inst: nopInstruction}
		c.idExFault = tr
		c.PC = pc + 2
		return nil
	}
	c.stallCycles += c.simulateMemoryAccess(pc, paddr, trap.AccessFetch)
	_ = cycles

	half := c.Bus.ReadU16(paddr.Val())

	var inst uint32
	var size uint64 = 2

	if half&0x3 == 0x3 {
		size = 4
		if paddr.Val()&0xfff == 0xffe {
			// Crosses a page boundary: the upper half-word lives on
			// the next page, which may have a different mapping.
			hiAddr, cycles2, tr2 := c.translate(trap.VirtAddr(pc+2), trap.AccessFetch)
			if tr2.Present() {
				c.ifID = IfID{PC: pc, Inst: nopInstruction}
				c.idExFault = tr2
				c.PC = pc + 2
				return nil
			}
			c.stallCycles += c.simulateMemoryAccess(pc+2, hiAddr, trap.AccessFetch)
			_ = cycles2
			lo := uint32(half)
			hi := uint32(c.Bus.ReadU16(hiAddr.Val()))
			inst = lo | (hi << 16)
		} else {
			inst = c.Bus.ReadU32(paddr.Val())
		}
	} else {
		expanded, ok := rvc.Expand(half)
		if !ok {
			c.ifID = IfID{PC: pc, Inst: nopInstruction}
			c.idExFault = trap.IllegalInstructionTrap(uint64(half))
			c.PC = pc + 2
			return nil
		}
		inst = expanded
	}

	c.idExFault = trap.Trap{}
	c.ifID = IfID{PC: pc, Inst: inst}

	if target, ok := c.BranchPredictor.PredictBTB(pc); ok {
		c.PC = target
	} else {
		c.PC = pc + size
	}
	return nil
}
