/*
 * riscvsim - Write-back stage: register commit and trap entry.
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

// writeBack consumes memWb, committing the result to the register
// file or, if a trap was carried all the way from an earlier stage,
// redirecting to the trap vector instead of retiring the instruction.
func (c *Cpu) writeBack() error {
	wb := c.memWb

	if wb.Trap.Present() {
		c.enterTrap(wb.Trap, wb.PC)
		return nil
	}

	if wb.Inst == nopInstruction || wb.Inst == 0 {
		return nil
	}

	var val uint64
	switch {
	case wb.Ctrl.MemRead:
		val = wb.LoadData
	case wb.Ctrl.Jump:
		val = wb.PC + 4
	default:
		val = wb.Alu
	}

	if wb.Ctrl.RegWrite {
		c.Regs.Write(wb.Rd, val)
	}
	if wb.Ctrl.FPRegWrite {
		c.Regs.WriteF(wb.Rd, val)
	}

	c.Stats.InstructionsRetired++
	return nil
}
