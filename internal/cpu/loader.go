/*
 * riscvsim - Flat-binary image loader and M-mode boot trampoline.
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

import "github.com/loopcycle/riscvsim/internal/isa"

// dtbLoadOffset is the fixed offset from ram_base at which an optional
// DTB blob is placed, matching the convention every mainline RISC-V
// firmware (OpenSBI, U-Boot) uses for the hand-off address.
const dtbLoadOffset = 0x02000000

// mretInstruction is the 32-bit encoding of a bare "mret", written at
// ram_base so that the core, started there in M-mode, immediately
// drops into the kernel at mepc.
const mretInstruction = 0x30200073

// BootImage names the raw binaries and placement offsets for a boot.
type BootImage struct {
	RAMBase      uint64
	Kernel       []byte
	KernelOffset uint64
	DTB          []byte
	HartID       uint64
}

// LoadBoot places kernel and an optional DTB into RAM, writes a single
// mret at ram_base, and arms the privilege/CSR state so that the first
// Tick's mret drops the core into the kernel at S-mode with a0 set to
// the hart ID and a1 to the DTB's physical address (zero if no DTB was
// supplied). The core is expected to start execution at RAMBase.
func (c *Cpu) LoadBoot(img BootImage) {
	kernelAddr := img.RAMBase + img.KernelOffset
	c.loadBytes(kernelAddr, img.Kernel)

	var dtbAddr uint64
	if len(img.DTB) > 0 {
		dtbAddr = img.RAMBase + dtbLoadOffset
		c.loadBytes(dtbAddr, img.DTB)
	}

	c.writeU32(img.RAMBase, mretInstruction)

	c.csrs.mepc = kernelAddr
	c.csrs.medeleg = ^uint64(0)
	c.csrs.mideleg = ^uint64(0)
	c.csrs.satp = 0

	mstatus := c.csrs.mstatus
	mstatus &^= isa.MstatusMPPMask
	mstatus |= uint64(isa.PrivS) << isa.MstatusMPPShift
	mstatus |= isa.MstatusMPIE
	mstatus &^= isa.MstatusFSMask
	mstatus |= uint64(isa.FSInitial) << isa.MstatusFSShift
	c.csrs.mstatus = mstatus

	c.Privilege = isa.PrivM
	c.PC = img.RAMBase

	c.Regs.Write(isa.RegA0, img.HartID)
	c.Regs.Write(isa.RegA0+1, dtbAddr)
}

func (c *Cpu) loadBytes(paddr uint64, data []byte) {
	for i, b := range data {
		c.Bus.WriteU8(paddr+uint64(i), b)
	}
}

func (c *Cpu) writeU32(paddr uint64, val uint32) {
	c.Bus.WriteU32(paddr, val)
}
