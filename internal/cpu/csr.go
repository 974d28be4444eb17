/*
 * riscvsim - Control and status register file.
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

// csrs holds every machine/supervisor CSR the core implements. mip's
// timer/external bits are kept in sync with the bus's interrupt lines
// every Tick rather than read from a device on demand.
type csrs struct {
	mstatus  uint64
	mepc     uint64
	sepc     uint64
	mtvec    uint64
	stvec    uint64
	scause   uint64
	sscratch uint64
	satp     uint64
	mscratch uint64
	mcause   uint64
	mtval    uint64
	stval    uint64
	misa     uint64
	medeleg  uint64
	mideleg  uint64
	mip      uint64
	mie      uint64
}

// defaultMisa encodes RV64IMAFDC with S and U mode support: MXL=2
// (64-bit) plus the A,C,D,F,I,M,S,U extension bits.
func defaultMisa() uint64 {
	val := uint64(2) << 62
	val |= 1 << 0  // A
	val |= 1 << 2  // C
	val |= 1 << 3  // D
	val |= 1 << 5  // F
	val |= 1 << 8  // I
	val |= 1 << 12 // M
	val |= 1 << 18 // S
	val |= 1 << 20 // U
	return val
}

func newCsrs() csrs {
	return csrs{
		mstatus: 0xa00000000, // SXL=2, UXL=2
		misa:    defaultMisa(),
	}
}

// Satp implements mmu.Csrs.
func (c *csrs) Satp() uint64 { return c.satp }

// Sstatus implements mmu.Csrs, deriving the supervisor view from the
// shared mstatus word rather than storing it twice.
func (c *csrs) Sstatus() uint64 { return c.mstatus & isa.SstatusMask }

func (c *csrs) read(addr uint32, cycles, instretired uint64) uint64 {
	switch addr {
	case 0xf11, 0xf12, 0xf13, 0xf14: // mvendorid, marchid, mimpid, mhartid
		return 0
	case isa.CsrMstatus:
		return c.mstatus
	case isa.CsrMedeleg:
		return c.medeleg
	case isa.CsrMideleg:
		return c.mideleg
	case isa.CsrMie:
		return c.mie
	case isa.CsrMtvec:
		return c.mtvec
	case isa.CsrMisa:
		return c.misa
	case isa.CsrMscratch:
		return c.mscratch
	case isa.CsrMepc:
		return c.mepc
	case isa.CsrMcause:
		return c.mcause
	case isa.CsrMtval:
		return c.mtval
	case isa.CsrMip:
		return c.mip
	case isa.CsrSstatus:
		return c.Sstatus()
	case isa.CsrSie:
		return c.mie & c.mideleg
	case isa.CsrStvec:
		return c.stvec
	case isa.CsrSscratch:
		return c.sscratch
	case isa.CsrSepc:
		return c.sepc
	case isa.CsrScause:
		return c.scause
	case isa.CsrStval:
		return c.stval
	case isa.CsrSip:
		return c.mip & c.mideleg
	case isa.CsrSatp:
		return c.satp
	case isa.CsrCycle, isa.CsrMcycle, isa.CsrTime:
		return cycles
	case isa.CsrInstret, isa.CsrMinstret:
		return instretired
	}
	return 0
}

func (c *csrs) write(addr uint32, val uint64) {
	switch addr {
	case isa.CsrMstatus:
		c.mstatus = val
	case isa.CsrMedeleg:
		c.medeleg = val
	case isa.CsrMideleg:
		c.mideleg = val
	case isa.CsrMie:
		c.mie = val
	case isa.CsrMtvec:
		c.mtvec = val
	case isa.CsrMisa:
		c.misa = val
	case isa.CsrMscratch:
		c.mscratch = val
	case isa.CsrMepc:
		c.mepc = val &^ 1
	case isa.CsrMcause:
		c.mcause = val
	case isa.CsrMtval:
		c.mtval = val
	case isa.CsrMip:
		mask := isa.MipSSIP | isa.MipSTIP | isa.MipSEIP
		c.mip = (c.mip &^ mask) | (val & mask)
	case isa.CsrSstatus:
		mask := isa.MstatusSIE | isa.MstatusSPIE | isa.MstatusSPP |
			isa.MstatusFSMask | isa.MstatusSUM | isa.MstatusMXR
		c.mstatus = (c.mstatus &^ mask) | (val & mask)
	case isa.CsrSie:
		mask := c.mideleg
		c.mie = (c.mie &^ mask) | (val & mask)
	case isa.CsrStvec:
		c.stvec = val
	case isa.CsrSscratch:
		c.sscratch = val
	case isa.CsrSepc:
		c.sepc = val &^ 1
	case isa.CsrScause:
		c.scause = val
	case isa.CsrStval:
		c.stval = val
	case isa.CsrSip:
		mask := c.mideleg & isa.MipSSIP
		c.mip = (c.mip &^ mask) | (val & mask)
	case isa.CsrSatp:
		c.satp = val
	}
}
