/*
 * riscvsim - Sv39 address translation: TLB lookup and page-table walk.
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

package mmu

import (
	"github.com/loopcycle/riscvsim/internal/isa"
	"github.com/loopcycle/riscvsim/internal/trap"
)

// PTEBus is the minimal bus capability the walker needs to read and
// patch page-table entries.
type PTEBus interface {
	ReadU64(addr uint64) uint64
	WriteU64(addr uint64, val uint64)
	CalculateTransitTime(bytes uint64) uint64
}

// Csrs is the minimal CSR view the translator needs.
type Csrs interface {
	Satp() uint64
	Sstatus() uint64
}

// Result is the outcome of a translation.
type Result struct {
	Addr   uint64
	Cycles uint64
	Trap   trap.Trap
}

// MMU owns the instruction and data TLBs.
type MMU struct {
	ITLB *TLB
	DTLB *TLB
}

// New builds an MMU with the given TLB size for both I and D sides.
func New(tlbSize int) *MMU {
	return &MMU{ITLB: NewTLB(tlbSize), DTLB: NewTLB(tlbSize)}
}

// Translate resolves vaddr for the given access kind and privilege.
func (m *MMU) Translate(vaddr trap.VirtAddr, access trap.AccessType, privilege int, csrs Csrs, bus PTEBus) Result {
	satp := csrs.Satp()
	mode := (satp >> isa.SatpModeShift) & 0xf

	if privilege == isa.PrivM || mode == 0 {
		return Result{Addr: vaddr.Val()}
	}
	if mode != isa.SatpModeSv39 {
		return Result{Trap: trap.AccessFaultFor(access, vaddr.Val())}
	}

	vpn := vaddr.VPN2()<<18 | vaddr.VPN1()<<9 | vaddr.VPN0()

	tlb := m.DTLB
	if access == trap.AccessFetch {
		tlb = m.ITLB
	}

	if ppn, r, w, x, u, ok := tlb.Lookup(vpn); ok {
		if res, isFault := checkPermissions(vaddr, access, privilege, csrs.Sstatus(), r, w, x, u); isFault {
			return res
		}
		paddr := (ppn << 12) | vaddr.PageOffset()
		return Result{Addr: paddr}
	}

	return m.walk(vpn, vaddr, access, privilege, csrs, bus, satp, tlb)
}

func checkPermissions(vaddr trap.VirtAddr, access trap.AccessType, privilege int, sstatus uint64, r, w, x, u bool) (Result, bool) {
	if access == trap.AccessFetch && !x {
		return Result{Trap: trap.PageFaultFor(access, vaddr.Val())}, true
	}
	if access == trap.AccessWrite && !w {
		return Result{Trap: trap.PageFaultFor(access, vaddr.Val())}, true
	}
	if access == trap.AccessRead && !r {
		mxr := sstatus&isa.MstatusMXR != 0
		if !mxr || !x {
			return Result{Trap: trap.PageFaultFor(access, vaddr.Val())}, true
		}
	}
	if privilege == isa.PrivU && !u {
		return Result{Trap: trap.PageFaultFor(access, vaddr.Val())}, true
	}
	if privilege == isa.PrivS && u {
		sum := sstatus&isa.MstatusSUM != 0
		if !sum {
			return Result{Trap: trap.PageFaultFor(access, vaddr.Val())}, true
		}
	}
	return Result{}, false
}

func (m *MMU) walk(vpn uint64, vaddr trap.VirtAddr, access trap.AccessType, privilege int, csrs Csrs, bus PTEBus, satp uint64, tlb *TLB) Result {
	rootPPN := satp & isa.SatpPPNMask
	ptAddr := rootPPN << 12
	var cycles uint64

	for level := 2; level >= 0; level-- {
		var vpnI uint64
		switch level {
		case 2:
			vpnI = vaddr.VPN2()
		case 1:
			vpnI = vaddr.VPN1()
		default:
			vpnI = vaddr.VPN0()
		}

		pteAddr := ptAddr + vpnI*8
		cycles += bus.CalculateTransitTime(8)
		pte := bus.ReadU64(pteAddr)

		if pte&1 == 0 {
			return Result{Cycles: cycles, Trap: trap.PageFaultFor(access, vaddr.Val())}
		}

		r := pte&(1<<1) != 0
		w := pte&(1<<2) != 0
		x := pte&(1<<3) != 0

		if !r && !w && !x {
			nextPPN := (pte >> 10) & isa.SatpPPNMask
			ptAddr = nextPPN << 12
			continue
		}

		if w && !r {
			return Result{Cycles: cycles, Trap: trap.StorePageFaultTrap(vaddr.Val())}
		}

		if res, isFault := checkPermissions(vaddr, access, privilege, csrs.Sstatus(), r, w, x, pte&(1<<4) != 0); isFault {
			res.Cycles = cycles
			return res
		}

		a := pte&(1<<6) != 0
		d := pte&(1<<7) != 0
		newPTE := pte
		updated := false
		if !a {
			newPTE |= 1 << 6
			updated = true
		}
		if access == trap.AccessWrite && !d {
			newPTE |= 1 << 7
			updated = true
		}
		if updated {
			bus.WriteU64(pteAddr, newPTE)
			cycles += 10
		}

		ptePPN := (pte >> 10) & isa.SatpPPNMask
		offsetMask := uint64(1)<<(12+9*uint(level)) - 1
		finalPaddr := (ptePPN << 12) | (vaddr.Val() & offsetMask)

		tlb.Insert(vpn, ptePPN, newPTE)

		return Result{Addr: finalPaddr, Cycles: cycles}
	}

	return Result{Cycles: cycles, Trap: trap.PageFaultFor(access, vaddr.Val())}
}

// FlushAll invalidates both TLBs, for SFENCE.VMA.
func (m *MMU) FlushAll() {
	m.ITLB.Flush()
	m.DTLB.Flush()
}
