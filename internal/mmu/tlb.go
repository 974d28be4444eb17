/*
 * riscvsim - Translation look-aside buffer, FIFO replacement.
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

// Package mmu implements the Sv39 page-table walker and its two TLBs.
package mmu

type tlbEntry struct {
	vpn   uint64
	ppn   uint64
	valid bool
	r, w, x, u bool
}

// TLB is a small fully-associative translation cache with FIFO
// replacement.
type TLB struct {
	entries []tlbEntry
	replPtr int
}

// NewTLB builds a TLB with the given number of entries.
func NewTLB(size int) *TLB {
	return &TLB{entries: make([]tlbEntry, size)}
}

// Lookup returns (ppn, r, w, x, u, true) on a hit.
func (t *TLB) Lookup(vpn uint64) (ppn uint64, r, w, x, u, ok bool) {
	for _, e := range t.entries {
		if e.valid && e.vpn == vpn {
			return e.ppn, e.r, e.w, e.x, e.u, true
		}
	}
	return 0, false, false, false, false, false
}

// Insert refills the TLB with a translated leaf, decoding R/W/X/U
// straight from the PTE's low bits.
func (t *TLB) Insert(vpn, ppn, pte uint64) {
	t.entries[t.replPtr] = tlbEntry{
		vpn:   vpn,
		ppn:   ppn,
		valid: true,
		r:     pte&(1<<1) != 0,
		w:     pte&(1<<2) != 0,
		x:     pte&(1<<3) != 0,
		u:     pte&(1<<4) != 0,
	}
	t.replPtr = (t.replPtr + 1) % len(t.entries)
}

// Flush invalidates every entry, e.g. on SFENCE.VMA.
func (t *TLB) Flush() {
	for i := range t.entries {
		t.entries[i].valid = false
	}
}
