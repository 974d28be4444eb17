/*
 * riscvsim - PLIC: platform-level interrupt controller, single context.
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

package device

const (
	plicSize = 0x4000000

	plicPriorityBase = 0x0
	plicPriorityEnd  = 0x1000 // 1024 sources * 4 bytes

	plicPendingBase = 0x1000
	plicPendingEnd  = 0x1080 // 32 words covers source ids 0-1023

	plicEnableBase = 0x2000 // context 0's enable bitmap (single context)
	plicEnableEnd  = 0x2080

	plicContextBase   = 0x200000 // context 0's threshold/claim page
	plicThresholdOff  = 0x0
	plicClaimOff      = 0x4
)

// plicNumSources is the number of interrupt source ids the priority array
// and pending/enable bitmaps cover. Every id referenced by devices in
// this package (virtio=1, UART=10) fits well under 32, so a single
// enable word per context is sufficient.
const plicNumSources = 1024

// PLIC routes IRQSource devices' interrupt lines through a
// priority/threshold/claim scheme to a single hart context. Pending
// and enable state are tracked as bitmaps; priority is a per-source
// 32-bit word (only values 1-7 are meaningful, 0 means "never fires").
type PLIC struct {
	base uint64

	priority [plicNumSources]uint32
	pending  uint32 // bit per source id, ids 0-31
	enable   uint32 // context 0's enable bitmap, ids 0-31
	threshold uint32
	claimed  map[int]bool
}

func NewPLIC(base uint64) *PLIC {
	return &PLIC{base: base, claimed: make(map[int]bool)}
}

func (p *PLIC) Name() string                   { return "PLIC" }
func (p *PLIC) AddressRange() (uint64, uint64) { return p.base, plicSize }

func (p *PLIC) ReadU8(off uint64) uint8   { return uint8(p.ReadU32(off)) }
func (p *PLIC) ReadU16(off uint64) uint16 { return uint16(p.ReadU32(off)) }
func (p *PLIC) ReadU64(off uint64) uint64 { return uint64(p.ReadU32(off)) }

func (p *PLIC) ReadU32(off uint64) uint32 {
	switch {
	case off < plicPriorityEnd:
		return p.priority[off/4]
	case off >= plicPendingBase && off < plicPendingEnd:
		if off == plicPendingBase {
			return p.pending
		}
		return 0
	case off >= plicEnableBase && off < plicEnableEnd:
		if off == plicEnableBase {
			return p.enable
		}
		return 0
	case off == plicContextBase+plicThresholdOff:
		return p.threshold
	case off == plicContextBase+plicClaimOff:
		return p.claim()
	}
	return 0
}

func (p *PLIC) WriteU8(off uint64, v uint8)   { p.WriteU32(off, uint32(v)) }
func (p *PLIC) WriteU16(off uint64, v uint16) { p.WriteU32(off, uint32(v)) }
func (p *PLIC) WriteU64(off uint64, v uint64) { p.WriteU32(off, uint32(v)) }

func (p *PLIC) WriteU32(off uint64, v uint32) {
	switch {
	case off < plicPriorityEnd:
		p.priority[off/4] = v & 0x7
	case off == plicEnableBase:
		p.enable = v
	case off == plicContextBase+plicThresholdOff:
		p.threshold = v & 0x7
	case off == plicContextBase+plicClaimOff:
		p.complete(int(v))
	}
}

// UpdateIRQs sets the pending bitmap to devices currently asserting
// their line, fed in from the bus's per-cycle aggregation.
func (p *PLIC) UpdateIRQs(mask uint64) {
	p.pending = uint32(mask)
}

// claim returns the highest-priority pending, enabled source above
// threshold and marks it claimed (cleared from pending, tracked until
// completed).
func (p *PLIC) claim() uint32 {
	best, bestPrio := 0, uint32(0)
	for id := 1; id < 32; id++ {
		if p.pending&(1<<uint(id)) == 0 || p.enable&(1<<uint(id)) == 0 {
			continue
		}
		prio := p.priority[id]
		if prio <= p.threshold || prio <= bestPrio {
			continue
		}
		best, bestPrio = id, prio
	}
	if best == 0 {
		return 0
	}
	p.pending &^= 1 << uint(best)
	p.claimed[best] = true
	return uint32(best)
}

func (p *PLIC) complete(id int) {
	delete(p.claimed, id)
}

// Tick reports whether any enabled source above threshold is pending,
// i.e. whether the external interrupt line to the hart is asserted.
func (p *PLIC) Tick() bool {
	for id := 1; id < 32; id++ {
		if p.pending&(1<<uint(id)) == 0 || p.enable&(1<<uint(id)) == 0 {
			continue
		}
		if p.priority[id] > p.threshold {
			return true
		}
	}
	return false
}
