/*
 * riscvsim - Device bus: address dispatch and per-cycle device ticking.
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

package bus

import (
	"log/slog"
	"sort"
)

// Bus holds devices sorted by base address and the latency model used
// to compute transit time for an access of a given width.
type Bus struct {
	devices     []Device
	widthBytes  uint64
	latencyCyc  uint64
	log         *slog.Logger
}

// New builds an empty bus. widthBytes and latencyCycles parameterize
// CalculateTransitTime.
func New(widthBytes, latencyCycles uint64, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{widthBytes: widthBytes, latencyCyc: latencyCycles, log: logger}
}

// Add registers a device, keeping the device list sorted by base
// address; find scans that list linearly.
func (b *Bus) Add(d Device) {
	base, size := d.AddressRange()
	b.devices = append(b.devices, d)
	sort.Slice(b.devices, func(i, j int) bool {
		bi, _ := b.devices[i].AddressRange()
		bj, _ := b.devices[j].AddressRange()
		return bi < bj
	})
	b.log.Debug("registered device", "name", d.Name(), "base", base, "size", size)
}

// find returns the device covering paddr and its offset within it.
func (b *Bus) find(paddr uint64) (Device, uint64, bool) {
	for _, d := range b.devices {
		base, size := d.AddressRange()
		if paddr >= base && paddr < base+size {
			return d, paddr - base, true
		}
	}
	return nil, 0, false
}

// IsValidAddress reports whether paddr is covered by some device.
func (b *Bus) IsValidAddress(paddr uint64) bool {
	_, _, ok := b.find(paddr)
	return ok
}

// CalculateTransitTime returns the cycle cost of moving bytes over
// the bus: a fixed latency plus however many beats of widthBytes it
// takes.
func (b *Bus) CalculateTransitTime(bytes uint64) uint64 {
	beats := (bytes + b.widthBytes - 1) / b.widthBytes
	return b.latencyCyc + beats
}

func (b *Bus) ReadU8(paddr uint64) uint8 {
	if d, off, ok := b.find(paddr); ok {
		return d.ReadU8(off)
	}
	return 0
}

func (b *Bus) ReadU16(paddr uint64) uint16 {
	if d, off, ok := b.find(paddr); ok {
		return d.ReadU16(off)
	}
	return 0
}

func (b *Bus) ReadU32(paddr uint64) uint32 {
	if d, off, ok := b.find(paddr); ok {
		return d.ReadU32(off)
	}
	return 0
}

func (b *Bus) ReadU64(paddr uint64) uint64 {
	if d, off, ok := b.find(paddr); ok {
		return d.ReadU64(off)
	}
	return 0
}

func (b *Bus) WriteU8(paddr uint64, val uint8) {
	if d, off, ok := b.find(paddr); ok {
		d.WriteU8(off, val)
	}
}

func (b *Bus) WriteU16(paddr uint64, val uint16) {
	if d, off, ok := b.find(paddr); ok {
		d.WriteU16(off, val)
	}
}

func (b *Bus) WriteU32(paddr uint64, val uint32) {
	if d, off, ok := b.find(paddr); ok {
		d.WriteU32(off, val)
	}
}

func (b *Bus) WriteU64(paddr uint64, val uint64) {
	if d, off, ok := b.find(paddr); ok {
		d.WriteU64(off, val)
	}
}

// LoadBinaryAt places data at paddr, preferring a device's bulk-load
// path (namely RAM) and falling back to byte-at-a-time writes.
func (b *Bus) LoadBinaryAt(paddr uint64, data []byte) {
	if d, off, ok := b.find(paddr); ok {
		if bl, ok := d.(BulkLoader); ok {
			bl.LoadBytes(off, data)
			return
		}
	}
	for i, v := range data {
		b.WriteU8(paddr+uint64(i), v)
	}
}

// Tick advances every device by one cycle, aggregates active IRQ
// lines (ids 0-63) into a bitmask, feeds it to the PLIC if one is
// registered, and reports whether CLINT and the PLIC are each
// currently asserting their interrupt.
func (b *Bus) Tick() (timerIRQ, externalIRQ bool) {
	var mask uint64

	for _, d := range b.devices {
		if _, isPLIC := d.(PLICDevice); isPLIC {
			continue // fed from the aggregated mask in phase two, below
		}
		t, ok := d.(Ticker)
		if !ok {
			continue
		}
		active := t.Tick()
		if !active {
			continue
		}
		if src, ok := d.(IRQSource); ok && src.IRQID() < 64 {
			mask |= 1 << uint(src.IRQID())
		}
		if d.Name() == "CLINT" {
			timerIRQ = true
		}
	}

	for _, d := range b.devices {
		if plic, ok := d.(PLICDevice); ok {
			plic.UpdateIRQs(mask)
			if t, ok := d.(Ticker); ok {
				externalIRQ = t.Tick()
			}
		}
	}

	return timerIRQ, externalIRQ
}
