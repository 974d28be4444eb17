/*
 * riscvsim - Memory-mapped device capability and the device bus.
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

// Package bus implements the physical-address device bus: a sorted
// registry of memory-mapped devices, routed reads/writes, and the
// per-cycle tick that aggregates device IRQ lines for the PLIC.
package bus

// Device is the capability every memory-mapped peripheral implements.
// Offsets passed to the read/write methods are already relative to
// the device's own base address.
type Device interface {
	Name() string
	AddressRange() (base, size uint64)

	ReadU8(offset uint64) uint8
	ReadU16(offset uint64) uint16
	ReadU32(offset uint64) uint32
	ReadU64(offset uint64) uint64

	WriteU8(offset uint64, val uint8)
	WriteU16(offset uint64, val uint16)
	WriteU32(offset uint64, val uint32)
	WriteU64(offset uint64, val uint64)
}

// Ticker is implemented by devices with per-cycle behavior (CLINT,
// PLIC, UART, virtio). Tick returns whether the device is currently
// asserting its interrupt line.
type Ticker interface {
	Tick() bool
}

// IRQSource is implemented by devices with a fixed IRQ line id (0-63)
// fed into the bus's aggregated interrupt bitmask.
type IRQSource interface {
	IRQID() int
}

// PLICDevice lets the bus find the registered PLIC, if any, to feed
// the aggregated IRQ bitmask into during tick.
type PLICDevice interface {
	UpdateIRQs(mask uint64)
}

// BulkLoader is implemented by devices (namely RAM) that can accept a
// byte-slice bulk write faster than a write-loop, used by the loader.
type BulkLoader interface {
	LoadBytes(offset uint64, data []byte)
}
