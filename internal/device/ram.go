/*
 * riscvsim - Flat RAM device, with a raw-byte view for virtio DMA and loading.
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

// Package device implements the memory-mapped peripherals: RAM,
// CLINT, PLIC, a 16550 UART subset, a legacy virtio block device, and
// a SYSCON-style power-off register.
package device

import "encoding/binary"

// RAM is the simulated DRAM region. Its bytes are exposed via Bytes
// for the virtio device's bounded-pointer DMA and for the loader's
// bulk LoadBytes.
type RAM struct {
	base uint64
	mem  []byte
}

func NewRAM(base uint64, size uint64) *RAM {
	return &RAM{base: base, mem: make([]byte, size)}
}

func (r *RAM) Name() string                   { return "RAM" }
func (r *RAM) AddressRange() (uint64, uint64) { return r.base, uint64(len(r.mem)) }

// Bytes returns the raw backing slice, for the virtio device's DMA
// view and the loader's ram_start/ram_end/ram_ptr fast path.
func (r *RAM) Bytes() []byte { return r.mem }

func (r *RAM) ReadU8(off uint64) uint8  { return r.mem[off] }
func (r *RAM) ReadU16(off uint64) uint16 { return binary.LittleEndian.Uint16(r.mem[off:]) }
func (r *RAM) ReadU32(off uint64) uint32 { return binary.LittleEndian.Uint32(r.mem[off:]) }
func (r *RAM) ReadU64(off uint64) uint64 { return binary.LittleEndian.Uint64(r.mem[off:]) }

func (r *RAM) WriteU8(off uint64, v uint8)   { r.mem[off] = v }
func (r *RAM) WriteU16(off uint64, v uint16) { binary.LittleEndian.PutUint16(r.mem[off:], v) }
func (r *RAM) WriteU32(off uint64, v uint32) { binary.LittleEndian.PutUint32(r.mem[off:], v) }
func (r *RAM) WriteU64(off uint64, v uint64) { binary.LittleEndian.PutUint64(r.mem[off:], v) }

// LoadBytes bulk-copies data starting at offset, for the loader.
func (r *RAM) LoadBytes(off uint64, data []byte) { copy(r.mem[off:], data) }
