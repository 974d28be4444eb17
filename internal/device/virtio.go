/*
 * riscvsim - VirtioBlock: legacy MMIO virtio block device, single queue.
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

import "encoding/binary"

const (
	virtioSize = 0x1000

	virtioMagic    = 0x74726976
	virtioVersion  = 2
	virtioDeviceID = 2 // block device
	virtioVendorID = 0x554d4551

	virtioDescFNext = 1

	// VirtioIRQID is the interrupt id this device asserts on the bus.
	VirtioIRQID = 1
)

// virtioRAM is the narrow view VirtioBlock needs of main memory: a raw
// byte slice DMA can index into directly, matching the original's raw
// pointer into guest RAM.
type virtioRAM interface {
	Bytes() []byte
}

// VirtioBlock is a legacy (pre-1.0) MMIO virtio block device with a
// single descriptor-ring queue, grounded directly on the reference
// implementation's register map and ring-walking algorithm.
type VirtioBlock struct {
	base uint64
	ram  virtioRAM
	disk []byte

	status      uint32
	queueNum    uint32
	queueReady  uint32

	descLow, descHigh   uint32
	availLow, availHigh uint32
	usedLow, usedHigh   uint32

	interruptStatus uint32
	lastAvailIdx    uint16
}

// NewVirtioBlock builds a block device DMA-ing directly into ram's
// backing bytes, serving reads from disk (a flat disk image; nil or
// empty means no media attached).
func NewVirtioBlock(base uint64, ram virtioRAM, disk []byte) *VirtioBlock {
	return &VirtioBlock{base: base, ram: ram, disk: disk}
}

func (v *VirtioBlock) Name() string                   { return "VirtIO-Blk" }
func (v *VirtioBlock) AddressRange() (uint64, uint64) { return v.base, virtioSize }
func (v *VirtioBlock) IRQID() int                     { return VirtioIRQID }

func (v *VirtioBlock) dmaRead(addr uint64, n int) []byte {
	mem := v.ram.Bytes()
	if addr+uint64(n) > uint64(len(mem)) {
		return make([]byte, n)
	}
	out := make([]byte, n)
	copy(out, mem[addr:addr+uint64(n)])
	return out
}

func (v *VirtioBlock) dmaWrite(addr uint64, data []byte) {
	mem := v.ram.Bytes()
	if addr+uint64(len(data)) > uint64(len(mem)) {
		return
	}
	copy(mem[addr:], data)
}

func (v *VirtioBlock) descAddr() uint64  { return uint64(v.descHigh)<<32 | uint64(v.descLow) }
func (v *VirtioBlock) availAddr() uint64 { return uint64(v.availHigh)<<32 | uint64(v.availLow) }
func (v *VirtioBlock) usedAddr() uint64  { return uint64(v.usedHigh)<<32 | uint64(v.usedLow) }

// processQueue walks newly available descriptor chains (header,
// data, status — the standard virtio-blk 3-descriptor request shape)
// and services each as a disk read, writing the result into the data
// descriptor's guest buffer and posting a used-ring entry.
func (v *VirtioBlock) processQueue() {
	if v.queueNum == 0 {
		return
	}
	descAddr, availAddr, usedAddr := v.descAddr(), v.availAddr(), v.usedAddr()

	availIdx := binary.LittleEndian.Uint16(v.dmaRead(availAddr+2, 2))

	for v.lastAvailIdx != availIdx {
		ringOffset := uint64(4) + uint64(v.lastAvailIdx%uint16(v.queueNum))*2
		headIdx := binary.LittleEndian.Uint16(v.dmaRead(availAddr+ringOffset, 2))

		d0Addr := binary.LittleEndian.Uint64(v.dmaRead(descAddr+uint64(headIdx)*16, 8))
		d0Next := binary.LittleEndian.Uint16(v.dmaRead(descAddr+uint64(headIdx)*16+12, 2))

		header := v.dmaRead(d0Addr, 16)
		sector := binary.LittleEndian.Uint64(header[8:16])

		d1Addr := binary.LittleEndian.Uint64(v.dmaRead(descAddr+uint64(d0Next)*16, 8))
		d1Len := binary.LittleEndian.Uint32(v.dmaRead(descAddr+uint64(d0Next)*16+8, 4))
		d1Next := binary.LittleEndian.Uint16(v.dmaRead(descAddr+uint64(d0Next)*16+12, 2))

		offset := int(sector) * 512
		if offset < len(v.disk) {
			n := int(d1Len)
			if rem := len(v.disk) - offset; n > rem {
				n = rem
			}
			v.dmaWrite(d1Addr, v.disk[offset:offset+n])
		}

		d2Addr := binary.LittleEndian.Uint64(v.dmaRead(descAddr+uint64(d1Next)*16, 8))
		v.dmaWrite(d2Addr, []byte{0}) // status: success

		usedIdxAddr := usedAddr + 2
		currentUsed := binary.LittleEndian.Uint16(v.dmaRead(usedIdxAddr, 2))
		usedElem := usedAddr + 4 + uint64(currentUsed%uint16(v.queueNum))*8

		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(headIdx))
		v.dmaWrite(usedElem, buf[:])
		binary.LittleEndian.PutUint32(buf[:], 0)
		v.dmaWrite(usedElem+4, buf[:])
		binary.LittleEndian.PutUint16(buf[:2], currentUsed+1)
		v.dmaWrite(usedIdxAddr, buf[:2])

		v.lastAvailIdx++
	}
	v.interruptStatus |= 1
}

func (v *VirtioBlock) ReadU32(off uint64) uint32 {
	switch off {
	case 0x00:
		return virtioMagic
	case 0x04:
		return virtioVersion
	case 0x08:
		return virtioDeviceID
	case 0x0c:
		return virtioVendorID
	case 0x10:
		return 0 // host features
	case 0x34:
		return 16 // queue max size
	case 0x44:
		return v.queueReady
	case 0x60:
		return v.interruptStatus
	case 0x70:
		return v.status
	}
	return 0
}

func (v *VirtioBlock) WriteU32(off uint64, val uint32) {
	switch off {
	case 0x30: // QueueSel: single queue, nothing to select
	case 0x38:
		v.queueNum = val
	case 0x44:
		v.queueReady = val
	case 0x50:
		v.processQueue()
	case 0x64:
		v.interruptStatus &^= val
	case 0x70:
		v.status = val
	case 0x80:
		v.descLow = val
	case 0x84:
		v.descHigh = val
	case 0x90:
		v.availLow = val
	case 0x94:
		v.availHigh = val
	case 0xa0:
		v.usedLow = val
	case 0xa4:
		v.usedHigh = val
	}
}

func (v *VirtioBlock) ReadU8(off uint64) uint8 {
	return uint8(v.ReadU32(off&^3) >> ((off & 3) * 8))
}
func (v *VirtioBlock) ReadU16(off uint64) uint16 {
	return uint16(v.ReadU32(off&^3) >> ((off & 3) * 8))
}
func (v *VirtioBlock) ReadU64(off uint64) uint64 { return uint64(v.ReadU32(off)) }

func (v *VirtioBlock) WriteU8(off uint64, val uint8)   { v.WriteU32(off&^3, uint32(val)) }
func (v *VirtioBlock) WriteU16(off uint64, val uint16) { v.WriteU32(off&^3, uint32(val)) }
func (v *VirtioBlock) WriteU64(off uint64, val uint64) { v.WriteU32(off, uint32(val)) }

func (v *VirtioBlock) Tick() bool { return v.interruptStatus&1 != 0 }
