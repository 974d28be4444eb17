/*
 * riscvsim - Virtual and physical address types.
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

// Package trap holds address value types and the trap taxonomy shared
// by every pipeline stage and the MMU.
package trap

// VirtAddr is a 39-bit (Sv39) virtual address, stored in a 64-bit word.
type VirtAddr uint64

// PhysAddr is a physical address.
type PhysAddr uint64

// Val returns the raw 64-bit value of a virtual address.
func (v VirtAddr) Val() uint64 { return uint64(v) }

// Val returns the raw 64-bit value of a physical address.
func (p PhysAddr) Val() uint64 { return uint64(p) }

// VPN2 is bits [38:30] of the virtual address.
func (v VirtAddr) VPN2() uint64 { return (uint64(v) >> 30) & 0x1ff }

// VPN1 is bits [29:21].
func (v VirtAddr) VPN1() uint64 { return (uint64(v) >> 21) & 0x1ff }

// VPN0 is bits [20:12].
func (v VirtAddr) VPN0() uint64 { return (uint64(v) >> 12) & 0x1ff }

// PageOffset is bits [11:0], the offset within a 4 KiB page.
func (v VirtAddr) PageOffset() uint64 { return uint64(v) & 0xfff }

// AccessType distinguishes the three ways a translation may be used.
type AccessType int

const (
	AccessRead AccessType = iota
	AccessWrite
	AccessFetch
)

func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessFetch:
		return "fetch"
	default:
		return "unknown"
	}
}
