/*
 * riscvsim - CLINT: per-hart software and timer interrupts.
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
	clintMsipOff      = 0x0000
	clintMtimecmpOff  = 0x4000
	clintMtimeOff     = 0xbff8
	clintSize         = 0xc000
)

// CLINT is the core-local interruptor: a single hart's msip register,
// mtimecmp, and the free-running mtime counter. mtime advances once
// per Tick; a timer interrupt is pending whenever mtime >= mtimecmp.
type CLINT struct {
	base             uint64
	msip             uint32
	mtime, mtimecmp  uint64
}

func NewCLINT(base uint64) *CLINT {
	return &CLINT{base: base, mtimecmp: ^uint64(0)}
}

func (c *CLINT) Name() string                   { return "CLINT" }
func (c *CLINT) AddressRange() (uint64, uint64) { return c.base, clintSize }

func (c *CLINT) ReadU8(off uint64) uint8 { return uint8(c.ReadU32(off)) }
func (c *CLINT) ReadU16(off uint64) uint16 { return uint16(c.ReadU32(off)) }

func (c *CLINT) ReadU32(off uint64) uint32 {
	switch {
	case off == clintMsipOff:
		return c.msip
	case off == clintMtimecmpOff:
		return uint32(c.mtimecmp)
	case off == clintMtimecmpOff+4:
		return uint32(c.mtimecmp >> 32)
	case off == clintMtimeOff:
		return uint32(c.mtime)
	case off == clintMtimeOff+4:
		return uint32(c.mtime >> 32)
	}
	return 0
}

func (c *CLINT) ReadU64(off uint64) uint64 {
	switch off {
	case clintMtimecmpOff:
		return c.mtimecmp
	case clintMtimeOff:
		return c.mtime
	}
	return uint64(c.ReadU32(off))
}

func (c *CLINT) WriteU8(off uint64, v uint8)   { c.WriteU32(off, uint32(v)) }
func (c *CLINT) WriteU16(off uint64, v uint16) { c.WriteU32(off, uint32(v)) }

// WriteU32 handles the 32-bit-word MMIO view of the 64-bit mtime and
// mtimecmp registers. Writes to the high word must preserve the low
// word already present (and vice versa) using the value actually
// supplied by the caller, not a stale offset constant.
func (c *CLINT) WriteU32(off uint64, v uint32) {
	switch off {
	case clintMsipOff:
		c.msip = v & 1
	case clintMtimecmpOff:
		c.mtimecmp = (c.mtimecmp &^ 0xffffffff) | uint64(v)
	case clintMtimecmpOff + 4:
		c.mtimecmp = (c.mtimecmp & 0xffffffff) | uint64(v)<<32
	case clintMtimeOff:
		c.mtime = (c.mtime &^ 0xffffffff) | uint64(v)
	case clintMtimeOff + 4:
		c.mtime = (c.mtime & 0xffffffff) | uint64(v)<<32
	}
}

func (c *CLINT) WriteU64(off uint64, v uint64) {
	switch off {
	case clintMtimecmpOff:
		c.mtimecmp = v
	case clintMtimeOff:
		c.mtime = v
	default:
		c.WriteU32(off, uint32(v))
	}
}

// Tick advances mtime by one and reports whether the timer interrupt
// condition (mtime >= mtimecmp) or msip is currently asserted.
func (c *CLINT) Tick() bool {
	c.mtime++
	return c.mtime >= c.mtimecmp || c.msip != 0
}

// Mtime exposes the free-running counter for the CSR file's time/mtime
// read-only views.
func (c *CLINT) Mtime() uint64 { return c.mtime }
