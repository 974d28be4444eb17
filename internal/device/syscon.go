/*
 * riscvsim - SYSCON: a single write-only power-off/reboot register.
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
	syscdSize = 0x1000

	// SyscomPoweroffMagic is the value firmware writes to request a
	// clean shutdown in the low 16 bits; the upper 16 bits become the
	// exit code reported by SYSCON.Exit. The request is not forwarded
	// to Cpu.TakeExit.
	SyscomPoweroffMagic = 0x5555
	SyscomRebootMagic   = 0x7777
)

// SYSCON is the single-register QEMU-style "test finisher" device: a
// write to offset 0 requests power-off, encoding an exit status in
// the upper 16 bits for values following SyscomPoweroffMagic.
type SYSCON struct {
	base       uint64
	requested  bool
	exitCode   int
}

func NewSYSCON(base uint64) *SYSCON {
	return &SYSCON{base: base}
}

func (s *SYSCON) Name() string                   { return "SYSCON" }
func (s *SYSCON) AddressRange() (uint64, uint64) { return s.base, syscdSize }

func (s *SYSCON) ReadU8(uint64) uint8   { return 0 }
func (s *SYSCON) ReadU16(uint64) uint16 { return 0 }
func (s *SYSCON) ReadU32(uint64) uint32 { return 0 }
func (s *SYSCON) ReadU64(uint64) uint64 { return 0 }

func (s *SYSCON) WriteU8(off uint64, v uint8)   { s.WriteU32(off, uint32(v)) }
func (s *SYSCON) WriteU16(off uint64, v uint16) { s.WriteU32(off, uint32(v)) }
func (s *SYSCON) WriteU64(off uint64, v uint64) { s.WriteU32(off, uint32(v)) }

func (s *SYSCON) WriteU32(off uint64, v uint32) {
	if off != 0 {
		return
	}
	switch v & 0xffff {
	case SyscomPoweroffMagic:
		s.requested = true
		s.exitCode = int(v >> 16)
	case SyscomRebootMagic:
		s.requested = true
		s.exitCode = 0
	}
}

// Exit reports whether firmware has requested a power-off and, if so,
// the exit code it encoded.
func (s *SYSCON) Exit() (code int, ok bool) { return s.exitCode, s.requested }
