/*
 * riscvsim - UART: a non-blocking 16550 subset backed by a reader goroutine.
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

import (
	"io"
	"sync"
)

const (
	uartSize = 0x100

	uartRBR = 0x0 // receiver buffer (read), divisor LSB (write, DLAB=1)
	uartTHR = 0x0 // transmitter holding (write)
	uartIER = 0x1 // interrupt enable
	uartIIR = 0x2 // interrupt identification (read)
	uartFCR = 0x2 // FIFO control (write)
	uartLCR = 0x3 // line control
	uartMCR = 0x4 // modem control
	uartLSR = 0x5 // line status
	uartMSR = 0x6 // modem status
	uartSCR = 0x7 // scratch

	uartLSRDataReady  = 1 << 0
	uartLSRThrEmpty   = 1 << 5
	uartLSRTsrEmpty   = 1 << 6

	uartIERRxAvail = 1 << 0
	uartIERThrEmpty = 1 << 1

	// UARTIRQID is the interrupt id this device asserts on the bus,
	// matching the device tree wiring used by the loader's DTB blob.
	UARTIRQID = 10
)

// UART is a 16550-subset serial port. Input arrives asynchronously on
// a background goroutine reading an io.Reader (normally os.Stdin) and
// is buffered into a small queue so Tick never blocks the pipeline
// waiting on a keypress; output is written synchronously to an
// io.Writer on every THR write.
type UART struct {
	base uint64
	out  io.Writer

	mu       sync.Mutex
	rxQueue  []byte
	ier, lcr, mcr, scr uint8

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewUART starts the background reader goroutine over in and returns
// a UART that writes transmitted bytes to out.
func NewUART(base uint64, in io.Reader, out io.Writer) *UART {
	u := &UART{base: base, out: out, stopCh: make(chan struct{})}
	if in != nil {
		go u.readLoop(in)
	}
	return u
}

func (u *UART) readLoop(in io.Reader) {
	buf := make([]byte, 1)
	for {
		select {
		case <-u.stopCh:
			return
		default:
		}
		n, err := in.Read(buf)
		if n == 1 {
			u.mu.Lock()
			u.rxQueue = append(u.rxQueue, buf[0])
			u.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Close stops the background reader. Safe to call more than once.
func (u *UART) Close() {
	u.stopOnce.Do(func() { close(u.stopCh) })
}

func (u *UART) Name() string                   { return "UART0" }
func (u *UART) AddressRange() (uint64, uint64) { return u.base, uartSize }
func (u *UART) IRQID() int                     { return UARTIRQID }

func (u *UART) ReadU8(off uint64) uint8 {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch off {
	case uartRBR:
		if len(u.rxQueue) == 0 {
			return 0
		}
		b := u.rxQueue[0]
		u.rxQueue = u.rxQueue[1:]
		return b
	case uartIER:
		return u.ier
	case uartIIR:
		if len(u.rxQueue) > 0 {
			return 0x04 // interrupt pending: data available
		}
		return 0x01 // no interrupt pending
	case uartLCR:
		return u.lcr
	case uartMCR:
		return u.mcr
	case uartLSR:
		lsr := uint8(uartLSRThrEmpty | uartLSRTsrEmpty)
		if len(u.rxQueue) > 0 {
			lsr |= uartLSRDataReady
		}
		return lsr
	case uartMSR:
		return 0
	case uartSCR:
		return u.scr
	}
	return 0
}

func (u *UART) ReadU16(off uint64) uint16 { return uint16(u.ReadU8(off)) }
func (u *UART) ReadU32(off uint64) uint32 { return uint32(u.ReadU8(off)) }
func (u *UART) ReadU64(off uint64) uint64 { return uint64(u.ReadU8(off)) }

func (u *UART) WriteU8(off uint64, v uint8) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch off {
	case uartTHR:
		if u.out != nil {
			u.out.Write([]byte{v})
		}
	case uartIER:
		u.ier = v
	case uartFCR:
		// FIFO control: this subset has no FIFOs to configure.
	case uartLCR:
		u.lcr = v
	case uartMCR:
		u.mcr = v
	case uartSCR:
		u.scr = v
	}
}

func (u *UART) WriteU16(off uint64, v uint16) { u.WriteU8(off, uint8(v)) }
func (u *UART) WriteU32(off uint64, v uint32) { u.WriteU8(off, uint8(v)) }
func (u *UART) WriteU64(off uint64, v uint64) { u.WriteU8(off, uint8(v)) }

// Tick reports whether the UART is currently asserting its interrupt
// line: received data pending while RX-available interrupts are
// enabled.
func (u *UART) Tick() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ier&uartIERRxAvail != 0 && len(u.rxQueue) > 0
}
