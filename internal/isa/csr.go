/*
 * riscvsim - CSR addresses and mstatus/mip/mie bit masks.
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

package isa

// CSR addresses.
const (
	CsrFFlags    = 0x001
	CsrFrm       = 0x002
	CsrFCsr      = 0x003
	CsrCycle     = 0xc00
	CsrTime      = 0xc01
	CsrInstret   = 0xc02
	CsrSstatus   = 0x100
	CsrSie       = 0x104
	CsrStvec     = 0x105
	CsrSscratch  = 0x140
	CsrSepc      = 0x141
	CsrScause    = 0x142
	CsrStval     = 0x143
	CsrSip       = 0x144
	CsrSatp      = 0x180
	CsrMstatus   = 0x300
	CsrMisa      = 0x301
	CsrMedeleg   = 0x302
	CsrMideleg   = 0x303
	CsrMie       = 0x304
	CsrMtvec     = 0x305
	CsrMscratch  = 0x340
	CsrMepc      = 0x341
	CsrMcause    = 0x342
	CsrMtval     = 0x343
	CsrMip       = 0x344
	CsrMcycle    = 0xb00
	CsrMinstret  = 0xb02
	CsrSimPanic  = 0x8ff // custom debug CSR; a write raises an illegal-instruction trap carrying the written value (there is no separate requested-trap kind)
)

// mstatus / sstatus bit positions (shared underlying word).
const (
	MstatusSIE  = uint64(1) << 1
	MstatusMIE  = uint64(1) << 3
	MstatusSPIE = uint64(1) << 5
	MstatusMPIE = uint64(1) << 7
	MstatusSPP  = uint64(1) << 8
	MstatusMPPShift = 11
	MstatusMPPMask  = uint64(0x3) << MstatusMPPShift
	MstatusFSShift  = 13
	MstatusFSMask   = uint64(0x3) << MstatusFSShift
	MstatusSUM  = uint64(1) << 18
	MstatusMXR  = uint64(1) << 19

	// SstatusMask selects the bits of mstatus visible through sstatus.
	SstatusMask = MstatusSIE | MstatusSPIE | MstatusSPP | MstatusFSMask | MstatusSUM | MstatusMXR | (uint64(1) << 63) | (uint64(0x3) << 32)
)

// mip/mie/sip/sie bit positions.
const (
	MipSSIP = uint64(1) << 1
	MipMSIP = uint64(1) << 3
	MipSTIP = uint64(1) << 5
	MipMTIP = uint64(1) << 7
	MipSEIP = uint64(1) << 9
	MipMEIP = uint64(1) << 11

	SipMask = MipSSIP | MipSTIP | MipSEIP
)

// satp fields.
const (
	SatpModeShift = 60
	SatpModeSv39  = 8
	SatpPPNMask   = (uint64(1) << 44) - 1
)

// Privilege levels.
const (
	PrivU = 0
	PrivS = 1
	PrivM = 3
)

// FS field states.
const (
	FSOff     = 0
	FSInitial = 1
	FSClean   = 2
	FSDirty   = 3
)
