/*
 * riscvsim - Load-use hazard detection and EX/MEM+WB forwarding.
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

package cpu

// needStallLoadUse reports whether idEx is a pending load whose
// destination feeds one of ifID's source operands, requiring a bubble.
func needStallLoadUse(idEx IdEx, ifIDInst uint32) bool {
	if !idEx.Ctrl.MemRead {
		return false
	}
	if !idEx.Ctrl.FPRegWrite && idEx.Rd == 0 {
		return false
	}

	nextRs1 := int((ifIDInst >> 15) & 0x1f)
	nextRs2 := int((ifIDInst >> 20) & 0x1f)
	nextRs3 := int((ifIDInst >> 27) & 0x1f)

	return idEx.Rd == nextRs1 || idEx.Rd == nextRs2 || idEx.Rd == nextRs3
}

// forwardOperands resolves rs1/rs2/rs3 for the instruction in idEx
// against in-flight results in exMem and memWb, implementing the
// standard EX/MEM and MEM/WB forwarding paths.
func forwardOperands(idEx IdEx, exMem ExMem, wbLatch MemWb) (a, b, c uint64) {
	a, b, c = idEx.Rv1, idEx.Rv2, idEx.Rv3

	matches := func(dest int, destFP bool, src int, srcFP bool) bool {
		if destFP != srcFP {
			return false
		}
		if dest != src {
			return false
		}
		if !destFP && dest == 0 {
			return false
		}
		return true
	}

	if wbLatch.Ctrl.RegWrite || wbLatch.Ctrl.FPRegWrite {
		var wbVal uint64
		switch {
		case wbLatch.Ctrl.MemRead:
			wbVal = wbLatch.LoadData
		case wbLatch.Ctrl.Jump:
			wbVal = wbLatch.PC + 4
		default:
			wbVal = wbLatch.Alu
		}
		destFP := wbLatch.Ctrl.FPRegWrite

		if matches(wbLatch.Rd, destFP, idEx.Rs1, idEx.Ctrl.Rs1FP) {
			a = wbVal
		}
		if matches(wbLatch.Rd, destFP, idEx.Rs2, idEx.Ctrl.Rs2FP) {
			b = wbVal
		}
		if matches(wbLatch.Rd, destFP, idEx.Rs3, idEx.Ctrl.Rs3FP) {
			c = wbVal
		}
	}

	if (exMem.Ctrl.RegWrite || exMem.Ctrl.FPRegWrite) && !exMem.Ctrl.MemRead {
		var exVal uint64
		if exMem.Ctrl.Jump {
			exVal = exMem.PC + 4
		} else {
			exVal = exMem.Alu
		}
		destFP := exMem.Ctrl.FPRegWrite

		if matches(exMem.Rd, destFP, idEx.Rs1, idEx.Ctrl.Rs1FP) {
			a = exVal
		}
		if matches(exMem.Rd, destFP, idEx.Rs2, idEx.Ctrl.Rs2FP) {
			b = exVal
		}
		if matches(exMem.Rd, destFP, idEx.Rs3, idEx.Ctrl.Rs3FP) {
			c = exVal
		}
	}

	return a, b, c
}
