/*
 * riscvsim - Memory controller latency models: flat and DRAM row-buffer.
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

// MemoryController is a per-address latency oracle. Nothing in the
// simulator consults it: the CPU's cache model charges
// Bus.CalculateTransitTime(64) on a last-level cache miss.
type MemoryController interface {
	AccessLatency(paddr uint64) uint64
}

// FlatController returns a constant latency regardless of address.
type FlatController struct {
	Latency uint64
}

func (f FlatController) AccessLatency(paddr uint64) uint64 { return f.Latency }

// DRAMController models a single open row buffer: same-row accesses
// pay only tCAS; a different row pays precharge + activate + tCAS;
// an idle (no row open yet) access pays activate + tCAS.
type DRAMController struct {
	TCAS, TRAS, TPRE uint64
	RowMask          uint64 // selects the row-address bits of paddr

	lastRow    uint64
	haveLastRow bool
}

// NewDRAMController builds a controller with the given timings and a
// row size in bytes (must be a power of two).
func NewDRAMController(tCAS, tRAS, tPRE, rowSizeBytes uint64) *DRAMController {
	return &DRAMController{TCAS: tCAS, TRAS: tRAS, TPRE: tPRE, RowMask: ^(rowSizeBytes - 1)}
}

func (d *DRAMController) AccessLatency(paddr uint64) uint64 {
	row := paddr & d.RowMask

	if !d.haveLastRow {
		d.lastRow = row
		d.haveLastRow = true
		return d.TRAS + d.TCAS
	}

	if row == d.lastRow {
		return d.TCAS
	}

	d.lastRow = row
	return d.TPRE + d.TRAS + d.TCAS
}
