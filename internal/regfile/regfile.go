/*
 * riscvsim - Integer and floating-point register files.
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

package regfile

import "math"

// nanBox32 is the upper 32 bits that mark a single-precision value
// boxed inside a 64-bit float register, per the F/D extension.
const nanBox32 = 0xffffffff00000000

// canonicalNaN32 is returned when a 32-bit read finds an un-boxed
// (not all-ones-upper) register value.
const canonicalNaN32 = 0x7fc00000

// RegisterFile holds the 32 integer and 32 floating-point
// architectural registers.
type RegisterFile struct {
	x [32]uint64
	f [32]uint64 // raw bit patterns; 32-bit values are NaN-boxed
}

// New returns a zeroed register file.
func New() *RegisterFile { return &RegisterFile{} }

// Read returns integer register idx. Register 0 always reads as 0.
func (r *RegisterFile) Read(idx int) uint64 {
	if idx == 0 {
		return 0
	}
	return r.x[idx]
}

// Write sets integer register idx. Writes to register 0 are ignored.
func (r *RegisterFile) Write(idx int, val uint64) {
	if idx == 0 {
		return
	}
	r.x[idx] = val
}

// ReadF returns the raw 64-bit bit pattern of FP register idx.
func (r *RegisterFile) ReadF(idx int) uint64 { return r.f[idx] }

// WriteF sets the raw 64-bit bit pattern of FP register idx.
func (r *RegisterFile) WriteF(idx int, bits uint64) { r.f[idx] = bits }

// ReadF64 returns FP register idx as a float64.
func (r *RegisterFile) ReadF64(idx int) float64 { return math.Float64frombits(r.f[idx]) }

// WriteF64 stores v into FP register idx.
func (r *RegisterFile) WriteF64(idx int, v float64) { r.f[idx] = math.Float64bits(v) }

// ReadF32 returns FP register idx as a float32, checking the NaN box.
// If the register was not boxed (upper 32 bits aren't all ones), the
// canonical 32-bit NaN is returned instead, per the F extension.
func (r *RegisterFile) ReadF32(idx int) float32 {
	bits := r.f[idx]
	if bits&nanBox32 != nanBox32 {
		return math.Float32frombits(canonicalNaN32)
	}
	return math.Float32frombits(uint32(bits))
}

// WriteF32 stores v into FP register idx, NaN-boxed.
func (r *RegisterFile) WriteF32(idx int, v float32) {
	r.f[idx] = nanBox32 | uint64(math.Float32bits(v))
}

// Dump returns a snapshot of all integer registers, for statistics
// and the debug monitor.
func (r *RegisterFile) Dump() [32]uint64 { return r.x }

// DumpF returns a snapshot of all FP register bit patterns.
func (r *RegisterFile) DumpF() [32]uint64 { return r.f }
