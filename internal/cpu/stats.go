/*
 * riscvsim - Per-core execution statistics.
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

// Stats accumulates the counters the monitor and exit-time summary
// report: cycle/instruction counts by privilege mode, cache and
// branch-predictor hit rates, and pipeline bubble sources.
type Stats struct {
	Cycles              uint64
	InstructionsRetired uint64

	CyclesUser    uint64
	CyclesKernel  uint64
	CyclesMachine uint64

	StallsData uint64
	StallsMem  uint64

	BranchesTotal     uint64
	BranchMispredicts uint64

	ICacheHits   uint64
	ICacheMisses uint64
	DCacheHits   uint64
	DCacheMisses uint64
	L2Hits       uint64
	L2Misses     uint64
	L3Hits       uint64
	L3Misses     uint64

	TrapsTaken uint64
}

// IPC returns instructions retired per cycle, or 0 before any cycles
// have elapsed.
func (s Stats) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.InstructionsRetired) / float64(s.Cycles)
}

// BranchAccuracy returns the fraction of resolved branches the
// predictor called correctly, or 1 when no branches have resolved.
func (s Stats) BranchAccuracy() float64 {
	if s.BranchesTotal == 0 {
		return 1
	}
	return float64(s.BranchesTotal-s.BranchMispredicts) / float64(s.BranchesTotal)
}
