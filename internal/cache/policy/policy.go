/*
 * riscvsim - Cache replacement policies.
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

// Package policy implements pluggable cache-line replacement policies.
package policy

// Policy selects a victim way within a set and is notified whenever a
// way is touched (hit or install), so it can maintain recency state.
type Policy interface {
	// Victim returns the way to evict within the given set.
	Victim(set int) int
	// Touch records that way within set was just accessed.
	Touch(set, way int)
}

// New constructs the named policy (lru, fifo, plru, random) with the
// given number of sets and ways.
func New(name string, sets, ways int) Policy {
	switch name {
	case "fifo":
		return NewFIFO(sets, ways)
	case "plru":
		return NewPLRU(sets, ways)
	case "random":
		return NewRandom(sets, ways)
	default:
		return NewLRU(sets, ways)
	}
}
