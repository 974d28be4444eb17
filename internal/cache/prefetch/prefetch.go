/*
 * riscvsim - Pluggable cache prefetch policies.
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

// Package prefetch implements next-line and stride prefetchers
// consulted after every cache access.
package prefetch

// Prefetcher predicts addresses likely to be accessed soon, given the
// address (and, for stride, the PC) of the access that just occurred.
type Prefetcher interface {
	Predict(pc, addr uint64, lineSize uint64) []uint64
}

// None performs no prefetching.
type None struct{}

func (None) Predict(pc, addr, lineSize uint64) []uint64 { return nil }

// New constructs the named prefetcher (nextline, stride, none) with
// the given lookahead degree.
func New(name string, degree int) Prefetcher {
	switch name {
	case "nextline":
		return NewNextLine(degree)
	case "stride":
		return NewStride(degree)
	default:
		return None{}
	}
}
