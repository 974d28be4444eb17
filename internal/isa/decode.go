/*
 * riscvsim - Immediate decoding for the 32-bit instruction formats.
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

// ImmI decodes the sign-extended I-type immediate (inst[31:20]).
func ImmI(inst uint32) int64 {
	return int64(int32(inst)) >> 20
}

// ImmS decodes the sign-extended S-type immediate.
func ImmS(inst uint32) int64 {
	hi := (inst >> 25) & 0x7f
	lo := (inst >> 7) & 0x1f
	v := (hi << 5) | lo
	return signExtend(uint64(v), 12)
}

// ImmB decodes the sign-extended B-type (branch) immediate.
func ImmB(inst uint32) int64 {
	b12 := (inst >> 31) & 0x1
	b11 := (inst >> 7) & 0x1
	b10_5 := (inst >> 25) & 0x3f
	b4_1 := (inst >> 8) & 0xf
	v := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(uint64(v), 13)
}

// ImmU decodes the U-type immediate (already shifted into the upper 20 bits).
func ImmU(inst uint32) int64 {
	return int64(int32(inst & 0xfffff000))
}

// ImmJ decodes the sign-extended J-type (jal) immediate.
func ImmJ(inst uint32) int64 {
	b20 := (inst >> 31) & 0x1
	b19_12 := (inst >> 12) & 0xff
	b11 := (inst >> 20) & 0x1
	b10_1 := (inst >> 21) & 0x3ff
	v := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(uint64(v), 21)
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}
