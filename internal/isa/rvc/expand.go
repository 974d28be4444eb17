/*
 * riscvsim - Compressed (RVC) instruction expansion to 32-bit equivalents.
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

// Package rvc expands 16-bit RVC (compressed) instructions to their
// 32-bit base-ISA equivalent encoding, so the rest of the decoder
// never needs to know an instruction arrived compressed.
package rvc

// cReg maps a 3-bit compressed register field (x8-x15) to its full
// 5-bit register number.
func cReg(bits uint16) int { return int(bits&0x7) + 8 }

// Expand decodes a 16-bit instruction word into its 32-bit
// equivalent. It returns ok=false for reserved/unimplemented
// encodings and for the all-zero word, which the caller must treat as
// an illegal instruction.
func Expand(half uint16) (inst uint32, ok bool) {
	if half == 0 {
		return 0, false
	}

	quadrant := half & 0x3
	funct3 := (half >> 13) & 0x7

	switch quadrant {
	case 0:
		return expandQuadrant0(half, funct3)
	case 1:
		return expandQuadrant1(half, funct3)
	case 2:
		return expandQuadrant2(half, funct3)
	default:
		return 0, false
	}
}

func rType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func iType(imm int64, rs1, funct3, rd, opcode uint32) uint32 {
	return (uint32(imm)<<20)&0xfff00000 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func sType(imm int64, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7f)<<25 | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | ((u & 0x1f) << 7) | opcode
}

func bType(imm int64, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 1
	b11 := (u >> 11) & 1
	b10_5 := (u >> 5) & 0x3f
	b4_1 := (u >> 1) & 0xf
	return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (b4_1 << 8) | (b11 << 7) | opcode
}

func uType(imm int64, rd, opcode uint32) uint32 {
	return uint32(imm)&0xfffff000 | (rd << 7) | opcode
}

func jType(imm int64, rd, opcode uint32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 1
	b19_12 := (u >> 12) & 0xff
	b11 := (u >> 11) & 1
	b10_1 := (u >> 1) & 0x3ff
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
}

const (
	opLoad   = 0x03
	opImm    = 0x13
	opStore  = 0x23
	opReg    = 0x33
	opLUI    = 0x37
	opBranch = 0x63
	opJALR   = 0x67
	opJAL    = 0x6f
	opSystem = 0x73
)

func expandQuadrant0(half uint16, funct3 uint16) (uint32, bool) {
	rdp := uint32(cReg(half >> 2))
	rs1p := uint32(cReg(half >> 7))

	switch funct3 {
	case 0: // C.ADDI4SPN
		uimm := decodeAddi4spnImm(half)
		if uimm == 0 {
			return 0, false
		}
		return iType(int64(uimm), 2, 0, rdp, opImm), true
	case 1: // C.FLD (not modeled: double-precision compressed load) -> illegal
		return 0, false
	case 2: // C.LW
		imm := decodeLwImm(half)
		return iType(int64(imm), rs1p, 2, rdp, opLoad), true
	case 3: // C.LD
		imm := decodeLdImm(half)
		return iType(int64(imm), rs1p, 3, rdp, opLoad), true
	case 5: // C.FSD -> illegal (not modeled)
		return 0, false
	case 6: // C.SW
		imm := decodeLwImm(half)
		return sType(int64(imm), rdp, rs1p, 2, opStore), true
	case 7: // C.SD
		imm := decodeLdImm(half)
		return sType(int64(imm), rdp, rs1p, 3, opStore), true
	default:
		return 0, false
	}
}

func decodeAddi4spnImm(half uint16) uint16 {
	// bits [12:5] of half carry nzuimm[5:4|9:6|2|3]
	nzuimm := uint16(0)
	nzuimm |= ((half >> 11) & 0x3) << 4 // imm[5:4]
	nzuimm |= ((half >> 7) & 0xf) << 6  // imm[9:6]
	nzuimm |= ((half >> 6) & 0x1) << 2  // imm[2]
	nzuimm |= ((half >> 5) & 0x1) << 3  // imm[3]
	return nzuimm
}

func decodeLwImm(half uint16) uint16 {
	imm := uint16(0)
	imm |= ((half >> 6) & 0x1) << 2 // imm[2]
	imm |= ((half >> 10) & 0x7) << 3 // imm[5:3]
	imm |= ((half >> 5) & 0x1) << 6 // imm[6]
	return imm
}

func decodeLdImm(half uint16) uint16 {
	imm := uint16(0)
	imm |= ((half >> 10) & 0x7) << 3 // imm[5:3]
	imm |= ((half >> 5) & 0x3) << 6  // imm[7:6]
	return imm
}

func expandQuadrant1(half uint16, funct3 uint16) (uint32, bool) {
	rd := uint32((half >> 7) & 0x1f)
	switch funct3 {
	case 0: // C.ADDI / C.NOP
		imm := decodeImm6(half)
		return iType(imm, rd, 0, rd, opImm), true
	case 1: // C.ADDIW (RV64)
		imm := decodeImm6(half)
		return iType(imm, rd, 0, rd, 0x1b), true
	case 2: // C.LI
		imm := decodeImm6(half)
		return iType(imm, 0, 0, rd, opImm), true
	case 3:
		if rd == 2 { // C.ADDI16SP
			imm := decodeAddi16spImm(half)
			return iType(imm, 2, 0, 2, opImm), true
		}
		// C.LUI
		imm := decodeLuiImm(half)
		if imm == 0 {
			return 0, false
		}
		return uType(imm, rd, opLUI), true
	case 4:
		rdp := uint32(cReg(half >> 7))
		funct2 := (half >> 10) & 0x3
		switch funct2 {
		case 0: // C.SRLI
			shamt := decodeShamt(half)
			return rType(0, uint32(shamt), rdp, 5, rdp, opImm), true
		case 1: // C.SRAI
			shamt := decodeShamt(half)
			return rType(0x20, uint32(shamt), rdp, 5, rdp, opImm), true
		case 2: // C.ANDI
			imm := decodeImm6(half)
			return iType(imm, rdp, 7, rdp, opImm), true
		case 3:
			rs2p := uint32(cReg(half >> 2))
			funct1 := (half >> 12) & 0x1
			funct2b := (half >> 5) & 0x3
			if funct1 == 0 {
				switch funct2b {
				case 0:
					return rType(0x20, rs2p, rdp, 0, rdp, opReg), true // C.SUB
				case 1:
					return rType(0, rs2p, rdp, 4, rdp, opReg), true // C.XOR
				case 2:
					return rType(0, rs2p, rdp, 6, rdp, opReg), true // C.OR
				case 3:
					return rType(0, rs2p, rdp, 7, rdp, opReg), true // C.AND
				}
			} else {
				switch funct2b {
				case 0:
					return rType(0x20, rs2p, rdp, 0, rdp, 0x3b), true // C.SUBW
				case 1:
					return rType(0, rs2p, rdp, 0, rdp, 0x3b), true // C.ADDW
				}
			}
			return 0, false
		}
	case 5: // C.J
		imm := decodeCJImm(half)
		return jType(imm, 0, opJAL), true
	case 6: // C.BEQZ
		rs1p := uint32(cReg(half >> 7))
		imm := decodeCBImm(half)
		return bType(imm, 0, rs1p, 0, opBranch), true
	case 7: // C.BNEZ
		rs1p := uint32(cReg(half >> 7))
		imm := decodeCBImm(half)
		return bType(imm, 0, rs1p, 1, opBranch), true
	}
	return 0, false
}

func decodeImm6(half uint16) int64 {
	hi := (half >> 12) & 0x1
	lo := (half >> 2) & 0x1f
	v := uint16(lo) | uint16(hi)<<5
	return signExtend6(v)
}

func signExtend6(v uint16) int64 {
	if v&0x20 != 0 {
		return int64(v) - 0x40
	}
	return int64(v)
}

func decodeShamt(half uint16) uint16 {
	hi := (half >> 12) & 0x1
	lo := (half >> 2) & 0x1f
	return lo | hi<<5
}

func decodeLuiImm(half uint16) int64 {
	hi := (half >> 12) & 0x1
	lo := (half >> 2) & 0x1f
	v := (uint32(lo) | uint32(hi)<<5) << 12
	if hi != 0 {
		v |= 0xfffc0000
	}
	return int64(int32(v))
}

func decodeAddi16spImm(half uint16) int64 {
	b9 := (half >> 12) & 0x1
	b8_7 := (half >> 3) & 0x3
	b6 := (half >> 5) & 0x1
	b5 := (half >> 2) & 0x1
	b4 := (half >> 6) & 0x1
	v := uint16(b9)<<9 | b8_7<<7 | b6<<6 | b5<<5 | b4<<4
	return signExtend10(v)
}

func signExtend10(v uint16) int64 {
	if v&0x200 != 0 {
		return int64(v) - 0x400
	}
	return int64(v)
}

func decodeCJImm(half uint16) int64 {
	b := half
	imm := uint16(0)
	imm |= ((b >> 12) & 0x1) << 11
	imm |= ((b >> 11) & 0x1) << 4
	imm |= ((b >> 9) & 0x3) << 8
	imm |= ((b >> 8) & 0x1) << 10
	imm |= ((b >> 7) & 0x1) << 6
	imm |= ((b >> 6) & 0x1) << 7
	imm |= ((b >> 3) & 0x7) << 1
	imm |= ((b >> 2) & 0x1) << 5
	if imm&0x800 != 0 {
		return int64(imm) - 0x1000
	}
	return int64(imm)
}

func decodeCBImm(half uint16) int64 {
	b := half
	imm := uint16(0)
	imm |= ((b >> 12) & 0x1) << 8
	imm |= ((b >> 10) & 0x3) << 3
	imm |= ((b >> 5) & 0x3) << 6
	imm |= ((b >> 3) & 0x3) << 1
	imm |= ((b >> 2) & 0x1) << 5
	if imm&0x100 != 0 {
		return int64(imm) - 0x200
	}
	return int64(imm)
}

func expandQuadrant2(half uint16, funct3 uint16) (uint32, bool) {
	rd := uint32((half >> 7) & 0x1f)
	switch funct3 {
	case 0: // C.SLLI
		shamt := decodeShamt(half)
		return rType(0, uint32(shamt), rd, 1, rd, opImm), true
	case 2: // C.LWSP
		imm := decodeLwspImm(half)
		if rd == 0 {
			return 0, false
		}
		return iType(imm, 2, 2, rd, opLoad), true
	case 3: // C.LDSP
		imm := decodeLdspImm(half)
		if rd == 0 {
			return 0, false
		}
		return iType(imm, 2, 3, rd, opLoad), true
	case 4:
		funct1 := (half >> 12) & 0x1
		rs2 := uint32((half >> 2) & 0x1f)
		if funct1 == 0 {
			if rs2 == 0 { // C.JR
				if rd == 0 {
					return 0, false
				}
				return iType(0, rd, 0, 0, opJALR), true
			}
			// C.MV
			return rType(0, rs2, 0, 0, rd, opReg), true
		}
		if rs2 == 0 {
			if rd == 0 { // C.EBREAK
				return 0x00100073, true
			}
			// C.JALR
			return iType(0, rd, 0, 1, opJALR), true
		}
		// C.ADD
		return rType(0, rs2, rd, 0, rd, opReg), true
	case 6: // C.SWSP
		rs2 := uint32((half >> 2) & 0x1f)
		imm := decodeSwspImm(half)
		return sType(imm, rs2, 2, 2, opStore), true
	case 7: // C.SDSP
		rs2 := uint32((half >> 2) & 0x1f)
		imm := decodeSdspImm(half)
		return sType(imm, rs2, 2, 3, opStore), true
	}
	return 0, false
}

func decodeLwspImm(half uint16) int64 {
	imm := uint16(0)
	imm |= ((half >> 12) & 0x1) << 5
	imm |= ((half >> 4) & 0x7) << 2
	imm |= ((half >> 2) & 0x3) << 6
	return int64(imm)
}

func decodeLdspImm(half uint16) int64 {
	imm := uint16(0)
	imm |= ((half >> 12) & 0x1) << 5
	imm |= ((half >> 5) & 0x3) << 3
	imm |= ((half >> 2) & 0x7) << 6
	return int64(imm)
}

func decodeSwspImm(half uint16) int64 {
	imm := uint16(0)
	imm |= ((half >> 9) & 0xf) << 2
	imm |= ((half >> 7) & 0x3) << 6
	return int64(imm)
}

func decodeSdspImm(half uint16) int64 {
	imm := uint16(0)
	imm |= ((half >> 10) & 0x7) << 3
	imm |= ((half >> 7) & 0x7) << 6
	return int64(imm)
}
