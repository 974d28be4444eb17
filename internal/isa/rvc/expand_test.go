package rvc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/isa"
	"github.com/loopcycle/riscvsim/internal/isa/rvc"
)

func TestExpandAllZeroIsIllegal(t *testing.T) {
	_, ok := rvc.Expand(0)
	assert.False(t, ok)
}

func TestExpandCNOP(t *testing.T) {
	// C.NOP is C.ADDI x0, 0 -> 0x0001
	inst, ok := rvc.Expand(0x0001)
	assert.True(t, ok)
	assert.Equal(t, isa.OpImm, isa.Opcode(inst))
	assert.Equal(t, 0, isa.Rd(inst))
	assert.Equal(t, int64(0), isa.ImmI(inst))
}

func TestExpandCLI(t *testing.T) {
	// C.LI x1, 5 : funct3=010, rd=00001, imm=0b000101 -> 0100 0000 1001 0101... build directly.
	// Quadrant 1, funct3=2, bit12(imm hi)=0, rd=1, imm[4:0]=5
	half := uint16(2)<<13 | uint16(0)<<12 | uint16(1)<<7 | uint16(5)<<2 | 1
	inst, ok := rvc.Expand(half)
	assert.True(t, ok)
	assert.Equal(t, isa.OpImm, isa.Opcode(inst))
	assert.Equal(t, 1, isa.Rd(inst))
	assert.Equal(t, int64(5), isa.ImmI(inst))
}

func TestExpandCEBREAK(t *testing.T) {
	half := uint16(4)<<13 | uint16(1)<<12 | 2
	inst, ok := rvc.Expand(half)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x00100073), inst)
}
