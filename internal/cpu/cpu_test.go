/*
 * riscvsim - Pipeline integration tests: fetch through write-back.
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

package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopcycle/riscvsim/internal/bp"
	"github.com/loopcycle/riscvsim/internal/cache"
	"github.com/loopcycle/riscvsim/internal/cpu"
	"github.com/loopcycle/riscvsim/internal/isa"
)

// fakeBus is a flat byte-addressable memory standing in for the
// device bus: every address is valid, every access is instant.
type fakeBus struct {
	mem map[uint64]byte
}

func newFakeBus() *fakeBus { return &fakeBus{mem: map[uint64]byte{}} }

func (b *fakeBus) ReadU8(a uint64) uint8 { return b.mem[a] }
func (b *fakeBus) ReadU16(a uint64) uint16 {
	return uint16(b.ReadU8(a)) | uint16(b.ReadU8(a+1))<<8
}
func (b *fakeBus) ReadU32(a uint64) uint32 {
	return uint32(b.ReadU16(a)) | uint32(b.ReadU16(a+2))<<16
}
func (b *fakeBus) ReadU64(a uint64) uint64 {
	return uint64(b.ReadU32(a)) | uint64(b.ReadU32(a+4))<<32
}
func (b *fakeBus) WriteU8(a uint64, v uint8) { b.mem[a] = v }
func (b *fakeBus) WriteU16(a uint64, v uint16) {
	b.WriteU8(a, uint8(v))
	b.WriteU8(a+1, uint8(v>>8))
}
func (b *fakeBus) WriteU32(a uint64, v uint32) {
	b.WriteU16(a, uint16(v))
	b.WriteU16(a+2, uint16(v>>16))
}
func (b *fakeBus) WriteU64(a uint64, v uint64) {
	b.WriteU32(a, uint32(v))
	b.WriteU32(a+4, uint32(v>>32))
}
func (b *fakeBus) IsValidAddress(uint64) bool          { return true }
func (b *fakeBus) CalculateTransitTime(uint64) uint64  { return 0 }
func (b *fakeBus) Tick() (timerIRQ, externalIRQ bool)  { return false, false }

func smallCache(name string) cache.Config {
	return cache.Config{Name: name, SizeBytes: 256, LineSize: 16, Ways: 2, Policy: "lru", Prefetcher: "none"}
}

func newTestCPU(bus *fakeBus, startPC uint64) *cpu.Cpu {
	opts := cpu.Options{
		StartPC:         startPC,
		DirectMode:      true,
		BranchPredictor: "static",
		BPConfig:        bp.Config{BtbSize: 16, RasCapacity: 4},
		L1I:             smallCache("L1I"),
		L1D:             smallCache("L1D"),
		L2:              smallCache("L2"),
		L3:              smallCache("L3"),
		TLBSize:         4,
	}
	c := cpu.New(bus, opts)
	c.PC = startPC
	return c
}

// rType encodes an R-type instruction: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func rType(opcode uint32, rd int, funct3 uint32, rs1, rs2 int, funct7 uint32) uint32 {
	return (funct7 << 25) | (uint32(rs2) << 20) | (uint32(rs1) << 15) |
		(funct3 << 12) | (uint32(rd) << 7) | opcode
}

// iType encodes an I-type instruction: imm[11:0] | rs1 | funct3 | rd | opcode.
func iType(opcode uint32, rd int, funct3 uint32, rs1 int, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | (uint32(rs1) << 15) | (funct3 << 12) | (uint32(rd) << 7) | opcode
}

// sType encodes an S-type instruction (stores).
func sType(opcode uint32, funct3 uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm)
	lo := u & 0x1f
	hi := (u >> 5) & 0x7f
	return (hi << 25) | (uint32(rs2) << 20) | (uint32(rs1) << 15) | (funct3 << 12) | (lo << 7) | opcode
}

// bType encodes a B-type instruction (branches), whose immediate bits
// are permuted so bit 0 (always zero) need not be stored.
func bType(opcode uint32, funct3 uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 0x1
	b11 := (u >> 11) & 0x1
	b10_5 := (u >> 5) & 0x3f
	b4_1 := (u >> 1) & 0xf
	return (b12 << 31) | (b10_5 << 25) | (uint32(rs2) << 20) | (uint32(rs1) << 15) |
		(funct3 << 12) | (b4_1 << 8) | (b11 << 7) | opcode
}

func tick(t *testing.T, c *cpu.Cpu, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Tick())
	}
}

func TestAddPropagation(t *testing.T) {
	bus := newFakeBus()
	c := newTestCPU(bus, 0x1000)

	// x10 = 5 via ADDI, x11 = 3 via ADDI, ADD x12, x10, x11.
	bus.WriteU32(0x1000, iType(isa.OpImm, 10, isa.F3ADDSUB, 0, 5))
	bus.WriteU32(0x1004, iType(isa.OpImm, 11, isa.F3ADDSUB, 0, 3))
	bus.WriteU32(0x1008, rType(isa.OpReg, 12, isa.F3ADDSUB, 10, 11, 0))

	tick(t, c, 100)

	assert.Equal(t, uint64(5), c.Regs.Read(10))
	assert.Equal(t, uint64(3), c.Regs.Read(11))
	assert.Equal(t, uint64(8), c.Regs.Read(12))
}

func TestLoadUseStall(t *testing.T) {
	bus := newFakeBus()
	c := newTestCPU(bus, 0x2000)

	bus.WriteU64(0x300, 0x42)
	bus.WriteU32(0x2000, iType(isa.OpImm, 10, isa.F3ADDSUB, 0, 0x300))
	bus.WriteU32(0x2004, iType(isa.OpLoad, 11, isa.F3Dword, 10, 0))
	bus.WriteU32(0x2008, rType(isa.OpReg, 12, isa.F3ADDSUB, 11, 0, 0))

	tick(t, c, 150)

	assert.Equal(t, uint64(0x42), c.Regs.Read(11))
	assert.Equal(t, uint64(0x42), c.Regs.Read(12))
	assert.GreaterOrEqual(t, c.Stats.StallsData, uint64(1))
}

func TestStoreThenLoadRoundTrip(t *testing.T) {
	bus := newFakeBus()
	c := newTestCPU(bus, 0x4000)

	bus.WriteU32(0x4000, iType(isa.OpImm, 10, isa.F3ADDSUB, 0, 0x500))
	bus.WriteU32(0x4004, iType(isa.OpImm, 11, isa.F3ADDSUB, 0, 0x55))
	bus.WriteU32(0x4008, sType(isa.OpStore, isa.F3Dword, 10, 11, 0))
	bus.WriteU32(0x400c, iType(isa.OpLoad, 12, isa.F3Dword, 10, 0))

	tick(t, c, 150)

	assert.Equal(t, uint64(0x55), c.Regs.Read(12))
}

func TestEcallExitFromUserMode(t *testing.T) {
	bus := newFakeBus()
	c := newTestCPU(bus, 0x5000)
	c.Privilege = isa.PrivU

	// a7 (x17) = 93 (SYS_EXIT), a0 (x10) = 7, ECALL.
	bus.WriteU32(0x5000, iType(isa.OpImm, 17, isa.F3ADDSUB, 0, isa.SysExit))
	bus.WriteU32(0x5004, iType(isa.OpImm, 10, isa.F3ADDSUB, 0, 7))
	bus.WriteU32(0x5008, isa.OpSystem) // ECALL: imm=0, rs1=0, funct3=0, rd=0

	tick(t, c, 150)

	code, ok := c.TakeExit()
	require.True(t, ok)
	assert.Equal(t, 7, code)
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	bus := newFakeBus()
	c := newTestCPU(bus, 0x6000)

	// x10 = 1, BEQ x10, x0, +8 (not taken since x10 != 0, falls through);
	// the static predictor always predicts not-taken, so this forward
	// branch resolves as predicted and needs no redirect.
	bus.WriteU32(0x6000, iType(isa.OpImm, 10, isa.F3ADDSUB, 0, 1))
	branch := bType(isa.OpBranch, isa.F3BEQ, 10, 0, 8)
	bus.WriteU32(0x6004, branch)
	bus.WriteU32(0x6008, iType(isa.OpImm, 11, isa.F3ADDSUB, 0, 99))

	tick(t, c, 150)

	assert.Equal(t, uint64(99), c.Regs.Read(11))
	assert.GreaterOrEqual(t, c.Stats.BranchesTotal, uint64(1))
}

// ticksToRetireLoad runs c until reg holds a nonzero value (the
// sentinel written by the test) or the cap is hit, returning the
// number of Tick calls consumed.
func ticksToRetireLoad(t *testing.T, c *cpu.Cpu, reg int, cap int) int {
	t.Helper()
	for i := 1; i <= cap; i++ {
		require.NoError(t, c.Tick())
		if c.Regs.Read(reg) != 0 {
			return i
		}
	}
	t.Fatalf("load never retired within %d ticks", cap)
	return 0
}

func TestUnalignedLoadCacheLineCrossingPenalty(t *testing.T) {
	const sentinel = 0x1122334455667788

	// Both loads target the same physical cache line (line size 16,
	// byte 257 and byte 265 both fall in the line covering [256,272)),
	// so the compulsory-miss cost from the cache hierarchy itself is
	// identical; only the intra-line-vs-crossing split differs.
	busWithin := newFakeBus()
	cWithin := newTestCPU(busWithin, 0x7000)
	busWithin.WriteU64(257, sentinel)
	busWithin.WriteU32(0x7000, iType(isa.OpLoad, 11, isa.F3Dword, 0, 257))

	busCrossing := newFakeBus()
	cCrossing := newTestCPU(busCrossing, 0x7000)
	busCrossing.WriteU64(265, sentinel)
	busCrossing.WriteU32(0x7000, iType(isa.OpLoad, 11, isa.F3Dword, 0, 265))

	ticksWithin := ticksToRetireLoad(t, cWithin, 11, 200)
	ticksCrossing := ticksToRetireLoad(t, cCrossing, 11, 200)

	assert.Equal(t, sentinel, int(cWithin.Regs.Read(11)))
	assert.Equal(t, sentinel, int(cCrossing.Regs.Read(11)))
	assert.Equal(t, ticksWithin+1, ticksCrossing)
}

func TestLoaderArmsEntryAndDTBAddress(t *testing.T) {
	bus := newFakeBus()
	c := newTestCPU(bus, 0x80000000)

	kernel := []byte{0x13, 0x00, 0x00, 0x00} // addi x0, x0, 0
	dtb := []byte{0xde, 0xad, 0xbe, 0xef}

	c.LoadBoot(cpu.BootImage{
		RAMBase:      0x80000000,
		Kernel:       kernel,
		KernelOffset: 0x200000,
		DTB:          dtb,
		HartID:       0,
	})

	assert.Equal(t, uint64(0), c.Regs.Read(isa.RegA0))
	assert.Equal(t, uint64(0x80000000+0x02000000), c.Regs.Read(isa.RegA0+1))
	assert.Equal(t, uint32(0x30200073), bus.ReadU32(0x80000000)) // mret trampoline
	assert.Equal(t, kernel[0], bus.ReadU8(0x80000000+0x200000))
}
