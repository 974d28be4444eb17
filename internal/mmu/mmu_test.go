package mmu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/isa"
	"github.com/loopcycle/riscvsim/internal/mmu"
	"github.com/loopcycle/riscvsim/internal/trap"
)

type fakeBus struct {
	mem map[uint64]uint64
}

func newFakeBus() *fakeBus { return &fakeBus{mem: map[uint64]uint64{}} }

func (b *fakeBus) ReadU64(addr uint64) uint64       { return b.mem[addr] }
func (b *fakeBus) WriteU64(addr uint64, val uint64) { b.mem[addr] = val }
func (b *fakeBus) CalculateTransitTime(n uint64) uint64 { return 2 }

type fakeCsrs struct {
	satp    uint64
	sstatus uint64
}

func (c fakeCsrs) Satp() uint64    { return c.satp }
func (c fakeCsrs) Sstatus() uint64 { return c.sstatus }

func TestMMachineModeIdentity(t *testing.T) {
	m := mmu.New(4)
	bus := newFakeBus()
	csrs := fakeCsrs{satp: uint64(isa.SatpModeSv39) << isa.SatpModeShift}

	res := m.Translate(trap.VirtAddr(0x8000_1000), trap.AccessFetch, isa.PrivM, csrs, bus)
	assert.False(t, res.Trap.Present())
	assert.Equal(t, uint64(0x8000_1000), res.Addr)
}

func TestSupervisorEmptyPageTableFaults(t *testing.T) {
	m := mmu.New(4)
	bus := newFakeBus()
	csrs := fakeCsrs{satp: uint64(isa.SatpModeSv39) << isa.SatpModeShift}

	res := m.Translate(trap.VirtAddr(0x1000), trap.AccessRead, isa.PrivS, csrs, bus)
	assert.True(t, res.Trap.Present())
	assert.Equal(t, trap.LoadPageFault, res.Trap.Code)
}

func TestWalkSetsAccessedAndDirtyBits(t *testing.T) {
	m := mmu.New(4)
	bus := newFakeBus()
	satp := uint64(isa.SatpModeSv39)<<isa.SatpModeShift | (0x1000 >> 12)
	csrs := fakeCsrs{satp: satp, sstatus: isa.MstatusSUM}

	// Build a single-level-deep leaf mapping for vaddr 0 by making
	// every level a leaf pointing at physical page 0x2000, valid+R+W+X+U.
	// SUM is set so that the S-mode access to this U page is permitted.
	leafPTE := uint64(1) | (1 << 1) | (1 << 2) | (1 << 3) | (1 << 4) | (0x2000>>12)<<10
	bus.mem[0x1000] = leafPTE // vpn2 index 0

	res := m.Translate(trap.VirtAddr(0), trap.AccessWrite, isa.PrivS, csrs, bus)
	assert.False(t, res.Trap.Present())
	assert.Equal(t, uint64(0x2000), res.Addr)

	updated := bus.mem[0x1000]
	assert.NotEqual(t, leafPTE, updated)
	assert.True(t, updated&(1<<6) != 0, "A bit should be set")
	assert.True(t, updated&(1<<7) != 0, "D bit should be set on a store")
}
