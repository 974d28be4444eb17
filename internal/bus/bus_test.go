package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/bus"
)

type fakeRAM struct {
	base, size uint64
	mem        []byte
}

func newFakeRAM(base, size uint64) *fakeRAM { return &fakeRAM{base: base, size: size, mem: make([]byte, size)} }

func (r *fakeRAM) Name() string                    { return "RAM" }
func (r *fakeRAM) AddressRange() (uint64, uint64)  { return r.base, r.size }
func (r *fakeRAM) ReadU8(off uint64) uint8         { return r.mem[off] }
func (r *fakeRAM) ReadU16(off uint64) uint16       { return uint16(r.mem[off]) | uint16(r.mem[off+1])<<8 }
func (r *fakeRAM) ReadU32(off uint64) uint32 {
	return uint32(r.ReadU16(off)) | uint32(r.ReadU16(off+2))<<16
}
func (r *fakeRAM) ReadU64(off uint64) uint64 {
	return uint64(r.ReadU32(off)) | uint64(r.ReadU32(off+4))<<32
}
func (r *fakeRAM) WriteU8(off uint64, v uint8) { r.mem[off] = v }
func (r *fakeRAM) WriteU16(off uint64, v uint16) {
	r.mem[off] = byte(v)
	r.mem[off+1] = byte(v >> 8)
}
func (r *fakeRAM) WriteU32(off uint64, v uint32) {
	r.WriteU16(off, uint16(v))
	r.WriteU16(off+2, uint16(v>>16))
}
func (r *fakeRAM) WriteU64(off uint64, v uint64) {
	r.WriteU32(off, uint32(v))
	r.WriteU32(off+4, uint32(v>>32))
}
func (r *fakeRAM) LoadBytes(off uint64, data []byte) { copy(r.mem[off:], data) }

func TestDispatchToCoveringDevice(t *testing.T) {
	b := bus.New(8, 2, nil)
	b.Add(newFakeRAM(0x1000, 0x1000))

	b.WriteU32(0x1004, 0x12345678)
	assert.Equal(t, uint32(0x12345678), b.ReadU32(0x1004))
	assert.True(t, b.IsValidAddress(0x1000))
	assert.False(t, b.IsValidAddress(0x5000))
}

func TestUnmappedReadReturnsZero(t *testing.T) {
	b := bus.New(8, 2, nil)
	assert.Equal(t, uint64(0), b.ReadU64(0xdead))
}

func TestCalculateTransitTime(t *testing.T) {
	b := bus.New(8, 2, nil)
	assert.Equal(t, uint64(3), b.CalculateTransitTime(8))
	assert.Equal(t, uint64(4), b.CalculateTransitTime(9))
}

func TestLittleEndianStoreLoadBytes(t *testing.T) {
	b := bus.New(8, 0, nil)
	b.Add(newFakeRAM(0, 0x100))
	b.WriteU32(0, 0x12345678)
	assert.Equal(t, uint8(0x78), b.ReadU8(0))
	assert.Equal(t, uint8(0x56), b.ReadU8(1))
	assert.Equal(t, uint8(0x34), b.ReadU8(2))
	assert.Equal(t, uint8(0x12), b.ReadU8(3))
}

func TestDRAMControllerRowBuffer(t *testing.T) {
	d := bus.NewDRAMController(10, 20, 5, 2048)
	first := d.AccessLatency(0)
	assert.Equal(t, uint64(30), first) // idle: tRAS+tCAS

	sameRow := d.AccessLatency(64)
	assert.Equal(t, uint64(10), sameRow) // tCAS

	differentRow := d.AccessLatency(4096)
	assert.Equal(t, uint64(35), differentRow) // tPRE+tRAS+tCAS
}
