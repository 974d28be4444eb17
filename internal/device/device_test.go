package device_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/device"
)

func TestRAMLittleEndianRoundTrip(t *testing.T) {
	r := device.NewRAM(0x80000000, 0x1000)
	r.WriteU64(0x100, 0x0102030405060708)
	assert.Equal(t, uint8(0x08), r.ReadU8(0x100))
	assert.Equal(t, uint32(0x05060708), r.ReadU32(0x100))
	assert.Equal(t, uint64(0x0102030405060708), r.ReadU64(0x100))
}

func TestRAMLoadBytes(t *testing.T) {
	r := device.NewRAM(0, 16)
	r.LoadBytes(4, []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, r.Bytes()[4:7])
}

func TestCLINTTimerFiresAtMtimecmp(t *testing.T) {
	c := device.NewCLINT(0x02000000)
	c.WriteU64(0x4000, 3) // mtimecmp = 3

	assert.False(t, c.Tick()) // mtime=1
	assert.False(t, c.Tick()) // mtime=2
	assert.True(t, c.Tick())  // mtime=3 >= 3
}

func TestCLINTHighWordWriteUsesSuppliedValue(t *testing.T) {
	c := device.NewCLINT(0x02000000)
	c.WriteU32(0x4000, 0xaaaaaaaa)   // mtimecmp low
	c.WriteU32(0x4000+4, 0x11111111) // mtimecmp high
	assert.Equal(t, uint64(0x11111111aaaaaaaa), c.ReadU64(0x4000))
}

func TestCLINTMsip(t *testing.T) {
	c := device.NewCLINT(0x02000000)
	c.WriteU32(0, 1)
	assert.True(t, c.Tick())
}

func TestPLICClaimAndComplete(t *testing.T) {
	p := device.NewPLIC(0x0c000000)
	p.WriteU32(device.UARTIRQID*4, 1) // priority[10] = 1
	p.WriteU32(0x2000, 1<<device.UARTIRQID)
	p.WriteU32(0x200000, 0) // threshold = 0

	p.UpdateIRQs(1 << device.UARTIRQID)
	assert.True(t, p.Tick())

	claimed := p.ReadU32(0x200004)
	assert.Equal(t, uint32(device.UARTIRQID), claimed)

	p.WriteU32(0x200004, device.UARTIRQID) // complete
}

func TestPLICBelowThresholdDoesNotFire(t *testing.T) {
	p := device.NewPLIC(0x0c000000)
	p.WriteU32(device.VirtioIRQID*4, 1)
	p.WriteU32(0x2000, 1<<device.VirtioIRQID)
	p.WriteU32(0x200000, 2) // threshold above priority 1

	p.UpdateIRQs(1 << device.VirtioIRQID)
	assert.False(t, p.Tick())
}

func TestUARTWritesToOutAndQueuesInput(t *testing.T) {
	in := strings.NewReader("A")
	var out bytes.Buffer
	u := device.NewUART(0x10000000, in, &out)
	defer u.Close()

	u.WriteU8(0, 'x')
	assert.Equal(t, "x", out.String())

	for i := 0; i < 1000 && u.ReadU8(5)&1 == 0; i++ {
		// wait for the background reader to deliver the byte
	}
	assert.Equal(t, uint8('A'), u.ReadU8(0))
}

type fakeRAMBytes struct{ mem []byte }

func (f *fakeRAMBytes) Bytes() []byte { return f.mem }

func TestVirtioBlockExposesIdentity(t *testing.T) {
	v := device.NewVirtioBlock(0x10001000, &fakeRAMBytes{mem: make([]byte, 0x1000)}, nil)
	assert.Equal(t, uint32(0x74726976), v.ReadU32(0x00))
	assert.Equal(t, uint32(2), v.ReadU32(0x08))
	assert.Equal(t, device.VirtioIRQID, v.IRQID())
}

func TestSYSCONPoweroffEncodesExitCode(t *testing.T) {
	s := device.NewSYSCON(0x00100000)
	s.WriteU32(0, (42<<16)|device.SyscomPoweroffMagic)
	code, ok := s.Exit()
	assert.True(t, ok)
	assert.Equal(t, 42, code)
}
