package regfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/regfile"
)

func TestX0AlwaysZero(t *testing.T) {
	r := regfile.New()

	r.Write(0, 0xdeadbeef)
	assert.Equal(t, uint64(0), r.Read(0))
}

func TestIntegerRoundTrip(t *testing.T) {
	r := regfile.New()

	r.Write(10, 5)
	r.Write(11, 3)
	assert.Equal(t, uint64(5), r.Read(10))
	assert.Equal(t, uint64(3), r.Read(11))
}

func TestFloat32NaNBoxing(t *testing.T) {
	r := regfile.New()

	r.WriteF32(1, 1.5)
	assert.Equal(t, float32(1.5), r.ReadF32(1))

	// An un-boxed register (e.g. left over from a 64-bit write of a
	// value whose upper bits aren't all ones) reads back as the
	// canonical NaN when read as 32-bit.
	r.WriteF64(2, 2.5)
	got := r.ReadF32(2)
	assert.True(t, got != got, "expected NaN, got %v", got)
}

func TestFloat64RoundTrip(t *testing.T) {
	r := regfile.New()

	r.WriteF64(3, 3.14159)
	assert.InDelta(t, 3.14159, r.ReadF64(3), 1e-12)
}
