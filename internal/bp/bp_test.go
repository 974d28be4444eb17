package bp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopcycle/riscvsim/internal/bp"
)

func TestStaticAlwaysNotTaken(t *testing.T) {
	p := bp.NewStatic(bp.Config{})
	assert.False(t, p.PredictBranch(0x1000))
}

func TestBTBLearnsTarget(t *testing.T) {
	p := bp.NewStatic(bp.Config{})
	p.UpdateBTB(0x1000, 0x2000)
	target, ok := p.PredictBTB(0x1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x2000), target)
}

func TestRasCallReturn(t *testing.T) {
	p := bp.NewStatic(bp.Config{})
	p.OnCall(0x1000, 0x1004)
	target, ok := p.PredictReturn()
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1004), target)
	p.OnReturn()
	_, ok = p.PredictReturn()
	assert.False(t, ok)
}

func TestGShareLearnsTakenBranch(t *testing.T) {
	// A run of "taken" shifts GHR toward the fixed point 0xff...f, at
	// which point repeated updates land on one PHT entry and it
	// saturates to taken.
	g := bp.NewGShare(bp.Config{GhrBits: 4, PhtBits: 8})
	pc := uint64(0x4000)
	for i := 0; i < 16; i++ {
		g.UpdateBranch(pc, true, pc+8)
	}
	assert.True(t, g.PredictBranch(pc))
}

func TestTournamentConverges(t *testing.T) {
	tp := bp.NewTournament(bp.Config{GhrBits: 4, PhtBits: 8, LocalBits: 8})
	pc := uint64(0x8000)
	for i := 0; i < 16; i++ {
		tp.UpdateBranch(pc, true, pc+8)
	}
	assert.True(t, tp.PredictBranch(pc))
}

func TestTAGEConverges(t *testing.T) {
	tg := bp.NewTAGE(bp.Config{GhrBits: 4, NumBanks: 4})
	pc := uint64(0xc000)
	for i := 0; i < 16; i++ {
		tg.UpdateBranch(pc, true, pc+8)
	}
	assert.True(t, tg.PredictBranch(pc))
}

func TestPerceptronConverges(t *testing.T) {
	pc := bp.NewPerceptron(bp.Config{HistoryLen: 16})
	target := uint64(0x10000)
	for i := 0; i < 32; i++ {
		pc.UpdateBranch(target, true, target+8)
	}
	assert.True(t, pc.PredictBranch(target))
}
