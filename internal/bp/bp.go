/*
 * riscvsim - Branch prediction capability and shared BTB/RAS.
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

// Package bp implements pluggable branch prediction: a shared BTB and
// RAS plus Static, GShare, Tournament, TAGE and Perceptron direction
// predictors.
package bp

// Predictor is the capability every variant implements.
type Predictor interface {
	// PredictBranch returns the predicted taken/not-taken direction
	// for a conditional branch at pc.
	PredictBranch(pc uint64) bool
	// UpdateBranch trains the predictor with the resolved outcome.
	UpdateBranch(pc uint64, taken bool, target uint64)

	// PredictBTB returns a direct-jump target, if known.
	PredictBTB(pc uint64) (target uint64, ok bool)
	// UpdateBTB records a resolved jump/branch target.
	UpdateBTB(pc, target uint64)

	// PredictReturn/OnCall/OnReturn drive the shared RAS.
	PredictReturn() (target uint64, ok bool)
	OnCall(pc, retAddr uint64)
	OnReturn()

	// Speculate/SnapshotHistory/RepairHistory let the fetch stage
	// repair global history speculatively shifted ahead of
	// resolution, on a misprediction. Static and simple PHT-only
	// predictors may leave these effectively no-ops over their own
	// (possibly trivial) history state.
	Speculate(pc uint64, taken bool)
	SnapshotHistory() uint64
	RepairHistory(h uint64)
}

// Btb is a direct-mapped branch target buffer shared by all variants.
type Btb struct {
	size    int
	tags    []uint64
	targets []uint64
	valid   []bool
}

func NewBtb(size int) *Btb {
	return &Btb{size: size, tags: make([]uint64, size), targets: make([]uint64, size), valid: make([]bool, size)}
}

func (b *Btb) index(pc uint64) uint64 { return (pc >> 2) % uint64(b.size) }

func (b *Btb) Lookup(pc uint64) (uint64, bool) {
	i := b.index(pc)
	if b.valid[i] && b.tags[i] == pc {
		return b.targets[i], true
	}
	return 0, false
}

func (b *Btb) Update(pc, target uint64) {
	i := b.index(pc)
	b.tags[i] = pc
	b.targets[i] = target
	b.valid[i] = true
}

// Ras is a fixed-capacity return-address stack. Overflow clamps by
// overwriting the top entry rather than growing.
type Ras struct {
	stack []uint64
	ptr   int
}

func NewRas(capacity int) *Ras {
	return &Ras{stack: make([]uint64, capacity)}
}

func (r *Ras) Push(addr uint64) {
	if r.ptr < len(r.stack) {
		r.stack[r.ptr] = addr
		r.ptr++
		return
	}
	r.stack[len(r.stack)-1] = addr
}

func (r *Ras) Pop() (uint64, bool) {
	if r.ptr == 0 {
		return 0, false
	}
	r.ptr--
	return r.stack[r.ptr], true
}

func (r *Ras) Top() (uint64, bool) {
	if r.ptr == 0 {
		return 0, false
	}
	return r.stack[r.ptr-1], true
}

// satCounter2 is a 2-bit saturating counter (0-3); >=2 predicts taken.
type satCounter2 uint8

func (c satCounter2) taken() bool { return c >= 2 }

func (c *satCounter2) update(taken bool) {
	if taken {
		if *c < 3 {
			*c++
		}
	} else if *c > 0 {
		*c--
	}
}

// New constructs the named predictor variant.
func New(name string, cfg Config) Predictor {
	switch name {
	case "gshare":
		return NewGShare(cfg)
	case "tournament":
		return NewTournament(cfg)
	case "tage":
		return NewTAGE(cfg)
	case "perceptron":
		return NewPerceptron(cfg)
	default:
		return NewStatic(cfg)
	}
}

// Config parameterizes every variant; unused fields for a given
// variant are ignored.
type Config struct {
	BtbSize     int
	RasCapacity int
	GhrBits     int  // GShare / Tournament global history width
	PhtBits     int  // PHT index width
	LocalBits   int  // Tournament per-PC local history width
	NumBanks    int  // TAGE tagged-table count
	HistoryLen  int  // Perceptron history length H
}

func defaultedConfig(cfg Config) Config {
	if cfg.BtbSize == 0 {
		cfg.BtbSize = 256
	}
	if cfg.RasCapacity == 0 {
		cfg.RasCapacity = 16
	}
	if cfg.GhrBits == 0 {
		cfg.GhrBits = 12
	}
	if cfg.PhtBits == 0 {
		cfg.PhtBits = cfg.GhrBits
	}
	if cfg.LocalBits == 0 {
		cfg.LocalBits = 10
	}
	if cfg.NumBanks == 0 {
		cfg.NumBanks = 4
	}
	if cfg.HistoryLen == 0 {
		cfg.HistoryLen = 32
	}
	return cfg
}

// base bundles the shared BTB/RAS/GHR state every variant embeds.
type base struct {
	btb *Btb
	ras *Ras
	ghr uint64
	ghrBits int
}

func newBase(cfg Config) base {
	return base{btb: NewBtb(cfg.BtbSize), ras: NewRas(cfg.RasCapacity), ghrBits: cfg.GhrBits}
}

func (b *base) PredictBTB(pc uint64) (uint64, bool) { return b.btb.Lookup(pc) }
func (b *base) UpdateBTB(pc, target uint64)         { b.btb.Update(pc, target) }
func (b *base) PredictReturn() (uint64, bool)       { return b.ras.Top() }
func (b *base) OnCall(pc, retAddr uint64)            { b.ras.Push(retAddr) }
func (b *base) OnReturn()                            { b.ras.Pop() }

func (b *base) shiftGHR(taken bool) {
	mask := uint64(1)<<uint(b.ghrBits) - 1
	b.ghr = (b.ghr << 1) & mask
	if taken {
		b.ghr |= 1
	}
}

func (b *base) Speculate(pc uint64, taken bool) { b.shiftGHR(taken) }
func (b *base) SnapshotHistory() uint64         { return b.ghr }
func (b *base) RepairHistory(h uint64)          { b.ghr = h }
