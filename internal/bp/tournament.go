package bp

// Tournament picks, per global index, between a global predictor and a
// per-PC local-history predictor using a choice PHT trained by which
// of the two was right.
type Tournament struct {
	base
	globalPHT []satCounter2
	choicePHT []satCounter2
	localHist []uint16
	localPHT  []satCounter2
	phtBits   int
	localBits int
}

func NewTournament(cfg Config) *Tournament {
	cfg = defaultedConfig(cfg)
	return &Tournament{
		base:      newBase(cfg),
		globalPHT: make([]satCounter2, 1<<uint(cfg.PhtBits)),
		choicePHT: make([]satCounter2, 1<<uint(cfg.PhtBits)),
		localHist: make([]uint16, 1<<10), // indexed by low PC bits
		localPHT:  make([]satCounter2, 1<<uint(cfg.LocalBits)),
		phtBits:   cfg.PhtBits,
		localBits: cfg.LocalBits,
	}
}

func (t *Tournament) globalIdx(pc uint64) uint64 {
	mask := uint64(1)<<uint(t.phtBits) - 1
	return ((pc >> 2) ^ t.ghr) & mask
}

func (t *Tournament) localEntry(pc uint64) *uint16 {
	return &t.localHist[(pc>>2)&uint64(len(t.localHist)-1)]
}

func (t *Tournament) localIdx(pc uint64) uint64 {
	mask := uint64(1)<<uint(t.localBits) - 1
	return uint64(*t.localEntry(pc)) & mask
}

func (t *Tournament) PredictBranch(pc uint64) bool {
	gIdx := t.globalIdx(pc)
	global := t.globalPHT[gIdx].taken()
	local := t.localPHT[t.localIdx(pc)].taken()

	if t.choicePHT[gIdx].taken() {
		return local
	}
	return global
}

func (t *Tournament) UpdateBranch(pc uint64, taken bool, target uint64) {
	gIdx := t.globalIdx(pc)
	global := t.globalPHT[gIdx].taken()
	local := t.localPHT[t.localIdx(pc)].taken()

	if global != local {
		if local == taken {
			t.choicePHT[gIdx].update(true)
		} else if global == taken {
			t.choicePHT[gIdx].update(false)
		}
	}

	t.globalPHT[gIdx].update(taken)
	t.localPHT[t.localIdx(pc)].update(taken)

	entry := t.localEntry(pc)
	*entry <<= 1
	if taken {
		*entry |= 1
	}

	t.shiftGHR(taken)
}
