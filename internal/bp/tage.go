package bp

// tageEntry is one tagged-table entry: a partial tag, a 3-bit signed
// provider counter, and a 2-bit useful counter.
type tageEntry struct {
	tag uint16
	ctr int8 // clamped to [-4, 3]
	u   uint8 // clamped to [0, 3]
	valid bool
}

// TAGE is a TAgged GEometric history predictor: a base bimodal table
// plus num_banks tagged tables indexed by progressively longer folded
// history, matching the reference model's defaults (history lengths
// 5/15/44/130, tag widths 9/9/10/10 for four banks). Each bank's
// history is truncated to the GhrBits-wide global history, so banks
// whose nominal length exceeds GhrBits see the same history bits.
type TAGE struct {
	base
	baseTable []int8 // 2-bit-like signed counter, clamped [-2,1]
	banks     [][]tageEntry
	histLens  []int
	tagWidths []int
	bankBits  int
	clock     int
	resetInterval int
}

func defaultGeometry(numBanks int) ([]int, []int) {
	allLens := []int{5, 15, 44, 130}
	allTags := []int{9, 9, 10, 10}
	if numBanks > len(allLens) {
		numBanks = len(allLens)
	}
	return allLens[:numBanks], allTags[:numBanks]
}

func NewTAGE(cfg Config) *TAGE {
	cfg = defaultedConfig(cfg)
	lens, tags := defaultGeometry(cfg.NumBanks)
	bankBits := 10
	t := &TAGE{
		base:          newBase(cfg),
		baseTable:     make([]int8, 1<<12),
		histLens:      lens,
		tagWidths:     tags,
		bankBits:      bankBits,
		resetInterval: 256 * 1024,
	}
	t.banks = make([][]tageEntry, len(lens))
	for i := range t.banks {
		t.banks[i] = make([]tageEntry, 1<<bankBits)
	}
	return t
}

// fold XOR-compresses a hist-bit-wide history value down to outBits.
func fold(hist uint64, histBits, outBits int) uint64 {
	mask := uint64(1)<<uint(outBits) - 1
	v := hist & (uint64(1)<<uint(histBits) - 1)
	folded := uint64(0)
	for v != 0 {
		folded ^= v & mask
		v >>= uint(outBits)
	}
	return folded
}

func (t *TAGE) bankHistory(bank int) uint64 {
	bits := t.histLens[bank]
	if bits > t.ghrBits {
		bits = t.ghrBits
	}
	mask := uint64(1)<<uint(bits) - 1
	return t.ghr & mask
}

func (t *TAGE) index(pc uint64, bank int) uint64 {
	h := fold(t.bankHistory(bank), t.histLens[bank], t.bankBits)
	mask := uint64(1)<<uint(t.bankBits) - 1
	return ((pc >> 2) ^ h) & mask
}

func (t *TAGE) tag(pc uint64, bank int) uint16 {
	h1 := fold(t.bankHistory(bank), t.histLens[bank], t.tagWidths[bank])
	h2 := fold(t.bankHistory(bank), t.histLens[bank], t.tagWidths[bank]-1)
	mask := uint64(1)<<uint(t.tagWidths[bank]) - 1
	return uint16(((pc >> 2) ^ h1 ^ (h2 << 1)) & mask)
}

// provider finds the longest-history bank with a tag match, scanning
// from the longest bank down. Returns bank=-1 if none matched.
func (t *TAGE) provider(pc uint64) (bank int, idx uint64) {
	for b := len(t.banks) - 1; b >= 0; b-- {
		i := t.index(pc, b)
		e := &t.banks[b][i]
		if e.valid && e.tag == t.tag(pc, b) {
			return b, i
		}
	}
	return -1, 0
}

func (t *TAGE) basePrediction(pc uint64) bool {
	return t.baseTable[(pc>>2)&(uint64(len(t.baseTable))-1)] >= 0
}

func (t *TAGE) PredictBranch(pc uint64) bool {
	if b, i := t.provider(pc); b >= 0 {
		return t.banks[b][i].ctr >= 0
	}
	return t.basePrediction(pc)
}

func (t *TAGE) UpdateBranch(pc uint64, taken bool, target uint64) {
	provBank, provIdx := t.provider(pc)

	var predicted bool
	var altPredicted bool
	altBank := -1
	for b := provBank - 1; b >= 0; b-- {
		i := t.index(pc, b)
		e := &t.banks[b][i]
		if e.valid && e.tag == t.tag(pc, b) {
			altBank = b
			altPredicted = e.ctr >= 0
			break
		}
	}
	if altBank < 0 {
		altPredicted = t.basePrediction(pc)
	}

	if provBank >= 0 {
		e := &t.banks[provBank][provIdx]
		predicted = e.ctr >= 0
		updateCtr3(&e.ctr, taken)
		if predicted == taken {
			if !altPredictedMatches(altPredicted, predicted) && e.u < 3 {
				e.u++
			}
		}
	} else {
		predicted = t.basePrediction(pc)
		bIdx := (pc >> 2) & (uint64(len(t.baseTable)) - 1)
		updateCtr2(&t.baseTable[bIdx], taken)
	}

	if predicted != taken {
		t.allocate(pc, provBank, taken)
	}

	t.clock++
	if t.clock >= t.resetInterval {
		t.clock = 0
		for _, bank := range t.banks {
			for i := range bank {
				if bank[i].u > 0 {
					bank[i].u--
				}
			}
		}
	}

	t.shiftGHR(taken)
}

func altPredictedMatches(alt, pred bool) bool { return alt == pred }

func (t *TAGE) allocate(pc uint64, provBank int, taken bool) {
	start := provBank + 1
	if start < 0 {
		start = 0
	}
	for b := start; b < len(t.banks); b++ {
		i := t.index(pc, b)
		e := &t.banks[b][i]
		if e.u == 0 {
			ctr := int8(0)
			if taken {
				ctr = 1
			} else {
				ctr = -1
			}
			*e = tageEntry{tag: t.tag(pc, b), ctr: ctr, u: 1, valid: true}
			return
		}
	}
	// Aging fallback: no free entry found, decay usefulness.
	for b := start; b < len(t.banks); b++ {
		i := t.index(pc, b)
		e := &t.banks[b][i]
		if e.u > 0 {
			e.u--
		}
	}
}

func updateCtr3(c *int8, taken bool) {
	if taken {
		if *c < 3 {
			*c++
		}
	} else if *c > -4 {
		*c--
	}
}

func updateCtr2(c *int8, taken bool) {
	if taken {
		if *c < 1 {
			*c++
		}
	} else if *c > -2 {
		*c--
	}
}
