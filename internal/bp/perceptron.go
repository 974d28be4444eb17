package bp

// Perceptron keeps one weight row (bias + H history weights) per
// table entry, indexed by pc_idx ^ (ghr & mask) so that aliasing
// follows global history rather than PC alone. Prediction is the sign
// of bias + sum of weight_i * history_bit_i (history bits mapped to
// +-1); training happens when the magnitude is within the saturation
// threshold or the prediction was wrong, per the reference
// 1.93*H + 14 threshold. Weights saturate to an int8 range, matching
// the reference predictor's byte-wide weight storage.
type Perceptron struct {
	base
	weights    [][]int8
	historyLen int
	tableMask  uint64
	threshold  int32
}

const perceptronTableBits = 10

func NewPerceptron(cfg Config) *Perceptron {
	cfg = defaultedConfig(cfg)
	h := cfg.HistoryLen
	size := 1 << perceptronTableBits
	weights := make([][]int8, size)
	for i := range weights {
		weights[i] = make([]int8, h+1) // index 0 = bias
	}
	threshold := int32(1.93*float64(h) + 14)
	return &Perceptron{
		base:       newBase(cfg),
		weights:    weights,
		historyLen: h,
		tableMask:  uint64(size - 1),
		threshold:  threshold,
	}
}

func (p *Perceptron) index(pc uint64) uint64 {
	pcIdx := (pc >> 2) & p.tableMask
	histIdx := p.ghr & p.tableMask
	return pcIdx ^ histIdx
}

func (p *Perceptron) output(pc uint64) int32 {
	row := p.weights[p.index(pc)]
	y := int32(row[0])
	for i := 0; i < p.historyLen; i++ {
		bit := int32(-1)
		if (p.ghr>>uint(i))&1 != 0 {
			bit = 1
		}
		y += int32(row[i+1]) * bit
	}
	return y
}

func (p *Perceptron) PredictBranch(pc uint64) bool {
	return p.output(pc) >= 0
}

func (p *Perceptron) UpdateBranch(pc uint64, taken bool, target uint64) {
	y := p.output(pc)
	predicted := y >= 0
	mispredicted := predicted != taken

	if mispredicted || abs32(y) <= p.threshold {
		row := p.weights[p.index(pc)]
		t := int32(-1)
		if taken {
			t = 1
		}
		row[0] = clampWeight(int32(row[0]) + t)
		for i := 0; i < p.historyLen; i++ {
			bit := int32(-1)
			if (p.ghr>>uint(i))&1 != 0 {
				bit = 1
			}
			row[i+1] = clampWeight(int32(row[i+1]) + t*bit)
		}
	}

	p.shiftGHR(taken)
}

func clampWeight(v int32) int8 {
	switch {
	case v > 127:
		return 127
	case v < -128:
		return -128
	default:
		return int8(v)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
