package bp

// Static always predicts not-taken; the BTB and RAS are still trained
// normally, since direct jumps and calls/returns don't need direction
// prediction at all.
type Static struct {
	base
}

func NewStatic(cfg Config) *Static {
	cfg = defaultedConfig(cfg)
	return &Static{base: newBase(cfg)}
}

func (s *Static) PredictBranch(pc uint64) bool                  { return false }
func (s *Static) UpdateBranch(pc uint64, taken bool, target uint64) {}
