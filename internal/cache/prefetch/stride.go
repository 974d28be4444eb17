package prefetch

// streamEntry tracks one PC-keyed access stream: its last address, the
// stride last observed, and a 2-bit saturating confidence counter.
type streamEntry struct {
	lastAddr   uint64
	stride     int64
	confidence uint8
	valid      bool
}

const strideTableSize = 64

// Stride keeps a per-PC-hashed table of streamEntry and only emits
// predictions once confidence has saturated (reached 3), to avoid
// chasing noise from an address stream that hasn't settled on a
// stride yet.
type Stride struct {
	degree int
	table  [strideTableSize]streamEntry
}

func NewStride(degree int) *Stride { return &Stride{degree: degree} }

func (s *Stride) bucket(pc uint64) *streamEntry {
	return &s.table[(pc>>2)%strideTableSize]
}

func (s *Stride) Predict(pc, addr, lineSize uint64) []uint64 {
	e := s.bucket(pc)
	if !e.valid {
		*e = streamEntry{lastAddr: addr, valid: true}
		return nil
	}

	stride := int64(addr) - int64(e.lastAddr)
	switch {
	case stride == e.stride:
		if e.confidence < 3 {
			e.confidence++
		}
	case e.confidence == 0:
		e.stride = stride
	default:
		e.confidence--
	}
	e.lastAddr = addr

	if e.confidence < 3 || stride == 0 {
		return nil
	}

	out := make([]uint64, 0, s.degree)
	next := int64(addr)
	for i := 0; i < s.degree; i++ {
		next += e.stride
		out = append(out, uint64(next))
	}
	return out
}
