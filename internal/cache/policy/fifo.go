package policy

// FIFO keeps one "next victim" pointer per set. Unlike a plain ring
// buffer, the pointer only advances when the way it currently points
// at was the one just touched, matching the reference model: touching
// an already-resident way other than the pointed-to one does not
// disturb FIFO order.
type FIFO struct {
	next []int
	ways int
}

func NewFIFO(sets, ways int) *FIFO {
	return &FIFO{next: make([]int, sets), ways: ways}
}

func (f *FIFO) Victim(set int) int {
	return f.next[set]
}

func (f *FIFO) Touch(set, way int) {
	if way == f.next[set] {
		f.next[set] = (f.next[set] + 1) % f.ways
	}
}
