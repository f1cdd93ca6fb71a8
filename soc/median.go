package soc

const maxHistoryWindow = 15

// medianRing keeps the last n samples in a fixed array and reports their median
// without allocating.
type medianRing struct {
	data    [maxHistoryWindow]float64
	scratch [maxHistoryWindow]float64
	size    int
	head    int
	count   int
}

func newMedianRing(size int) medianRing {
	if size < 1 {
		size = 1
	}
	if size > maxHistoryWindow {
		size = maxHistoryWindow
	}
	return medianRing{size: size}
}

func (r *medianRing) push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

func (r *medianRing) median() float64 {
	if r.count == 0 {
		return 0
	}
	s := r.scratch[:r.count]
	copy(s, r.data[:r.count])
	// insertion sort, the window is tiny
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
