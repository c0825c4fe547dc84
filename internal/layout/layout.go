package layout

// Ring describes how logical ring positions map onto the physical strip.
// Offset rotates position 0 to a different LED; Reverse runs the ring
// counter-clockwise.
type Ring struct {
	Count   int
	Offset  int
	Reverse bool
}

// Index maps a logical position i (0..Count-1) to the physical LED index.
func (r Ring) Index(i int) int {
	if r.Count <= 0 {
		return i
	}
	ii := i
	if r.Reverse {
		ii = r.Count - 1 - i
	}
	return mod(ii+r.Offset, r.Count)
}

func (r Ring) Identity() bool {
	return !r.Reverse && mod(r.Offset, max(1, r.Count)) == 0
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
