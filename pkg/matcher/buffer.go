package matcher

// ScoredMatch pairs a candidate path with its relevance score.
// A score <= 0 means the path did not match.
type ScoredMatch struct {
	Path  string
	Score float64
}

// MatchBuffer holds one ScoredMatch per candidate path.
// Until it is ranked, index i corresponds to candidate i.
type MatchBuffer []ScoredMatch

// newBuffer allocates a zeroed buffer of exactly n entries.
// Allocation panics (len out of range) are reported as *AllocationError.
func newBuffer(n int) (buf MatchBuffer, err error) {
	if n < 0 {
		return nil, &AllocationError{Size: n}
	}
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = &AllocationError{Size: n, Cause: r}
		}
	}()
	return make(MatchBuffer, n), nil
}

// stripe is the write view a single worker gets over a MatchBuffer:
// it owns indices first, first+step, first+2*step, ...
type stripe struct {
	buf   MatchBuffer
	first int
	step  int
}

// indices calls fn for every index owned by the stripe, in ascending order.
func (s stripe) indices(fn func(i int)) {
	for i := s.first; i < len(s.buf); i += s.step {
		fn(i)
	}
}

// set writes slot i. Callers only pass indices produced by indices.
func (s stripe) set(i int, m ScoredMatch) {
	s.buf[i] = m
}

// Len is the number of slots this stripe owns.
func (s stripe) Len() int {
	if s.first >= len(s.buf) {
		return 0
	}
	return (len(s.buf)-s.first-1)/s.step + 1
}
