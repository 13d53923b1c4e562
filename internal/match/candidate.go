package match

import "sort"

// CandidatePair is a pair of schema positions that share at least one field signature.
// A is always lower than B.
type CandidatePair struct {
	A, B   int
	Shared int // Number of shared field signatures
}

// NewCandidatePair orders the positions so that equal pairs compare equal.
func NewCandidatePair(i, j, shared int) CandidatePair {
	if i > j {
		i, j = j, i
	}

	return CandidatePair{A: i, B: j, Shared: shared}
}

// CandidateList is a list of candidate pairs.
type CandidateList []CandidatePair

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface, ordering by position for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].A != c[j].A {
		return c[i].A < c[j].A
	}

	return c[i].B < c[j].B
}

// Sorted sorts the list in place and returns it.
func (c CandidateList) Sorted() CandidateList {
	sort.Sort(c)
	return c
}

// Involving returns the pairs that contain position p.
func (c CandidateList) Involving(p int) CandidateList {
	var out CandidateList

	for _, pair := range c {
		if pair.A == p || pair.B == p {
			out = append(out, pair)
		}
	}

	return out
}

// Best returns the pair with the most shared signatures, breaking ties by position.
// Returns nil for an empty list.
func (c CandidateList) Best() *CandidatePair {
	if len(c) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(c); i++ {
		if c[i].Shared > c[best].Shared ||
			(c[i].Shared == c[best].Shared && c.Less(i, best)) {
			best = i
		}
	}

	return &c[best]
}

// Other returns the position paired with p.
func (p CandidatePair) Other(pos int) int {
	if p.A == pos {
		return p.B
	}

	return p.A
}
