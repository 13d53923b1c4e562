package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidatePair_Orders(t *testing.T) {
	assert.Equal(t, NewCandidatePair(1, 4, 2), NewCandidatePair(4, 1, 2))
	p := NewCandidatePair(5, 3, 1)
	assert.Equal(t, 3, p.A)
	assert.Equal(t, 5, p.B)
	assert.Equal(t, 5, p.Other(3))
	assert.Equal(t, 3, p.Other(5))
}

func TestCandidateList_Sorted(t *testing.T) {
	list := CandidateList{
		{A: 2, B: 3},
		{A: 0, B: 5},
		{A: 0, B: 1},
		{A: 1, B: 2},
	}

	sorted := list.Sorted()
	assert.Equal(t, CandidateList{
		{A: 0, B: 1},
		{A: 0, B: 5},
		{A: 1, B: 2},
		{A: 2, B: 3},
	}, sorted)
}

func TestCandidateList_Involving(t *testing.T) {
	list := CandidateList{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}}
	assert.Len(t, list.Involving(1), 2)
	assert.Len(t, list.Involving(3), 1)
	assert.Empty(t, list.Involving(9))
}

func TestCandidateList_Best(t *testing.T) {
	assert.Nil(t, CandidateList{}.Best())

	list := CandidateList{
		{A: 1, B: 4, Shared: 3},
		{A: 0, B: 4, Shared: 3},
		{A: 2, B: 4, Shared: 1},
	}

	best := list.Best()
	require.NotNil(t, best)
	assert.Equal(t, 0, best.A, "ties break towards the lower position")
	assert.Equal(t, 3, best.Shared)
}
