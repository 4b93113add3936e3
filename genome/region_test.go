package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeAdjacentTouching(t *testing.T) {
	regions := []CandidateRegion{
		{Read: Interval{"chr1", 0, 10}, Ref: Interval{"chr1", 100, 110}},
		{Read: Interval{"chr1", 8, 20}, Ref: Interval{"chr1", 108, 120}},
	}
	merged := MergeAdjacent(regions)
	assert.Len(t, merged, 1)
	assert.Equal(t, Interval{"chr1", 100, 120}, merged[0].Ref)
	assert.Equal(t, Interval{"chr1", 0, 20}, merged[0].Read)
}

func TestMergeAdjacentDisjoint(t *testing.T) {
	regions := []CandidateRegion{
		{Read: Interval{"chr1", 0, 10}, Ref: Interval{"chr1", 100, 110}},
		{Read: Interval{"chr1", 50, 60}, Ref: Interval{"chr1", 200, 210}},
	}
	merged := MergeAdjacent(regions)
	assert.Len(t, merged, 2)
}

func TestIntervalClampAndPad(t *testing.T) {
	iv := Interval{"chr1", -5, 15}
	assert.Equal(t, Interval{"chr1", 0, 10}, iv.Clamp(10))

	padded := Interval{"chr1", 10, 20}.Pad(3)
	assert.Equal(t, Interval{"chr1", 7, 23}, padded)
}
