package logprob

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLnAddExp(t *testing.T) {
	for _, tc := range []struct {
		a, b LogProb
	}{
		{LnZero, LnZero},
		{LnOne, LnZero},
		{FromProb(0.5), FromProb(0.5)},
		{FromProb(0.1), FromProb(0.9)},
	} {
		got := LnAddExp(tc.a, tc.b)
		want := math.Log(tc.a.Exp() + tc.b.Exp())
		assert.InDelta(t, want, float64(got), 1e-9)
		assert.False(t, math.IsNaN(float64(got)))
	}
}

func TestLnOneMinusExp(t *testing.T) {
	for _, p := range []float64{0.0, 0.001, 0.5, 0.9999, 1.0} {
		lp := FromProb(p)
		got := LnOneMinusExp(lp)
		want := math.Log(1 - p)
		if math.IsInf(want, -1) {
			assert.Equal(t, LnZero, got)
			continue
		}
		assert.InDelta(t, want, float64(got), 1e-6)
	}
}

func TestLnSubExp(t *testing.T) {
	a := FromProb(0.9)
	b := FromProb(0.3)
	got := LnSubExp(a, b)
	assert.InDelta(t, 0.6, got.Exp(), 1e-9)
}

func TestNeverNaN(t *testing.T) {
	vals := []LogProb{LnZero, LnOne, FromProb(0.5)}
	for _, a := range vals {
		for _, b := range vals {
			require.False(t, math.IsNaN(float64(LnAddExp(a, b))))
			require.False(t, math.IsNaN(float64(LnSum(a, b))))
		}
	}
}

func TestMiniLogProbRoundTrip(t *testing.T) {
	for _, p := range []float64{1.0, 0.99, 0.5, 0.1, 1e-5, 1e-20} {
		lp := FromProb(p)
		mini := ToMini(lp)
		back := mini.ToLogProb()
		assert.InDelta(t, float64(lp), float64(back), Tolerance+1e-6)
	}
	assert.Equal(t, LnZero, ToMini(LnZero).ToLogProb())
}

func TestMiniLogProbMonotone(t *testing.T) {
	prev := ToMini(LnZero)
	for _, p := range []float64{1e-30, 1e-10, 1e-5, 0.01, 0.5, 0.9, 0.999, 1.0} {
		cur := ToMini(FromProb(p))
		assert.GreaterOrEqual(t, int16(cur), int16(prev))
		prev = cur
	}
}
