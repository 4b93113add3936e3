package pairhmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/varcall/logprob"
)

func TestProbRelatedNeverExceedsOne(t *testing.T) {
	re := &ReadEmission{Bases: []byte("ACGTACGT"), Quals: []byte{30, 30, 30, 30, 30, 30, 30, 30}}
	e := &TemplateEmission{Read: re, Template: []byte("ACGTACGT")}
	p := ProbRelated(e, DefaultGapParams(), nil)
	assert.False(t, math.IsNaN(float64(p)))
	assert.LessOrEqual(t, float64(p), 1e-9)
}

func TestProbRelatedExactMatchIsHigh(t *testing.T) {
	re := &ReadEmission{Bases: []byte("ACGTACGT"), Quals: []byte{40, 40, 40, 40, 40, 40, 40, 40}}
	exact := &TemplateEmission{Read: re, Template: []byte("ACGTACGT")}
	mismatched := &TemplateEmission{Read: re, Template: []byte("TTTTTTTT")}

	pExact := ProbRelated(exact, DefaultGapParams(), nil)
	pMismatch := ProbRelated(mismatched, DefaultGapParams(), nil)
	assert.Greater(t, pExact, pMismatch)
}

func TestProbRelatedBandedMatchesUnbandedForCleanHit(t *testing.T) {
	re := &ReadEmission{Bases: []byte("ACGTACGT"), Quals: []byte{35, 35, 35, 35, 35, 35, 35, 35}}
	e := &TemplateEmission{Read: re, Template: []byte("ACGTACGT")}

	unbanded := ProbRelated(e, DefaultGapParams(), nil)
	band := 2
	banded := ProbRelated(e, DefaultGapParams(), &band)
	assert.InDelta(t, float64(unbanded), float64(banded), 1e-6)
}

func TestProbRelatedEmptyTemplate(t *testing.T) {
	re := &ReadEmission{Bases: []byte("ACGT"), Quals: []byte{30, 30, 30, 30}}
	e := &TemplateEmission{Read: re, Template: nil}
	assert.Equal(t, logprob.LnZero, ProbRelated(e, DefaultGapParams(), nil))
}

func TestCertaintyEst(t *testing.T) {
	re := &ReadEmission{Bases: []byte("AC"), Quals: []byte{40, 40}}
	c := re.CertaintyEst()
	assert.Less(t, float64(c), 0.0)
	assert.Greater(t, c.Exp(), 0.99)
}
