// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pairhmm implements a banded pair hidden Markov model over
// (read position x template position), with Match/Insert/Delete states and
// affine gap penalties. It is the Realigner's fallback for
// windows the edit-distance prefilter (package editdist) could not resolve
// to an exact match.
package pairhmm

import (
	"github.com/grailbio/varcall/logprob"
)

// GapParams holds the affine gap-cost parameters, kept distinct for
// insertions and deletions.
type GapParams struct {
	ProbInsertOpen   logprob.LogProb
	ProbInsertExtend logprob.LogProb
	ProbDeleteOpen   logprob.LogProb
	ProbDeleteExtend logprob.LogProb
}

// EmissionParams supplies the per-(read position, template position)
// match/mismatch log-probability the forward algorithm needs. A single
// implementation serves both the reference and every alt template: the
// read's own base qualities are fixed, only the template byte varies.
type EmissionParams interface {
	// TemplateLen returns the number of template positions.
	TemplateLen() int
	// ReadLen returns the number of read positions.
	ReadLen() int
	// MatchLogProb returns ln P(read[readPos] | template[templatePos]),
	// derived from the read's base quality at readPos.
	MatchLogProb(readPos, templatePos int) logprob.LogProb
}

// states of the pair-HMM's per-cell machinery.
const (
	stateMatch = iota
	stateInsert
	stateDelete
	numStates
)

// ProbRelated returns the log-probability that the read was emitted by the
// template, summed (in log space) over every alignment path whose implied
// edit distance does not exceed bandUpperBound. A nil bandUpperBound (an
// unbounded band) makes this the exact forward probability, within
// numerical tolerance.
func ProbRelated(e EmissionParams, gap GapParams, bandUpperBound *int) logprob.LogProb {
	n := e.ReadLen()
	m := e.TemplateLen()
	if n == 0 {
		return logprob.LnOne
	}
	if m == 0 {
		return logprob.LnZero
	}

	band := -1
	if bandUpperBound != nil {
		band = *bandUpperBound
	}

	// fwd[state][j] holds the forward probability ending at (current read
	// row, template column j) in the given state. Rolled row-by-row to keep
	// memory O(m) instead of O(n*m): nothing downstream needs the full
	// matrix, only the final summed probability.
	cur := newRow(m + 1)
	prev := newRow(m + 1)

	// Row 0: only Delete-state transitions are possible (consuming
	// template without consuming read). Template bases before the read's
	// first aligned base are charged the deletion open/extend costs like
	// any other deletion.
	prev.set(stateMatch, 0, logprob.LnOne)
	for j := 1; j <= m; j++ {
		if !inBand(0, j, n, m, band) {
			continue
		}
		open := prev.get(stateMatch, j-1) + gap.ProbDeleteOpen
		extend := prev.get(stateDelete, j-1) + gap.ProbDeleteExtend
		prev.set(stateDelete, j, logprob.LnAddExp(open, extend))
	}

	for i := 1; i <= n; i++ {
		cur.reset()
		for j := 0; j <= m; j++ {
			if !inBand(i, j, n, m, band) {
				continue
			}
			var match logprob.LogProb = logprob.LnZero
			if j > 0 {
				emit := e.MatchLogProb(i-1, j-1)
				stay := logprob.LnAddExp(
					prev.get(stateMatch, j-1),
					logprob.LnAddExp(prev.get(stateInsert, j-1), prev.get(stateDelete, j-1)),
				)
				match = stay + emit
			}
			cur.set(stateMatch, j, match)

			var ins logprob.LogProb = logprob.LnZero
			open := prev.get(stateMatch, j) + gap.ProbInsertOpen
			extend := prev.get(stateInsert, j) + gap.ProbInsertExtend
			ins = logprob.LnAddExp(open, extend)
			cur.set(stateInsert, j, ins)

			var del logprob.LogProb = logprob.LnZero
			if j > 0 {
				openD := cur.get(stateMatch, j-1) + gap.ProbDeleteOpen
				extendD := cur.get(stateDelete, j-1) + gap.ProbDeleteExtend
				del = logprob.LnAddExp(openD, extendD)
			}
			cur.set(stateDelete, j, del)
		}
		cur, prev = prev, cur
	}

	total := logprob.LnZero
	for s := 0; s < numStates; s++ {
		total = logprob.LnAddExp(total, prev.get(s, m))
	}
	if total > logprob.LnOne {
		total = logprob.LnOne
	}
	return total
}

// inBand reports whether cell (i, j) of an n x m alignment matrix lies
// within `band` of the main diagonal scaled to the matrix's aspect ratio.
// A negative band means "unbounded" (used for the exact forward pass).
func inBand(i, j, n, m, band int) bool {
	if band < 0 {
		return true
	}
	// Project j onto the diagonal implied by i's position in the read.
	expected := 0
	if n > 0 {
		expected = i * m / n
	}
	diff := j - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= band
}

// row holds one rolled row of the forward matrix, one slice per state.
type row struct {
	cells [numStates][]logprob.LogProb
}

func newRow(width int) *row {
	r := &row{}
	for s := 0; s < numStates; s++ {
		r.cells[s] = make([]logprob.LogProb, width)
	}
	r.reset()
	return r
}

func (r *row) reset() {
	for s := 0; s < numStates; s++ {
		for j := range r.cells[s] {
			r.cells[s][j] = logprob.LnZero
		}
	}
}

func (r *row) get(state, j int) logprob.LogProb { return r.cells[state][j] }
func (r *row) set(state, j int, v logprob.LogProb) { r.cells[state][j] = v }
