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

// Package editdist computes the minimum Levenshtein distance of a read
// window against every substring of a candidate template, and the small
// band of positions around the best hit(s). It is the Realigner's
// prefilter: a cheap way to both rule out a pair-HMM pass entirely
// (distance 0) and to bound the HMM's band width when a pass is needed.
package editdist

import "bytes"

// MaxPatternLen is the largest read window this calculator accepts. The
// Realigner is responsible for shrinking windows to this bound before
// calling CalcBestHit.
const MaxPatternLen = 201

// Slack is added to the best hit's distance to produce DistUpperBound, the
// band width passed to the pair-HMM. Exposed as a variable, not a
// constant, since the exact value is implementation-specific and callers
// may want to override it.
var Slack = 2

// BestHit is the result of CalcBestHit: the minimum edit distance of the
// pattern against template, the template end positions achieving exactly
// that minimum, and the upper bound to pass to the pair-HMM.
type BestHit struct {
	Dist           int
	Positions      []int
	DistUpperBound int
}

// matrix is a row-major (len(pattern)+1) x (len(window)+1) Levenshtein
// matrix, allocated once per CalcBestHit call and filled for every
// candidate end position at once.
type matrix struct {
	nRow, nCol int
	data       []int
}

func newMatrix(nRow, nCol int) matrix {
	return matrix{nRow: nRow, nCol: nCol, data: make([]int, nRow*nCol)}
}

func (m matrix) at(i, j int) int { return m.data[i*m.nCol+j] }
func (m matrix) set(i, j, v int) { m.data[i*m.nCol+j] = v }

// lowerASCII maps an ASCII byte to its lowercase form, used to make the
// calculator alphabet-case-independent without
// pulling in unicode-aware case folding, which bases don't need.
func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// CalcBestHit returns the minimum edit distance of pattern against any
// substring of template, plus every end position (in template
// coordinates) whose distance equals that minimum. pattern
// must not exceed MaxPatternLen; callers are required to shrink it first.
func CalcBestHit(pattern, template []byte) BestHit {
	if len(pattern) == 0 || len(template) == 0 {
		return BestHit{Dist: len(pattern) + len(template), DistUpperBound: len(pattern) + len(template) + Slack}
	}
	nRow := len(pattern) + 1
	nCol := len(template) + 1
	m := newMatrix(nRow, nCol)

	// Standard edit-distance recurrence, except row 0 is all zeros: this is
	// the classic "semi-global" trick that allows the match to start
	// anywhere in the template, since we want the best substring match, not
	// a full-template alignment.
	for j := 0; j < nCol; j++ {
		m.set(0, j, 0)
	}
	for i := 1; i < nRow; i++ {
		m.set(i, 0, i)
	}
	for i := 1; i < nRow; i++ {
		pc := lowerASCII(pattern[i-1])
		for j := 1; j < nCol; j++ {
			cost := 1
			if pc == lowerASCII(template[j-1]) {
				cost = 0
			}
			best := m.at(i-1, j) + 1     // deletion from pattern
			if v := m.at(i, j-1) + 1; v < best {
				best = v // insertion into pattern
			}
			if v := m.at(i-1, j-1) + cost; v < best {
				best = v // match/substitution
			}
			m.set(i, j, best)
		}
	}

	lastRow := nRow - 1
	minDist := m.at(lastRow, 0)
	for j := 1; j < nCol; j++ {
		if d := m.at(lastRow, j); d < minDist {
			minDist = d
		}
	}
	var positions []int
	for j := 0; j < nCol; j++ {
		if m.at(lastRow, j) == minDist {
			positions = append(positions, j)
		}
	}
	return BestHit{
		Dist:           minDist,
		Positions:      positions,
		DistUpperBound: minDist + Slack,
	}
}

// Equal reports whether two byte slices are identical ignoring case: a
// whole-sequence distance-0 check that needs no matrix.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return bytes.EqualFold(a, b)
}
