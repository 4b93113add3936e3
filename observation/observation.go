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

// Package observation defines the per-fragment Observation record, the
// Pileup it accumulates into, and the AlleleSupport value the Realigner
// produces for one read against one variant.
package observation

import "github.com/grailbio/varcall/logprob"

// Strand describes which strand a fragment's evidence is attributed to.
type Strand int

const (
	StrandNone Strand = iota
	StrandPlus
	StrandMinus
	StrandBoth
)

// ReadOrientation enumerates the fragment-pair orientations a read can
// carry relative to its mate: F1R2 (read 1 forward, read 2 reverse),
// F2R1 (read 2 forward, read 1 reverse), some other arrangement, or none
// for unpaired reads and reads with an unmapped mate.
type ReadOrientation int

const (
	OrientationNone ReadOrientation = iota
	OrientationF1R2
	OrientationF2R1
	OrientationOther
)

// ReadPosition is the per-fragment "where in the read" field: the raw
// 0-based read offset of the locus, or -1 when the read has no base
// aligned there. The codec stores it as an exact int32.
type ReadPosition int32

// Observation holds one fragment's contribution to a Pileup.
// ProbMismapping is not stored: it is always logprob.LnOneMinusExp(ProbMapping).
type Observation struct {
	ProbMapping       logprob.LogProb
	ProbAlt           logprob.LogProb
	ProbRef           logprob.LogProb
	ProbMissedAllele  logprob.LogProb
	ProbSampleAlt     logprob.LogProb
	ProbDoubleOverlap logprob.LogProb
	ProbHitBase       logprob.LogProb

	Strand          Strand
	ReadOrientation ReadOrientation
	ReadPosition    ReadPosition

	Softclipped bool
	Paired      bool
}

// ProbMismapping returns 1 - ProbMapping in log space.
func (o Observation) ProbMismapping() logprob.LogProb {
	return logprob.LnOneMinusExp(o.ProbMapping)
}

// Valid reports whether every LogProb field is finite-or-LnZero and never
// NaN.
func (o Observation) Valid() bool {
	for _, p := range []logprob.LogProb{o.ProbMapping, o.ProbAlt, o.ProbRef, o.ProbMissedAllele, o.ProbSampleAlt, o.ProbDoubleOverlap, o.ProbHitBase} {
		if !p.IsValid() {
			return false
		}
	}
	return true
}

// Pileup is the ordered sequence of Observations for one variant.
type Pileup []Observation

// AlleleSupport is the Realigner's output for one read against one
// variant: the normalized reference/alt allele log-probabilities, and
// optional strand info. Strand is nil when the record is
// non-informative (ProbRefAllele == ProbAltAllele).
type AlleleSupport struct {
	ProbRefAllele logprob.LogProb
	ProbAltAllele logprob.LogProb
	Strand        *Strand
}
