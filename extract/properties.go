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

// Package extract implements the Sample / ObservationExtractor: for a
// given variant, it walks the overlapping fragments an alignment reader
// yields, subject to a depth cap, and turns each qualifying fragment into
// one Observation.
package extract

import (
	"math"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/logprob"
)

// AlignmentProperties holds the global, estimated fragment-length
// distribution and orientation statistics a Sample computes once up
// front and then treats as constants during extraction. The
// distribution is summarized as a mean and standard deviation, treating
// fragment geometry as a fixed per-run parameter rather than something
// recomputed per read.
type AlignmentProperties struct {
	MeanInsertSize float64
	StdInsertSize  float64

	// MaxSoftclip bounds how much softclip a fragment may carry before
	// its prob_sample_alt is penalized.
	MaxSoftclip int
}

// ProbSampleAlt estimates the log-probability that record, given its
// insert size relative to the estimated distribution, was actually
// sampled in a way that could carry alt-allele evidence from the
// alignment-properties model. A fragment far outside the expected
// insert-size distribution is down-weighted. Softclipping is not scored
// here; probFromSoftclip scores it separately.
func (p AlignmentProperties) ProbSampleAlt(record *sam.Record) logprob.LogProb {
	if p.StdInsertSize <= 0 {
		return logprob.LnOne
	}
	insertSize := float64(record.TempLen)
	if insertSize < 0 {
		insertSize = -insertSize
	}
	z := (insertSize - p.MeanInsertSize) / p.StdInsertSize
	// A symmetric Gaussian-shaped log-penalty, clamped to LnZero, keeps
	// this a closed-form function of the alignment properties without
	// needing the full fragment-length distribution kept around.
	penalty := -0.5 * z * z
	if penalty < float64(logprob.LnZero) {
		penalty = float64(logprob.LnZero)
	}
	return logprob.LogProb(penalty)
}

func probFromSoftclip(record *sam.Record, maxSoftclip int) logprob.LogProb {
	if maxSoftclip <= 0 {
		return logprob.LnOne
	}
	var clipped int
	for _, co := range record.Cigar {
		if co.Type() == sam.CigarSoftClipped {
			clipped += co.Len()
		}
	}
	if clipped == 0 {
		return logprob.LnOne
	}
	frac := float64(clipped) / float64(maxSoftclip)
	if frac > 1 {
		frac = 1
	}
	return logprob.FromProb(math.Max(1-frac, 1e-12))
}
