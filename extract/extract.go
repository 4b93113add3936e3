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

package extract

import (
	"math"

	"github.com/grailbio/hts/sam"

	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/logprob"
	"github.com/grailbio/varcall/observation"
	"github.com/grailbio/varcall/realign"
	"github.com/grailbio/varcall/variant"
)

// FragmentIterator yields the fragments overlapping a fetch region, in
// whatever order the underlying alignment reader produces them. It
// mirrors a Scan()/Record()/Close() scan-cursor idiom rather than
// hts/bam's own iterator type directly, so ObservationExtractor can be
// tested without a real indexed BAM file.
type FragmentIterator interface {
	Scan() bool
	Record() *sam.Record
	Close() error
}

// FragmentSource is the alignment reader abstraction ObservationExtractor
// fetches fragments from. A *bam.Reader backed by a .bai/.csi index
// satisfies this by wrapping its indexed query iterator.
type FragmentSource interface {
	Fetch(region genome.Interval) (FragmentIterator, error)
}

// Sample bundles one alignment source with the shared-immutable state
// every extraction for that sample needs.
type Sample struct {
	Source     FragmentSource
	Realigner  *realign.Realigner
	Properties AlignmentProperties

	// MaxDepth caps the number of fragments contributing an Observation
	// per variant.
	MaxDepth int

	// MinRefetchDistance is the configured minimum refetch distance.
	// Extract does not read it: every Extract call fetches its region
	// from Source anew, and no fragment batch is reused between variants.
	MinRefetchDistance genome.PosType

	lastRegion  genome.Interval
	lastHasData bool
}

// ObservationExtractor computes one Pileup for one variant, given the
// loci it must be realigned against.
type ObservationExtractor struct {
	Sample *Sample
}

// NewObservationExtractor returns an extractor bound to sample.
func NewObservationExtractor(sample *Sample) *ObservationExtractor {
	return &ObservationExtractor{Sample: sample}
}

// Extract computes the Pileup for v at loci, fetching fragments from the
// sample's FragmentSource over the union of loci (padded by the
// Realigner's window) and running AlleleSupport against each qualifying
// fragment.
//
// Depth capping is deterministic: Extract keeps the first
// Sample.MaxDepth fragments in the FragmentSource's own fetch iteration
// order and discards the rest outright. It never reorders, samples, or
// otherwise makes the kept set a function of anything but that order,
// so re-running Extract against the same inputs always keeps the same
// fragments.
func (e *ObservationExtractor) Extract(v variant.Realignable, loci []genome.SingleLocus) (observation.Pileup, error) {
	if len(loci) == 0 {
		return nil, nil
	}
	region := fetchRegion(loci, e.Sample.Realigner.MaxWindow)

	iter, err := e.Sample.Source.Fetch(region)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var pileup observation.Pileup
	kept := 0
	for iter.Scan() {
		if e.Sample.MaxDepth > 0 && kept >= e.Sample.MaxDepth {
			break
		}
		record := iter.Record()
		if len(record.Cigar) == 0 {
			continue
		}
		obs, ok, err := e.observationFor(record, v, loci)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		pileup = append(pileup, obs)
		kept++
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return pileup, nil
}

// observationFor realigns record against v and combines the resulting
// AlleleSupport with the precomputed alignment-properties probabilities
// into one Observation.
func (e *ObservationExtractor) observationFor(record *sam.Record, v variant.Realignable, loci []genome.SingleLocus) (observation.Observation, bool, error) {
	support, err := e.Sample.Realigner.AlleleSupport(record, loci, v)
	if err != nil {
		return observation.Observation{}, false, err
	}

	obs := observation.Observation{
		ProbMapping:       probMapping(record),
		ProbAlt:           support.ProbAltAllele,
		ProbRef:           support.ProbRefAllele,
		ProbMissedAllele:  probMissedAllele(record, loci),
		ProbSampleAlt:     logprob.Mean(e.Sample.Properties.ProbSampleAlt(record), probFromSoftclip(record, e.Sample.Properties.MaxSoftclip)),
		ProbDoubleOverlap: probDoubleOverlap(record),
		ProbHitBase:       probHitBase(record, loci),
		ReadOrientation:   readOrientationOf(record),
		Softclipped:       isSoftclipped(record),
		Paired:            record.Flags&sam.Paired != 0,
		ReadPosition:      observation.ReadPosition(readPositionOf(record, loci)),
	}
	if support.Strand != nil {
		obs.Strand = *support.Strand
	}
	return obs, true, nil
}

// fetchRegion unions the padded intervals of loci into one fetch window.
func fetchRegion(loci []genome.SingleLocus, pad genome.PosType) genome.Interval {
	iv := loci[0].Interval.Pad(pad)
	for _, l := range loci[1:] {
		iv = iv.Union(l.Interval.Pad(pad))
	}
	return iv
}

// probMapping returns the read's own mapping-quality-derived log
// probability of correct placement, treating MapQ directly as a
// Phred-scaled error rate.
func probMapping(record *sam.Record) logprob.LogProb {
	if record.MapQ >= 255 {
		return logprob.LnOne
	}
	errProb := phredToProb(record.MapQ)
	return logprob.LnOneMinusExp(logprob.FromProb(errProb))
}

func phredToProb(q byte) float64 {
	// 10^(-q/10), clamped away from exactly 0/1 to keep logs finite.
	p := phredPow(q)
	if p < 1e-12 {
		return 1e-12
	}
	if p > 1-1e-12 {
		return 1 - 1e-12
	}
	return p
}

func phredPow(q byte) float64 {
	exp := -float64(q) / 10
	return math.Pow(10, exp)
}

// isSoftclipped reports whether record's CIGAR carries any softclip op.
func isSoftclipped(record *sam.Record) bool {
	for _, co := range record.Cigar {
		if co.Type() == sam.CigarSoftClipped {
			return true
		}
	}
	return false
}

func readOrientationOf(record *sam.Record) observation.ReadOrientation {
	if record.Flags&sam.Paired == 0 || record.Flags&sam.MateUnmapped != 0 {
		return observation.OrientationNone
	}
	rev := record.Flags&sam.Reverse != 0
	mateRev := record.Flags&sam.MateReverse != 0
	isRead1 := record.Flags&sam.Read1 != 0
	switch {
	case isRead1 && !rev && mateRev:
		return observation.OrientationF1R2
	case isRead1 && rev && !mateRev:
		return observation.OrientationF2R1
	case !isRead1 && rev && !mateRev:
		return observation.OrientationF1R2
	case !isRead1 && !rev && mateRev:
		return observation.OrientationF2R1
	default:
		return observation.OrientationOther
	}
}

// probMissedAllele is derived from the read's own base-call error rate
// in its Qual array at the variant locus's read-coordinate offset. It is
// computed for every observation, and is LnZero when the read has no
// quality values or no base aligned at the locus.
func probMissedAllele(record *sam.Record, loci []genome.SingleLocus) logprob.LogProb {
	qual := record.Qual
	if len(qual) == 0 {
		return logprob.LnZero
	}
	readPos, ok := readPositionAt(record, loci[0].Start)
	if !ok || readPos < 0 || int(readPos) >= len(qual) {
		return logprob.LnZero
	}
	q := qual[readPos]
	return logprob.FromProb(phredToProb(q))
}

// probHitBase is the probability that the sequencer actually sampled the
// variant's reference base position at all, distinct from
// probMissedAllele: LnOne when the read has a base aligned at the locus's
// first position, LnZero otherwise. Coverage depth and read length do not
// enter it.
func probHitBase(record *sam.Record, loci []genome.SingleLocus) logprob.LogProb {
	_, ok := readPositionAt(record, loci[0].Start)
	if !ok {
		return logprob.LnZero
	}
	return logprob.LnOne
}

func probDoubleOverlap(record *sam.Record) logprob.LogProb {
	if record.Flags&sam.Paired == 0 || record.Flags&sam.ProperPair == 0 {
		return logprob.LnZero
	}
	if record.TempLen != 0 && abs(record.TempLen) < len(record.Seq.Expand()) {
		// Mate pair overlaps itself: both mates could independently
		// "see" the same base, inflating naive double-counting.
		return logprob.FromProb(0.5)
	}
	return logprob.LnZero
}

func readPositionOf(record *sam.Record, loci []genome.SingleLocus) int32 {
	pos, ok := readPositionAt(record, loci[0].Start)
	if !ok {
		return -1
	}
	return int32(pos)
}

func readPositionAt(record *sam.Record, refPos genome.PosType) (genome.PosType, bool) {
	return realign.RefToReadPos(record.Cigar, genome.PosType(record.Pos), refPos)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
