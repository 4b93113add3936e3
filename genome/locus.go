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

// Package genome holds the coordinate types shared by every component that
// talks about a position or span on a reference contig: Locus, Interval,
// SingleLocus, and the CandidateRegion windows the Realigner derives from a
// read's CIGAR.
package genome

import "math"

// PosType is the integer type used to represent genomic positions. Sized
// to match the BAM format's own position field (int32).
type PosType int32

// PosTypeMax is the maximum representable PosType.
const PosTypeMax = PosType(math.MaxInt32)

// Locus is a single 0-based position on a named contig.
type Locus struct {
	Contig string
	Pos    PosType
}

// Interval is a half-open position range [Start, End) on a named contig.
type Interval struct {
	Contig     string
	Start, End PosType
}

// Len returns the interval's length in bases.
func (iv Interval) Len() PosType {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Empty reports whether the interval spans zero bases.
func (iv Interval) Empty() bool {
	return iv.End <= iv.Start
}

// Overlaps reports whether two same-contig intervals share any base.
// Intervals on different contigs never overlap.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.Contig != other.Contig {
		return false
	}
	return iv.Start < other.End && other.Start < iv.End
}

// Touches reports whether two same-contig intervals overlap or abut (their
// union would be contiguous), the condition the Realigner uses to decide
// whether two candidate regions should be merged.
func (iv Interval) Touches(other Interval) bool {
	if iv.Contig != other.Contig {
		return false
	}
	return iv.Start <= other.End && other.Start <= iv.End
}

// Union returns the smallest interval enclosing both iv and other. Both
// must be on the same contig.
func (iv Interval) Union(other Interval) Interval {
	start := iv.Start
	if other.Start < start {
		start = other.Start
	}
	end := iv.End
	if other.End > end {
		end = other.End
	}
	return Interval{Contig: iv.Contig, Start: start, End: end}
}

// Clamp restricts iv to [0, contigLen).
func (iv Interval) Clamp(contigLen PosType) Interval {
	start, end := iv.Start, iv.End
	if start < 0 {
		start = 0
	}
	if end > contigLen {
		end = contigLen
	}
	if end < start {
		end = start
	}
	return Interval{Contig: iv.Contig, Start: start, End: end}
}

// Pad returns iv widened by n bases on each side, unclamped.
func (iv Interval) Pad(n PosType) Interval {
	return Interval{Contig: iv.Contig, Start: iv.Start - n, End: iv.End + n}
}

// SingleLocus is an Interval that is treated as one alignable region:
// the unit the Realigner computes one AlleleSupport value for.
type SingleLocus struct {
	Interval
}

// Contains reports whether pos falls within the locus.
func (l SingleLocus) Contains(pos PosType) bool {
	return pos >= l.Start && pos < l.End
}
