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
package realign

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/genome"
)

// refSpan returns the number of reference bases a CIGAR consumes.
func refSpan(cigar sam.Cigar) genome.PosType {
	span, _ := cigar.Lengths()
	return genome.PosType(span)
}

// refToReadPos walks cigar (anchored at readStart on the reference) and
// returns the read-coordinate position aligned to refPos, and whether
// refPos falls within an aligned (Match/Equal/Mismatch) span. A refPos
// inside a deletion or skip is reported not-found: a breakpoint under a
// deletion has no directly corresponding read position.

// RefToReadPos exports refToReadPos for callers outside this package
// (extract uses it to locate a locus's read-coordinate offset for
// per-base probability fields).
func RefToReadPos(cigar sam.Cigar, readStart, refPos genome.PosType) (genome.PosType, bool) {
	return refToReadPos(cigar, readStart, refPos)
}

func refToReadPos(cigar sam.Cigar, readStart, refPos genome.PosType) (genome.PosType, bool) {
	curRef := readStart
	curRead := genome.PosType(0)
	for _, co := range cigar {
		cLen := genome.PosType(co.Len())
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if refPos >= curRef && refPos < curRef+cLen {
				return curRead + (refPos - curRef), true
			}
			curRef += cLen
			curRead += cLen
		case sam.CigarInsertion, sam.CigarSoftClipped:
			curRead += cLen
		case sam.CigarDeletion, sam.CigarSkipped:
			curRef += cLen
		case sam.CigarHardClipped, sam.CigarPadded:
			// consumes neither coordinate
		}
	}
	return 0, false
}

// readLen returns the number of read-sequence bases (including
// soft-clips, excluding hard-clips) the CIGAR accounts for.
func readLen(cigar sam.Cigar) genome.PosType {
	var n genome.PosType
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch, sam.CigarInsertion, sam.CigarSoftClipped:
			n += genome.PosType(co.Len())
		}
	}
	return n
}
