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

// Package variant defines the tagged Variant union and the Realignable
// capability every arm must implement to be processed by the Realigner.
package variant

import (
	"fmt"

	"github.com/grailbio/varcall/genome"
)

// Kind tags which arm of the Variant union is populated.
type Kind int

const (
	KindSNV Kind = iota
	KindMNV
	KindNone
	KindDeletion
	KindInsertion
	KindInversion
	KindDuplication
	KindReplacement
	KindBreakend
)

func (k Kind) String() string {
	switch k {
	case KindSNV:
		return "SNV"
	case KindMNV:
		return "MNV"
	case KindNone:
		return "None"
	case KindDeletion:
		return "Deletion"
	case KindInsertion:
		return "Insertion"
	case KindInversion:
		return "Inversion"
	case KindDuplication:
		return "Duplication"
	case KindReplacement:
		return "Replacement"
	case KindBreakend:
		return "Breakend"
	default:
		return "Unknown"
	}
}

// Variant is a closed tagged union over the variant types this pipeline
// realigns against. Exactly one of the fields relevant to Kind is
// meaningful at a time; New* constructors enforce the per-kind
// invariants.
type Variant struct {
	Kind Kind

	AltBase  byte   // SNV
	AltBytes []byte // MNV
	RefBase  byte   // None

	Len int32 // Deletion, Inversion, Duplication

	InsertSeq []byte // Insertion

	RefAllele []byte // Replacement, Breakend
	AltAllele []byte // Replacement

	BreakendSpec    string // Breakend: the ALT-field breakend spec (e.g. "G]17:198983]")
	BreakendEventID string // Breakend: INFO/EVENT
	BreakendMateID  string // Breakend: INFO/MATEID
}

// NewSNV returns a single-nucleotide-variant Variant.
func NewSNV(alt byte) Variant { return Variant{Kind: KindSNV, AltBase: alt} }

// NewMNV returns a multi-nucleotide-variant Variant. ref and alt must be
// the same, non-zero length.
func NewMNV(ref, alt []byte) (Variant, error) {
	if len(ref) == 0 || len(ref) != len(alt) {
		return Variant{}, fmt.Errorf("variant: MNV requires equal nonzero-length ref/alt, got %d/%d", len(ref), len(alt))
	}
	return Variant{Kind: KindMNV, AltBytes: alt}, nil
}

// NewNone returns a "no variant" placeholder carrying the reference base,
// used to query reference-allele support at a monomorphic site.
func NewNone(refBase byte) Variant { return Variant{Kind: KindNone, RefBase: refBase} }

// NewDeletion returns a deletion Variant of the given length. length must
// be > 0.
func NewDeletion(length int32) (Variant, error) {
	if length <= 0 {
		return Variant{}, fmt.Errorf("variant: deletion length must be > 0, got %d", length)
	}
	return Variant{Kind: KindDeletion, Len: length}, nil
}

// NewInsertion returns an insertion Variant carrying the inserted bases.
func NewInsertion(seq []byte) (Variant, error) {
	if len(seq) == 0 {
		return Variant{}, fmt.Errorf("variant: insertion sequence must be nonempty")
	}
	return Variant{Kind: KindInsertion, InsertSeq: seq}, nil
}

// NewInversion returns an inversion Variant of the given length.
func NewInversion(length int32) (Variant, error) {
	if length <= 0 {
		return Variant{}, fmt.Errorf("variant: inversion length must be > 0, got %d", length)
	}
	return Variant{Kind: KindInversion, Len: length}, nil
}

// NewDuplication returns a tandem-duplication Variant of the given length.
func NewDuplication(length int32) (Variant, error) {
	if length <= 0 {
		return Variant{}, fmt.Errorf("variant: duplication length must be > 0, got %d", length)
	}
	return Variant{Kind: KindDuplication, Len: length}, nil
}

// NewReplacement returns a block-substitution Variant; ref and alt may
// differ in length, but both must be nonempty.
func NewReplacement(ref, alt []byte) (Variant, error) {
	if len(ref) == 0 || len(alt) == 0 {
		return Variant{}, fmt.Errorf("variant: replacement requires nonempty ref and alt")
	}
	return Variant{Kind: KindReplacement, RefAllele: ref, AltAllele: alt}, nil
}

// NewBreakend returns a Breakend Variant. spec and eventID must be
// nonempty; an empty eventID breakend cannot be grouped.
func NewBreakend(refAllele []byte, spec, eventID, mateID string) (Variant, error) {
	if spec == "" {
		return Variant{}, fmt.Errorf("variant: breakend requires a nonempty ALT spec")
	}
	if eventID == "" {
		return Variant{}, fmt.Errorf("variant: breakend requires a nonempty event id")
	}
	return Variant{
		Kind:            KindBreakend,
		RefAllele:       refAllele,
		BreakendSpec:    spec,
		BreakendEventID: eventID,
		BreakendMateID:  mateID,
	}, nil
}

// AltEmissionParams returns the candidate alt-allele template(s) for this
// variant, given the padded reference window the Realigner derived around
// the candidate region and the locus it corresponds to. Realignable
// implementations may return more than one template; the Realigner
// dispatches each through the edit-distance prefilter and keeps the best.
func (v Variant) AltEmissionParams(refWindow []byte, locusOffset int) ([][]byte, error) {
	switch v.Kind {
	case KindSNV:
		t := append([]byte(nil), refWindow...)
		if locusOffset >= 0 && locusOffset < len(t) {
			t[locusOffset] = v.AltBase
		}
		return [][]byte{t}, nil
	case KindMNV:
		t := append([]byte(nil), refWindow...)
		end := locusOffset + len(v.AltBytes)
		if locusOffset >= 0 && end <= len(t) {
			copy(t[locusOffset:end], v.AltBytes)
		}
		return [][]byte{t}, nil
	case KindNone:
		return [][]byte{append([]byte(nil), refWindow...)}, nil
	case KindDeletion:
		end := locusOffset + int(v.Len)
		if locusOffset < 0 || end > len(refWindow) {
			return [][]byte{append([]byte(nil), refWindow...)}, nil
		}
		t := make([]byte, 0, len(refWindow)-int(v.Len))
		t = append(t, refWindow[:locusOffset]...)
		t = append(t, refWindow[end:]...)
		return [][]byte{t}, nil
	case KindInsertion:
		if locusOffset < 0 || locusOffset > len(refWindow) {
			return [][]byte{append([]byte(nil), refWindow...)}, nil
		}
		t := make([]byte, 0, len(refWindow)+len(v.InsertSeq))
		t = append(t, refWindow[:locusOffset]...)
		t = append(t, v.InsertSeq...)
		t = append(t, refWindow[locusOffset:]...)
		return [][]byte{t}, nil
	case KindInversion:
		end := locusOffset + int(v.Len)
		if locusOffset < 0 || end > len(refWindow) {
			return [][]byte{append([]byte(nil), refWindow...)}, nil
		}
		t := append([]byte(nil), refWindow...)
		reverseComplementInplace(t[locusOffset:end])
		return [][]byte{t}, nil
	case KindDuplication:
		end := locusOffset + int(v.Len)
		if locusOffset < 0 || end > len(refWindow) {
			return [][]byte{append([]byte(nil), refWindow...)}, nil
		}
		t := make([]byte, 0, len(refWindow)+int(v.Len))
		t = append(t, refWindow[:end]...)
		t = append(t, refWindow[locusOffset:end]...)
		t = append(t, refWindow[end:]...)
		return [][]byte{t}, nil
	case KindReplacement:
		end := locusOffset + len(v.RefAllele)
		if locusOffset < 0 || end > len(refWindow) {
			return [][]byte{append([]byte(nil), refWindow...)}, nil
		}
		t := make([]byte, 0, len(refWindow)-len(v.RefAllele)+len(v.AltAllele))
		t = append(t, refWindow[:locusOffset]...)
		t = append(t, v.AltAllele...)
		t = append(t, refWindow[end:]...)
		return [][]byte{t}, nil
	default:
		return nil, fmt.Errorf("variant: %s has no single-window alt emission; handled by BreakendGroup", v.Kind)
	}
}

// MaybeRevcomp reports whether the Realigner should also evaluate the
// reverse-complement read orientation against this variant's templates
// and keep whichever probability is better, opt-in. Inversions
// are the one arm where this matters: the alt allele is itself a
// revcomp of a reference span, so a forward-only HMM pass can miss the
// better-supported orientation.
func (v Variant) MaybeRevcomp() bool {
	return v.Kind == KindInversion
}

// Realignable is the capability a Variant arm needs to be processed by the
// Realigner: a required alt-template generator and a defaulted
// reverse-complement opt-in.
type Realignable interface {
	AltEmissionParams(refWindow []byte, locusOffset int) ([][]byte, error)
	MaybeRevcomp() bool
}

// LocusSpan returns the reference span (relative to the variant's own
// locus) this variant's ref allele occupies, used by the Realigner to
// decide where the alt/ref templates diverge. Most point variants span a
// single base; deletions/replacements span their ref allele length.
func (v Variant) LocusSpan() genome.PosType {
	switch v.Kind {
	case KindMNV:
		return genome.PosType(len(v.AltBytes))
	case KindDeletion:
		return genome.PosType(v.Len)
	case KindInversion, KindDuplication:
		return genome.PosType(v.Len)
	case KindReplacement:
		return genome.PosType(len(v.RefAllele))
	default:
		return 1
	}
}

// revCompTable maps an ASCII base to its complement, folding lowercase
// and anything unrecognized to 'N'.
var revCompTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	pairs := map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C'}
	for from, to := range pairs {
		t[from] = to
		t[from+('a'-'A')] = to
	}
	return t
}()

// reverseComplementInplace reverse-complements an inversion's reference
// span in place: required to build the alt template an inverted read
// would actually carry.
func reverseComplementInplace(bases []byte) {
	n := len(bases)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		bases[i], bases[j] = revCompTable[bases[j]], revCompTable[bases[i]]
	}
	if n%2 == 1 {
		bases[n/2] = revCompTable[bases[n/2]]
	}
}
