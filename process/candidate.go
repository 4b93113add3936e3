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

package process

import (
	"strconv"
	"strings"

	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/variant"
)

// CandidateRecord is one row of the candidate-variant input stream
// a decoded-enough view of one VCF-like record that Decode can turn
// into zero or more Variants.
type CandidateRecord struct {
	Index  int64
	Contig string
	Pos    int64 // 0-based
	Ref    string
	Alt    []string

	ID string

	// Info carries the raw INFO field values this package interprets:
	// SVLEN, END, EVENT, MATEID. The structural-variant type is taken
	// from a symbolic ALT, not from SVTYPE.
	Info map[string]string
}

// CandidateReader is the minimal streaming contract process needs from
// a candidate-variant source: an industry-standard VCF reader
// satisfies this once its records are projected into
// CandidateRecord, keeping the rest of this package decoupled from any
// one VCF library's concrete record type.
type CandidateReader interface {
	// Read returns the next record, or (nil, io.EOF) at end of stream.
	Read() (*CandidateRecord, error)
}

// DecodedVariant pairs one decoded Variant with the locus it applies
// to, since a single CandidateRecord's ALT field may decode to more
// than one Variant (e.g. multi-allelic SNV records).
type DecodedVariant struct {
	Variant variant.Variant
	Locus   genome.SingleLocus
}

// Decode turns one CandidateRecord's ALT alleles into DecodedVariants
// A record with an unsupported ALT is skipped with
// ok=false for that allele rather than aborting the whole record.
func Decode(rec *CandidateRecord) []DecodedVariant {
	out := make([]DecodedVariant, 0, len(rec.Alt))
	for _, alt := range rec.Alt {
		dv, ok := decodeAllele(rec, alt)
		if ok {
			out = append(out, dv)
		}
	}
	return out
}

func decodeAllele(rec *CandidateRecord, alt string) (DecodedVariant, bool) {
	ref := rec.Ref
	locusStart := genome.PosType(rec.Pos)

	if isBreakendSpec(alt) {
		eventID := rec.Info["EVENT"]
		mateID := rec.Info["MATEID"]
		v, err := variant.NewBreakend([]byte(ref), alt, eventID, mateID)
		if err != nil {
			return DecodedVariant{}, false
		}
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: locusStart, End: locusStart + 1}}
		return DecodedVariant{Variant: v, Locus: locus}, true
	}

	if svType, ok := symbolicSVType(alt); ok {
		return decodeSymbolicSV(rec, svType, locusStart)
	}

	switch {
	case len(ref) == 1 && len(alt) == 1:
		v := variant.NewSNV(alt[0])
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: locusStart, End: locusStart + 1}}
		return DecodedVariant{Variant: v, Locus: locus}, true

	case len(ref) == len(alt) && len(ref) > 1:
		v, err := variant.NewMNV([]byte(ref), []byte(alt))
		if err != nil {
			return DecodedVariant{}, false
		}
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: locusStart, End: locusStart + genome.PosType(len(ref))}}
		return DecodedVariant{Variant: v, Locus: locus}, true

	case len(ref) > len(alt):
		delLen := int32(len(ref) - len(alt))
		v, err := variant.NewDeletion(delLen)
		if err != nil {
			return DecodedVariant{}, false
		}
		start := locusStart + genome.PosType(len(alt))
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: start, End: start + genome.PosType(delLen)}}
		return DecodedVariant{Variant: v, Locus: locus}, true

	case len(alt) > len(ref):
		inserted := []byte(alt[len(ref):])
		v, err := variant.NewInsertion(inserted)
		if err != nil {
			return DecodedVariant{}, false
		}
		start := locusStart + genome.PosType(len(ref))
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: start, End: start}}
		return DecodedVariant{Variant: v, Locus: locus}, true

	default:
		v, err := variant.NewReplacement([]byte(ref), []byte(alt))
		if err != nil {
			return DecodedVariant{}, false
		}
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: locusStart, End: locusStart + genome.PosType(len(ref))}}
		return DecodedVariant{Variant: v, Locus: locus}, true
	}
}

// isBreakendSpec reports whether alt is a VCF breakend ALT (e.g.
// "G]17:198983]" or "]13:123456]T").
func isBreakendSpec(alt string) bool {
	return strings.ContainsAny(alt, "[]") && !strings.HasPrefix(alt, "<")
}

// symbolicSVType extracts the SVTYPE for a symbolic ALT like
// "<DEL>"/"<DUP>"/"<INV>", used when a record encodes a structural
// variant by symbolic allele plus INFO/SVLEN rather than explicit
// sequence.
func symbolicSVType(alt string) (string, bool) {
	if !strings.HasPrefix(alt, "<") || !strings.HasSuffix(alt, ">") {
		return "", false
	}
	return strings.Trim(alt, "<>"), true
}

// decodeSymbolicSV builds a Variant for a symbolic structural-variant
// ALT (<DEL>, <DUP>, <INV>), sized from INFO/SVLEN or INFO/END.
func decodeSymbolicSV(rec *CandidateRecord, svType string, locusStart genome.PosType) (DecodedVariant, bool) {
	length, ok := svLength(rec, locusStart)
	if !ok || length <= 0 {
		return DecodedVariant{}, false
	}
	var v variant.Variant
	var err error
	switch svType {
	case "DEL":
		v, err = variant.NewDeletion(length)
	case "DUP", "DUP:TANDEM":
		v, err = variant.NewDuplication(length)
	case "INV":
		v, err = variant.NewInversion(length)
	default:
		return DecodedVariant{}, false
	}
	if err != nil {
		return DecodedVariant{}, false
	}
	locus := genome.SingleLocus{Interval: genome.Interval{Contig: rec.Contig, Start: locusStart, End: locusStart + genome.PosType(length)}}
	return DecodedVariant{Variant: v, Locus: locus}, true
}

// svLength resolves a structural variant's length from INFO/SVLEN
// (preferred) or INFO/END - locusStart (fallback), the usual SV
// info tag convention.
func svLength(rec *CandidateRecord, locusStart genome.PosType) (int32, bool) {
	if n, ok := parseIntInfo(rec.Info, "SVLEN"); ok {
		if n < 0 {
			n = -n
		}
		return int32(n), true
	}
	if end, ok := parseIntInfo(rec.Info, "END"); ok {
		length := end - int64(locusStart)
		if length > 0 {
			return int32(length), true
		}
	}
	return 0, false
}

func parseIntInfo(info map[string]string, key string) (int64, bool) {
	s, ok := info[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
