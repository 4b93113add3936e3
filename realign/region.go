package realign

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/editdist"
	"github.com/grailbio/varcall/genome"
)

// candidateRegion derives one CandidateRegion for record against locus,
// following the usual start/end/enclosed/spanning breakpoint cases. The second return value is
// false when the read has no usable relationship to the locus at all
// (reserved for future filtering; currently always true since every read
// gets at least the "neither found" fallback window).
func (r *Realigner) candidateRegion(record *sam.Record, locus genome.SingleLocus, contigLen genome.PosType) (genome.CandidateRegion, bool) {
	cigar := record.Cigar
	readStart := genome.PosType(record.Pos)
	readSpan := refSpan(cigar)
	readEnd := readStart + readSpan

	qstart, foundStart := refToReadPos(cigar, readStart, locus.Start)
	lastBase := locus.End - 1
	if lastBase < locus.Start {
		lastBase = locus.Start
	}
	qend, foundEnd := refToReadPos(cigar, readStart, lastBase)

	rlen := readLen(cigar)
	refWin := r.refWindow()

	switch {
	case foundStart && foundEnd:
		lo, hi := qstart, qend+1
		if lo > hi {
			lo, hi = hi, lo
		}
		lo -= r.MaxWindow
		hi += r.MaxWindow
		lo, hi = clampPattern(lo, hi, rlen)
		readIv := genome.Interval{Contig: record.Ref.Name(), Start: lo, End: hi}
		refIv := genome.Interval{Contig: locus.Contig, Start: locus.Start - refWin, End: locus.End + refWin}.Clamp(contigLen)
		return genome.CandidateRegion{Overlap: true, Read: readIv, Ref: refIv, Breakpoint: locus.Start}, true

	case foundStart:
		lo, hi := clampPattern(qstart-r.MaxWindow, qstart+r.MaxWindow, rlen)
		readIv := genome.Interval{Contig: record.Ref.Name(), Start: lo, End: hi}
		refIv := genome.Interval{Contig: locus.Contig, Start: locus.Start - refWin, End: locus.Start + refWin}.Clamp(contigLen)
		return genome.CandidateRegion{Overlap: true, Read: readIv, Ref: refIv, Breakpoint: locus.Start}, true

	case foundEnd:
		lo, hi := clampPattern(qend-r.MaxWindow, qend+r.MaxWindow, rlen)
		readIv := genome.Interval{Contig: record.Ref.Name(), Start: lo, End: hi}
		refIv := genome.Interval{Contig: locus.Contig, Start: locus.End - refWin, End: locus.End + refWin}.Clamp(contigLen)
		return genome.CandidateRegion{Overlap: true, Read: readIv, Ref: refIv, Breakpoint: locus.End}, true

	default:
		// Neither endpoint has a directly corresponding read position
		// (e.g. the locus falls entirely within a deletion the read
		// carries). The midpoint of the read defines a notional
		// breakpoint; overlap is true only when the read's mapped span is
		// fully enclosed by the variant's interval.
		mid := rlen / 2
		lo, hi := clampPattern(mid-r.MaxWindow, mid+r.MaxWindow, rlen)
		readIv := genome.Interval{Contig: record.Ref.Name(), Start: lo, End: hi}
		breakpoint := (locus.Start + locus.End) / 2
		refIv := genome.Interval{Contig: locus.Contig, Start: breakpoint - refWin, End: breakpoint + refWin}.Clamp(contigLen)
		enclosed := readStart >= locus.Start && readEnd <= locus.End
		return genome.CandidateRegion{Overlap: enclosed, Read: readIv, Ref: refIv, Breakpoint: breakpoint}, true
	}
}

// clampPattern clamps [lo, hi) to [0, rlen) and, if the span still exceeds
// MaxPatternLen, contracts it symmetrically to fit.
func clampPattern(lo, hi, rlen genome.PosType) (genome.PosType, genome.PosType) {
	if lo < 0 {
		lo = 0
	}
	if hi > rlen {
		hi = rlen
	}
	if hi < lo {
		hi = lo
	}
	maxLen := genome.PosType(editdist.MaxPatternLen)
	if hi-lo > maxLen {
		mid := (lo + hi) / 2
		lo = mid - maxLen/2
		hi = lo + maxLen
		if lo < 0 {
			lo = 0
			hi = maxLen
		}
		if hi > rlen {
			hi = rlen
			if hi-maxLen > 0 {
				lo = hi - maxLen
			} else {
				lo = 0
			}
		}
	}
	return lo, hi
}

// readWindow extracts the expanded bases and quality values for
// record within [iv.Start, iv.End) in read coordinates.
func readWindow(record *sam.Record, iv genome.Interval) ([]byte, []byte, error) {
	seq := record.Seq.Expand()
	qual := record.Qual
	lo, hi := iv.Start, iv.End
	if lo < 0 {
		lo = 0
	}
	if int(hi) > len(seq) {
		hi = genome.PosType(len(seq))
	}
	if hi <= lo {
		return nil, nil, nil
	}
	return seq[lo:hi], qual[lo:hi], nil
}
