package genome

// CandidateRegion is a window of the read and a padded window of the
// reference that together bracket a variant breakpoint. Overlap
// is true when the read is known to enclose the variant breakpoint
// directly (as opposed to merely being placed near it by the default
// midpoint window); this distinction matters for e.g. deletions, where a
// ref-allele-supporting read falls entirely inside the deleted span.
type CandidateRegion struct {
	Overlap bool
	Read    Interval
	Ref     Interval

	// Breakpoint is the absolute reference position, within Ref, that the
	// triggering locus anchors the variant's alt template at: required to
	// splice alt alleles into the correct offset of the ref window; when two
	// regions merge, the left (earlier) region's Breakpoint is kept, since
	// in practice only adjacent-variant merges ever
	// fold two distinct breakpoints into one region.
	Breakpoint PosType
}

// touchesRef reports whether two regions' reference intervals touch or
// overlap, the criterion the Realigner uses to fold regions together.
func (r CandidateRegion) touchesRef(other CandidateRegion) bool {
	return r.Ref.Touches(other.Ref)
}

// MergeAdjacent folds a left-to-right-sorted slice of CandidateRegions,
// combining any whose reference intervals touch or overlap into a single
// region spanning the union of both read and reference intervals.
// Non-touching regions are kept independent and returned in order.
func MergeAdjacent(regions []CandidateRegion) []CandidateRegion {
	if len(regions) == 0 {
		return nil
	}
	merged := make([]CandidateRegion, 0, len(regions))
	cur := regions[0]
	for _, r := range regions[1:] {
		if cur.touchesRef(r) {
			cur = CandidateRegion{
				Overlap:    cur.Overlap || r.Overlap,
				Read:       cur.Read.Union(r.Read),
				Ref:        cur.Ref.Union(r.Ref),
				Breakpoint: cur.Breakpoint,
			}
			continue
		}
		merged = append(merged, cur)
		cur = r
	}
	merged = append(merged, cur)
	return merged
}
