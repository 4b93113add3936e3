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

// Package realign implements the Realigner: given one read and
// one or more loci for a variant, it derives candidate regions from the
// read's CIGAR, merges adjacent ones, runs the edit-distance-prefiltered
// pair-HMM for both the reference and alt alleles, and combines the
// per-region results into one AlleleSupport value.
package realign

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/editdist"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/logprob"
	"github.com/grailbio/varcall/observation"
	"github.com/grailbio/varcall/pairhmm"
	"github.com/grailbio/varcall/refbuffer"
	"github.com/grailbio/varcall/variant"
)

// Realigner computes AlleleSupport for one read against one variant's
// loci. A Realigner is used single-threaded per read; multiple
// Realigners sharing the same ReferenceBuffer may run concurrently
// across reads.
type Realigner struct {
	Ref *refbuffer.ReferenceBuffer

	// MaxWindow is the read-side padding applied around a located
	// breakpoint.
	MaxWindow genome.PosType

	// Gap is the affine gap-cost model passed to every pair-HMM
	// invocation.
	Gap pairhmm.GapParams
}

// New returns a Realigner with the given padding and default gap costs.
func New(ref *refbuffer.ReferenceBuffer, maxWindow genome.PosType) *Realigner {
	return &Realigner{Ref: ref, MaxWindow: maxWindow, Gap: pairhmm.DefaultGapParams()}
}

// refWindow computes ref_window = round(max_window * 1.5).
func (r *Realigner) refWindow() genome.PosType {
	return genome.PosType((int64(r.MaxWindow)*3 + 1) / 2)
}

// AlleleSupport computes the normalized reference/alt allele support for
// record against v, evaluated at every locus in loci.
func (r *Realigner) AlleleSupport(record *sam.Record, loci []genome.SingleLocus, v variant.Realignable) (observation.AlleleSupport, error) {
	contigLen, err := r.Ref.ContigLen(record.Ref.Name())
	if err != nil {
		return observation.AlleleSupport{}, err
	}

	var regions []genome.CandidateRegion
	for _, locus := range loci {
		cr, ok := r.candidateRegion(record, locus, genome.PosType(contigLen))
		if !ok || !cr.Overlap {
			continue
		}
		regions = append(regions, cr)
	}

	if len(regions) == 0 {
		// Step 2: early exit.
		return observation.AlleleSupport{ProbRefAllele: logprob.FromProb(0.5), ProbAltAllele: logprob.FromProb(0.5)}, nil
	}

	regions = genome.MergeAdjacent(regions)

	probRefAll := logprob.LnZero
	probAltAll := logprob.LnZero
	anyValid := false
	for _, region := range regions {
		probRef, probAlt, err := r.regionSupport(record, region, v, contigLen)
		if err != nil {
			return observation.AlleleSupport{}, err
		}
		if !anyValid {
			probRefAll, probAltAll = probRef, probAlt
			anyValid = true
		} else {
			probRefAll += probRef
			probAltAll += probAlt
		}
	}

	support := observation.AlleleSupport{ProbRefAllele: probRefAll, ProbAltAllele: probAltAll}
	if probRefAll != probAltAll {
		strand := StrandOf(record)
		support.Strand = &strand
	}
	return support, nil
}

// regionSupport computes one merged region's (prob_ref, prob_alt), both
// normalized by their sum.
func (r *Realigner) regionSupport(record *sam.Record, region genome.CandidateRegion, v variant.Realignable, contigLen int) (logprob.LogProb, logprob.LogProb, error) {
	readBases, readQuals, err := readWindow(record, region.Read)
	if err != nil {
		return 0, 0, err
	}
	if len(readBases) == 0 {
		return logprob.FromProb(0.5), logprob.FromProb(0.5), nil
	}

	refTemplate, err := r.Ref.Window(record.Ref.Name(), int(region.Ref.Start), int(region.Ref.End))
	if err != nil {
		return 0, 0, err
	}

	locusOffsetInWindow := int(region.Breakpoint - region.Ref.Start)
	if locusOffsetInWindow < 0 {
		locusOffsetInWindow = 0
	}
	if locusOffsetInWindow > len(refTemplate) {
		locusOffsetInWindow = len(refTemplate)
	}
	altTemplates, err := v.AltEmissionParams(refTemplate, locusOffsetInWindow)
	if err != nil {
		return 0, 0, err
	}

	re := &pairhmm.ReadEmission{Bases: readBases, Quals: readQuals}

	probRef, err := r.bestTemplateProb(re, [][]byte{refTemplate})
	if err != nil {
		return 0, 0, err
	}
	probAlt, err := r.bestTemplateProb(re, altTemplates)
	if err != nil {
		return 0, 0, err
	}

	if v.MaybeRevcomp() {
		revBases := append([]byte(nil), readBases...)
		revQuals := append([]byte(nil), readQuals...)
		reverseBytes(revBases)
		reverseBytes(revQuals)
		for i, b := range revBases {
			switch b {
			case 'A', 'a':
				revBases[i] = 'T'
			case 'C', 'c':
				revBases[i] = 'G'
			case 'G', 'g':
				revBases[i] = 'C'
			case 'T', 't':
				revBases[i] = 'A'
			default:
				revBases[i] = 'N'
			}
		}
		reRev := &pairhmm.ReadEmission{Bases: revBases, Quals: revQuals}
		probAltRev, err := r.bestTemplateProb(reRev, altTemplates)
		if err != nil {
			return 0, 0, err
		}
		if probAltRev > probAlt {
			probAlt = probAltRev
		}
	}

	// Step 6: normalization, or substitute 0.5/0.5 if both are impossible.
	if probRef == logprob.LnZero && probAlt == logprob.LnZero {
		return logprob.FromProb(0.5), logprob.FromProb(0.5), nil
	}
	if probRef > logprob.LnZero || probAlt > logprob.LnZero {
		sum := logprob.LnAddExp(probRef, probAlt)
		return probRef - sum, probAlt - sum, nil
	}
	sum := logprob.LnAddExp(probRef, probAlt)
	return probRef - sum, probAlt - sum, nil
}

// bestTemplateProb runs the edit-distance prefilter over every candidate
// template, buckets by distance, and dispatches the pair-HMM on the
// smallest-distance bucket.
func (r *Realigner) bestTemplateProb(re *pairhmm.ReadEmission, templates [][]byte) (logprob.LogProb, error) {
	if len(templates) == 0 {
		return logprob.LnZero, nil
	}
	pattern := re.Bases
	if len(pattern) > editdist.MaxPatternLen {
		pattern = pattern[:editdist.MaxPatternLen]
	}

	bestDist := -1
	type cand struct {
		template []byte
		hit      editdist.BestHit
	}
	var cands []cand
	for _, tpl := range templates {
		hit := editdist.CalcBestHit(pattern, tpl)
		if bestDist == -1 || hit.Dist < bestDist {
			bestDist = hit.Dist
			cands = cands[:0]
		}
		if hit.Dist == bestDist {
			cands = append(cands, cand{template: tpl, hit: hit})
		}
	}

	if bestDist == 0 {
		return re.CertaintyEst(), nil
	}

	best := logprob.LnZero
	for i, c := range cands {
		shrunk := shrinkTemplate(c.template, c.hit.Positions, len(pattern))
		te := &pairhmm.TemplateEmission{Read: re, Template: shrunk}
		band := c.hit.DistUpperBound
		p := pairhmm.ProbRelated(te, r.Gap, &band)
		if i == 0 || p > best {
			best = p
		}
	}
	return best, nil
}

// shrinkTemplate restricts template to a neighborhood around the
// edit-distance calculator's best-hit positions, keeping the HMM's matrix
// small.
func shrinkTemplate(template []byte, positions []int, patternLen int) []byte {
	if len(positions) == 0 {
		return template
	}
	margin := patternLen/2 + editdist.Slack + 2
	minPos, maxPos := positions[0], positions[0]
	for _, p := range positions {
		if p < minPos {
			minPos = p
		}
		if p > maxPos {
			maxPos = p
		}
	}
	start := minPos - margin
	if start < 0 {
		start = 0
	}
	end := maxPos + margin
	if end > len(template) {
		end = len(template)
	}
	return template[start:end]
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
