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

// Package process implements the ObservationProcessor pipeline: it walks
// a candidate-variant record stream, dispatches non-breakend variants
// directly and breakend variants through a BreakendGroup table, and
// writes one output record per emitted variant.
package process

import (
	"context"
	"io"

	"github.com/grailbio/base/log"

	"github.com/grailbio/varcall/breakend"
	"github.com/grailbio/varcall/codec"
	"github.com/grailbio/varcall/extract"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/variant"
)

// BreakendIndex answers, for a given event id and record index, whether
// that record is the event's last member in the input stream. A
// candidate stream's producer typically builds this by a first pass
// over event ids before the main extraction pass.
type BreakendIndex interface {
	IsLastRecord(eventID string, recordIndex int64) bool
}

// Opts configures one run of the pipeline.
type Opts struct {
	MaxDepth           int
	MinRefetchDistance genome.PosType
	MaxWindow          genome.PosType

	// LogEvery controls how often skip counters are summarized via
	// periodic log.Printf calls; 0 disables periodic logging (counters
	// are still tracked and available via Stats).
	LogEvery int64
}

// Stats accumulates the skip counters the pipeline maintains across a
// run; skipping never aborts the stream.
type Stats struct {
	RecordsSeen         int64
	VariantsDecoded     int64
	VariantsSkipped     int64
	BreakendsInvalid    int64
	GroupsFinalized     int64
	ObservationsEmitted int64
}

// Processor runs the ObservationProcessor pipeline over one candidate
// stream, using sample to extract observations and writer to emit
// output records.
type Processor struct {
	Opts      Opts
	Sample    *extract.Sample
	Index     BreakendIndex
	Writer    *Writer
	breakends *breakend.Table

	Stats Stats
}

// NewProcessor returns a ready-to-run Processor.
func NewProcessor(opts Opts, sample *extract.Sample, index BreakendIndex, writer *Writer) *Processor {
	return &Processor{
		Opts:      opts,
		Sample:    sample,
		Index:     index,
		Writer:    writer,
		breakends: breakend.NewTable(),
	}
}

// Run drains reader, emitting output records until EOF or ctx is
// cancelled. Cancellation is checked between records, never mid-record.
func (p *Processor) Run(ctx context.Context, reader CandidateReader) error {
	var recordIndex int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		rec.Index = recordIndex
		p.Stats.RecordsSeen++

		if err := p.processRecord(rec); err != nil {
			return err
		}

		recordIndex++
		if p.Opts.LogEvery > 0 && recordIndex%p.Opts.LogEvery == 0 {
			p.logSummary()
		}
	}
	p.logSummary()
	return nil
}

func (p *Processor) processRecord(rec *CandidateRecord) error {
	decoded := Decode(rec)
	p.Stats.VariantsDecoded += int64(len(decoded))
	p.Stats.VariantsSkipped += int64(len(rec.Alt)) - int64(len(decoded))

	var breakendDVs []DecodedVariant
	for _, dv := range decoded {
		if dv.Variant.Kind == variant.KindBreakend {
			breakendDVs = append(breakendDVs, dv)
			continue
		}
		if err := p.emitSimple(rec, dv); err != nil {
			return err
		}
	}

	for _, dv := range breakendDVs {
		if err := p.processBreakend(rec, dv); err != nil {
			return err
		}
	}
	return nil
}

// emitSimple extracts observations for one non-breakend variant and
// writes its output record.
func (p *Processor) emitSimple(rec *CandidateRecord, dv DecodedVariant) error {
	extractor := extract.NewObservationExtractor(p.Sample)
	pileup, err := extractor.Extract(dv.Variant, []genome.SingleLocus{dv.Locus})
	if err != nil {
		return err
	}
	out := &OutputRecord{
		Contig:        rec.Contig,
		Pos:           int64(dv.Locus.Start),
		RecordIndex:   rec.Index,
		EncodedPileup: codec.EncodePileup(pileup),
		PileupCount:   int32(len(pileup)),
	}
	p.Writer.Append(out)
	p.Stats.ObservationsEmitted += int64(len(pileup))
	return nil
}

// processBreakend looks up or creates the event's group, appends the
// breakend, and finalizes-and-emits when this record is the event's last
// one. It never invalidates a group: every breakend that Decode accepts
// is appended.
func (p *Processor) processBreakend(rec *CandidateRecord, dv DecodedVariant) error {
	v := dv.Variant
	eventID := v.BreakendEventID
	if eventID == "" {
		p.Stats.BreakendsInvalid++
		return nil
	}

	bk := breakend.Breakend{
		Locus:   genome.Locus{Contig: dv.Locus.Contig, Pos: dv.Locus.Start},
		ID:      rec.ID,
		MateID:  v.BreakendMateID,
		RefBase: v.RefAllele,
		Spec:    v.BreakendSpec,
	}
	p.breakends.Add(eventID, bk)

	if p.Index == nil || !p.Index.IsLastRecord(eventID, rec.Index) {
		return nil
	}

	members, ok := p.breakends.FinalizeAndRemove(eventID)
	if !ok {
		// The group was Invalid, or was already finalized by a
		// concurrent worker; either way nothing is emitted here.
		return nil
	}
	p.Stats.GroupsFinalized++

	extractor := extract.NewObservationExtractor(p.Sample)
	for _, member := range members {
		locus := genome.SingleLocus{Interval: genome.Interval{Contig: member.Locus.Contig, Start: member.Locus.Pos, End: member.Locus.Pos + 1}}
		pileup, err := extractor.Extract(breakend.Realignable{Breakend: member}, []genome.SingleLocus{locus})
		if err != nil {
			return err
		}

		out := &OutputRecord{
			Contig:        locus.Contig,
			Pos:           int64(locus.Start),
			Event:         eventID,
			MateID:        member.MateID,
			RecordIndex:   rec.Index,
			EncodedPileup: codec.EncodePileup(pileup),
			PileupCount:   int32(len(pileup)),
		}
		p.Writer.Append(out)
		p.Stats.ObservationsEmitted += int64(len(pileup))
	}
	return nil
}

func (p *Processor) logSummary() {
	log.Printf("process: records=%d variants=%d skipped=%d breakends_invalid=%d groups_finalized=%d observations=%d",
		p.Stats.RecordsSeen, p.Stats.VariantsDecoded, p.Stats.VariantsSkipped, p.Stats.BreakendsInvalid, p.Stats.GroupsFinalized, p.Stats.ObservationsEmitted)
}
