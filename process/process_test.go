package process

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/varcall/extract"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/realign"
	"github.com/grailbio/varcall/refbuffer"
)

type fixedFasta struct{ seq string }

func (f fixedFasta) Get(seqName string, start, end uint64) (string, error) { return f.seq[start:end], nil }
func (f fixedFasta) Len(seqName string) (uint64, error)                   { return uint64(len(f.seq)), nil }
func (f fixedFasta) SeqNames() []string                                  { return []string{"chr1"} }

type fakeIterator struct {
	records []*sam.Record
	idx     int
}

func (it *fakeIterator) Scan() bool {
	if it.idx >= len(it.records) {
		return false
	}
	it.idx++
	return true
}
func (it *fakeIterator) Record() *sam.Record { return it.records[it.idx-1] }
func (it *fakeIterator) Close() error        { return nil }

type fakeSource struct{ records []*sam.Record }

func (s *fakeSource) Fetch(region genome.Interval) (extract.FragmentIterator, error) {
	return &fakeIterator{records: s.records}, nil
}

type fakeCandidateReader struct {
	recs []*CandidateRecord
	idx  int
}

func (r *fakeCandidateReader) Read() (*CandidateRecord, error) {
	if r.idx >= len(r.recs) {
		return nil, io.EOF
	}
	rec := r.recs[r.idx]
	r.idx++
	return rec, nil
}

type neverLastIndex struct{}

func (neverLastIndex) IsLastRecord(eventID string, recordIndex int64) bool { return false }

func TestProcessorRunEmitsSimpleVariant(t *testing.T) {
	refSeq := strings.Repeat("A", 50) + "C" + strings.Repeat("A", 50)
	ref := refbuffer.New(fixedFasta{seq: refSeq})
	refObj, err := sam.NewReference("chr1", "", "", len(refSeq), "", "")
	require.NoError(t, err)

	bases := strings.Repeat("A", 50) + "C" + strings.Repeat("A", 9)
	quals := make([]byte, len(bases))
	for i := range quals {
		quals[i] = 40
	}
	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(bases))}
	rec, err := sam.NewRecord("read1", refObj, nil, 0, -1, 0, 60, cigar, []byte(bases), quals, nil)
	require.NoError(t, err)

	sample := &extract.Sample{
		Source:    &fakeSource{records: []*sam.Record{rec}},
		Realigner: realign.New(ref, 10),
		MaxDepth:  10,
	}

	var buf bytes.Buffer
	writer, err := NewWriter(&buf, Opts{})
	require.NoError(t, err)

	proc := NewProcessor(Opts{}, sample, neverLastIndex{}, writer)
	reader := &fakeCandidateReader{recs: []*CandidateRecord{
		{Contig: "chr1", Pos: 50, Ref: "A", Alt: []string{"C"}},
	}}

	err = proc.Run(context.Background(), reader)
	require.NoError(t, err)
	require.NoError(t, writer.Finish())

	assert.EqualValues(t, 1, proc.Stats.RecordsSeen)
	assert.EqualValues(t, 1, proc.Stats.VariantsDecoded)
	assert.Greater(t, buf.Len(), 0)
}

func TestProcessorRunRespectsCancellation(t *testing.T) {
	refSeq := strings.Repeat("A", 50)
	ref := refbuffer.New(fixedFasta{seq: refSeq})
	sample := &extract.Sample{Source: &fakeSource{}, Realigner: realign.New(ref, 10)}

	var buf bytes.Buffer
	writer, err := NewWriter(&buf, Opts{})
	require.NoError(t, err)

	proc := NewProcessor(Opts{}, sample, neverLastIndex{}, writer)
	reader := &fakeCandidateReader{recs: []*CandidateRecord{
		{Contig: "chr1", Pos: 10, Ref: "A", Alt: []string{"C"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = proc.Run(ctx, reader)
	assert.Error(t, err)
}
