package extract

import (
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/realign"
	"github.com/grailbio/varcall/refbuffer"
	"github.com/grailbio/varcall/variant"
)

type fixedFasta struct{ seq string }

func (f fixedFasta) Get(seqName string, start, end uint64) (string, error) { return f.seq[start:end], nil }
func (f fixedFasta) Len(seqName string) (uint64, error)                   { return uint64(len(f.seq)), nil }
func (f fixedFasta) SeqNames() []string                                  { return []string{"chr1"} }

func makeRecord(t *testing.T, refObj *sam.Reference, pos int, bases string) *sam.Record {
	t.Helper()
	quals := make([]byte, len(bases))
	for i := range quals {
		quals[i] = 40
	}
	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(bases))}
	rec, err := sam.NewRecord("read1", refObj, nil, pos, -1, 0, 60, cigar, []byte(bases), quals, nil)
	require.NoError(t, err)
	return rec
}

// fakeIterator replays a fixed slice of records once, mirroring the
// Scan/Record/Close contract of a real indexed BAM iterator.
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

func (s *fakeSource) Fetch(region genome.Interval) (FragmentIterator, error) {
	return &fakeIterator{records: s.records}, nil
}

func TestExtractDepthCapKeepsFetchOrder(t *testing.T) {
	refSeq := strings.Repeat("A", 50) + "C" + strings.Repeat("A", 50)
	ref := refbuffer.New(fixedFasta{seq: refSeq})
	refObj, err := sam.NewReference("chr1", "", "", len(refSeq), "", "")
	require.NoError(t, err)

	bases := strings.Repeat("A", 50) + "C" + strings.Repeat("A", 9)
	var records []*sam.Record
	for i := 0; i < 5; i++ {
		rec := makeRecord(t, refObj, 0, bases)
		rec.MapQ = byte(30 + i) // distinct per record, so the kept ones can be identified
		records = append(records, rec)
	}

	sample := &Sample{
		Source:     &fakeSource{records: records},
		Realigner:  realign.New(ref, 10),
		Properties: AlignmentProperties{},
		MaxDepth:   3,
	}
	extractor := NewObservationExtractor(sample)
	v := variant.NewSNV('C')
	loci := []genome.SingleLocus{{Interval: genome.Interval{Contig: "chr1", Start: 50, End: 51}}}

	pileup, err := extractor.Extract(v, loci)
	require.NoError(t, err)
	assert.Len(t, pileup, 3)
	for i, obs := range pileup {
		assert.True(t, obs.Valid())
		assert.Equal(t, probMapping(records[i]), obs.ProbMapping)
	}
}

func TestExtractNoLociReturnsNil(t *testing.T) {
	refSeq := strings.Repeat("A", 50)
	ref := refbuffer.New(fixedFasta{seq: refSeq})
	sample := &Sample{Source: &fakeSource{}, Realigner: realign.New(ref, 10)}
	extractor := NewObservationExtractor(sample)
	pileup, err := extractor.Extract(variant.NewSNV('C'), nil)
	require.NoError(t, err)
	assert.Nil(t, pileup)
}
