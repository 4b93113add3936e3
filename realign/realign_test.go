package realign

import (
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/logprob"
	"github.com/grailbio/varcall/refbuffer"
	"github.com/grailbio/varcall/variant"
)

// fixedFasta is a trivial in-memory fasta.Fasta used to back a
// ReferenceBuffer in tests without touching the filesystem.
type fixedFasta struct {
	seq string
}

func (f fixedFasta) Get(seqName string, start, end uint64) (string, error) {
	return f.seq[start:end], nil
}
func (f fixedFasta) Len(seqName string) (uint64, error) { return uint64(len(f.seq)), nil }
func (f fixedFasta) SeqNames() []string                 { return []string{"chr1"} }

func newTestRef(seq string) *refbuffer.ReferenceBuffer {
	return refbuffer.New(fixedFasta{seq: seq})
}

func makeRecord(t *testing.T, refObj *sam.Reference, pos int, bases string, cigarOps []sam.CigarOp) *sam.Record {
	t.Helper()
	quals := make([]byte, len(bases))
	for i := range quals {
		quals[i] = 40
	}
	rec, err := sam.NewRecord("read1", refObj, nil, pos, -1, 0, 60, cigarOps, []byte(bases), quals, nil)
	require.NoError(t, err)
	return rec
}

func TestAlleleSupportSNVPerfectAltMatch(t *testing.T) {
	refSeq := strings.Repeat("A", 101)
	ref := newTestRef(refSeq)
	refObj, err := sam.NewReference("chr1", "", "", len(refSeq), "", "")
	require.NoError(t, err)

	bases := strings.Repeat("A", 50) + "C" + strings.Repeat("A", 9)
	rec := makeRecord(t, refObj, 0, bases, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(bases))})

	r := New(ref, 10)
	v := variant.NewSNV('C')
	loci := []genome.SingleLocus{{Interval: genome.Interval{Contig: "chr1", Start: 50, End: 51}}}

	support, err := r.AlleleSupport(rec, loci, v)
	require.NoError(t, err)
	assert.Greater(t, support.ProbAltAllele, support.ProbRefAllele)
	assert.LessOrEqual(t, float64(support.ProbAltAllele), 1e-9)
}

func TestAlleleSupportNonOverlapping(t *testing.T) {
	refSeq := strings.Repeat("A", 200)
	ref := newTestRef(refSeq)
	refObj, err := sam.NewReference("chr1", "", "", len(refSeq), "", "")
	require.NoError(t, err)

	bases := strings.Repeat("A", 30)
	rec := makeRecord(t, refObj, 0, bases, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(bases))})

	r := New(ref, 10)
	v := variant.NewSNV('C')
	loci := []genome.SingleLocus{{Interval: genome.Interval{Contig: "chr1", Start: 150, End: 151}}}

	support, err := r.AlleleSupport(rec, loci, v)
	require.NoError(t, err)
	assert.Nil(t, support.Strand)
	assert.InDelta(t, float64(logprob.FromProb(0.5)), float64(support.ProbRefAllele), 1e-9)
	assert.InDelta(t, float64(logprob.FromProb(0.5)), float64(support.ProbAltAllele), 1e-9)
}
