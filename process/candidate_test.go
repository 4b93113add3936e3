package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/varcall/variant"
)

func TestDecodeSNV(t *testing.T) {
	rec := &CandidateRecord{Contig: "chr1", Pos: 100, Ref: "A", Alt: []string{"C"}}
	dvs := Decode(rec)
	require.Len(t, dvs, 1)
	assert.Equal(t, variant.KindSNV, dvs[0].Variant.Kind)
	assert.Equal(t, byte('C'), dvs[0].Variant.AltBase)
	assert.Equal(t, int32(100), int32(dvs[0].Locus.Start))
}

func TestDecodeDeletion(t *testing.T) {
	rec := &CandidateRecord{Contig: "chr1", Pos: 100, Ref: "ACGT", Alt: []string{"A"}}
	dvs := Decode(rec)
	require.Len(t, dvs, 1)
	assert.Equal(t, variant.KindDeletion, dvs[0].Variant.Kind)
	assert.Equal(t, int32(3), dvs[0].Variant.Len)
}

func TestDecodeInsertion(t *testing.T) {
	rec := &CandidateRecord{Contig: "chr1", Pos: 100, Ref: "A", Alt: []string{"ACGT"}}
	dvs := Decode(rec)
	require.Len(t, dvs, 1)
	assert.Equal(t, variant.KindInsertion, dvs[0].Variant.Kind)
	assert.Equal(t, []byte("CGT"), dvs[0].Variant.InsertSeq)
}

func TestDecodeBreakend(t *testing.T) {
	rec := &CandidateRecord{
		Contig: "chr1", Pos: 198982, Ref: "G", Alt: []string{"G]17:198983]"}, ID: "bnd1",
		Info: map[string]string{"EVENT": "event1", "MATEID": "bnd2"},
	}
	dvs := Decode(rec)
	require.Len(t, dvs, 1)
	assert.Equal(t, variant.KindBreakend, dvs[0].Variant.Kind)
	assert.Equal(t, "event1", dvs[0].Variant.BreakendEventID)
	assert.Equal(t, "bnd2", dvs[0].Variant.BreakendMateID)
}

func TestDecodeSymbolicDeletion(t *testing.T) {
	rec := &CandidateRecord{
		Contig: "chr1", Pos: 100, Ref: "A", Alt: []string{"<DEL>"},
		Info: map[string]string{"SVLEN": "-500"},
	}
	dvs := Decode(rec)
	require.Len(t, dvs, 1)
	assert.Equal(t, variant.KindDeletion, dvs[0].Variant.Kind)
	assert.Equal(t, int32(500), dvs[0].Variant.Len)
}

func TestDecodeMultiAllelicSkipsInvalidKeepsValid(t *testing.T) {
	rec := &CandidateRecord{Contig: "chr1", Pos: 100, Ref: "A", Alt: []string{"C", "<FOO>", "G"}}
	dvs := Decode(rec)
	require.Len(t, dvs, 2)
	assert.Equal(t, byte('C'), dvs[0].Variant.AltBase)
	assert.Equal(t, byte('G'), dvs[1].Variant.AltBase)
}
