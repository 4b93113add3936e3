package breakend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/varcall/genome"
)

func TestGroupAddAndFinalizeOrdersByLocusThenID(t *testing.T) {
	g := &Group{}
	g.Add(Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 500}, ID: "b"})
	g.Add(Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 100}, ID: "a"})
	g.Add(Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 100}, ID: "z"})

	members, ok := g.Finalize()
	require.True(t, ok)
	require.Len(t, members, 3)
	assert.Equal(t, genome.PosType(100), members[0].Locus.Pos)
	assert.Equal(t, "a", members[0].ID)
	assert.Equal(t, "z", members[1].ID)
	assert.Equal(t, genome.PosType(500), members[2].Locus.Pos)
}

func TestGroupFinalizeIsExactlyOnce(t *testing.T) {
	g := &Group{}
	g.Add(Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 1}, ID: "a"})
	_, ok := g.Finalize()
	require.True(t, ok)
	_, ok = g.Finalize()
	assert.False(t, ok)
}

func TestGroupInvalidateBlocksFinalize(t *testing.T) {
	g := &Group{}
	g.Add(Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 1}, ID: "a"})
	g.Invalidate()
	assert.False(t, g.Add(Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 2}, ID: "b"}))
	_, ok := g.Finalize()
	assert.False(t, ok)
}

func TestTableFinalizeAndRemoveExactlyOnce(t *testing.T) {
	table := NewTable()
	table.Add("event1", Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 1}, ID: "a"})
	table.Add("event1", Breakend{Locus: genome.Locus{Contig: "chr1", Pos: 2}, ID: "b"})

	members, ok := table.FinalizeAndRemove("event1")
	require.True(t, ok)
	assert.Len(t, members, 2)

	_, ok = table.FinalizeAndRemove("event1")
	assert.False(t, ok)
}

func TestTableUnknownEventFinalizeFails(t *testing.T) {
	table := NewTable()
	_, ok := table.FinalizeAndRemove("nonexistent")
	assert.False(t, ok)
}
