package fasta_test

import (
	"bytes"
	"flag"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/varcall/encoding/fasta"
)

var fastaData string
var fastaIndex string

func init() {
	fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"
	fastaIndex = "seq1\t12\t6\t5\t6\n" + "seq2\t8\t44\t4\t5\n"
}

func TestGet(t *testing.T) {
	tests := []struct {
		seq     string
		start   uint64
		end     uint64
		want    string
		wantErr bool
	}{
		{"seq1", 1, 2, "C", false},
		{"seq1", 1, 6, "CGTAC", false},
		{"seq1", 0, 12, "ACGTACGTACGT", false},
		{"seq1", 10, 12, "GT", false},
		{"seq2", 0, 8, "ACGTACGT", false},
		{"seq2", 2, 5, "GTA", false},
		{"seq0", 0, 1, "", true},
		{"seq1", 10, 13, "", true},
		{"seq1", 4, 3, "", true},
	}
	unindexed, err := fasta.New(strings.NewReader(fastaData))
	require.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader(fastaIndex))
	require.NoError(t, err)

	for _, tt := range tests {
		got, err := unindexed.Get(tt.seq, tt.start, tt.end)
		assert.Equal(t, tt.wantErr, err != nil)
		assert.Equal(t, tt.want, got)

		got, err = indexed.Get(tt.seq, tt.start, tt.end)
		assert.Equal(t, tt.wantErr, err != nil)
		assert.Equal(t, tt.want, got)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		seq     string
		want    uint64
		wantErr bool
	}{
		{"seq1", 12, false},
		{"seq2", 8, false},
		{"seq0", 0, true},
	}
	unindexed, err := fasta.New(strings.NewReader(fastaData))
	require.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader(fastaIndex))
	require.NoError(t, err)

	for _, tt := range tests {
		got, err := unindexed.Len(tt.seq)
		assert.Equal(t, tt.wantErr, err != nil)
		assert.Equal(t, tt.want, got)

		got, err = indexed.Len(tt.seq)
		assert.Equal(t, tt.wantErr, err != nil)
		assert.Equal(t, tt.want, got)
	}
}

func TestSeqNames(t *testing.T) {
	unindexed, err := fasta.New(strings.NewReader(fastaData))
	require.NoError(t, err)
	indexed, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader(fastaIndex))
	require.NoError(t, err)

	want := sort.StringSlice([]string{"seq1", "seq2"})
	want.Sort()

	got := sort.StringSlice(unindexed.SeqNames())
	got.Sort()
	assert.Equal(t, want, got)

	got = sort.StringSlice(indexed.SeqNames())
	got.Sort()
	assert.Equal(t, want, got)
}

func TestGenerateIndex(t *testing.T) {
	generateIndex := func(fa string) string {
		idx := bytes.Buffer{}
		require.NoError(t, fasta.GenerateIndex(&idx, strings.NewReader(fa)))
		return idx.String()
	}

	fa := `>E0
GGTGAAATC
CCTGAAATC
AAAATTGCT
>E1
GTCCCTCCCCAGACATGGCCCTGGGAGGC
>E2
CCGCGCCCGCGCCCCCGCCGCC
>E3
GTCAAGGTTGCACAG
>E4
ATGAATCATGTGGTAAAA
`
	fai := generateIndex(fa)
	assert.Equal(t, `E0	27	4	9	10
E1	29	38	29	30
E2	22	72	22	23
E3	15	99	15	16
E4	18	119	18	19
`, fai)

	// Read using the generated index.
	indexed, err := fasta.NewIndexed(strings.NewReader(fa), strings.NewReader(fai))
	require.NoError(t, err)
	l, err := indexed.Len("E3")
	require.NoError(t, err)
	assert.Equal(t, uint64(15), l)
	seq, err := indexed.Get("E3", 0, l)
	require.NoError(t, err)
	assert.Equal(t, "GTCAAGGTTGCACAG", seq)

	// MS-DOS newline encoding.
	assert.Equal(t, `E0	4	5	4	6
E1	5	16	5	7
`, generateIndex(">E0\r\nGGGG\r\n>E1\r\nAAAAA\r\n"))

	// No newline at the end.
	assert.Equal(t, `E0	4	4	4	5
E1	10	13	5	6
`, generateIndex(">E0\nGGGG\n>E1\nCCCCC\nAAAAA"))
	// Note: samtools faidx emits "5 13 5 6" for E1, but "5 13 5 5" is correct
	// for a final line shorter than the sequence's usual line width.
	assert.Equal(t, `E0	4	4	4	5
E1	5	13	5	5
`, generateIndex(">E0\nGGGG\n>E1\nAAAAA"))

	idx := bytes.Buffer{}
	err = fasta.GenerateIndex(&idx, strings.NewReader(""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty FASTA")
}

var (
	pathFlag    = flag.String("path", "", "FASTA file used by benchmarks")
	idxPathFlag = flag.String("index-path", "", "FASTA index file used by benchmarks")
	shuffleFlag = flag.Bool("shuffle", false, "Read sequences in random order")
)

func BenchmarkRead(b *testing.B) {
	if *pathFlag == "" {
		b.Skip("--path not set")
	}
	for i := 0; i < b.N; i++ {
		ctx := vcontext.Background()
		in, err := file.Open(ctx, *pathFlag)
		require.NoError(b, err)

		var (
			fin   fasta.Fasta
			idxIn file.File
		)
		if *idxPathFlag != "" {
			idxIn, err = file.Open(ctx, *idxPathFlag)
			require.NoError(b, err)
			fin, err = fasta.NewIndexed(in.Reader(ctx), idxIn.Reader(ctx))
			require.NoError(b, err)
		} else {
			fin, err = fasta.New(in.Reader(ctx))
			require.NoError(b, err)
		}
		seqNames := append([]string{}, fin.SeqNames()...)
		if *shuffleFlag {
			rand.Shuffle(len(seqNames), func(i, j int) {
				seqNames[i], seqNames[j] = seqNames[j], seqNames[i]
			})
		}
		for _, seq := range seqNames {
			n, err := fin.Len(seq)
			require.NoError(b, err)
			_, err = fin.Get(seq, 0, n)
			require.NoError(b, err)
		}
		if idxIn != nil {
			require.NoError(b, idxIn.Close(ctx))
		}
		require.NoError(b, in.Close(ctx))
	}
}
