package editdist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcBestHitExactMatch(t *testing.T) {
	hit := CalcBestHit([]byte("ACGT"), []byte("TTTTACGTTTTT"))
	assert.Equal(t, 0, hit.Dist)
	assert.Contains(t, hit.Positions, 8)
}

func TestCalcBestHitCaseInsensitive(t *testing.T) {
	hit := CalcBestHit([]byte("acgt"), []byte("TTTTACGTTTTT"))
	assert.Equal(t, 0, hit.Dist)
}

func TestCalcBestHitMismatch(t *testing.T) {
	hit := CalcBestHit([]byte("ACGT"), []byte("ACCT"))
	assert.Equal(t, 1, hit.Dist)
	assert.Equal(t, hit.Dist+Slack, hit.DistUpperBound)
}

func TestCalcBestHitTiedPositions(t *testing.T) {
	hit := CalcBestHit([]byte("AA"), []byte("AAXAA"))
	assert.Equal(t, 0, hit.Dist)
	assert.GreaterOrEqual(t, len(hit.Positions), 2)
}
