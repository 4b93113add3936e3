package pairhmm

import (
	"math"

	"github.com/grailbio/varcall/logprob"
)

// ReadEmission wraps one read window's bases and Phred-scaled base
// qualities, computing certainty-adjusted match/mismatch probabilities
// that are independent of which template (reference or alt) is being
// scored against. One ReadEmission is built per read window and reused
// for every candidate template in that window.
type ReadEmission struct {
	Bases []byte
	Quals []byte // Phred-scaled, as stored on the read (not ASCII-offset)
}

// errorProb returns the Phred-implied probability that Bases[i] is wrong.
func (re *ReadEmission) errorProb(i int) float64 {
	q := float64(re.Quals[i])
	if q > 60 {
		q = 60
	}
	return math.Pow(10, -q/10)
}

// matchLogProb returns ln P(readBase correctly observed as Bases[i] |
// templateBase), i.e. ln(1-err) if the bases agree (ignoring case), or
// ln(err/3) if they disagree (the standard uniform-substitution model).
func (re *ReadEmission) matchLogProb(i int, templateBase byte) logprob.LogProb {
	err := re.errorProb(i)
	if upper(re.Bases[i]) == upper(templateBase) {
		return logprob.FromProb(1 - err)
	}
	return logprob.FromProb(err / 3)
}

// CertaintyEst returns the read's intrinsic per-base certainty that its
// own bases are correctly called, with no reference to any template: the
// product, in log space, of (1 - error) over every base in the window.
// Used by the Realigner when the edit-distance prefilter finds a perfect
// (distance-0) hit, skipping the HMM entirely.
func (re *ReadEmission) CertaintyEst() logprob.LogProb {
	total := logprob.LnOne
	for i := range re.Bases {
		total += logprob.FromProb(1 - re.errorProb(i))
	}
	return total
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// TemplateEmission is the EmissionParams implementation used for both the
// reference and every alt template: it's simply a ReadEmission paired with
// one candidate byte template.
type TemplateEmission struct {
	Read     *ReadEmission
	Template []byte
}

func (t *TemplateEmission) TemplateLen() int { return len(t.Template) }
func (t *TemplateEmission) ReadLen() int     { return len(t.Read.Bases) }

func (t *TemplateEmission) MatchLogProb(readPos, templatePos int) logprob.LogProb {
	return t.Read.matchLogProb(readPos, t.Template[templatePos])
}
