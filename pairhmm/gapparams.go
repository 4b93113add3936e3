package pairhmm

import "github.com/grailbio/varcall/logprob"

// DefaultGapParams returns the conventional affine gap-cost parameters
// used when the caller (Realigner) has no sample-specific estimate:
// gap-open probability 1e-4, gap-extend probability 0.25, identical for
// insertions and deletions.
func DefaultGapParams() GapParams {
	open := logprob.FromProb(1e-4)
	extend := logprob.FromProb(0.25)
	return GapParams{
		ProbInsertOpen:   open,
		ProbInsertExtend: extend,
		ProbDeleteOpen:   open,
		ProbDeleteExtend: extend,
	}
}
