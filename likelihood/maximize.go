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

package likelihood

import (
	"gonum.org/v1/gonum/floats"

	"github.com/grailbio/varcall/logprob"
	"github.com/grailbio/varcall/observation"
)

// AFGrid is the default allele-frequency grid used by MaximizeSingleSample
// (a balanced pileup's likelihood is maximized at AF=0.5 on this grid).
var AFGrid = []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// MaximizeSingleSample evaluates SingleSample at every allele frequency in
// grid and returns the maximizing AF along with its likelihood. grid need
// not be sorted. Uses gonum/floats to locate the argmax over the evaluated
// likelihoods.
func MaximizeSingleSample(grid []float64, pileup observation.Pileup) (bestAF float64, bestLL logprob.LogProb) {
	lls := make([]float64, len(grid))
	for i, af := range grid {
		lls[i] = float64(SingleSample(logprob.FromProb(af), pileup))
	}
	idx := floats.MaxIdx(lls)
	return grid[idx], logprob.LogProb(lls[idx])
}
