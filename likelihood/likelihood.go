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

// Package likelihood implements the two closed-form pileup likelihoods
// of two models: a single-sample model, and a contaminated case/control
// model parameterized by an explicit tumor/normal purity.
package likelihood

import (
	"fmt"

	"github.com/grailbio/varcall/logprob"
	"github.com/grailbio/varcall/observation"
)

// SingleSample returns L(af | pileup) for the single-sample model
//, as a sum of per-observation log-likelihoods.
func SingleSample(af logprob.LogProb, pileup observation.Pileup) logprob.LogProb {
	total := logprob.LnOne
	for _, obs := range pileup {
		total += singleSampleObservation(af, obs)
	}
	return total
}

func singleSampleObservation(af logprob.LogProb, obs observation.Observation) logprob.LogProb {
	probSampleAlt := af + obs.ProbSampleAlt
	probCase := logprob.LnAddExp(
		probSampleAlt+obs.ProbAlt,
		logprob.LnOneMinusExp(probSampleAlt)+obs.ProbRef,
	)
	return logprob.LnAddExp(obs.ProbMapping+probCase, obs.ProbMismapping())
}

// Contaminated is the case/control pileup likelihood parameterized by an
// explicit contamination purity. purity is the fraction of
// case-sample reads that genuinely originate from the case; the rest are
// modeled as drawn from the control sample at afControl.
type Contaminated struct {
	Purity   float64
	impurity logprob.LogProb
	purity   logprob.LogProb
}

// NewContaminated validates purity and returns a ready-to-use model.
// purity must be in (0, 1]; values outside that range are a
// construction-time error rather than a silent clamp
// Supplemented Features, following original_source's guard).
func NewContaminated(purity float64) (Contaminated, error) {
	if purity <= 0 || purity > 1 {
		return Contaminated{}, fmt.Errorf("likelihood: purity must be in (0, 1], got %v", purity)
	}
	c := Contaminated{Purity: purity, purity: logprob.FromProb(purity)}
	if purity == 1 {
		c.impurity = logprob.LnZero
	} else {
		c.impurity = logprob.FromProb(1 - purity)
	}
	return c, nil
}

// Likelihood returns L(afCase, afControl | pileup) for the contaminated
// model. At purity == 1.0 this collapses to SingleSample at
// afCase on the same pileup, since impurity
// becomes LnZero and the prob_control term vanishes from every lse.
func (c Contaminated) Likelihood(afCase, afControl logprob.LogProb, pileup observation.Pileup) logprob.LogProb {
	total := logprob.LnOne
	for _, obs := range pileup {
		total += c.observation(afCase, afControl, obs)
	}
	return total
}

func (c Contaminated) observation(afCase, afControl logprob.LogProb, obs observation.Observation) logprob.LogProb {
	probCase := c.purity + logprob.LnAddExp(
		afCase+obs.ProbSampleAlt+obs.ProbAlt,
		logprob.LnOneMinusExp(afCase+obs.ProbSampleAlt)+obs.ProbRef,
	)
	if c.impurity == logprob.LnZero {
		return logprob.LnAddExp(obs.ProbMapping+probCase, obs.ProbMismapping())
	}
	probControl := c.impurity + logprob.LnAddExp(
		afControl+obs.ProbSampleAlt+obs.ProbAlt,
		logprob.LnOneMinusExp(afControl+obs.ProbSampleAlt)+obs.ProbRef,
	)
	combined := logprob.LnAddExp(probControl, probCase)
	return logprob.LnAddExp(obs.ProbMapping+combined, obs.ProbMismapping())
}
