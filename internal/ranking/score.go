// Package ranking implements the bias-corrected scoring and candidate
// assembly for theme leaderboards.
//
// Scores estimate a work's true engagement rate in [0,1] rather than its raw
// like count, so a work with one early like cannot dominate works with a
// larger audience. Two interchangeable strategies are provided: a Wilson
// confidence-interval lower bound and a Bayesian shrinkage average.
package ranking

import (
	"fmt"
	"math"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

const (
	// DefaultZ is the confidence z-score for the Wilson lower bound (95%).
	DefaultZ = 1.96
	// DefaultPriorMean is the assumed population-average engagement rate.
	DefaultPriorMean = 0.05
	// DefaultPriorWeight is the pseudo-sample-size of the prior.
	DefaultPriorWeight = 50.0
)

// Strategy selects the fairness scoring algorithm.
type Strategy string

const (
	StrategyWilson   Strategy = "wilson"
	StrategyBayesian Strategy = "bayesian"
)

// ParseStrategy validates a strategy name from config.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyWilson, StrategyBayesian:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown ranking strategy %q", s)
	}
}

// WilsonLowerBound computes the lower bound of the Wilson score confidence
// interval for k successes in n trials at the default 95% confidence.
// Returns 0 when n <= 0. The result is always in [0,1].
func WilsonLowerBound(k, n int) float64 {
	return WilsonLowerBoundZ(k, n, DefaultZ)
}

// WilsonLowerBoundZ is WilsonLowerBound with an explicit z-score.
func WilsonLowerBoundZ(k, n int, z float64) float64 {
	if n <= 0 {
		return 0
	}
	k = clampTrials(k, n)
	nf := float64(n)
	phat := float64(k) / nf
	score := (phat + z*z/(2*nf) - z*math.Sqrt((phat*(1-phat)+z*z/(4*nf))/nf)) / (1 + z*z/nf)
	return clamp01(score)
}

// BayesianAverage blends the observed rate k/n toward the population prior,
// weighted by the prior's pseudo-sample-size. When n == 0 the score collapses
// exactly to the prior mean; as n grows it converges to k/n.
func BayesianAverage(k, n int) float64 {
	return BayesianAverageWith(k, n, DefaultPriorMean, DefaultPriorWeight)
}

// BayesianAverageWith is BayesianAverage with explicit prior parameters.
func BayesianAverageWith(k, n int, priorMean, priorWeight float64) float64 {
	if n <= 0 {
		// No trials means no evidence; the score is the prior itself no
		// matter what the like counter claims.
		return clamp01(priorMean)
	}
	k = clampTrials(k, n)
	score := (priorWeight*priorMean + float64(k)) / (priorWeight + float64(n))
	return clamp01(score)
}

// TrialCount derives the trial/exposure proxy n from live metrics. Likes act
// as a floor so missing impression or viewer data never produces a zero
// denominator.
func TrialCount(m domain.LiveMetrics) int {
	n := m.Likes
	if n < 1 {
		n = 1
	}
	if m.Impressions > n {
		n = m.Impressions
	}
	if m.UniqueViewers > n {
		n = m.UniqueViewers
	}
	return int(n)
}

// Scorer computes fairness scores under a configured strategy.
type Scorer struct {
	strategy    Strategy
	z           float64
	priorMean   float64
	priorWeight float64
}

// NewScorer creates a scorer. Zero-valued tuning parameters fall back to the
// package defaults.
func NewScorer(strategy Strategy, z, priorMean, priorWeight float64) *Scorer {
	if z == 0 {
		z = DefaultZ
	}
	if priorMean == 0 {
		priorMean = DefaultPriorMean
	}
	if priorWeight == 0 {
		priorWeight = DefaultPriorWeight
	}
	return &Scorer{strategy: strategy, z: z, priorMean: priorMean, priorWeight: priorWeight}
}

// Score returns the fairness score for k likes over n trials.
func (s *Scorer) Score(k, n int) float64 {
	switch s.strategy {
	case StrategyBayesian:
		return BayesianAverageWith(k, n, s.priorMean, s.priorWeight)
	default:
		return WilsonLowerBoundZ(k, n, s.z)
	}
}

// clampTrials forces k into [0, n]. Live counters are at-least-once and can
// drift negative (replayed unlikes, TTL-expired keys recreated at zero) or
// past the trial proxy; a rate outside [0,1] would make the Wilson square
// root go NaN.
func clampTrials(k, n int) int {
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
