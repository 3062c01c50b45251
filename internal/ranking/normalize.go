package ranking

import "time"

// DefaultTimeBonus is the default gamma for the time-normalization factor.
const DefaultTimeBonus = 0.15

// Normalizer compensates for the exposure-time advantage of early
// submissions. Works submitted earlier in the window have had longer to
// accumulate impressions and likes; their trial count n is inflated relative
// to late submissions with the same underlying quality.
//
// The factor is a linear bonus over the unexposed fraction of the window:
//
//	elapsed  = clamp(evalAt - createdAt, 0, windowLen)
//	fraction = elapsed / windowLen
//	factor   = 1 + gamma*(1 - fraction)
//
// A work submitted at window open evaluated at close gets factor 1; a work
// submitted at the last instant gets 1+gamma. The factor is monotonic
// non-increasing in elapsed exposure, and works with equal exposure always
// receive equal factors, so it can never invert an equal-time ordering.
// It is applied at read/finalize time only; stored counters stay raw, so
// changing gamma requires no backfill.
type Normalizer struct {
	Gamma float64
}

// NewNormalizer creates a normalizer with the given bonus gamma.
func NewNormalizer(gamma float64) Normalizer {
	return Normalizer{Gamma: gamma}
}

// Factor returns the multiplier for a work created at createdAt, evaluated at
// evalAt, within the submission window [open, close). Degenerate windows
// yield a neutral factor.
func (nr Normalizer) Factor(createdAt, evalAt, open, close time.Time) float64 {
	windowLen := close.Sub(open)
	if windowLen <= 0 {
		return 1
	}

	elapsed := evalAt.Sub(createdAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > windowLen {
		elapsed = windowLen
	}

	fraction := float64(elapsed) / float64(windowLen)
	return 1 + nr.Gamma*(1-fraction)
}
