package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testWindow() (open, close time.Time) {
	open = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	close = open.Add(16 * time.Hour)
	return open, close
}

func TestNormalizer_FullExposureIsNeutral(t *testing.T) {
	open, close := testWindow()
	nr := NewNormalizer(DefaultTimeBonus)

	factor := nr.Factor(open, close, open, close)
	assert.InDelta(t, 1.0, factor, 1e-12)
}

func TestNormalizer_LastInstantGetsFullBonus(t *testing.T) {
	open, close := testWindow()
	nr := NewNormalizer(DefaultTimeBonus)

	factor := nr.Factor(close, close, open, close)
	assert.InDelta(t, 1.0+DefaultTimeBonus, factor, 1e-12)
}

func TestNormalizer_MidWindowGetsHalfBonus(t *testing.T) {
	open, close := testWindow()
	nr := NewNormalizer(0.2)

	mid := open.Add(8 * time.Hour)
	factor := nr.Factor(mid, close, open, close)
	assert.InDelta(t, 1.1, factor, 1e-12)
}

func TestNormalizer_MonotonicInExposure(t *testing.T) {
	// Longer exposure never yields a larger factor.
	open, close := testWindow()
	nr := NewNormalizer(DefaultTimeBonus)

	prev := nr.Factor(close, close, open, close)
	for created := close.Add(-time.Hour); !created.Before(open); created = created.Add(-time.Hour) {
		factor := nr.Factor(created, close, open, close)
		assert.LessOrEqual(t, factor, prev, "created=%v", created)
		prev = factor
	}
}

func TestNormalizer_EqualExposureEqualFactor(t *testing.T) {
	open, close := testWindow()
	nr := NewNormalizer(DefaultTimeBonus)

	created := open.Add(3 * time.Hour)
	a := nr.Factor(created, close, open, close)
	b := nr.Factor(created, close, open, close)
	assert.Equal(t, a, b)
}

func TestNormalizer_ClampsOutsideWindow(t *testing.T) {
	open, close := testWindow()
	nr := NewNormalizer(DefaultTimeBonus)

	// Created before open, evaluated after close: exposure clamps to the
	// window length, yielding the neutral factor.
	before := open.Add(-2 * time.Hour)
	after := close.Add(3 * time.Hour)
	assert.InDelta(t, 1.0, nr.Factor(before, after, open, close), 1e-12)

	// Evaluated before creation clamps to zero exposure.
	assert.InDelta(t, 1.0+DefaultTimeBonus, nr.Factor(close, open, open, close), 1e-12)
}

func TestNormalizer_DegenerateWindowIsNeutral(t *testing.T) {
	open, _ := testWindow()
	nr := NewNormalizer(DefaultTimeBonus)

	assert.Equal(t, 1.0, nr.Factor(open, open, open, open))
	assert.Equal(t, 1.0, nr.Factor(open, open, open, open.Add(-time.Hour)))
}

func TestNormalizer_ZeroGammaDisablesBonus(t *testing.T) {
	open, close := testWindow()
	nr := NewNormalizer(0)

	assert.Equal(t, 1.0, nr.Factor(close, close, open, close))
	assert.Equal(t, 1.0, nr.Factor(open, close, open, close))
}
