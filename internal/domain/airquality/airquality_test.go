package airquality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/respiguard/backend/pkg/errors"
)

func TestComputeBreakpoints(t *testing.T) {
	cases := []struct {
		name string
		pm25 float64
		want int
	}{
		{"zero", 0, 0},
		{"mid good", 15, 25},
		{"good upper bound", 30, 50},
		{"satisfactory lower edge", 30.6, 52},
		{"satisfactory upper bound", 60, 100},
		{"moderate reference", 75.4, 152},
		{"moderate upper bound", 90, 200},
		{"poor upper bound", 120, 300},
		{"very poor upper bound", 250, 400},
		{"severe extrapolation", 260.9, 411},
		{"severe far out", 500, 651},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := Compute(tc.pm25)
			require.NoError(t, err)
			require.Equal(t, tc.want, idx.Value)
			require.Equal(t, tc.pm25, idx.PM25)
		})
	}
}

func TestComputeMonotonic(t *testing.T) {
	prev := -1
	for c := 0.0; c <= 400; c += 0.25 {
		idx, err := Compute(c)
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx.Value, prev, "index must not decrease at pm2.5=%v", c)
		prev = idx.Value
	}
}

func TestComputeBoundaryContinuity(t *testing.T) {
	// At each shared concentration the lower segment's value and the upper
	// segment's value must be equal or adjacent (the CPCB bands step by one
	// index point between segments).
	for i := 0; i < len(breakpoints)-1; i++ {
		lower, upper := breakpoints[i], breakpoints[i+1]
		boundary := lower.hiC
		require.Equal(t, boundary, upper.loC)

		fromLower, err := Compute(boundary)
		require.NoError(t, err)
		fromUpper := int(math.Round(upper.loI)) // upper formula collapses to loI at its own lower bound

		diff := fromUpper - fromLower.Value
		require.GreaterOrEqual(t, diff, 0, "boundary %v", boundary)
		require.LessOrEqual(t, diff, 1, "boundary %v", boundary)
	}
}

func TestComputeInvalidMeasurement(t *testing.T) {
	for _, pm25 := range []float64{-0.1, -50, math.NaN(), math.Inf(1)} {
		_, err := Compute(pm25)
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, "invalid_measurement"))
	}
}

func TestCategoryForCoversAllBands(t *testing.T) {
	cases := []struct {
		index int
		want  Category
	}{
		{0, CategoryGood},
		{50, CategoryGood},
		{51, CategorySatisfactory},
		{100, CategorySatisfactory},
		{101, CategoryModerate},
		{200, CategoryModerate},
		{201, CategoryPoor},
		{300, CategoryPoor},
		{301, CategoryVeryPoor},
		{400, CategoryVeryPoor},
		{401, CategorySevere},
		{1000, CategorySevere},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CategoryFor(tc.index), "index %d", tc.index)
	}
}

func TestComputeEndToEndScenario(t *testing.T) {
	idx, err := Compute(75.4)
	require.NoError(t, err)
	require.Equal(t, 152, idx.Value)
	require.Equal(t, CategoryModerate, idx.Category)
}
