package airquality

import (
	"math"

	apperrors "github.com/respiguard/backend/pkg/errors"
)

// Reading is one raw pollutant measurement taken from the live feed.
type Reading struct {
	// PM25 is the PM2.5 concentration in µg/m³.
	PM25 float64 `json:"pm2_5"`
	// SourceIndex is the upstream provider's own 1-5 scale, kept for display only.
	SourceIndex int `json:"source_index"`
}

// Category is the official CPCB label for an index value.
type Category string

const (
	CategoryGood         Category = "Good"
	CategorySatisfactory Category = "Satisfactory"
	CategoryModerate     Category = "Moderate"
	CategoryPoor         Category = "Poor"
	CategoryVeryPoor     Category = "Very Poor"
	CategorySevere       Category = "Severe"
)

// Index is the normalized Indian NAQI value derived from a Reading.
type Index struct {
	PM25     float64  `json:"pm2_5"`
	Value    int      `json:"indian_aqi"`
	Category Category `json:"category"`
}

// breakpoint is one CPCB interpolation segment.
type breakpoint struct {
	loC, hiC float64
	loI, hiI float64
}

// CPCB PM2.5 breakpoints. The table ends at 250 µg/m³; anything above is
// handled by a rough linear extrapolation rather than the official severe
// band, matching the upstream product behavior.
var breakpoints = []breakpoint{
	{0, 30, 0, 50},
	{30, 60, 51, 100},
	{60, 90, 101, 200},
	{90, 120, 201, 300},
	{120, 250, 301, 400},
}

// Compute converts a PM2.5 concentration into the Indian NAQI.
// Negative or non-finite concentrations are contract violations.
func Compute(pm25 float64) (Index, error) {
	if math.IsNaN(pm25) || math.IsInf(pm25, 0) {
		return Index{}, apperrors.Wrap("invalid_measurement", "pm2.5 concentration must be a finite number", nil)
	}
	if pm25 < 0 {
		return Index{}, apperrors.Wrap("invalid_measurement", "pm2.5 concentration cannot be negative", nil)
	}

	value := indexValue(pm25)
	return Index{
		PM25:     pm25,
		Value:    value,
		Category: CategoryFor(value),
	}, nil
}

func indexValue(c float64) int {
	for _, bp := range breakpoints {
		if c <= bp.hiC {
			return int(math.Round(bp.loI + (bp.hiI-bp.loI)/(bp.hiC-bp.loC)*(c-bp.loC)))
		}
	}
	// >250 µg/m³: 401 plus the trunc'd excess concentration.
	return 401 + int(math.Trunc(c-250))
}

// CategoryFor maps an index value to its CPCB category label.
// Upper bounds are inclusive.
func CategoryFor(index int) Category {
	switch {
	case index <= 50:
		return CategoryGood
	case index <= 100:
		return CategorySatisfactory
	case index <= 200:
		return CategoryModerate
	case index <= 300:
		return CategoryPoor
	case index <= 400:
		return CategoryVeryPoor
	default:
		return CategorySevere
	}
}
