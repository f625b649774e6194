// Package priority ranks cleanup locations by environmental urgency.
//
// The priority score is a weighted sum used only for relative ordering. It is
// deliberately not clamped after weighting, so the strongest locations can
// score slightly above 100. The tier label is computed from AQI alone and is
// what poll generation and area alerts key off.
package priority

import (
	"math"

	"ecodrive-backend/models"
)

const (
	// UnknownDaysSinceCleanup stands in for a location that was never cleaned
	UnknownDaysSinceCleanup = 999

	// DefaultAQI is used for scoring when a location has no AQI reading
	DefaultAQI = 100

	weightAQI     = 0.30
	weightGarbage = 0.30
	weightRecency = 0.25
	weightPlants  = 0.15

	maxAQIScore     = 200
	maxRecencyScore = 100
	plantTarget     = 30

	lowTierMaxAQI    = 120
	mediumTierMaxAQI = 155
)

// Result is the derived priority of one location
type Result struct {
	Location         models.Location
	PriorityScore    int
	Tier             models.Tier
	DaysSinceCleanup *int // nil when the location has no completed drive
}

// Score computes the priority of a location given the days since its last
// completed cleanup. Pass UnknownDaysSinceCleanup for never-cleaned locations.
func Score(loc models.Location, daysSinceCleanup int) Result {
	aqi := float64(DefaultAQI)
	if loc.AQI != nil && !math.IsNaN(*loc.AQI) {
		aqi = *loc.AQI
	}

	aqiScore := clamp(aqi, 0, maxAQIScore)
	garbageScore := float64(GarbageWeight(loc.GarbageLevel) * 20)
	recencyScore := clamp(float64(daysSinceCleanup)*2, 0, maxRecencyScore)
	plantScore := clamp(float64(plantTarget-loc.PlantCount), 0, plantTarget)

	score := aqiScore*weightAQI +
		garbageScore*weightGarbage +
		recencyScore*weightRecency +
		plantScore*weightPlants

	res := Result{
		Location:      loc,
		PriorityScore: int(math.Round(score)),
		Tier:          ClassifyAQI(loc.AQI),
	}
	if daysSinceCleanup != UnknownDaysSinceCleanup {
		d := daysSinceCleanup
		res.DaysSinceCleanup = &d
	}
	return res
}

// ClassifyAQI maps an AQI reading to its tier. A missing reading is Medium.
func ClassifyAQI(aqi *float64) models.Tier {
	if aqi == nil || math.IsNaN(*aqi) {
		return models.TierMedium
	}
	switch v := *aqi; {
	case v <= lowTierMaxAQI:
		return models.TierLow
	case v <= mediumTierMaxAQI:
		return models.TierMedium
	default:
		return models.TierHigh
	}
}

// GarbageWeight maps a garbage level to its 1..3 weight. Unknown levels
// count as medium.
func GarbageWeight(level models.GarbageLevel) int {
	switch level {
	case models.GarbageLow:
		return 1
	case models.GarbageMedium:
		return 2
	case models.GarbageHigh:
		return 3
	default:
		return 2
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
