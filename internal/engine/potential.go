package engine

import (
	"math"
	"strings"
	"time"
)

type StressZone string

const (
	ZoneCool       StressZone = "cool"
	ZoneTransition StressZone = "transition"
	ZoneWarm       StressZone = "warm"
)

type GrassSeason string

const (
	CoolSeason GrassSeason = "cool_season"
	WarmSeason GrassSeason = "warm_season"
)

var warmSeasonGrasses = []string{"bermuda", "zoysia", "st. augustine", "st augustine", "augustine", "centipede", "bahia", "buffalo"}

func GrassSeasonOf(grassType string) GrassSeason {
	g := strings.ToLower(strings.TrimSpace(grassType))
	for _, w := range warmSeasonGrasses {
		if strings.Contains(g, w) {
			return WarmSeason
		}
	}
	return CoolSeason
}

// ClassifyStressZone buckets a lawn by the mean annual temperature of its normals.
// Without weather it falls back to the grass type's natural zone.
func ClassifyStressZone(ix NormalsIndex, grassType string, p Params) StressZone {
	mean, ok := ix.MeanAnnualC()
	if !ok {
		if GrassSeasonOf(grassType) == WarmSeason {
			return ZoneWarm
		}
		return ZoneCool
	}
	switch {
	case mean < p.CoolZoneMaxC:
		return ZoneCool
	case mean < p.TransitionZoneMaxC:
		return ZoneTransition
	default:
		return ZoneWarm
	}
}

type PotentialPoint struct {
	Date  time.Time
	Value float64
}

type PotentialResult struct {
	Points []PotentialPoint
	// dates with no temperature normal, filled by interpolation
	Missing int
	// no date had weather data; every value is DefaultGrassPotential
	Degraded bool
}

// TemperaturePotential is the growth-potential bell curve around the grass's optimum.
func TemperaturePotential(tempC float64, season GrassSeason, p Params) float64 {
	opt, sigma := p.CoolOptimumC, p.CoolSigmaC
	if season == WarmSeason {
		opt, sigma = p.WarmOptimumC, p.WarmSigmaC
	}
	z := (tempC - opt) / sigma
	return math.Exp(-0.5 * z * z)
}

func MoistureFactor(weeklyPrecipMM float64, p Params) float64 {
	f := p.MoistureFloor + (1-p.MoistureFloor)*weeklyPrecipMM/p.MoistureRequirementMM
	return clamp(f, p.MoistureFloor, 1)
}

// ComputePotential yields exactly one value per date. Dates without a temperature normal
// are linearly interpolated between known neighbours and carried at the ends.
func ComputePotential(dates []time.Time, ix NormalsIndex, season GrassSeason, zone StressZone, p Params) PotentialResult {
	values := make([]float64, len(dates))
	known := make([]bool, len(dates))
	knownCount := 0

	for i, d := range dates {
		temp, ok := ix.AvgTemp(d)
		if !ok {
			continue
		}
		v := TemperaturePotential(temp, season, p)
		if precip, ok := ix.WeeklyPrecip(d); ok {
			v *= MoistureFactor(precip, p)
		}
		if zone == ZoneTransition {
			v *= p.TransitionStressFactor
		}
		values[i] = clamp(v, 0, 1)
		known[i] = true
		knownCount++
	}

	res := PotentialResult{Points: make([]PotentialPoint, len(dates)), Missing: len(dates) - knownCount}
	if knownCount == 0 {
		res.Degraded = len(dates) > 0
		for i, d := range dates {
			res.Points[i] = PotentialPoint{Date: d, Value: round(clamp(p.DefaultGrassPotential, 0, 1), 3)}
		}
		return res
	}

	fillGaps(values, known)
	for i, d := range dates {
		res.Points[i] = PotentialPoint{Date: d, Value: round(values[i], 3)}
	}
	return res
}

// fillGaps interpolates unknown entries in place. At least one entry must be known.
func fillGaps(values []float64, known []bool) {
	prev := -1
	for i := range values {
		if known[i] {
			if prev == -1 {
				for j := 0; j < i; j++ {
					values[j] = values[i]
				}
			} else if i-prev > 1 {
				step := (values[i] - values[prev]) / float64(i-prev)
				for j := prev + 1; j < i; j++ {
					values[j] = values[prev] + step*float64(j-prev)
				}
			}
			prev = i
		}
	}
	for j := prev + 1; j < len(values); j++ {
		values[j] = values[prev]
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
