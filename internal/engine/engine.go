// Package engine computes a lawn's grass-potential curve and pouch application schedule.
// It does no I/O: callers load weather, soil and parameters and persist the Result.
package engine

import "time"

type Input struct {
	StartDate        time.Time
	SubscriptionYear int
	GrassType        string
	LawnSizeSqFt     float64
	RunType          RunType
	Normals          []DailyNormal
	Soil             *SoilReading
}

type Result struct {
	StartDate        time.Time
	SubscriptionYear int
	StressZone       StressZone
	GrassSeason      GrassSeason
	RunType          RunType
	Potential        []PotentialPoint
	Schedule         Schedule

	MissingWeatherDays int
	WeatherDegraded    bool
}

func CadenceDays(zone StressZone, p Params) int {
	if zone == ZoneWarm {
		return p.CadenceWarmDays
	}
	return p.CadenceCoolDays
}

// Run is deterministic: identical input and params give an identical Result.
func Run(in Input, p Params) Result {
	ix := IndexNormals(in.Normals)
	zone := ClassifyStressZone(ix, in.GrassType, p)
	season := GrassSeasonOf(in.GrassType)

	dates, year := VectorizeDates(in.StartDate, in.SubscriptionYear, CadenceDays(zone, p), p)
	potential := ComputePotential(dates, ix, season, zone, p)

	soil := in.Soil
	if in.RunType != RunRepeat {
		soil = nil
	}
	schedule := BuildSchedule(ScheduleInput{
		Potential:    potential.Points,
		LawnSizeSqFt: in.LawnSizeSqFt,
		RunType:      in.RunType,
		Zone:         zone,
		Soil:         soil,
	}, p)

	return Result{
		StartDate:          dates[0],
		SubscriptionYear:   year,
		StressZone:         zone,
		GrassSeason:        season,
		RunType:            in.RunType,
		Potential:          potential.Points,
		Schedule:           schedule,
		MissingWeatherDays: potential.Missing,
		WeatherDegraded:    potential.Degraded,
	}
}
