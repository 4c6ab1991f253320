package engine

import (
	"math"
	"time"
)

type RunType string

const (
	RunFirst  RunType = "first"
	RunRepeat RunType = "repeat"
)

type ScheduleEntry struct {
	Date    time.Time
	Pouches float64
}

type ScheduleInput struct {
	Potential    []PotentialPoint
	LawnSizeSqFt float64
	RunType      RunType
	Zone         StressZone
	// only consulted on repeat runs
	Soil *SoilReading
}

type Schedule struct {
	PouchesPerApp float64
	MaxLawnSize   bool
	SoilInformed  bool
	Entries       []ScheduleEntry
}

// priorApplications is the default table used when no soil history informs the plan.
var priorApplications = map[StressZone][]time.Month{
	ZoneCool:       {time.April, time.May, time.September, time.October},
	ZoneTransition: {time.April, time.May, time.June, time.September},
	ZoneWarm:       {time.April, time.May, time.June, time.July, time.August},
}

func PriorApplicationMonths(zone StressZone) []time.Month {
	months, ok := priorApplications[zone]
	if !ok {
		months = priorApplications[ZoneCool]
	}
	return append([]time.Month(nil), months...)
}

// PouchesPerApp sizes one application in half-pouch steps. Lawns above the max size are
// capped and flagged.
func PouchesPerApp(lawnSizeSqFt float64, p Params) (float64, bool) {
	size := lawnSizeSqFt
	if size <= 0 {
		size = p.DefaultLawnSizeSqFt
	}
	maxLawn := size > p.MaxLawnSizeSqFt
	ppa := math.Ceil(size/p.PouchCoverageSqFt*2) / 2
	if ppa < p.MinPouchesPerApp {
		ppa = p.MinPouchesPerApp
	}
	if maxLawn || ppa > p.MaxPouchesPerApp {
		ppa = p.MaxPouchesPerApp
	}
	return round(math.Max(ppa, 0), 1), maxLawn
}

// SoilPouchesPerApp scales the size-based quantity by the soil's nitrogen deficit and pH.
func SoilPouchesPerApp(ppa float64, soil SoilReading, p Params) float64 {
	factor := 1.0
	if soil.NitrogenPPM > 0 {
		factor = p.TargetNitrogenPPM / math.Max(soil.NitrogenPPM, 1)
	}
	factor = clamp(factor, p.SoilFactorMin, p.SoilFactorMax)
	if soil.PH > 0 && (soil.PH < 6 || soil.PH > 7.5) {
		factor *= 1 + p.PHAdjustFactor
	}
	return round(math.Max(ppa*factor, 0), 1)
}

func BuildSchedule(in ScheduleInput, p Params) Schedule {
	ppa, maxLawn := PouchesPerApp(in.LawnSizeSqFt, p)
	out := Schedule{PouchesPerApp: ppa, MaxLawnSize: maxLawn}

	if in.RunType != RunRepeat || in.Soil == nil {
		out.Entries = priorSchedule(in.Potential, in.Zone, ppa)
		return out
	}

	soilPPA := SoilPouchesPerApp(ppa, *in.Soil, p)
	out.PouchesPerApp = soilPPA
	out.SoilInformed = true
	out.Entries = potentialSchedule(in.Potential, soilPPA, p)
	if len(out.Entries) == 0 {
		out.Entries = peakMonthSchedule(in.Potential, in.Zone, soilPPA)
	}
	return out
}

// peakMonthSchedule is the soil-informed fallback when no date reaches the application
// threshold: one application per table month on its highest-potential date, scaled by
// that potential.
func peakMonthSchedule(points []PotentialPoint, zone StressZone, ppa float64) []ScheduleEntry {
	wanted := make(map[time.Month]bool)
	for _, m := range PriorApplicationMonths(zone) {
		wanted[m] = true
	}
	best := make(map[time.Month]PotentialPoint)
	for _, pt := range points {
		m := pt.Date.Month()
		if !wanted[m] {
			continue
		}
		if cur, ok := best[m]; !ok || pt.Value > cur.Value {
			best[m] = pt
		}
	}
	var entries []ScheduleEntry
	for _, pt := range points {
		if b, ok := best[pt.Date.Month()]; ok && b.Date.Equal(pt.Date) {
			entries = append(entries, ScheduleEntry{Date: pt.Date, Pouches: round(math.Max(ppa*pt.Value, 0), 1)})
		}
	}
	return entries
}

// priorSchedule puts one application on the first vectorized date of each table month.
func priorSchedule(points []PotentialPoint, zone StressZone, ppa float64) []ScheduleEntry {
	wanted := make(map[time.Month]bool)
	for _, m := range PriorApplicationMonths(zone) {
		wanted[m] = true
	}
	var entries []ScheduleEntry
	for _, pt := range points {
		if !wanted[pt.Date.Month()] {
			continue
		}
		entries = append(entries, ScheduleEntry{Date: pt.Date, Pouches: ppa})
		delete(wanted, pt.Date.Month())
	}
	return entries
}

// potentialSchedule applies on high-potential dates, spaced at least MinAppIntervalDays.
func potentialSchedule(points []PotentialPoint, ppa float64, p Params) []ScheduleEntry {
	var entries []ScheduleEntry
	minGap := time.Duration(p.MinAppIntervalDays) * 24 * time.Hour
	for _, pt := range points {
		if pt.Value < p.ApplicationGPThreshold {
			continue
		}
		if n := len(entries); n > 0 && pt.Date.Sub(entries[n-1].Date) < minGap {
			continue
		}
		entries = append(entries, ScheduleEntry{Date: pt.Date, Pouches: round(math.Max(ppa*pt.Value, 0), 1)})
	}
	return entries
}
