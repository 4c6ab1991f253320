package engine

import "time"

// DailyNormal is the climate normal for one calendar day. Nil means the source had no value.
type DailyNormal struct {
	Month    time.Month
	Day      int
	PrecipMM *float64
	MinC     *float64
	MaxC     *float64
	AvgC     *float64
}

// Avg prefers the recorded average and falls back to the min/max midpoint.
func (n DailyNormal) Avg() (float64, bool) {
	if n.AvgC != nil {
		return *n.AvgC, true
	}
	if n.MinC != nil && n.MaxC != nil {
		return (*n.MinC + *n.MaxC) / 2, true
	}
	return 0, false
}

type monthDay struct {
	m time.Month
	d int
}

// NormalsIndex looks normals up by calendar day regardless of year.
type NormalsIndex map[monthDay]DailyNormal

func IndexNormals(normals []DailyNormal) NormalsIndex {
	ix := make(NormalsIndex, len(normals))
	for _, n := range normals {
		if n.Month < time.January || n.Month > time.December || n.Day < 1 || n.Day > 31 {
			continue
		}
		ix[monthDay{n.Month, n.Day}] = n
	}
	return ix
}

func (ix NormalsIndex) Lookup(t time.Time) (DailyNormal, bool) {
	n, ok := ix[monthDay{t.Month(), t.Day()}]
	if !ok && t.Month() == time.February && t.Day() == 29 {
		n, ok = ix[monthDay{time.February, 28}]
	}
	return n, ok
}

func (ix NormalsIndex) AvgTemp(t time.Time) (float64, bool) {
	n, ok := ix.Lookup(t)
	if !ok {
		return 0, false
	}
	return n.Avg()
}

// WeeklyPrecip sums precipitation over the seven days ending at t. Unknown days are
// scaled out from the known ones; ok is false when none of the seven days is known.
func (ix NormalsIndex) WeeklyPrecip(t time.Time) (float64, bool) {
	sum, known := 0.0, 0
	for i := 0; i < 7; i++ {
		n, ok := ix.Lookup(t.AddDate(0, 0, -i))
		if !ok || n.PrecipMM == nil {
			continue
		}
		sum += *n.PrecipMM
		known++
	}
	if known == 0 {
		return 0, false
	}
	return sum * 7 / float64(known), true
}

// MeanAnnualC averages the daily average temperature over every indexed day.
func (ix NormalsIndex) MeanAnnualC() (float64, bool) {
	sum, n := 0.0, 0
	for _, dn := range ix {
		if v, ok := dn.Avg(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// SoilReading is the latest soil test for a lawn. Zero readings are treated as unknown.
type SoilReading struct {
	DateTested       time.Time
	PH               float64
	NitrogenPPM      float64
	PhosphorusPPM    float64
	PotassiumPPM     float64
	OrganicMatterPct float64
}
