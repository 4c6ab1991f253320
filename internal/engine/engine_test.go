package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

// synthNormals builds a year of normals with a cosine temperature curve peaking in
// mid-July. skip drops days to simulate gaps in the weather record.
func synthNormals(meanC, ampC, precipMM float64, skip func(t time.Time) bool) []DailyNormal {
	var out []DailyNormal
	for d := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == 2023; d = d.AddDate(0, 0, 1) {
		if skip != nil && skip(d) {
			continue
		}
		avg := meanC - ampC*math.Cos(2*math.Pi*float64(d.YearDay()-15)/365)
		out = append(out, DailyNormal{
			Month:    d.Month(),
			Day:      d.Day(),
			PrecipMM: ptr(precipMM),
			MinC:     ptr(avg - 5),
			MaxC:     ptr(avg + 5),
			AvgC:     ptr(avg),
		})
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dateStrings(entries []ScheduleEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Date.Format(DateLayout))
	}
	return out
}

func assertOrdered(t *testing.T, res Result) {
	t.Helper()
	for i := 1; i < len(res.Potential); i++ {
		assert.True(t, res.Potential[i].Date.After(res.Potential[i-1].Date), "potential dates must increase")
	}
	for i := 1; i < len(res.Schedule.Entries); i++ {
		assert.True(t, res.Schedule.Entries[i].Date.After(res.Schedule.Entries[i-1].Date), "schedule dates must increase")
	}
	assert.GreaterOrEqual(t, res.Schedule.PouchesPerApp, 0.0)
	for _, e := range res.Schedule.Entries {
		assert.GreaterOrEqual(t, e.Pouches, 0.0)
	}
	for _, p := range res.Potential {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 1.0)
	}
}

func TestRun_FirstRunUsesPriorTable(t *testing.T) {
	res := Run(Input{
		StartDate:        day("2024-03-01"),
		SubscriptionYear: 2024,
		GrassType:        "Kentucky Bluegrass",
		LawnSizeSqFt:     5000,
		RunType:          RunFirst,
	}, DefaultParams())

	assert.Equal(t, RunFirst, res.RunType)
	assert.Equal(t, ZoneCool, res.StressZone)
	assert.Equal(t, 2024, res.SubscriptionYear)
	assert.False(t, res.Schedule.SoilInformed)
	assert.Equal(t, 2.0, res.Schedule.PouchesPerApp)
	assert.Equal(t, []string{"2024-04-12", "2024-05-10", "2024-09-13", "2024-10-11"}, dateStrings(res.Schedule.Entries))
	for _, e := range res.Schedule.Entries {
		assert.Equal(t, 2.0, e.Pouches)
	}
	assert.Len(t, res.Potential, 18)
	assert.True(t, res.WeatherDegraded)
	assertOrdered(t, res)
}

func TestRun_FirstRunIgnoresSoil(t *testing.T) {
	in := Input{
		StartDate:        day("2024-03-01"),
		SubscriptionYear: 2024,
		GrassType:        "Fescue",
		LawnSizeSqFt:     7000,
		RunType:          RunFirst,
		Normals:          synthNormals(10, 12, 4, nil),
	}
	withoutSoil := Run(in, DefaultParams())
	in.Soil = &SoilReading{NitrogenPPM: 5, PH: 5.2}
	withSoil := Run(in, DefaultParams())

	assert.Equal(t, withoutSoil, withSoil)
}

func TestRun_RepeatWithSoilDiffersFromDefault(t *testing.T) {
	in := Input{
		StartDate:        day("2024-03-01"),
		SubscriptionYear: 2024,
		GrassType:        "Fescue",
		LawnSizeSqFt:     5000,
		RunType:          RunRepeat,
		Normals:          synthNormals(10, 12, 4, nil),
	}
	defaultPlan := Run(in, DefaultParams())
	require.False(t, defaultPlan.Schedule.SoilInformed)

	in.Soil = &SoilReading{NitrogenPPM: 10, PH: 6.5}
	soilPlan := Run(in, DefaultParams())

	assert.True(t, soilPlan.Schedule.SoilInformed)
	assert.Equal(t, 3.0, soilPlan.Schedule.PouchesPerApp)
	assert.NotEqual(t, defaultPlan.Schedule.Entries, soilPlan.Schedule.Entries)
	require.NotEmpty(t, soilPlan.Schedule.Entries)
	for i := 1; i < len(soilPlan.Schedule.Entries); i++ {
		gap := soilPlan.Schedule.Entries[i].Date.Sub(soilPlan.Schedule.Entries[i-1].Date)
		assert.GreaterOrEqual(t, gap, 28*24*time.Hour)
	}
	assertOrdered(t, soilPlan)
}

func TestRun_Idempotent(t *testing.T) {
	in := Input{
		StartDate:        day("2024-04-17"),
		SubscriptionYear: 2024,
		GrassType:        "Bermuda",
		LawnSizeSqFt:     12000,
		RunType:          RunRepeat,
		Normals:          synthNormals(19, 9, 2, nil),
		Soil:             &SoilReading{NitrogenPPM: 30, PH: 7.8},
	}
	assert.Equal(t, Run(in, DefaultParams()), Run(in, DefaultParams()))
}

func TestRun_MissingWeatherSubset(t *testing.T) {
	gappy := synthNormals(14, 11, 3, func(t time.Time) bool {
		return t.Month() == time.June || (t.Month() == time.March && t.Day() < 20)
	})
	res := Run(Input{
		StartDate:        day("2024-03-01"),
		SubscriptionYear: 2024,
		GrassType:        "Tall Fescue",
		LawnSizeSqFt:     4000,
		RunType:          RunFirst,
		Normals:          gappy,
	}, DefaultParams())

	assert.Equal(t, ZoneTransition, res.StressZone)
	assert.Greater(t, res.MissingWeatherDays, 0)
	assert.False(t, res.WeatherDegraded)
	dates, _ := VectorizeDates(day("2024-03-01"), 2024, CadenceDays(res.StressZone, DefaultParams()), DefaultParams())
	assert.Len(t, res.Potential, len(dates))
	assertOrdered(t, res)
}

func TestRun_OrderedAcrossInputs(t *testing.T) {
	starts := []string{"2024-01-10", "2024-03-01", "2024-06-15", "2024-10-30", "2024-12-01"}
	grasses := []string{"Zoysia", "Perennial Ryegrass"}
	for _, s := range starts {
		for _, g := range grasses {
			for _, rt := range []RunType{RunFirst, RunRepeat} {
				res := Run(Input{
					StartDate:        day(s),
					SubscriptionYear: 2024,
					GrassType:        g,
					LawnSizeSqFt:     25000,
					RunType:          rt,
					Normals:          synthNormals(16, 10, 1, nil),
					Soil:             &SoilReading{NitrogenPPM: 12, PH: 5.5},
				}, DefaultParams())
				assertOrdered(t, res)
				assert.True(t, res.Schedule.MaxLawnSize)
				assert.NotEmpty(t, res.Potential)
			}
		}
	}
}

func TestComputePotential_NoWeatherUsesDefault(t *testing.T) {
	p := DefaultParams()
	p.DefaultGrassPotential = 0.42
	dates := []time.Time{day("2024-05-01"), day("2024-05-15")}

	res := ComputePotential(dates, IndexNormals(nil), CoolSeason, ZoneCool, p)

	assert.True(t, res.Degraded)
	assert.Equal(t, 2, res.Missing)
	for _, pt := range res.Points {
		assert.Equal(t, 0.42, pt.Value)
	}
}

func TestFillGaps(t *testing.T) {
	values := []float64{0, 0.2, 0, 0.6, 0}
	known := []bool{false, true, false, true, false}

	fillGaps(values, known)

	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.4, 0.6, 0.6}, values, 1e-9)
}

func TestTemperaturePotential(t *testing.T) {
	p := DefaultParams()
	assert.InDelta(t, 1.0, TemperaturePotential(p.CoolOptimumC, CoolSeason, p), 1e-9)
	assert.InDelta(t, 1.0, TemperaturePotential(p.WarmOptimumC, WarmSeason, p), 1e-9)
	assert.Less(t, TemperaturePotential(0, CoolSeason, p), 0.01)
	assert.Equal(t, p.MoistureFloor, MoistureFactor(0, p))
	assert.Equal(t, 1.0, MoistureFactor(100, p))
}

func TestPouchesPerApp(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		size    float64
		want    float64
		maxLawn bool
	}{
		{5000, 2, false},
		{6000, 2.5, false},
		{100, 1, false},
		{0, 2, false},
		{30000, 8, true},
	}
	for _, c := range cases {
		got, maxLawn := PouchesPerApp(c.size, p)
		assert.Equal(t, c.want, got, "size=%v", c.size)
		assert.Equal(t, c.maxLawn, maxLawn, "size=%v", c.size)
	}
}

func TestSoilPouchesPerApp(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 3.0, SoilPouchesPerApp(2, SoilReading{NitrogenPPM: 5}, p))
	assert.Equal(t, 1.0, SoilPouchesPerApp(2, SoilReading{NitrogenPPM: 80}, p))
	assert.Equal(t, 2.0, SoilPouchesPerApp(2, SoilReading{}, p))
	assert.Equal(t, 2.2, SoilPouchesPerApp(2, SoilReading{NitrogenPPM: 20, PH: 8.1}, p))
}

func TestClassifyStressZone(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, ZoneCool, ClassifyStressZone(IndexNormals(synthNormals(8, 10, 2, nil)), "bermuda", p))
	assert.Equal(t, ZoneTransition, ClassifyStressZone(IndexNormals(synthNormals(15, 10, 2, nil)), "fescue", p))
	assert.Equal(t, ZoneWarm, ClassifyStressZone(IndexNormals(synthNormals(21, 6, 2, nil)), "fescue", p))
	assert.Equal(t, ZoneWarm, ClassifyStressZone(IndexNormals(nil), "St. Augustine", p))
	assert.Equal(t, ZoneCool, ClassifyStressZone(IndexNormals(nil), "", p))
}

func TestNormalsIndex_LeapDayFallsBack(t *testing.T) {
	ix := IndexNormals([]DailyNormal{{Month: time.February, Day: 28, AvgC: ptr(3)}})
	v, ok := ix.AvgTemp(day("2024-02-29"))
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestRun_RepeatNeutralSoilBelowThresholdStillSoilDerived(t *testing.T) {
	in := Input{
		StartDate:        day("2024-03-01"),
		SubscriptionYear: 2024,
		GrassType:        "Bermuda",
		LawnSizeSqFt:     5000,
		RunType:          RunRepeat,
		Normals:          synthNormals(8, 6, 4, nil),
	}
	p := DefaultParams()
	defaultPlan := Run(in, p)

	in.Soil = &SoilReading{NitrogenPPM: 20, PH: 6.5}
	soilPlan := Run(in, p)

	require.Equal(t, ZoneCool, soilPlan.StressZone)
	for _, pt := range soilPlan.Potential {
		require.Less(t, pt.Value, p.ApplicationGPThreshold)
	}
	assert.True(t, soilPlan.Schedule.SoilInformed)
	assert.Equal(t, defaultPlan.Schedule.PouchesPerApp, soilPlan.Schedule.PouchesPerApp)
	assert.NotEqual(t, defaultPlan.Schedule.Entries, soilPlan.Schedule.Entries)

	months := map[time.Month]bool{}
	for _, m := range PriorApplicationMonths(ZoneCool) {
		months[m] = true
	}
	require.Len(t, soilPlan.Schedule.Entries, len(months))
	for _, e := range soilPlan.Schedule.Entries {
		assert.True(t, months[e.Date.Month()], e.Date.Format(DateLayout))
		assert.Less(t, e.Pouches, soilPlan.Schedule.PouchesPerApp)
	}
	assertOrdered(t, soilPlan)
}
