package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsFromValues(t *testing.T) {
	p, rejected := ParamsFromValues(map[string]string{
		"cadence_cool_days":      "10",
		"pouch_coverage_sqft":    " 3000 ",
		"moisture_floor":         "1.7",
		"default_lawn_size_sqft": "lots",
		"not_a_param":            "1",
	})

	assert.Equal(t, 10, p.CadenceCoolDays)
	assert.Equal(t, 3000.0, p.PouchCoverageSqFt)
	assert.Equal(t, DefaultParams().MoistureFloor, p.MoistureFloor)
	assert.Equal(t, DefaultParams().DefaultLawnSizeSqFt, p.DefaultLawnSizeSqFt)
	assert.ElementsMatch(t, []string{"moisture_floor", "default_lawn_size_sqft"}, rejected)
}

func TestParamsFromValues_InvertedSeasonKeepsDefaults(t *testing.T) {
	p, rejected := ParamsFromValues(map[string]string{
		"season_start_month": "11",
		"season_end_month":   "4",
	})

	assert.Equal(t, 3, p.SeasonStartMonth)
	assert.Equal(t, 10, p.SeasonEndMonth)
	assert.Contains(t, rejected, "season_start_month")
}

func TestDefaultValuesCoverEveryName(t *testing.T) {
	defaults := DefaultValues()
	for _, name := range ParamNames() {
		_, ok := defaults[name]
		assert.True(t, ok, name)
	}
	assert.Equal(t, "14", defaults["cadence_cool_days"])
	assert.Equal(t, "5.5", defaults["cool_sigma_c"])

	p, rejected := ParamsFromValues(defaults)
	assert.Empty(t, rejected)
	assert.Equal(t, DefaultParams(), p)
}
