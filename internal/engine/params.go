package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Params holds every tunable the engine reads. Values are sourced from internal
// parameters at run time; DefaultParams is the compiled fallback.
type Params struct {
	SeasonStartMonth int
	SeasonEndMonth   int
	CadenceWarmDays  int
	CadenceCoolDays  int

	CoolOptimumC           float64
	CoolSigmaC             float64
	WarmOptimumC           float64
	WarmSigmaC             float64
	MoistureRequirementMM  float64
	MoistureFloor          float64
	TransitionStressFactor float64
	DefaultGrassPotential  float64
	CoolZoneMaxC           float64
	TransitionZoneMaxC     float64

	PouchCoverageSqFt   float64
	MinPouchesPerApp    float64
	MaxPouchesPerApp    float64
	MaxLawnSizeSqFt     float64
	DefaultLawnSizeSqFt float64

	ApplicationGPThreshold float64
	MinAppIntervalDays     int
	TargetNitrogenPPM      float64
	SoilFactorMin          float64
	SoilFactorMax          float64
	PHAdjustFactor         float64
}

func DefaultParams() Params {
	return Params{
		SeasonStartMonth: 3,
		SeasonEndMonth:   10,
		CadenceWarmDays:  7,
		CadenceCoolDays:  14,

		CoolOptimumC:           20,
		CoolSigmaC:             5.5,
		WarmOptimumC:           31,
		WarmSigmaC:             7,
		MoistureRequirementMM:  25,
		MoistureFloor:          0.5,
		TransitionStressFactor: 0.9,
		DefaultGrassPotential:  0.5,
		CoolZoneMaxC:           12,
		TransitionZoneMaxC:     17,

		PouchCoverageSqFt:   2500,
		MinPouchesPerApp:    1,
		MaxPouchesPerApp:    8,
		MaxLawnSizeSqFt:     20000,
		DefaultLawnSizeSqFt: 5000,

		ApplicationGPThreshold: 0.5,
		MinAppIntervalDays:     28,
		TargetNitrogenPPM:      20,
		SoilFactorMin:          0.5,
		SoilFactorMax:          1.5,
		PHAdjustFactor:         0.1,
	}
}

type paramSpec struct {
	name  string
	get   func(p *Params) float64
	set   func(p *Params, v float64)
	valid func(v float64) bool
}

func intParam(name string, field func(p *Params) *int, valid func(float64) bool) paramSpec {
	return paramSpec{
		name:  name,
		get:   func(p *Params) float64 { return float64(*field(p)) },
		set:   func(p *Params, v float64) { *field(p) = int(math.Round(v)) },
		valid: valid,
	}
}

func floatParam(name string, field func(p *Params) *float64, valid func(float64) bool) paramSpec {
	return paramSpec{
		name:  name,
		get:   func(p *Params) float64 { return *field(p) },
		set:   func(p *Params, v float64) { *field(p) = v },
		valid: valid,
	}
}

func month(v float64) bool    { return v >= 1 && v <= 12 }
func positive(v float64) bool { return v > 0 }
func nonNeg(v float64) bool   { return v >= 0 }
func unit(v float64) bool     { return v >= 0 && v <= 1 }

var paramSpecs = []paramSpec{
	intParam("season_start_month", func(p *Params) *int { return &p.SeasonStartMonth }, month),
	intParam("season_end_month", func(p *Params) *int { return &p.SeasonEndMonth }, month),
	intParam("cadence_warm_days", func(p *Params) *int { return &p.CadenceWarmDays }, positive),
	intParam("cadence_cool_days", func(p *Params) *int { return &p.CadenceCoolDays }, positive),
	floatParam("cool_optimum_c", func(p *Params) *float64 { return &p.CoolOptimumC }, nil),
	floatParam("cool_sigma_c", func(p *Params) *float64 { return &p.CoolSigmaC }, positive),
	floatParam("warm_optimum_c", func(p *Params) *float64 { return &p.WarmOptimumC }, nil),
	floatParam("warm_sigma_c", func(p *Params) *float64 { return &p.WarmSigmaC }, positive),
	floatParam("moisture_requirement_mm", func(p *Params) *float64 { return &p.MoistureRequirementMM }, positive),
	floatParam("moisture_floor", func(p *Params) *float64 { return &p.MoistureFloor }, unit),
	floatParam("transition_stress_factor", func(p *Params) *float64 { return &p.TransitionStressFactor }, unit),
	floatParam("default_grass_potential", func(p *Params) *float64 { return &p.DefaultGrassPotential }, unit),
	floatParam("cool_zone_max_c", func(p *Params) *float64 { return &p.CoolZoneMaxC }, nil),
	floatParam("transition_zone_max_c", func(p *Params) *float64 { return &p.TransitionZoneMaxC }, nil),
	floatParam("pouch_coverage_sqft", func(p *Params) *float64 { return &p.PouchCoverageSqFt }, positive),
	floatParam("min_pouches_per_app", func(p *Params) *float64 { return &p.MinPouchesPerApp }, nonNeg),
	floatParam("max_pouches_per_app", func(p *Params) *float64 { return &p.MaxPouchesPerApp }, nonNeg),
	floatParam("max_lawn_size_sqft", func(p *Params) *float64 { return &p.MaxLawnSizeSqFt }, positive),
	floatParam("default_lawn_size_sqft", func(p *Params) *float64 { return &p.DefaultLawnSizeSqFt }, positive),
	floatParam("application_gp_threshold", func(p *Params) *float64 { return &p.ApplicationGPThreshold }, unit),
	intParam("min_app_interval_days", func(p *Params) *int { return &p.MinAppIntervalDays }, nonNeg),
	floatParam("target_nitrogen_ppm", func(p *Params) *float64 { return &p.TargetNitrogenPPM }, positive),
	floatParam("soil_factor_min", func(p *Params) *float64 { return &p.SoilFactorMin }, nonNeg),
	floatParam("soil_factor_max", func(p *Params) *float64 { return &p.SoilFactorMax }, positive),
	floatParam("ph_adjust_factor", func(p *Params) *float64 { return &p.PHAdjustFactor }, nonNeg),
}

// ParamNames lists every tunable name in a stable order.
func ParamNames() []string {
	names := make([]string, 0, len(paramSpecs))
	for _, s := range paramSpecs {
		names = append(names, s.name)
	}
	sort.Strings(names)
	return names
}

// DefaultValues renders the compiled defaults as strings keyed by parameter name.
func DefaultValues() map[string]string {
	p := DefaultParams()
	out := make(map[string]string, len(paramSpecs))
	for _, s := range paramSpecs {
		out[s.name] = strconv.FormatFloat(s.get(&p), 'f', -1, 64)
	}
	return out
}

// ParamsFromValues overlays string values on the defaults. Unknown names are ignored;
// unparsable or out-of-range values keep the default and are reported in rejected.
func ParamsFromValues(values map[string]string) (p Params, rejected []string) {
	p = DefaultParams()
	for _, s := range paramSpecs {
		raw, ok := values[s.name]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || (s.valid != nil && !s.valid(v)) {
			rejected = append(rejected, s.name)
			continue
		}
		s.set(&p, v)
	}
	if p.SeasonStartMonth > p.SeasonEndMonth {
		d := DefaultParams()
		p.SeasonStartMonth, p.SeasonEndMonth = d.SeasonStartMonth, d.SeasonEndMonth
		rejected = append(rejected, "season_start_month", "season_end_month")
	}
	if p.SoilFactorMin > p.SoilFactorMax {
		d := DefaultParams()
		p.SoilFactorMin, p.SoilFactorMax = d.SoilFactorMin, d.SoilFactorMax
		rejected = append(rejected, "soil_factor_min", "soil_factor_max")
	}
	if p.MinPouchesPerApp > p.MaxPouchesPerApp {
		d := DefaultParams()
		p.MinPouchesPerApp, p.MaxPouchesPerApp = d.MinPouchesPerApp, d.MaxPouchesPerApp
		rejected = append(rejected, "min_pouches_per_app", "max_pouches_per_app")
	}
	return p, rejected
}
