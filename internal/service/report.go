package service

import (
	"encoding/json"
	"time"

	"lawn-engine/internal/engine"
	"lawn-engine/internal/model"
)

type PotentialValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type PouchEntry struct {
	Date    string  `json:"date"`
	Pouches float64 `json:"pouches"`
}

// Report is the lawn engine result as the API returns it.
type Report struct {
	RunID            uint             `json:"-"`
	LawnID           uint             `json:"lawn_id"`
	StartDate        string           `json:"start_date"`
	SubscriptionYear int              `json:"subscription_year"`
	UserInput        json.RawMessage  `json:"user_input"`
	StressZone       string           `json:"stress_zone"`
	GrassType        string           `json:"grass_type"`
	RunType          model.RunType    `json:"run_type"`
	MaxLawnSize      bool             `json:"max_lawn_size"`
	TaskStatus       model.TaskStatus `json:"task_status"`
	PouchesPerApp    float64          `json:"pouches_per_app"`
	UpdatedAt        time.Time        `json:"updated_at"`
	GrassPotential   []PotentialValue `json:"grass_potential"`
	DateAndPouches   []PouchEntry     `json:"date_and_pouches"`
}

// ReportDetail is a stored report enriched with lawn and soil test metadata. Missing
// metadata is an empty string.
type ReportDetail struct {
	Report
	Address        string `json:"address"`
	LawnUpdateDate string `json:"lawn_update_date"`
	SoilUpdateDate string `json:"soil_update_date"`
}

func reportFromRun(run *model.LawnEngine) *Report {
	r := &Report{
		RunID:            run.ID,
		LawnID:           run.LawnID,
		StartDate:        run.StartDate.Format(engine.DateLayout),
		SubscriptionYear: run.SubscriptionYear,
		UserInput:        json.RawMessage(run.UserInput),
		StressZone:       run.StressZone,
		GrassType:        run.GrassType,
		RunType:          run.RunType,
		MaxLawnSize:      run.MaxLawnSize,
		TaskStatus:       run.TaskStatus,
		PouchesPerApp:    run.PouchesPerApp,
		UpdatedAt:        run.UpdatedAt,
		GrassPotential:   make([]PotentialValue, 0, len(run.GrassPotential)),
		DateAndPouches:   make([]PouchEntry, 0, len(run.DateAndPouches)),
	}
	if len(r.UserInput) == 0 {
		r.UserInput = json.RawMessage("[]")
	}
	for _, gp := range run.GrassPotential {
		r.GrassPotential = append(r.GrassPotential, PotentialValue{Date: gp.Date, Value: gp.Value})
	}
	for _, dp := range run.DateAndPouches {
		r.DateAndPouches = append(r.DateAndPouches, PouchEntry{Date: dp.Date, Pouches: dp.Pouches})
	}
	return r
}

// runFromResult maps an engine result onto the row and children to persist.
func runFromResult(lawnID uint, grassType string, userInput json.RawMessage, res engine.Result) *model.LawnEngine {
	run := &model.LawnEngine{
		LawnID:           lawnID,
		SubscriptionYear: res.SubscriptionYear,
		StartDate:        res.StartDate,
		UserInput:        []byte(userInput),
		StressZone:       string(res.StressZone),
		GrassType:        grassType,
		RunType:          model.RunType(res.RunType),
		MaxLawnSize:      res.Schedule.MaxLawnSize,
		TaskStatus:       model.TaskStatusComplete,
		PouchesPerApp:    res.Schedule.PouchesPerApp,
		GrassPotential:   make([]model.GrassPotential, 0, len(res.Potential)),
		DateAndPouches:   make([]model.DateAndPouches, 0, len(res.Schedule.Entries)),
	}
	for _, p := range res.Potential {
		run.GrassPotential = append(run.GrassPotential, model.GrassPotential{Date: p.Date.Format(engine.DateLayout), Value: p.Value})
	}
	for _, e := range res.Schedule.Entries {
		run.DateAndPouches = append(run.DateAndPouches, model.DateAndPouches{Date: e.Date.Format(engine.DateLayout), Pouches: e.Pouches})
	}
	return run
}
