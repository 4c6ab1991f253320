package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"lawn-engine/internal/engine"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/metrics"
	"lawn-engine/internal/model"
	"lawn-engine/internal/repo"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	SourceAPI = "api"
	SourceCSV = "csv"
)

// RunRequest is one lawn engine invocation. A zero SubscriptionYear means the current year.
type RunRequest struct {
	LawnID           uint
	StartDate        string
	UserInput        json.RawMessage
	SubscriptionYear int
}

type ParamSource interface {
	EngineParams(ctx context.Context) (engine.Params, error)
}

type NormalsSource interface {
	Normals(ctx context.Context, lawn *model.Lawn) ([]engine.DailyNormal, error)
	Exists(ctx context.Context, lawnID uint) (bool, error)
}

type LawnEngineDeps struct {
	DB      *gorm.DB
	Lawns   repo.LawnRepo
	Soils   repo.SoilTestRepo
	Runs    repo.LawnEngineRepo
	Jobs    repo.EngineJobRepo
	Params  ParamSource
	Weather NormalsSource
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// LawnEngineService validates a request, gathers the lawn's weather and soil data, runs
// the engine and stores the result. Runs for the same lawn are serialized.
type LawnEngineService struct {
	db      *gorm.DB
	lawns   repo.LawnRepo
	soils   repo.SoilTestRepo
	runs    repo.LawnEngineRepo
	jobs    repo.EngineJobRepo
	params  ParamSource
	weather NormalsSource
	metrics *metrics.Metrics
	log     *logger.Logger
	tracer  trace.Tracer
	locks   *keyedMutex
	now     func() time.Time
}

func NewLawnEngineService(d LawnEngineDeps) *LawnEngineService {
	return &LawnEngineService{
		db:      d.DB,
		lawns:   d.Lawns,
		soils:   d.Soils,
		runs:    d.Runs,
		jobs:    d.Jobs,
		params:  d.Params,
		weather: d.Weather,
		metrics: d.Metrics,
		log:     d.Log.With("service", "LawnEngineService"),
		tracer:  otel.Tracer("lawn-engine/service"),
		locks:   newKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ParseLawnID accepts a JSON number or a numeric string holding a positive integer.
func ParseLawnID(v interface{}) (uint, error) {
	var n uint64
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: lawn_id is required", ErrInputValidation)
	case float64:
		if t <= 0 || t != math.Trunc(t) || t > math.MaxUint32 {
			return 0, fmt.Errorf("%w: lawn_id must be valid integer", ErrInputValidation)
		}
		n = uint64(t)
	case json.Number:
		return ParseLawnID(t.String())
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(t), 10, 32)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("%w: lawn_id must be valid integer", ErrInputValidation)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: lawn_id must be valid integer", ErrInputValidation)
	}
	return uint(n), nil
}

// normalizeUserInput defaults a missing list to [] and rejects anything but a JSON array.
func normalizeUserInput(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	var list []interface{}
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("%w: user_input must be a list", ErrInputValidation)
	}
	return json.RawMessage(trimmed), nil
}

func (s *LawnEngineService) Run(ctx context.Context, req RunRequest) (*Report, error) {
	run, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return reportFromRun(run), nil
}

func (s *LawnEngineService) run(ctx context.Context, req RunRequest) (*model.LawnEngine, error) {
	ctx, span := s.tracer.Start(ctx, "lawnengine.run", trace.WithAttributes(attribute.Int64("lawn.id", int64(req.LawnID))))
	defer span.End()
	started := time.Now()

	run, err := s.execute(ctx, span, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveRun("unknown", "error", time.Since(started), false)
		return nil, err
	}
	return run, nil
}

func (s *LawnEngineService) execute(ctx context.Context, span trace.Span, req RunRequest) (*model.LawnEngine, error) {
	started := time.Now()
	lawn, start, userInput, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	year := req.SubscriptionYear
	if year == 0 {
		year = s.now().Year()
	}
	p, err := s.params.EngineParams(ctx)
	if err != nil {
		return nil, err
	}
	_, effectiveYear := engine.NormalizeStartDate(start, year, p)

	normals, err := s.weather.Normals(ctx, lawn)
	if err != nil {
		if !errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		s.log.Warn("weather unavailable, using default grass potential", "lawn_id", lawn.ID, "error", err)
	}

	unlock := s.locks.Lock(lawn.ID)
	defer unlock()

	prior, err := s.runs.HasCompletedBefore(ctx, nil, lawn.ID, effectiveYear)
	if err != nil {
		return nil, fmt.Errorf("load run history: %w", err)
	}
	runType := engine.RunFirst
	var soil *engine.SoilReading
	if prior {
		runType = engine.RunRepeat
		st, err := s.soils.Latest(ctx, lawn.ID)
		if err != nil {
			return nil, fmt.Errorf("load soil test: %w", err)
		}
		if st != nil {
			soil = &engine.SoilReading{
				DateTested:       st.DateTested,
				PH:               st.PH,
				NitrogenPPM:      st.NitrogenPPM,
				PhosphorusPPM:    st.PhosphorusPPM,
				PotassiumPPM:     st.PotassiumPPM,
				OrganicMatterPct: st.OrganicMatterPct,
			}
		}
	}

	res := engine.Run(engine.Input{
		StartDate:        start,
		SubscriptionYear: year,
		GrassType:        lawn.GrassType,
		LawnSizeSqFt:     lawn.SizeSqFt,
		RunType:          runType,
		Normals:          normals,
		Soil:             soil,
	}, p)
	span.SetAttributes(
		attribute.String("lawn.run_type", string(res.RunType)),
		attribute.String("lawn.stress_zone", string(res.StressZone)),
		attribute.Bool("lawn.weather_degraded", res.WeatherDegraded),
	)

	run := runFromResult(lawn.ID, lawn.GrassType, userInput, res)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.runs.ReplaceForYear(ctx, tx, run)
	}); err != nil {
		s.log.Error("persist lawn engine run failed", "lawn_id", lawn.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.metrics.ObserveRun(string(res.RunType), "ok", time.Since(started), res.WeatherDegraded)
	s.log.Info("lawn engine run complete",
		"lawn_id", lawn.ID,
		"run_id", run.ID,
		"run_type", res.RunType,
		"year", res.SubscriptionYear,
		"points", len(run.GrassPotential),
		"applications", len(run.DateAndPouches),
		"missing_weather_days", res.MissingWeatherDays,
	)
	return run, nil
}

func (s *LawnEngineService) validate(ctx context.Context, req RunRequest) (*model.Lawn, time.Time, json.RawMessage, error) {
	if req.LawnID == 0 {
		return nil, time.Time{}, nil, fmt.Errorf("%w: lawn_id is required", ErrInputValidation)
	}
	userInput, err := normalizeUserInput(req.UserInput)
	if err != nil {
		return nil, time.Time{}, nil, err
	}
	lawn, err := s.lawns.Get(ctx, req.LawnID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, time.Time{}, nil, fmt.Errorf("%w: lawn_id %d", ErrLawnNotFound, req.LawnID)
	}
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("load lawn: %w", err)
	}
	start, err := engine.ParseStartDate(req.StartDate, s.now())
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("%w: %w", ErrInputValidation, err)
	}
	return lawn, start, userInput, nil
}

// Enqueue validates req and stores it as a queued job for the worker pool.
func (s *LawnEngineService) Enqueue(ctx context.Context, req RunRequest, source string) (*model.EngineJob, error) {
	_, _, userInput, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	year := req.SubscriptionYear
	if year == 0 {
		year = s.now().Year()
	}
	job := &model.EngineJob{
		LawnID:           req.LawnID,
		StartDate:        strings.TrimSpace(req.StartDate),
		UserInput:        []byte(userInput),
		SubscriptionYear: year,
		Source:           source,
		Status:           model.JobQueued,
	}
	if _, err := s.jobs.Create(ctx, nil, []*model.EngineJob{job}); err != nil {
		return nil, fmt.Errorf("%w: enqueue job: %v", ErrPersistence, err)
	}
	s.log.Info("lawn engine job queued", "job_id", job.ID, "lawn_id", job.LawnID, "source", source)
	return job, nil
}

// ProcessJob runs a claimed job and records the outcome on it. Bad input is rejected for
// good; anything else stays retryable.
func (s *LawnEngineService) ProcessJob(ctx context.Context, job *model.EngineJob) error {
	run, err := s.run(ctx, RunRequest{
		LawnID:           job.LawnID,
		StartDate:        job.StartDate,
		UserInput:        json.RawMessage(job.UserInput),
		SubscriptionYear: job.SubscriptionYear,
	})
	if err != nil {
		status := model.JobFailed
		if errors.Is(err, ErrInputValidation) || errors.Is(err, ErrLawnNotFound) {
			status = model.JobRejected
		}
		if mErr := s.jobs.MarkFailed(ctx, job.ID, status, err.Error()); mErr != nil {
			s.log.Error("mark job failed", "job_id", job.ID, "error", mErr)
		}
		s.metrics.ObserveJob(string(status))
		return err
	}
	if err := s.jobs.MarkComplete(ctx, job.ID, run.ID); err != nil {
		s.log.Error("mark job complete", "job_id", job.ID, "error", err)
		return fmt.Errorf("%w: mark job complete: %v", ErrPersistence, err)
	}
	s.metrics.ObserveJob(string(model.JobComplete))
	return nil
}

func (s *LawnEngineService) Job(ctx context.Context, id uuid.UUID) (*model.EngineJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (s *LawnEngineService) JobStats(ctx context.Context) (map[model.JobStatus]int64, error) {
	return s.jobs.CountByStatus(ctx)
}

// Report returns the lawn's latest run with lawn and soil test metadata.
func (s *LawnEngineService) Report(ctx context.Context, lawnID uint) (*ReportDetail, error) {
	lawn, err := s.lawns.Get(ctx, lawnID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: lawn_id %d", ErrLawnNotFound, lawnID)
	}
	if err != nil {
		return nil, err
	}
	run, err := s.runs.LatestByLawn(ctx, nil, lawnID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: lawn_id %d", ErrRunNotFound, lawnID)
	}
	if err != nil {
		return nil, err
	}

	detail := &ReportDetail{
		Report:         *reportFromRun(run),
		Address:        lawn.Address,
		LawnUpdateDate: lawn.UpdatedAt.Format(time.RFC3339),
	}
	soil, err := s.soils.Latest(ctx, lawnID)
	if err != nil {
		s.log.Warn("load soil test for report failed", "lawn_id", lawnID, "error", err)
	} else if soil != nil {
		detail.SoilUpdateDate = soil.DateTested.Format(engine.DateLayout)
	}
	return detail, nil
}

// Delete hard-deletes every run of the lawn.
func (s *LawnEngineService) Delete(ctx context.Context, lawnID uint) (int64, error) {
	unlock := s.locks.Lock(lawnID)
	defer unlock()
	n, err := s.runs.DeleteByLawn(ctx, nil, lawnID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.log.Info("lawn engine runs deleted", "lawn_id", lawnID, "count", n)
	return n, nil
}

// CheckWeather reports whether weather normals are stored for the lawn.
func (s *LawnEngineService) CheckWeather(ctx context.Context, lawnID uint) (bool, error) {
	if _, err := s.lawns.Get(ctx, lawnID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrLawnNotFound
		}
		return false, err
	}
	return s.weather.Exists(ctx, lawnID)
}
