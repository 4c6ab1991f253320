package service

import (
	"context"
	"fmt"
	"time"

	"lawn-engine/internal/engine"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"
	"lawn-engine/internal/repo"
)

type WeatherHistoryProvider interface {
	Configured() bool
	History(ctx context.Context, lat, lon float64) ([]HistoryDay, error)
}

// WeatherSource serves a lawn's daily normals from the database and falls back to the
// history provider, storing what it fetched for the next run.
type WeatherSource struct {
	normals  repo.WeatherNormalRepo
	provider WeatherHistoryProvider
	timeout  time.Duration
	log      *logger.Logger
}

func NewWeatherSource(normals repo.WeatherNormalRepo, provider WeatherHistoryProvider, timeout time.Duration, log *logger.Logger) *WeatherSource {
	return &WeatherSource{
		normals:  normals,
		provider: provider,
		timeout:  timeout,
		log:      log.With("component", "WeatherSource"),
	}
}

func (s *WeatherSource) Normals(ctx context.Context, lawn *model.Lawn) ([]engine.DailyNormal, error) {
	rows, err := s.normals.ByLawn(ctx, lawn.ID)
	if err != nil {
		return nil, fmt.Errorf("load weather normals: %w", err)
	}
	if len(rows) > 0 {
		return toDailyNormals(rows), nil
	}
	if s.provider == nil || !s.provider.Configured() {
		return nil, fmt.Errorf("%w: no stored weather and no provider configured", ErrDataUnavailable)
	}

	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	days, err := s.provider.History(fetchCtx, lawn.Latitude, lawn.Longitude)
	if err != nil {
		return nil, err
	}
	rows = NormalsFromHistory(lawn.ID, days)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: provider returned no usable days", ErrDataUnavailable)
	}
	if err := s.normals.Save(ctx, rows); err != nil {
		s.log.Warn("store fetched weather normals failed", "lawn_id", lawn.ID, "error", err)
	}
	return toDailyNormals(rows), nil
}

func (s *WeatherSource) Exists(ctx context.Context, lawnID uint) (bool, error) {
	return s.normals.Exists(ctx, lawnID)
}

func toDailyNormals(rows []model.WeatherNormal) []engine.DailyNormal {
	out := make([]engine.DailyNormal, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.DailyNormal{
			Month:    time.Month(r.Month),
			Day:      r.Day,
			PrecipMM: r.PrecipMM,
			MinC:     r.MinC,
			MaxC:     r.MaxC,
			AvgC:     r.AvgC,
		})
	}
	return out
}
