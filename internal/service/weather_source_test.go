package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lawn-engine/internal/config"
	"lawn-engine/internal/engine"
	"lawn-engine/internal/model"
	"lawn-engine/internal/repo"
	"lawn-engine/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SlowWeatherProviderTimesOutAndDegrades(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"days":[]}`))
	}))
	defer upstream.Close()

	f := newEngineFixture(t, nil)
	client := NewWeatherClient(config.WeatherConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second}, nil)
	f.svc.weather = NewWeatherSource(repo.NewWeatherNormalRepo(f.db), client, 50*time.Millisecond, testutil.Logger(t))
	lawn := testutil.SeedLawn(t, f.db, model.Lawn{SizeSqFt: 5000, Latitude: 40.1, Longitude: -88.2})

	started := time.Now()
	rep, err := f.svc.Run(context.Background(), RunRequest{LawnID: lawn.ID, StartDate: "2024-03-01"})
	elapsed := time.Since(started)

	require.NoError(t, err)
	assert.Less(t, elapsed, time.Second)
	require.NotEmpty(t, rep.GrassPotential)
	for _, gp := range rep.GrassPotential {
		assert.Equal(t, engine.DefaultParams().DefaultGrassPotential, gp.Value)
	}

	stored, err := f.svc.weather.Exists(context.Background(), lawn.ID)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestWeatherSource_TimeoutIsDataUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	db := testutil.DB(t)
	client := NewWeatherClient(config.WeatherConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second}, nil)
	src := NewWeatherSource(repo.NewWeatherNormalRepo(db), client, 50*time.Millisecond, testutil.Logger(t))

	_, err := src.Normals(context.Background(), &model.Lawn{ID: 1})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
