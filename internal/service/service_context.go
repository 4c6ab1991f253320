package service

import (
	"lawn-engine/internal/config"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/metrics"
	"lawn-engine/internal/repo"

	"gorm.io/gorm"
)

type ServiceContext struct {
	LawnEngineService *LawnEngineService
	ParameterService  *ParameterService
	WeatherClient     *WeatherClient
	ZillowClient      *ZillowClient
	BridgeClient      *BridgeClient
	Worker            *Worker
	Metrics           *metrics.Metrics
}

func NewServiceContext(cfg *config.Config, db *gorm.DB, m *metrics.Metrics, log *logger.Logger) *ServiceContext {
	weatherClient := NewWeatherClient(cfg.Weather, m)
	jobs := repo.NewEngineJobRepo(db, log)
	params := NewParameterService(repo.NewParameterRepo(db, log), log)

	lawnEngine := NewLawnEngineService(LawnEngineDeps{
		DB:      db,
		Lawns:   repo.NewLawnRepo(db, log),
		Soils:   repo.NewSoilTestRepo(db),
		Runs:    repo.NewLawnEngineRepo(db, log),
		Jobs:    jobs,
		Params:  params,
		Weather: NewWeatherSource(repo.NewWeatherNormalRepo(db), weatherClient, cfg.Weather.Timeout, log),
		Metrics: m,
		Log:     log,
	})

	return &ServiceContext{
		LawnEngineService: lawnEngine,
		ParameterService:  params,
		WeatherClient:     weatherClient,
		ZillowClient:      NewZillowClient(cfg.Zillow, m),
		BridgeClient:      NewBridgeClient(cfg.Bridge, m, log),
		Worker:            NewWorker(jobs, lawnEngine, cfg.Worker, log),
		Metrics:           m,
	}
}
