package router

import (
	"lawn-engine/internal/config"
	"lawn-engine/internal/handler"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/middleware"
	"lawn-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// SetupRouter wires every HTTP route. limiter guards the third-party proxy routes.
func SetupRouter(cfg *config.Config, svc *service.ServiceContext, db *gorm.DB, limiter middleware.Limiter, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(svc.Metrics))

	lawnEngineHandler := handler.NewLawnEngineHandler(svc.LawnEngineService, log)
	parameterHandler := handler.NewParameterHandler(svc.ParameterService, log)
	proxyHandler := handler.NewProxyHandler(svc.WeatherClient, svc.ZillowClient, svc.BridgeClient, log)
	healthHandler := handler.NewHealthHandler(db)

	r.GET("/healthz", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))

	auth := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, log)
	rateLimit := middleware.RateLimit(limiter, log)

	api := r.Group("/api")
	{
		authed := api.Group("", auth.RequireAuth())
		{
			authed.POST("/lawnengine", lawnEngineHandler.Run)
			authed.POST("/lawnengine/async", lawnEngineHandler.RunAsync)
			authed.GET("/lawnengine/jobs/:id", lawnEngineHandler.Job)
			authed.POST("/checkweatherdata", lawnEngineHandler.CheckWeather)
		}

		managed := api.Group("", auth.AdminOrReadOnly())
		{
			managed.POST("/lawnengine/csv", lawnEngineHandler.UploadCSV)
			managed.GET("/lawnengine/jobs/stats", lawnEngineHandler.JobStats)
			managed.GET("/lawnengine/:lawn_id", lawnEngineHandler.Report)
			managed.GET("/deletelawnengine/:lawn_id", auth.RequireAdmin(), lawnEngineHandler.Delete)
			managed.GET("/getdefaultparam", parameterHandler.DefaultParams)

			params := managed.Group("/internal_parameters")
			{
				params.GET("", parameterHandler.ListParameters)
				params.POST("", parameterHandler.CreateParameter)
				params.GET("/:id", parameterHandler.GetParameter)
				params.PUT("/:id", parameterHandler.UpdateParameter)
				params.PATCH("/:id", parameterHandler.UpdateParameter)
				params.DELETE("/:id", parameterHandler.DeleteParameter)
			}
		}

		proxies := api.Group("", rateLimit)
		{
			proxies.POST("/weatherhistory", proxyHandler.WeatherHistory)
			proxies.GET("/zillow", proxyHandler.ZillowGet)
			proxies.POST("/zillow", proxyHandler.ZillowSearch)
		}

		api.GET("/bridgeparcel", middleware.APIKey(cfg.Auth.APIKeys), proxyHandler.BridgeParcel)
	}

	return r
}
