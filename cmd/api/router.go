package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/learning-intel-api/internal/handler"
	internalmiddleware "github.com/noah-isme/learning-intel-api/internal/middleware"
	"github.com/noah-isme/learning-intel-api/internal/service"
	"github.com/noah-isme/learning-intel-api/pkg/config"
	"github.com/noah-isme/learning-intel-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/learning-intel-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/learning-intel-api/pkg/middleware/requestid"
)

type routerDeps struct {
	predictions *service.PredictionService
	history     *service.HistoryService
	metrics     *service.MetricsService
	checks      map[string]handler.ReadinessCheck
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))

	health := handler.NewHealthHandler(deps.metrics, deps.checks)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", health.Prometheus)
	}
	if cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	predictions := handler.NewPredictionHandler(deps.predictions, cfg.Upload.MaxFileSizeBytes)
	insights := handler.NewInsightsHandler(deps.history)

	api := r.Group(cfg.APIPrefix)
	api.POST("/predict", predictions.Predict)
	api.POST("/predict-single", predictions.PredictSingle)

	courses := api.Group("/insights")
	courses.Use(internalmiddleware.WithResponseMeta())
	courses.GET("/:course_id", insights.CourseInsights)
	courses.GET("/:course_id/runs", insights.CourseRuns)

	return r
}
