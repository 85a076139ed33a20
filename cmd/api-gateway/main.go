package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sita-bi-api/api/swagger"
	"github.com/noah-isme/sita-bi-api/internal/handler"
	"github.com/noah-isme/sita-bi-api/internal/middleware"
	"github.com/noah-isme/sita-bi-api/internal/repository"
	"github.com/noah-isme/sita-bi-api/internal/service"
	"github.com/noah-isme/sita-bi-api/pkg/cache"
	"github.com/noah-isme/sita-bi-api/pkg/config"
	"github.com/noah-isme/sita-bi-api/pkg/database"
	"github.com/noah-isme/sita-bi-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sita-bi-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sita-bi-api/pkg/middleware/requestid"
)

// @title SITA-BI Scheduling API
// @version 0.1.0
// @description Defense scheduling and advising availability service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	// Redis is optional: without it slot suggestions are computed per request.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, slot caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	defenseRepo := repository.NewDefenseRepository(db)
	scheduleRepo := repository.NewDefenseScheduleRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	advisingRepo := repository.NewAdvisingRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	scheduleSvc := service.NewDefenseScheduleService(defenseRepo, scheduleRepo, roomRepo, validate, metricsSvc, logr)
	advisingSvc := service.NewAdvisingService(advisingRepo, scheduleRepo, cacheRepo, activityRepo, cfg.Scheduling, validate, metricsSvc, logr)

	scheduleHandler := handler.NewDefenseScheduleHandler(scheduleSvc, cfg.Export.Enabled)
	advisingHandler := handler.NewAdvisingHandler(advisingSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		jadwal := api.Group("/jadwal-sidang")
		jadwal.GET("", scheduleHandler.ListRegistrations)
		jadwal.POST("", scheduleHandler.Create)
		jadwal.POST("/check-conflict", scheduleHandler.CheckConflict)
		jadwal.GET("/for-penguji", scheduleHandler.ListForExaminer)
		jadwal.GET("/for-mahasiswa", scheduleHandler.ListForStudent)
		jadwal.GET("/export", scheduleHandler.Export)

		api.GET("/ruangan", scheduleHandler.ListRooms)

		bimbingan := api.Group("/bimbingan")
		bimbingan.GET("/available-slots", advisingHandler.AvailableSlots)
		bimbingan.GET("/conflicts", advisingHandler.Conflicts)
		bimbingan.POST("/jadwal", advisingHandler.Create)
		bimbingan.PATCH("/:id/reschedule", advisingHandler.Reschedule)
		bimbingan.PATCH("/:id/cancel", advisingHandler.Cancel)
		bimbingan.PATCH("/:id/selesai", advisingHandler.Complete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
