package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edusys-id/substitution-api/api/swagger"
	"github.com/edusys-id/substitution-api/internal/engine"
	"github.com/edusys-id/substitution-api/internal/handler"
	"github.com/edusys-id/substitution-api/internal/middleware"
	"github.com/edusys-id/substitution-api/internal/models"
	"github.com/edusys-id/substitution-api/internal/repository"
	"github.com/edusys-id/substitution-api/internal/service"
	"github.com/edusys-id/substitution-api/pkg/cache"
	"github.com/edusys-id/substitution-api/pkg/config"
	"github.com/edusys-id/substitution-api/pkg/database"
	"github.com/edusys-id/substitution-api/pkg/export"
	"github.com/edusys-id/substitution-api/pkg/jobs"
	"github.com/edusys-id/substitution-api/pkg/logger"
	corsmiddleware "github.com/edusys-id/substitution-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusys-id/substitution-api/pkg/middleware/requestid"
)

// @title Substitution API
// @version 1.0.0
// @description Timetable conflict detection and substitute teacher suggestion
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Redis is optional; without it conflict reports are rebuilt from the
	// database on every read.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, conflict caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	engineCfg := engine.Config{
		MaxWeeklyMinutes:     cfg.Engine.MaxWeeklyMinutes,
		MinTravelMinutes:     cfg.Engine.MinTravelMinutes,
		HODMinMinutesPerWeek: cfg.Engine.HODMinMinutesPerWeek,
	}

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	workloadRepo := repository.NewWorkloadRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	notificationSvc := service.NewNotificationService(jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, logr)

	enrichmentSvc := service.NewEnrichmentService(cfg.Enrichment.Endpoint, cfg.Enrichment.Timeout, cfg.Enrichment.Enabled, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "substitution-api",
		Audience:           []string{"substitution-api"},
	})

	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, teacherRepo, validate, logr)
	workloadSvc := service.NewWorkloadService(slotRepo, workloadRepo, teacherRepo, engineCfg, logr)
	conflictSvc := service.NewConflictService(slotRepo, conflictRepo, cacheRepo, enrichmentSvc, metricsSvc, engineCfg, cfg.Conflicts.CacheTTL, logr)
	scheduleSvc := service.NewScheduleService(slotRepo, teacherRepo, workloadSvc, conflictSvc, validate, logr)
	substitutionSvc := service.NewSubstitutionService(substitutionRepo, slotRepo, teacherRepo, availabilityRepo, workloadSvc,
		notificationSvc, enrichmentSvc, metricsSvc, engineCfg, cfg.Substitutions.CandidateLimit, validate, logr)
	exportSvc := service.NewExportService(conflictRepo, substitutionRepo, slotRepo, teacherRepo,
		export.NewCSVExporter(), export.NewPDFExporter(), cfg.Exports.SchoolName, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc, availabilitySvc, workloadSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, conflictSvc)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc, scheduleSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff)

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", staff, middleware.Audit(userRepo, "create", "teacher"), teacherHandler.Create)
		teachers.PUT("/:id", staff, middleware.Audit(userRepo, "update", "teacher"), teacherHandler.Update)
		teachers.PATCH("/:id/status", staff, middleware.Audit(userRepo, "update_status", "teacher"), teacherHandler.UpdateStatus)
		teachers.GET("/:id/availability", teacherHandler.ListAvailability)
		teachers.POST("/:id/availability", staff, middleware.Audit(userRepo, "create", "availability"), teacherHandler.CreateAvailability)
		teachers.DELETE("/:id/availability/:aid", staff, middleware.Audit(userRepo, "delete", "availability"), teacherHandler.DeleteAvailability)
		teachers.GET("/:id/workload", teacherHandler.Workload)
	}

	slots := protected.Group("/slots")
	{
		slots.GET("", scheduleHandler.ListSlots)
		slots.GET("/:id", scheduleHandler.GetSlot)
		slots.POST("", staff, middleware.Audit(userRepo, "create", "slot"), scheduleHandler.CreateSlot)
		slots.PUT("/:id", staff, middleware.Audit(userRepo, "update", "slot"), scheduleHandler.UpdateSlot)
		slots.POST("/:id/cancel", staff, middleware.Audit(userRepo, "cancel", "slot"), scheduleHandler.CancelSlot)
		slots.POST("/:id/complete", staff, middleware.Audit(userRepo, "complete", "slot"), scheduleHandler.CompleteSlot)
	}

	schedules := protected.Group("/schedules")
	{
		schedules.GET("/:id/timetable", scheduleHandler.Timetable)
		schedules.GET("/:id/conflicts", scheduleHandler.ConflictReport)
		schedules.POST("/:id/conflicts/detect", staff, middleware.Audit(userRepo, "detect", "conflicts"), scheduleHandler.DetectConflicts)
	}

	substitutions := protected.Group("/substitutions")
	{
		substitutions.GET("", substitutionHandler.List)
		substitutions.GET("/:id", substitutionHandler.Get)
		substitutions.GET("/:id/candidates", substitutionHandler.Candidates)
		substitutions.POST("", staff, middleware.Audit(userRepo, "report", "substitution"), substitutionHandler.ReportAbsence)
		substitutions.POST("/:id/apply", staff, middleware.Audit(userRepo, "apply", "substitution"), substitutionHandler.Apply)
		substitutions.POST("/:id/reject", staff, middleware.Audit(userRepo, "reject", "substitution"), substitutionHandler.Reject)
		substitutions.POST("/:id/cancel", staff, middleware.Audit(userRepo, "cancel", "substitution"), substitutionHandler.Cancel)
	}

	if cfg.Exports.Enabled {
		exports := protected.Group("/exports")
		exports.Use(staff)
		exports.GET("/schedules/:id/conflicts.csv", exportHandler.ConflictsCSV)
		exports.GET("/substitutions.csv", exportHandler.SubstitutionsCSV)
		exports.GET("/substitutions/:id/duty-letter.pdf", exportHandler.DutyLetterPDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
