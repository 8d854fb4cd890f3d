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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/EstebanBra/Proyecto-Practicas-sub000/api/swagger"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/handler"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/middleware"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/models"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/repository"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/internal/service"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/cache"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/config"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/database"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/export"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/jobs"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/logger"
	corsmiddleware "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/middleware/requestid"
	"github.com/EstebanBra/Proyecto-Practicas-sub000/pkg/storage"
)

// @title Practicas Profesionales API
// @version 1.0.0
// @description Gestion de practicas profesionales: bitacoras, documentos, evaluaciones y nota final
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
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("upload storage init failed", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)
	weeklyLogRepo := repository.NewWeeklyLogRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	finalGradeRepo := repository.NewFinalGradeRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "practicas-profesionales-api",
		SingleSession:      true,
	})

	practiceSvc := service.NewPracticeService(practiceRepo, userRepo, userRepo, cacheRepo, validate, logr)
	weeklyLogSvc := service.NewWeeklyLogService(weeklyLogRepo, practiceRepo, userRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, practiceRepo, uploadStore, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedFormats, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, documentRepo, validate, logr)
	finalGradeSvc := service.NewFinalGradeService(practiceRepo, weeklyLogRepo, documentRepo, evaluationRepo, finalGradeRepo, cacheRepo, cfg.Cache.FinalGradeTTL, logr)
	metricsSvc := service.NewMetricsService()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("report storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(finalGradeRepo, practiceRepo, weeklyLogRepo, reportStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			BufferSize: 64,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	practiceHandler := handler.NewPracticeHandler(practiceSvc)
	weeklyLogHandler := handler.NewWeeklyLogHandler(weeklyLogSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	finalGradeHandler := handler.NewFinalGradeHandler(finalGradeSvc)
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

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/change-password", authHandler.ChangePassword)
		authed.GET("/auth/me", authHandler.Me)

		practices := authed.Group("/practicas")
		{
			practices.GET("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), practiceHandler.List)
			practices.GET("/mia", middleware.RequireRoles(models.RoleStudent), practiceHandler.GetMine)
			practices.GET("/:id", practiceHandler.Get)
			practices.POST("", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), practiceHandler.Create)
			practices.PATCH("/:id/estado", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), practiceHandler.UpdateStatus)
			practices.PATCH("/:id/docente", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), practiceHandler.AssignTeacher)
		}

		weeklyLogs := authed.Group("/bitacoras")
		{
			weeklyLogs.POST("", middleware.RequireRoles(models.RoleStudent), weeklyLogHandler.Create)
			weeklyLogs.GET("", weeklyLogHandler.List)
			weeklyLogs.GET("/:id", weeklyLogHandler.Get)
			weeklyLogs.PATCH("/:id/revision", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), weeklyLogHandler.Review)
			weeklyLogs.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), weeklyLogHandler.Delete)
		}

		documents := authed.Group("/documentos")
		{
			documents.POST("", middleware.RequireRoles(models.RoleStudent), documentHandler.Upload)
			documents.GET("", documentHandler.List)
			documents.GET("/:id", documentHandler.Get)
			documents.PATCH("/:id/revision", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), documentHandler.Review)
		}

		evaluations := authed.Group("/evaluaciones")
		{
			evaluations.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), evaluationHandler.Create)
			evaluations.GET("/documento/:documentoId", evaluationHandler.GetByDocument)
		}

		finalGrades := authed.Group("/notas-finales")
		{
			finalGrades.POST("/calcular", middleware.RequireRoles(models.RoleStudent), finalGradeHandler.Calculate)
			finalGrades.GET("/requisitos", middleware.RequireRoles(models.RoleStudent), finalGradeHandler.CheckPrerequisites)
			finalGrades.GET("/mia", middleware.RequireRoles(models.RoleStudent), finalGradeHandler.GetMine)
			finalGrades.GET("/practica/:practicaId", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), finalGradeHandler.GetByPractice)
		}

		authed.GET("/metricas", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		reports := api.Group("/reportes")
		{
			reports.POST("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), reportHandler.Create)
			reports.GET("/:id", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), reportHandler.Status)
			// download links are pre-signed, no session required
			reports.GET("/download/:token", reportHandler.Download)
		}
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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
