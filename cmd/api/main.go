package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pedago-hub/campus-api/api/swagger"
	"github.com/pedago-hub/campus-api/internal/handler"
	"github.com/pedago-hub/campus-api/internal/middleware"
	"github.com/pedago-hub/campus-api/internal/models"
	"github.com/pedago-hub/campus-api/internal/repository"
	"github.com/pedago-hub/campus-api/internal/service"
	"github.com/pedago-hub/campus-api/pkg/cache"
	"github.com/pedago-hub/campus-api/pkg/config"
	"github.com/pedago-hub/campus-api/pkg/database"
	"github.com/pedago-hub/campus-api/pkg/logger"
	corsmiddleware "github.com/pedago-hub/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pedago-hub/campus-api/pkg/middleware/requestid"
)

// @title Campus API
// @version 1.0.0
// @description Assignment lifecycle and grading engine for academic spaces
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	spaceRepo := repository.NewSpaceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Reports.CacheTTL, logr, false)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	assignmentSvc := service.NewAssignmentService(assignmentRepo, spaceRepo, cacheSvc, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, assignmentRepo, evaluationRepo, spaceRepo, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, submissionRepo, assignmentRepo, spaceRepo, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(reportRepo, spaceRepo, userRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(reportRepo, reportSvc, spaceRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		assignments := protected.Group("/assignments")
		{
			assignments.POST("", middleware.RequireRoles(models.RoleInstructor), assignmentHandler.Create)
			assignments.GET("/pending-evaluation", middleware.RequireRoles(models.RoleInstructor), assignmentHandler.ListPendingEvaluation)
			assignments.GET("/:id", assignmentHandler.Get)
			assignments.DELETE("/:id", middleware.RequireRoles(models.RoleInstructor, models.RoleDirector), assignmentHandler.Delete)
			assignments.GET("/:id/status", assignmentHandler.Status)
			assignments.POST("/:id/submissions", middleware.RequireRoles(models.RoleStudent), submissionHandler.Submit)
			assignments.GET("/:id/submissions", middleware.RequireRoles(models.RoleInstructor, models.RoleDirector), submissionHandler.List)
			assignments.GET("/:id/submissions/:studentId", submissionHandler.Get)
			assignments.GET("/:id/evaluations", middleware.RequireRoles(models.RoleInstructor, models.RoleDirector), evaluationHandler.ListForAssignment)
		}

		protected.POST("/evaluations", middleware.RequireRoles(models.RoleInstructor), evaluationHandler.Evaluate)

		spaces := protected.Group("/spaces")
		{
			spaces.GET("/:id/assignments", assignmentHandler.ListBySpace)
			spaces.GET("/:id/statistics", middleware.RequireRoles(models.RoleInstructor, models.RoleDirector), reportHandler.SpaceStatistics)
			spaces.GET("/:id/export", middleware.RequireRoles(models.RoleInstructor, models.RoleDirector), reportHandler.ExportSpaceGrades)
		}

		students := protected.Group("/students")
		{
			students.GET("/:studentId/assignments", middleware.RBAC("SELF", string(models.RoleInstructor), string(models.RoleDirector)), assignmentHandler.ListForStudent)
			students.GET("/:studentId/report", middleware.RBAC("SELF", string(models.RoleInstructor), string(models.RoleDirector)), reportHandler.OverallReport)
			students.GET("/:studentId/report/spaces/:spaceId", middleware.RBAC("SELF", string(models.RoleInstructor), string(models.RoleDirector)), reportHandler.SubjectReport)
			students.GET("/:studentId/transcript", middleware.RBAC("SELF", string(models.RoleDirector)), reportHandler.ExportTranscript)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
