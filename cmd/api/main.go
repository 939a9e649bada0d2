package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/hcmou/course-outline-api/api/swagger"
	"github.com/hcmou/course-outline-api/internal/handler"
	"github.com/hcmou/course-outline-api/internal/middleware"
	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/internal/repository"
	"github.com/hcmou/course-outline-api/internal/service"
	"github.com/hcmou/course-outline-api/pkg/cache"
	"github.com/hcmou/course-outline-api/pkg/config"
	"github.com/hcmou/course-outline-api/pkg/database"
	"github.com/hcmou/course-outline-api/pkg/logger"
	corsmiddleware "github.com/hcmou/course-outline-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hcmou/course-outline-api/pkg/middleware/requestid"
	"github.com/hcmou/course-outline-api/pkg/storage"
)

// @title Course Outline API
// @version 1.0.0
// @description Course outline management with approval workflows
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	media, err := storage.NewMediaStore(cfg.Media.StorageDir, cfg.Media.BaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare media storage", "error", err)
	}

	metricsSvc := service.NewMetricsService()

	// Redis is optional: the catalog works uncached when it is missing.
	var cacheRepo *repository.CacheRepository
	if cfg.Outlines.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Outlines.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	outlineRepo := repository.NewOutlineRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authSvc := service.NewAuthService(accountRepo, studentRepo, lecturerRepo, cfg.JWT, validate, logr)
	approvalSvc := service.NewApprovalService(approvalRepo, studentRepo, accountRepo, validate, logr)
	accountSvc := service.NewAccountService(accountRepo, lecturerRepo, validate, logr)
	outlineSvc := service.NewOutlineService(outlineRepo, evaluationRepo, courseRepo, cacheSvc, validate, logr, cfg.Outlines.PageSize)
	commentSvc := service.NewCommentService(commentRepo, outlineRepo, validate, logr, cfg.Outlines.PageSize)
	lessonSvc := service.NewLessonService(lessonRepo, validate, logr, cfg.Outlines.PageSize)
	catalogSvc := service.NewCatalogService(courseRepo, categoryRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	accountHandler := handler.NewAccountHandler(accountSvc)
	outlineHandler := handler.NewOutlineHandler(outlineSvc, media)
	commentHandler := handler.NewCommentHandler(commentSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static(media.BaseURL(), media.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	lecturerOnly := middleware.RequireRoles(models.RoleLecturer)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		approve := api.Group("/approve")
		{
			approve.POST("/student", approvalHandler.Submit)
			approve.GET("/pending", requireAuth, adminOnly, approvalHandler.ListPending)
			approve.POST("/:id/confirm", requireAuth, adminOnly, approvalHandler.Confirm)
			approve.PATCH("/:id/update", approvalHandler.Activate)
		}

		accounts := api.Group("/accounts")
		{
			accounts.POST("/lecturer", accountHandler.RegisterLecturer)
			accounts.GET("/pending", requireAuth, adminOnly, accountHandler.ListPending)
			accounts.POST("/:id/confirm", requireAuth, adminOnly, accountHandler.Confirm)
		}

		outlines := api.Group("/outlines")
		{
			outlines.GET("", outlineHandler.List)
			outlines.GET("/download", outlineHandler.Download)
			outlines.GET("/:id", outlineHandler.Get)
			outlines.POST("", requireAuth, lecturerOnly, outlineHandler.Create)
			outlines.POST("/:id/evaluation", requireAuth, lecturerOnly, outlineHandler.AddEvaluations)
			outlines.POST("/:id/course", requireAuth, lecturerOnly, outlineHandler.AddCourses)
			outlines.POST("/:id/approve", requireAuth, adminOnly, outlineHandler.Approve)
			outlines.PUT("/:id/image", requireAuth, lecturerOnly, outlineHandler.UploadImage)
			outlines.GET("/:id/comments", commentHandler.List)
			outlines.POST("/:id/comments", requireAuth, studentOnly, commentHandler.Create)
		}

		comments := api.Group("/comments", requireAuth)
		{
			comments.PATCH("/:id", commentHandler.Update)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		lessons := api.Group("/lessons")
		{
			lessons.GET("", lessonHandler.List)
			lessons.GET("/:id", lessonHandler.Get)
			lessons.POST("", requireAuth, lecturerOnly, lessonHandler.Create)
		}

		api.GET("/courses", catalogHandler.ListCourses)
		api.GET("/categories", catalogHandler.ListCategories)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
