package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acehealth-ng/mentorlog-api/api/swagger"
	"github.com/acehealth-ng/mentorlog-api/internal/handler"
	"github.com/acehealth-ng/mentorlog-api/internal/middleware"
	"github.com/acehealth-ng/mentorlog-api/internal/models"
	"github.com/acehealth-ng/mentorlog-api/internal/repository"
	"github.com/acehealth-ng/mentorlog-api/internal/service"
	"github.com/acehealth-ng/mentorlog-api/pkg/cache"
	"github.com/acehealth-ng/mentorlog-api/pkg/config"
	"github.com/acehealth-ng/mentorlog-api/pkg/database"
	"github.com/acehealth-ng/mentorlog-api/pkg/logger"
	corsmiddleware "github.com/acehealth-ng/mentorlog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acehealth-ng/mentorlog-api/pkg/middleware/requestid"
	"github.com/acehealth-ng/mentorlog-api/pkg/storage"
)

// @title MentorLog API
// @version 1.0.0
// @description Clinical mentorship visit record keeping for ACE-supported facilities
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	fileStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	urlSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	logRepo := repository.NewLogRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, metricsSvc, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	facilitySvc := service.NewFacilityService(facilityRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, cacheRepo, cfg.Notifications.CountCacheTTL, logr).WithMetrics(metricsSvc)
	logSvc := service.NewLogService(logRepo, userRepo, facilityRepo, notificationSvc, fileStore, validate, logr).WithMetrics(metricsSvc)
	followUpSvc := service.NewFollowUpService(followUpRepo, logRepo, userRepo, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, logRepo, userRepo, notificationSvc, validate, logr)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, logRepo, userRepo, fileStore, urlSigner, service.AttachmentConfig{
		MaxFileSizeBytes:  cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
	}, logr)
	reportSvc := service.NewReportService(reportRepo, userRepo, cacheRepo, service.ReportCacheConfig{
		Enabled: cfg.Reports.CacheEnabled,
		TTL:     cfg.Reports.CacheTTL,
	}, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	facilityHandler := handler.NewFacilityHandler(facilitySvc)
	logHandler := handler.NewLogHandler(logSvc)
	followUpHandler := handler.NewFollowUpHandler(followUpSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	constantsHandler := handler.NewConstantsHandler()
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Tag())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		{
			authed.POST("/logout", authHandler.Logout)
			authed.GET("/me", authHandler.Me)
			authed.POST("/change-password", authHandler.ChangePassword)
		}
	}

	// Signed token downloads carry their own authorization.
	api.GET("/attachments/download", attachmentHandler.DownloadSigned)

	protected := api.Group("", middleware.JWT(authSvc))
	{
		users := protected.Group("/users")
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
		}

		facilities := protected.Group("/facilities")
		{
			facilities.GET("", facilityHandler.List)
			facilities.GET("/:id", facilityHandler.Get)
			facilities.POST("", middleware.RequireRoles(models.RoleAdmin), facilityHandler.Create)
			facilities.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), facilityHandler.Update)
			facilities.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), facilityHandler.Delete)
		}

		logs := protected.Group("/logs")
		{
			logs.GET("", logHandler.List)
			logs.GET("/:id", logHandler.Get)
			logs.POST("", logHandler.Create)
			logs.PUT("/:id", logHandler.Update)
			logs.DELETE("/:id", logHandler.Delete)
			logs.POST("/:id/submit", logHandler.Submit)
			logs.POST("/:id/approve", logHandler.Approve)
			logs.POST("/:id/reject", logHandler.Reject)
			logs.POST("/:id/return-to-draft", logHandler.ReturnToDraft)

			logs.GET("/:id/attachments", attachmentHandler.List)
			logs.POST("/:id/attachments", attachmentHandler.Upload)
			logs.GET("/:id/comments", commentHandler.ListByLog)
			logs.POST("/:id/comments", commentHandler.Create)
			logs.POST("/:id/follow-ups", followUpHandler.Create)
		}

		attachments := protected.Group("/attachments")
		{
			attachments.GET("/:id/signed-url", attachmentHandler.SignedURL)
			attachments.GET("/:id/download", attachmentHandler.Download)
			attachments.DELETE("/:id", attachmentHandler.Delete)
		}

		comments := protected.Group("/comments")
		{
			comments.PUT("/:id", commentHandler.Update)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		followUps := protected.Group("/follow-ups")
		{
			followUps.GET("", followUpHandler.List)
			followUps.GET("/:id", followUpHandler.Get)
			followUps.PUT("/:id", followUpHandler.Update)
			followUps.DELETE("/:id", followUpHandler.Delete)
			followUps.POST("/:id/in-progress", followUpHandler.MarkInProgress)
			followUps.POST("/:id/complete", followUpHandler.MarkCompleted)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read", notificationHandler.MarkManyRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		reports := protected.Group("/reports", middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
		{
			reports.GET("/summary", reportHandler.Summary)
			reports.GET("/logs", reportHandler.Logs)
			reports.GET("/logs/export", reportHandler.ExportLogs)
			reports.GET("/follow-ups", reportHandler.FollowUps)
			reports.GET("/facility-coverage", reportHandler.FacilityCoverage)
			reports.GET("/facility-coverage/export", reportHandler.ExportFacilityCoverage)
		}

		protected.GET("/constants", constantsHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
