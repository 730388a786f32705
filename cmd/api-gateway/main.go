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

	_ "github.com/noah-isme/certtrack-api/api/swagger"
	"github.com/noah-isme/certtrack-api/internal/handler"
	"github.com/noah-isme/certtrack-api/internal/middleware"
	"github.com/noah-isme/certtrack-api/internal/models"
	"github.com/noah-isme/certtrack-api/internal/repository"
	"github.com/noah-isme/certtrack-api/internal/service"
	"github.com/noah-isme/certtrack-api/pkg/cache"
	"github.com/noah-isme/certtrack-api/pkg/config"
	"github.com/noah-isme/certtrack-api/pkg/database"
	"github.com/noah-isme/certtrack-api/pkg/export"
	"github.com/noah-isme/certtrack-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/certtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/certtrack-api/pkg/middleware/requestid"
	"github.com/noah-isme/certtrack-api/pkg/storage"
)

// @title CertTrack API
// @version 0.1.0
// @description Training back office: approval workflow, certificate eligibility and artifacts
// @BasePath /
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

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	planRepo := repository.NewPlanRepository(db)
	matrixRepo := repository.NewMatrixRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	studyRecordRepo := repository.NewStudyRecordRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, service.NewRedisPublisher(redisClient), cfg.Notifications, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "certtrack-api",
		Audience:           []string{"certtrack"},
	})

	appliers := service.BuildDecisionAppliers(courseRepo, subjectRepo, planRepo, matrixRepo, logr)
	requestSvc := service.NewRequestService(requestRepo, courseRepo, subjectRepo, planRepo, matrixRepo, userRepo, logr,
		service.WithDecisionAppliers(appliers),
		service.WithWorkflowNotifier(notificationSvc),
	)

	planSvc := service.NewPlanService(planRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	matrixSvc := service.NewMatrixService(matrixRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, logr)
	eligibilitySvc := service.NewEligibilityService(enrollmentRepo, studyRecordRepo, certificateRepo, logr)

	artifactStorage, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	certificateSvc := service.NewCertificateService(certificateRepo, eligibilitySvc, userRepo, export.NewCertificateRenderer(), artifactStorage, signer, validate, logr)

	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, metricsSvc)
	planHandler := handler.NewPlanHandler(planSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	matrixHandler := handler.NewMatrixHandler(matrixSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc, metricsSvc)
	traineeHandler := handler.NewTraineeHandler(eligibilitySvc, enrollmentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	if cfg.Workflow.Enabled {
		requests := authed.Group("/requests")
		requests.POST("", middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin), requestHandler.Create)
		requests.GET("", requestHandler.List)
		requests.GET("/:id", requestHandler.Get)
		requests.POST("/:id/approve", middleware.RequireRoles(models.RoleAdmin), requestHandler.Approve)
		requests.POST("/:id/reject", middleware.RequireRoles(models.RoleAdmin), requestHandler.Reject)
	}

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	plans := authed.Group("/plans")
	plans.GET("", planHandler.List)
	plans.GET("/:id", planHandler.Get)
	plans.POST("", adminOnly, planHandler.Create)
	plans.PUT("/:id", adminOnly, planHandler.Update)
	plans.DELETE("/:id", adminOnly, planHandler.Delete)
	plans.POST("/:id/decision", adminOnly, planHandler.Decide)
	plans.GET("/:id/certificates", certificateHandler.ListByPlan)

	courses := authed.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", adminOnly, courseHandler.Create)
	courses.PUT("/:id", adminOnly, courseHandler.Update)
	courses.DELETE("/:id", adminOnly, courseHandler.Delete)
	courses.POST("/:id/decision", adminOnly, courseHandler.Decide)
	courses.GET("/:id/certificates", certificateHandler.ListByCourse)

	subjects := authed.Group("/subjects")
	subjects.GET("", subjectHandler.List)
	subjects.GET("/:id", subjectHandler.Get)
	subjects.POST("", adminOnly, subjectHandler.Create)
	subjects.PUT("/:id", adminOnly, subjectHandler.Update)
	subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)
	subjects.POST("/:id/decision", adminOnly, subjectHandler.Decide)
	subjects.GET("/:id/certificates", certificateHandler.ListBySubject)

	authed.POST("/matrix", adminOnly, matrixHandler.Create)
	specialties := authed.Group("/specialties/:specialtyId/matrix")
	specialties.GET("", matrixHandler.ListBySpecialty)
	specialties.GET("/:subjectId/:courseId", matrixHandler.Get)
	specialties.DELETE("/:subjectId/:courseId", adminOnly, matrixHandler.Delete)
	specialties.POST("/:subjectId/:courseId/decision", adminOnly, matrixHandler.Decide)

	if cfg.Certificates.Enabled {
		certs := authed.Group("/certificates")
		certs.POST("/plans", adminOnly, certificateHandler.CreatePlanCertificate)
		certs.POST("/courses", adminOnly, certificateHandler.CreateCourseCertificate)
		certs.POST("/subjects", adminOnly, certificateHandler.CreateSubjectCertificate)
		certs.DELETE("/plans/:id", adminOnly, certificateHandler.DeletePlanCertificate)
		certs.DELETE("/courses/:id", adminOnly, certificateHandler.DeleteCourseCertificate)
		certs.DELETE("/subjects/:id", adminOnly, certificateHandler.DeleteSubjectCertificate)
	}

	trainees := authed.Group("/trainees/:id")
	trainees.Use(middleware.RBAC(string(models.RoleAdmin), "SELF"))
	trainees.GET("/certificates", traineeHandler.Certificates)
	trainees.GET("/completions", traineeHandler.Completions)
	trainees.GET("/plans", traineeHandler.ActivePlans)
	trainees.POST("/plans", traineeHandler.Enroll)
	trainees.DELETE("/plans/:enrollmentId", traineeHandler.Withdraw)
	if cfg.Certificates.Enabled {
		trainees.POST("/certificates/download", certificateHandler.Download)
		trainees.GET("/certificates/artifact", certificateHandler.Fetch)
	}

	notifications := authed.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
