package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/uni-adp-api/api/swagger"
	"github.com/noah-isme/uni-adp-api/internal/handler"
	"github.com/noah-isme/uni-adp-api/internal/middleware"
	"github.com/noah-isme/uni-adp-api/internal/repository"
	"github.com/noah-isme/uni-adp-api/internal/service"
	"github.com/noah-isme/uni-adp-api/internal/session"
	"github.com/noah-isme/uni-adp-api/pkg/cache"
	"github.com/noah-isme/uni-adp-api/pkg/config"
	"github.com/noah-isme/uni-adp-api/pkg/database"
	"github.com/noah-isme/uni-adp-api/pkg/export"
	"github.com/noah-isme/uni-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/uni-adp-api/pkg/storage"
)

// @title University ADP API
// @version 0.1.0
// @description Role-gated admin console for enrollment, shifting and grade workflows
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
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	sessions := session.NewRedisStore(redisClient, cfg.Session.Key, cfg.Session.TTL, logr)

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	shiftingRepo := repository.NewShiftingRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, sessions, auditRepo, cfg.JWT, validate, logr)
	navigationSvc := service.NewNavigationService(sessions, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, auditRepo, logr)
	shiftingSvc := service.NewShiftingService(shiftingRepo, auditRepo, logr)
	gradeSvc := service.NewGradeService(gradeRepo, sectionRepo, auditRepo, cfg.Grading.Deadline, validate, logr)
	classSvc := service.NewClassService(sectionRepo, auditRepo, validate, logr)
	accountSvc := service.NewAccountService(userRepo, auditRepo, validate, logr)
	programSvc := service.NewProgramService(programRepo, auditRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, auditRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, auditRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, auditRepo, validate, logr)
	documentArchive, err := storage.NewLocalArchive(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("document archive init failed", "error", err)
	}
	documentSvc := service.NewDocumentService(documentRepo, studentRepo, documentArchive, auditRepo, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, programRepo, enrollmentRepo, shiftingRepo, cacheRepo, cfg.Stats.CacheTTL, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		archive, err := storage.NewLocalArchive(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("export archive init failed", "error", err)
		}
		signer := storage.NewDownloadSigner(cfg.JWT.Secret, 0)
		exportSvc = service.NewExportService(archive, signer, logr)
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
		exportSvc.ScheduleCleanup()
	}

	reportSvc := service.NewReportService(gradeRepo, studentRepo, sectionRepo, export.NewCSVExporter(), export.NewPDFExporter(cfg.Exports.Institute), exportSvc, logr)

	handlers := &handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc, metricsSvc),
		Navigation: handler.NewNavigationHandler(navigationSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc, dashboardSvc, metricsSvc),
		Shifting:   handler.NewShiftingHandler(shiftingSvc, dashboardSvc, metricsSvc),
		Grade:      handler.NewGradeHandler(gradeSvc, metricsSvc),
		Class:      handler.NewClassHandler(classSvc),
		Account:    handler.NewAccountHandler(accountSvc),
		Program:    handler.NewProgramHandler(programSvc),
		Subject:    handler.NewSubjectHandler(subjectSvc),
		Student:    handler.NewStudentHandler(studentSvc),
		Payment:    handler.NewPaymentHandler(paymentSvc),
		Document:   handler.NewDocumentHandler(documentSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Audit:      handler.NewAuditHandler(auditSvc),
		Report:     handler.NewReportHandler(reportSvc),
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
