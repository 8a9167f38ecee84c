package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "affiliate/api/swagger" // swagger docs
	"affiliate/internal/config"
	"affiliate/internal/database"
	"affiliate/internal/handler"
	"affiliate/internal/logger"
	"affiliate/internal/middleware"
	"affiliate/internal/notification"
	"affiliate/internal/outbox"
	"affiliate/internal/recorder"
	"affiliate/internal/repository"
	"affiliate/internal/service"
	"affiliate/internal/webhook"
	"affiliate/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title           Partner Program API
// @version         1.0
// @description     Partner enrollment review, link assignment and program reads for affiliate workspaces.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DSN(), zlog)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	zlog.Info("connected to PostgreSQL")

	rdb, err := recorder.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	// Side-effect sinks
	renderer, err := notification.NewRenderer(cfg.AppBaseURL)
	if err != nil {
		return fmt.Errorf("email templates: %w", err)
	}
	var sender notification.Sender = notification.NewLogSender(zlog)
	if cfg.SMTPHost != "" {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		zlog.Warn("SMTP_HOST not set, emails are logged instead of sent")
	}

	var publisher outbox.EventPublisher = webhook.NewNopPublisher(zlog)
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := webhook.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, zlog)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	// Repositories
	txManager := repository.NewTransactionManager(db, cfg.DBStatementTimeout)
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	programRepo := repository.NewProgramRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	// Outbox worker
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hostname, _ := os.Hostname()
	worker := outbox.NewWorker(outboxRepo, outbox.Config{
		Owner:         fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		PollInterval:  cfg.Outbox.PollInterval,
		BatchSize:     cfg.Outbox.BatchSize,
		LeaseTTL:      cfg.Outbox.LeaseTTL,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
		RetryBackoff:  cfg.Outbox.RetryBackoff,
		RetryMaxDelay: cfg.Outbox.RetryMaxDelay,
	}, outbox.NewMetrics(registry), zlog)
	outbox.Register(worker, outbox.Sinks{
		Recorder:  recorder.New(rdb, 0, zlog),
		Mailer:    notification.NewMailer(renderer, sender, zlog),
		Audit:     auditRepo,
		Publisher: publisher,
	})

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog)

	// Services
	secret := cfg.Secret()
	userService := service.NewUserService(userRepo, secret)
	rewardService := service.NewRewardService(rewardRepo)
	partnerService := service.NewPartnerService(programRepo, partnerRepo, linkRepo)
	payoutService := service.NewPayoutService(programRepo, payoutRepo)
	statisticsService := service.NewStatisticsService(programRepo, statisticsRepo)
	auditService := service.NewAuditService(auditRepo)
	linkService := service.NewLinkService(programRepo, linkRepo, outboxRepo, txManager, worker, zlog)
	approvalService := service.NewPartnerApprovalService(service.PartnerApprovalDeps{
		Programs:    programRepo,
		Links:       linkRepo,
		Partners:    partnerRepo,
		Outbox:      outboxRepo,
		TxManager:   txManager,
		Rewards:     rewardService,
		Invalidator: wsHub,
		Notifier:    worker,
		Logger:      zlog,
	})

	// Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret, workspaceRepo)
	})

	auth := middleware.NewAuth(secret, workspaceRepo, cfg.GinMode == gin.ReleaseMode, zlog)
	root := router.Group("")
	handler.NewUserHandler(userService, auth, zlog).RegisterRoutes(root)
	handler.NewPartnerHandler(partnerService, approvalService, zlog).RegisterRoutes(root, auth)
	handler.NewProgramHandler(partnerService, payoutService, linkService, zlog).RegisterRoutes(root, auth)
	handler.NewLinkHandler(linkService, zlog).RegisterRoutes(root, auth)
	handler.NewAuditHandler(auditService, zlog).RegisterRoutes(root, auth)
	handler.NewStatisticsHandler(statisticsService, zlog).RegisterRoutes(root, auth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		zlog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
