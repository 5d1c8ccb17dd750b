package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetyard/backoffice-api/internal/config"
	"github.com/fleetyard/backoffice-api/internal/email"
	activityHandler "github.com/fleetyard/backoffice-api/internal/handler/activity"
	auditHandler "github.com/fleetyard/backoffice-api/internal/handler/audit"
	authHandler "github.com/fleetyard/backoffice-api/internal/handler/auth"
	documentHandler "github.com/fleetyard/backoffice-api/internal/handler/document"
	driverHandler "github.com/fleetyard/backoffice-api/internal/handler/driver"
	leadHandler "github.com/fleetyard/backoffice-api/internal/handler/lead"
	notificationHandler "github.com/fleetyard/backoffice-api/internal/handler/notification"
	opportunityHandler "github.com/fleetyard/backoffice-api/internal/handler/opportunity"
	tenantHandler "github.com/fleetyard/backoffice-api/internal/handler/tenant"
	vehicleHandler "github.com/fleetyard/backoffice-api/internal/handler/vehicle"
	webhookHandler "github.com/fleetyard/backoffice-api/internal/handler/webhook"
	"github.com/fleetyard/backoffice-api/internal/repository/postgres"
	"github.com/fleetyard/backoffice-api/internal/router"
	activityService "github.com/fleetyard/backoffice-api/internal/service/activity"
	auditService "github.com/fleetyard/backoffice-api/internal/service/audit"
	authService "github.com/fleetyard/backoffice-api/internal/service/auth"
	documentService "github.com/fleetyard/backoffice-api/internal/service/document"
	driverService "github.com/fleetyard/backoffice-api/internal/service/driver"
	leadService "github.com/fleetyard/backoffice-api/internal/service/lead"
	notificationService "github.com/fleetyard/backoffice-api/internal/service/notification"
	opportunityService "github.com/fleetyard/backoffice-api/internal/service/opportunity"
	tenantService "github.com/fleetyard/backoffice-api/internal/service/tenant"
	vehicleService "github.com/fleetyard/backoffice-api/internal/service/vehicle"
	"github.com/fleetyard/backoffice-api/pkg/logger"
	"github.com/fleetyard/backoffice-api/pkg/metrics"
	"github.com/fleetyard/backoffice-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	})
	zl := log.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("backoffice", "api")

	// Repositories
	base := postgres.NewBaseRepository(db)
	leadRepo := postgres.NewLeadRepository(db)
	oppRepo := postgres.NewOpportunityRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(base)
	documentRepo := postgres.NewDocumentRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	logRepo := postgres.NewNotificationLogRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Services
	auditor := auditService.NewService(auditRepo, zl)
	resolver := notificationService.NewResolver(
		templateRepo, leadRepo, userRepo, tenantRepo,
		m, cfg.Notification.FallbackLocale, cfg.Notification.CacheTTL,
	)
	sender := email.NewSMTPSender(cfg.SMTP)
	notificationSvc := notificationService.NewService(logRepo, outboxRepo, resolver, sender, m, zl)
	templateSvc := notificationService.NewTemplateService(templateRepo, resolver, auditor)
	leadSvc := leadService.NewService(leadRepo, outboxRepo, notificationSvc, auditor, zl)
	oppSvc := opportunityService.NewService(oppRepo, leadRepo, outboxRepo, auditor, zl)
	activitySvc := activityService.NewService(activityRepo, leadRepo, oppRepo, auditor)
	tenantSvc := tenantService.NewService(tenantRepo, auditor)
	driverSvc := driverService.NewService(driverRepo, outboxRepo, auditor, zl)
	vehicleSvc := vehicleService.NewService(vehicleRepo, driverRepo, outboxRepo, auditor, zl)
	documentSvc := documentService.NewService(documentRepo, auditor)
	hasher := security.NewBcryptHasher(0)
	authSvc := authService.NewService(userRepo, hasher, auditor, cfg.JWT)

	handlers := router.Handlers{
		Auth:         authHandler.NewHandler(authSvc),
		Lead:         leadHandler.NewHandler(leadSvc),
		Opportunity:  opportunityHandler.NewHandler(oppSvc),
		Activity:     activityHandler.NewHandler(activitySvc),
		Tenant:       tenantHandler.NewHandler(tenantSvc),
		Driver:       driverHandler.NewHandler(driverSvc),
		Vehicle:      vehicleHandler.NewHandler(vehicleSvc),
		Document:     documentHandler.NewHandler(documentSvc),
		Notification: notificationHandler.NewHandler(templateSvc, resolver, notificationSvc),
		Webhook:      webhookHandler.NewHandler(notificationSvc),
		Audit:        auditHandler.NewHandler(auditor),
	}

	engine := router.New(cfg, db, authSvc, handlers, zl)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}

func parseLevel(level string) (logger.Level, error) {
	switch level {
	case "debug":
		return logger.DebugLevel, nil
	case "info", "":
		return logger.InfoLevel, nil
	case "warn":
		return logger.WarnLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return logger.InfoLevel, fmt.Errorf("unknown level %q", level)
}
