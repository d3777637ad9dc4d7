package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/config"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/hris-attendance-payroll/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/email"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/attendance"
	correctionService "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/correction"
	notificationService "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/payroll"
	settingsService "github.com/cmlabs-hris/hris-attendance-payroll/internal/service/settings"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := appHTTP.NewLogger(cfg.SlogLevel(), cfg.App.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	var locker lock.Locker
	if cfg.Redis.Enabled {
		client, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("error connecting to redis: %w", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, "hris:attendance:")
		slog.Info("scheduler and payroll locks backed by redis", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewMemoryLocker()
		slog.Warn("scheduler and payroll locks are in-process, run a single replica")
	}

	var defaults *fixtures.SettingsDefaults
	if cfg.SettingsDefaultsFile != "" {
		if defaults, err = fixtures.LoadSettingsDefaults(cfg.SettingsDefaultsFile); err != nil {
			return fmt.Errorf("error loading settings defaults: %w", err)
		}
	}

	// Repositories
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	correctionRepo := postgresql.NewCorrectionRepository(db)
	settingsRepo := postgresql.NewSettingsRepository(db)
	salaryRepo := postgresql.NewSalaryRepository(db)
	employeeDirectory := postgresql.NewEmployeeDirectory(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	leaveChecker := postgresql.NewLeaveChecker(db)
	inboxRepo := postgresql.NewInboxRepository(db)
	txManager := postgresql.NewTxManager(db)

	// Notifications
	hub := sse.NewHub(16)
	senders := []notification.Sender{
		notificationService.NewInboxSender(inboxRepo),
		notificationService.NewHubSender(hub),
	}
	if cfg.SMTP.Host != "" {
		renderer, err := email.NewRenderer()
		if err != nil {
			return fmt.Errorf("error loading email templates: %w", err)
		}
		senders = append(senders, notificationService.NewEmailSender(email.NewSMTPMailer(cfg.SMTP), renderer))
	} else {
		senders = append(senders, notificationService.LogSender{})
	}
	notifier := notificationService.NewNotificationService(notificationService.Config{
		WorkerCount: cfg.Notification.WorkerCount,
		QueueSize:   cfg.Notification.QueueSize,
	}, senders...)
	defer notifier.Stop()

	// Services
	exportRenderer := export.NewRenderer()
	settingsSvc := settingsService.NewSettingsService(settingsRepo, defaults)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, settingsSvc, employeeDirectory, leaveChecker, exportRenderer)
	correctionSvc := correctionService.NewCorrectionService(correctionRepo, attendanceRepo, settingsSvc, employeeDirectory, notifier, txManager)
	payrollSvc := payrollService.NewPayrollService(salaryRepo, attendanceRepo, employeeDirectory, settingsSvc, notifier, exportRenderer, payrollService.WithLocker(locker))

	// Scheduler
	scheduler := cron.NewScheduler(ctx)
	if cfg.Scheduler.Enabled {
		jobs := cron.NewAttendanceJobs(
			attendanceRepo,
			employeeDirectory,
			companyRepo,
			leaveChecker,
			settingsSvc,
			notifier,
			attendanceSvc,
			locker,
			cron.JobsConfig{
				TickInterval: cfg.Scheduler.TickInterval,
				Concurrency:  cfg.Scheduler.Concurrency,
				LockTTL:      cfg.Scheduler.LockTTL,
			},
		)
		jobs.RegisterJobs(scheduler)
		scheduler.Start()
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{AllowedOrigins: cfg.App.AllowedOrigins, LogLevel: cfg.SlogLevel()},
		logger,
		JWTService,
		appHTTP.Handlers{
			Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
			Correction:   appHTTP.NewCorrectionHandler(correctionSvc),
			Settings:     appHTTP.NewSettingsHandler(settingsSvc),
			Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
			Notification: appHTTP.NewNotificationHandler(hub, JWTService, notificationService.NewInboxService(inboxRepo)),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams would otherwise hold Shutdown until its deadline.
	server.RegisterOnShutdown(hub.Close)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		scheduler.Stop()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	scheduler.Stop()

	slog.Info("server stopped")
	return nil
}
