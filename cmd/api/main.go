package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	config "github.com/anjiri1684/counsel_connect/configs"
	"github.com/anjiri1684/counsel_connect/database"
	"github.com/anjiri1684/counsel_connect/handlers"
	"github.com/anjiri1684/counsel_connect/jobs"
	"github.com/anjiri1684/counsel_connect/metrics"
	"github.com/anjiri1684/counsel_connect/middleware"
	"github.com/anjiri1684/counsel_connect/notifications"
	"github.com/anjiri1684/counsel_connect/routes"
	"github.com/anjiri1684/counsel_connect/services"
	"github.com/anjiri1684/counsel_connect/storage"
	"github.com/anjiri1684/counsel_connect/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

const bodyLimit = 12 << 20

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}
	defer backend.close()
	repo, tx := backend.repo, backend.tx
	if err := database.SeedChairperson(ctx, repo, cfg.Seed, log); err != nil {
		return err
	}
	log.Info("store ready", "driver", cfg.Database.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var blobs services.BlobStore
	if cfg.Cloudinary.URL != "" {
		cld, err := storage.NewCloudinary(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			return err
		}
		blobs = cld
	} else {
		log.Warn("CLOUDINARY_URL not set, message attachments are disabled")
	}

	var mailer services.Mailer
	if cfg.Email.EmailEnabled() {
		mailer = notifications.NewBrevoSender(cfg.Email.BrevoAPIKey, cfg.Email.SenderEmail, cfg.Email.SenderName)
	} else {
		log.Warn("Brevo credentials not set, email delivery is disabled")
	}

	dispatcher := services.NewDispatcher(log, services.NewStoreSink(log, repo), repo, mailer, m)
	appointments := services.NewAppointmentService(log, repo, repo, tx)
	analytics := services.NewAnalyticsService(log, repo)

	h := handlers.New(log, handlers.Services{
		Appointments:  appointments,
		Messaging:     services.NewMessagingService(log, repo, repo, blobs),
		Notifications: services.NewNotificationService(log, repo),
		Analytics:     analytics,
		Reports:       services.NewReportService(log, analytics, services.ChromeRenderer{}),
		Notes:         services.NewNoteService(log, repo, repo),
		Users:         services.NewUserService(log, repo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	}, dispatcher)

	scheduler := cron.New()
	reminders := jobs.NewReminderJob(log, appointments, dispatcher)
	if _, err := reminders.Schedule(ctx, scheduler, cfg.Jobs.ReminderSpec); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	scheduler.Start()
	log.Info("reminder job scheduled", "spec", cfg.Jobs.ReminderSpec)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)
	go limiter.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:       "Counsel Connect",
		CaseSensitive: true,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		BodyLimit:     bodyLimit,
		ErrorHandler:  handlers.ErrorHandler(h),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   cfg.Server.TimeZone,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := backend.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))

	routes.Register(app, h, cfg.Auth.JWTSecret, repo, limiter)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	<-scheduler.Stop().Done()
	dispatcher.Wait()
	return nil
}

type storeBackend struct {
	repo  store.Gateway
	tx    store.TxRunner
	ping  func(ctx context.Context) error
	close func()
}

// openStore connects the configured persistence driver. The memory driver
// needs no database and loses its data on restart.
func openStore(cfg config.DatabaseConfig, log *slog.Logger) (*storeBackend, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using the in-memory store, data will not survive a restart")
		mem := store.NewMemory()
		return &storeBackend{
			repo:  mem,
			tx:    mem,
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	return &storeBackend{
		repo: store.NewGorm(db),
		tx:   store.NewTxManager(db),
		ping: sqlDB.PingContext,
		close: func() {
			if err := sqlDB.Close(); err != nil {
				log.Error("close database", "error", err)
			}
		},
	}, nil
}
