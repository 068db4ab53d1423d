// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/CampusCourts/internal/api/auth"
	"github.com/codr1/CampusCourts/internal/api/availability"
	"github.com/codr1/CampusCourts/internal/api/courts"
	"github.com/codr1/CampusCourts/internal/api/reports"
	"github.com/codr1/CampusCourts/internal/api/reservations"
	"github.com/codr1/CampusCourts/internal/booking"
	"github.com/codr1/CampusCourts/internal/config"
	"github.com/codr1/CampusCourts/internal/db"
	"github.com/codr1/CampusCourts/internal/email"
	"github.com/codr1/CampusCourts/internal/queue"
	"github.com/codr1/CampusCourts/internal/ratelimit"
	"github.com/codr1/CampusCourts/internal/scheduler"
)

const (
	catalogSyncTimeout = 10 * time.Second
	devSecretKey       = "campus-courts-development-secret"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func setupLogger(environment string, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// buildNotifier wires every configured notification driver. The returned
// closers release broker connections on shutdown.
func buildNotifier(ctx context.Context, cfg *config.Config) (booking.Notifier, []io.Closer, error) {
	var (
		notifiers booking.MultiNotifier
		closers   []io.Closer
	)
	for _, driver := range cfg.NotificationDrivers() {
		switch driver {
		case "ses":
			client, err := email.NewSESClient(ctx, cfg.Notifications.SES)
			if err != nil {
				return nil, closers, fmt.Errorf("ses notifier: %w", err)
			}
			notifiers = append(notifiers, email.NewNotifier(client, cfg.App.Name))
		case "amqp":
			publisher, err := queue.NewPublisher(cfg.Notifications.AMQP.URL, cfg.Notifications.AMQP.Exchange)
			if err != nil {
				return nil, closers, fmt.Errorf("amqp notifier: %w", err)
			}
			closers = append(closers, publisher)
			notifiers = append(notifiers, queue.NewNotifier(publisher))
		}
		log.Info().Str("driver", driver).Msg("Notification driver enabled")
	}
	if len(notifiers) == 0 {
		return booking.NopNotifier{}, closers, nil
	}
	return notifiers, closers, nil
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/app.yaml"), "Path to the application config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment, cfg.Features.EnableDebug)

	if cfg.App.SecretKey == "" {
		log.Warn().Msg("APP_SECRET_KEY not set, using the development signing key")
		cfg.App.SecretKey = devSecretKey
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, closers, err := buildNotifier(ctx, cfg)
	defer func() {
		for _, closer := range closers {
			if err := closer.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close notifier")
			}
		}
	}()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure notifications")
	}

	svc, err := booking.NewServiceFromConfig(database, cfg, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create booking service")
	}

	syncCtx, cancelSync := context.WithTimeout(ctx, catalogSyncTimeout)
	err = svc.SyncCatalog(syncCtx, cfg.Catalog.Courts)
	cancelSync()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sync court catalog")
	}

	limiter := ratelimit.New(&ratelimit.Config{
		MaxPerUser: cfg.RateLimit.ReserveAttempts,
		Window:     time.Duration(cfg.RateLimit.ReserveWindowSeconds) * time.Second,
	})
	defer limiter.Close()

	courts.InitHandlers(svc)
	availability.InitHandlers(svc)
	reservations.InitHandlers(svc, limiter, cfg.App.TrustProxy)
	reports.InitHandlers(svc)

	if cfg.Features.EnableReminders {
		if err := scheduler.Init(svc.Grid().Location, cfg.ShutdownTimeout()); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		window, err := cfg.ReminderWindow()
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid reminder schedule")
		}
		if err := scheduler.RegisterReminderJobs(svc, cfg.Scheduler.ReminderCron, cfg.Scheduler.ReminderHoursBefore, window); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reminder jobs")
		}
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	authenticator := auth.NewAuthenticator(cfg.App.SecretKey, database.Queries)
	server := newServer(cfg, authenticator)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	err = g.Wait()

	if cfg.Features.EnableReminders {
		if stopErr := scheduler.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("Failed to stop scheduler")
		}
	}
	svc.WaitForNotifications()

	if err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
