// Command portal serves the meeting room booking API: local and directory
// authentication, the room catalog, conflict-checked reservations with
// recurrence, and the dashboard statistics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/application"
	"github.com/example/booking-portal/internal/config"
	"github.com/example/booking-portal/internal/directory"
	httptransport "github.com/example/booking-portal/internal/http"
	"github.com/example/booking-portal/internal/logging"
	"github.com/example/booking-portal/internal/notification"
	"github.com/example/booking-portal/internal/persistence/sqlite"
)

// readHeaderTimeout bounds header parsing separately from the body timeouts
// so idle connections cannot hold a handler goroutine.
const readHeaderTimeout = 10 * time.Second

// sessionPurgeInterval is how often expired session rows are deleted.
const sessionPurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.Info().Str("dsn", cfg.Database.DSN).Msg("starting booking portal")

	pool, err := sqlite.Open(storageConfig(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Error().Err(err).Msg("closing database failed")
		}
	}()

	if err := pool.Migrate(ctx, cfg.Database.MigrationsDir, logger); err != nil {
		return err
	}

	portal, err := newPortal(cfg, pool, logger)
	if err != nil {
		return err
	}
	defer portal.Close()

	if err := portal.auth.LoadActiveConfig(ctx); err != nil {
		return fmt.Errorf("load authentication strategy: %w", err)
	}

	go purgeSessions(ctx, portal.auth, logger)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           portal.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", server.Addr).Bool("metrics", cfg.Metrics.Enabled).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("portal stopped")
	return nil
}

// portal bundles what run needs beyond the config: the assembled handler, the
// auth service for startup and maintenance hooks, and the dispatcher whose
// in-flight emails shutdown waits for.
type portal struct {
	handler    http.Handler
	auth       *application.AuthService
	dispatcher *notification.Dispatcher
}

// Close drains the notification dispatcher. Safe with email disabled.
func (p *portal) Close() {
	if p.dispatcher != nil {
		p.dispatcher.Close()
	}
}

// newPortal wires repositories, services, and HTTP handlers on top of an open
// database. It performs no I/O; loading the persisted authentication strategy
// is the caller's step.
func newPortal(cfg config.Config, pool *sqlite.ConnectionPool, logger zerolog.Logger) (*portal, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve stats timezone: %w", err)
	}

	users := sqlite.NewUserRepository(pool)
	rooms := sqlite.NewRoomRepository(pool)
	bookings := sqlite.NewBookingRepository(pool)
	sessions := sqlite.NewSessionRepository(pool)
	authConfigs := sqlite.NewAuthConfigRepository(pool)

	var dispatcher *notification.Dispatcher
	var notifier application.Notifier = notification.Discard{}
	if cfg.SMTP.Host != "" {
		mailer := notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			StartTLS: cfg.SMTP.StartTLS,
			Timeout:  cfg.SMTP.Timeout,
		})
		dispatcher = notification.NewDispatcher(mailer, cfg.SMTP.Timeout, logger)
		notifier = dispatcher
		logger.Info().Str("host", cfg.SMTP.Host).Int("port", cfg.SMTP.Port).Msg("email notifications enabled")
	} else {
		logger.Info().Msg("email notifications disabled, no smtp host configured")
	}

	authService := application.NewAuthServiceWithLogger(application.AuthServiceConfig{
		Credentials:      &credentialStoreAdapter{users: users},
		Sessions:         &sessionStoreAdapter{sessions: sessions},
		Configs:          &authConfigStoreAdapter{configs: authConfigs},
		Directory:        directory.NewAuthenticator(logger),
		TokenSecret:      cfg.Auth.JWTSecret,
		TokenTTL:         cfg.Auth.TokenTTL,
		BcryptCost:       cfg.Auth.BcryptCost,
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockoutWindow:    cfg.Auth.LockoutWindow,
		IDGenerator:      uuid.NewString,
		Now:              time.Now,
	}, logger)

	userService := application.NewUserServiceWithLogger(&userStoreAdapter{users: users}, logger)

	roomStore := &roomStoreAdapter{rooms: rooms}
	roomService := application.NewRoomServiceWithLogger(roomStore, uuid.NewString, time.Now, logger)

	bookingService := application.NewBookingServiceWithLogger(
		&bookingStoreAdapter{bookings: bookings},
		roomStore,
		notifier,
		application.BookingLimits{
			MinDuration:    cfg.Booking.MinDuration,
			MaxDuration:    cfg.Booking.MaxDuration,
			MaxAttendees:   cfg.Booking.MaxAttendees,
			MaxOccurrences: cfg.Booking.MaxOccurrences,
		},
		uuid.NewString,
		time.Now,
		logger,
	)

	statsService := application.NewStatsServiceWithLogger(
		&statsSourceAdapter{rooms: rooms, bookings: bookings},
		cfg.Stats.WorkdayHours,
		location,
		time.Now,
		logger,
	)

	authHandler := httptransport.NewAuthHandler(authService, userService, logger)
	authHandler.SetCookieSecure(cfg.Auth.CookieSecure)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           authHandler,
		Rooms:          httptransport.NewRoomHandler(roomService, bookingService, logger),
		Bookings:       httptransport.NewBookingHandler(bookingService, logger),
		Stats:          httptransport.NewStatsHandler(statsService, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Health:         httptransport.NewHealthHandler(pool, logger),
		Verifier:       authService,
		Logger:         logger,
		MetricsEnabled: cfg.Metrics.Enabled,
	})

	return &portal{handler: handler, auth: authService, dispatcher: dispatcher}, nil
}

// storageConfig maps the database section onto the SQLite settings.
func storageConfig(cfg config.Config) sqlite.Config {
	storage := sqlite.DefaultConfig(cfg.Database.DSN)
	if cfg.Database.MaxOpenConns > 0 {
		storage.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	return storage
}

// purgeSessions deletes expired session rows on a fixed interval until the
// context ends. Failures are logged and retried on the next tick.
func purgeSessions(ctx context.Context, auth *application.AuthService, logger zerolog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				logger.Error().Err(err).Msg("session purge failed")
			}
		}
	}
}
