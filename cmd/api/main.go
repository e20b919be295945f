package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/docspot/docspot-api/internal/api/router"
	"github.com/docspot/docspot-api/internal/booking"
	appconfig "github.com/docspot/docspot-api/internal/config"
	"github.com/docspot/docspot-api/internal/consultation"
	"github.com/docspot/docspot-api/internal/doctors"
	"github.com/docspot/docspot-api/internal/notify"
	"github.com/docspot/docspot-api/internal/observability/metrics"
	"github.com/docspot/docspot-api/internal/patients"
	"github.com/docspot/docspot-api/internal/session"
	"github.com/docspot/docspot-api/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting docspot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Initialize repositories and the transition store
	var (
		doctorRepo      doctors.Repository
		patientRepo     patients.Repository
		transitionStore booking.TransitionStore
	)
	if cfg.DatabaseURL != "" && !cfg.UseMemoryStore {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		doctorRepo = doctors.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		transitionStore = booking.NewPostgresTransitionStore(pool)
		logger.Info("using postgres document store")
	} else {
		memDoctors := doctors.NewInMemoryRepository()
		memPatients := patients.NewInMemoryRepository()
		doctorRepo = memDoctors
		patientRepo = memPatients
		transitionStore = booking.NewMemoryTransitionStore(memDoctors, memPatients)
		logger.Info("using in-memory document store")
	}

	// Session token issuer and revocation store
	secret := cfg.SessionJWTSecret
	if secret == "" && cfg.Env != "production" {
		secret = uuid.NewString()
		logger.Warn("SESSION_JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	issuer, err := session.NewTokenIssuer(secret, cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to initialize token issuer", "error", err)
		os.Exit(1)
	}
	var sessionStore *session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		sessionStore = session.NewStore(redis.NewClient(opts))
		logger.Info("session revocation backed by redis", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, logout revocation disabled")
	}

	// Metrics and notifications
	bookingMetrics := metrics.NewBookingMetrics(nil)
	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		logger.Warn("SENDGRID_API_KEY not set, email notifications disabled")
	}
	notifier := notify.NewService(emailSender, logger)

	// Booking coordinator
	bookingSvc := booking.NewService(transitionStore, doctorRepo, patientRepo, notifier, bookingMetrics, logger)

	// Login lookups over the document collections
	doctorLookup := func(ctx context.Context, username string) (session.Account, error) {
		doc, err := doctorRepo.FindByUsername(ctx, username)
		if err != nil {
			return session.Account{}, err
		}
		return session.Account{ID: doc.ID, Password: doc.Password}, nil
	}
	patientLookup := func(ctx context.Context, username string) (session.Account, error) {
		pat, err := patientRepo.FindByUsername(ctx, username)
		if err != nil {
			return session.Account{}, err
		}
		return session.Account{ID: pat.ID, Password: pat.Password}, nil
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:              logger,
		DoctorsHandler:      doctors.NewHandler(doctorRepo, logger),
		PatientsHandler:     patients.NewHandler(patientRepo, logger),
		BookingHandler:      booking.NewHandler(bookingSvc, logger),
		AuthHandler:         session.NewHandler(issuer, sessionStore, doctorLookup, patientLookup, cfg.AdminEmail, cfg.AdminPassword, bookingMetrics, logger),
		ConsultationHandler: consultation.NewHandler(),
		TokenIssuer:         issuer,
		SessionStore:        sessionStore,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		LoginRatePerSecond:  1,
		LoginBurst:          10,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
