package main

import (
	"context"
	crypto_rand "crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/connectcare/telehealth/internal/config"
	"github.com/connectcare/telehealth/internal/domain/identity"
	"github.com/connectcare/telehealth/internal/domain/scheduling"
	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
	"github.com/connectcare/telehealth/internal/platform/cache"
	"github.com/connectcare/telehealth/internal/platform/db"
	"github.com/connectcare/telehealth/internal/platform/metrics"
	"github.com/connectcare/telehealth/internal/platform/middleware"
	"github.com/connectcare/telehealth/internal/platform/notification"
	"github.com/connectcare/telehealth/internal/platform/worker"
)

const reconcileBatch = 100

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// resolveSigningKey returns the session signing key. Without a configured
// secret a random key is generated, which invalidates sessions on restart.
func resolveSigningKey(secret string) ([]byte, bool, error) {
	if secret != "" {
		return []byte(secret), false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate session signing key: %w", err)
	}
	return key, true, nil
}

// buildSenders picks provider-backed senders when credentials are present
// and a logging sender otherwise.
func buildSenders(cfg *config.Config, logger zerolog.Logger) (notification.SMSSender, notification.EmailSender) {
	fallback := notification.NewLogSender(logger)

	var sms notification.SMSSender = fallback
	if cfg.SMSConfigured() {
		sms = notification.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	} else {
		logger.Warn().Msg("twilio credentials not set; SMS will be logged, not sent")
	}

	var email notification.EmailSender = fallback
	if cfg.EmailConfigured() {
		email = notification.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	} else {
		logger.Warn().Msg("sendgrid api key not set; email will be logged, not sent")
	}
	return sms, email
}

// auditMetrics counts every audited access on the Prometheus registry.
func auditMetrics(m *metrics.Metrics) middleware.AuditRecorder {
	return middleware.AuditRecorderFunc(func(e middleware.AuditEntry) error {
		m.RecordAccess(e.Resource, e.Action, e.StatusCode)
		return nil
	})
}

func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set; using in-process doctor cache")
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, cfg.RedisURL, "telehealth:")
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	ctx := context.Background()

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	store, err := openCache(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to cache")
	}
	defer store.Close()

	m := metrics.New()

	// Credentials and sessions
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	key, generated, err := resolveSigningKey(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if generated {
		logger.Warn().Msg("JWT_SECRET not set; using a random key, sessions will not survive a restart")
	}
	sessions := auth.NewSessionManager(key, auth.WithIssuer(cfg.JWTIssuer))

	// Notifications
	sms, email := buildSenders(cfg, logger)
	dispatcher := notification.NewDispatcher(sms, email, logger, m)
	runner := worker.NewRunner(cfg.NotifyTimeout, logger)

	// Domain services
	identities := identity.NewIdentityRepo(pool)
	identitySvc := identity.NewService(identities, identity.NewPatientProfileRepo(pool), hasher, logger, m)

	doctors := scheduling.NewCachedDirectory(scheduling.NewDoctorDirectory(pool), store, cfg.DirectoryCacheTTL, logger)
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepo(pool), doctors, identities, dispatcher, runner, m)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)
	e.Server.BaseContext = func(net.Listener) context.Context {
		return logger.WithContext(context.Background())
	}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.HTTP())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, db.Check{Name: "cache", Ping: store.Ping}))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	requireAuth := auth.RequireAuth(sessions)

	authGroup := e.Group("/auth", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))
	identityHandler := identity.NewHandler(identitySvc, sessions)
	identityHandler.RegisterRoutes(authGroup, requireAuth)

	audit := middleware.Audit(logger, auditMetrics(m))
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(e.Group("/consultations", requireAuth, audit))
	identityHandler.RegisterPatientRoutes(e.Group("/patients", requireAuth, audit))

	// Orphaned profile reconciliation
	scheduler := gocron.NewScheduler(time.UTC)
	if cfg.ReconcileInterval > 0 {
		_, err := scheduler.Every(cfg.ReconcileInterval).SingletonMode().Do(func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), cfg.ReconcileInterval)
			defer cancel()
			if _, err := identitySvc.ReconcileProfiles(jobCtx, reconcileBatch); err != nil {
				logger.Error().Err(err).Msg("profile reconciliation failed")
			}
		})
		if err != nil {
			return fmt.Errorf("schedule profile reconciliation: %w", err)
		}
		scheduler.StartAsync()
		logger.Info().Dur("interval", cfg.ReconcileInterval).Msg("profile reconciliation scheduled")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	scheduler.Stop()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("background notifications still running at exit")
	}
	logger.Info().Msg("server stopped")
	return nil
}
