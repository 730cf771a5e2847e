package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nordicvoice/voicebooking/internal/api/router"
	"github.com/nordicvoice/voicebooking/internal/booking"
	appconfig "github.com/nordicvoice/voicebooking/internal/config"
	"github.com/nordicvoice/voicebooking/internal/dialog"
	"github.com/nordicvoice/voicebooking/internal/notify"
	"github.com/nordicvoice/voicebooking/internal/observability/metrics"
	"github.com/nordicvoice/voicebooking/internal/portal"
	"github.com/nordicvoice/voicebooking/internal/session"
	"github.com/nordicvoice/voicebooking/internal/verify"
	"github.com/nordicvoice/voicebooking/pkg/logging"
)

func main() {
	godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voicebooking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"booking_provider", cfg.BookingProvider,
	)

	// Session and fingerprint storage.
	var sessions session.Store
	var fingerprints dialog.FingerprintStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		fingerprints = dialog.NewRedisFingerprints(client, cfg.IdempotencyWindow)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory session store")
		sessions = session.NewMemoryStore()
		fingerprints = dialog.NewMemoryFingerprints(cfg.IdempotencyWindow)
	}

	// Booking provider.
	defaultVertical := dialog.VerticalByName(cfg.DefaultVertical, cfg.DefaultSalonID)
	catalog := make([]booking.Service, 0, len(defaultVertical.Catalog))
	portalCatalog := make([]portal.CatalogEntry, 0, len(defaultVertical.Catalog))
	for _, entry := range defaultVertical.Catalog {
		catalog = append(catalog, booking.Service{ID: entry.ID, Name: entry.Name})
		portalCatalog = append(portalCatalog, portal.CatalogEntry{ID: entry.ID, Name: entry.Name})
	}

	var adapter booking.Adapter
	var portalHandler *portal.Handler
	switch cfg.BookingProvider {
	case "portal":
		adapter = booking.NewPortalClient(cfg.PortalBaseURL, cfg.PortalAPIKey, logger)
	case "local":
		store, err := portal.NewStore(cfg.BookingsDBPath)
		if err != nil {
			logger.Error("failed to open bookings db", "error", err, "path", cfg.BookingsDBPath)
			os.Exit(1)
		}
		defer store.Close()
		adapter = booking.NewLocalAdapter(store, catalog)
		portalHandler = portal.NewHandler(store, portalCatalog, cfg.PortalAPIKey, logger)
	default:
		adapter = booking.NewMockAdapter(catalog)
	}

	// Identity verification.
	var verifier verify.Verifier
	if cfg.BankIDMode == "real" {
		v, err := verify.NewBankIDClient(cfg.BankIDBaseURL, cfg.BankIDClientCert, cfg.BankIDClientKey, cfg.BankIDCACert, logger)
		if err != nil {
			logger.Error("failed to init bankid client", "error", err)
			os.Exit(1)
		}
		verifier = v
	} else {
		verifier = verify.NewDemoVerifier(6 * time.Second)
	}

	// Notifications.
	outbox, err := notify.NewOutbox(cfg.OutboxDBPath)
	if err != nil {
		logger.Error("failed to open outbox db", "error", err, "path", cfg.OutboxDBPath)
		os.Exit(1)
	}
	defer outbox.Close()

	var sms notify.SMSSender
	if cfg.SMSProvider == "twilio" {
		s, err := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
		if err != nil {
			logger.Error("failed to init twilio sender", "error", err)
			os.Exit(1)
		}
		sms = s
	} else {
		sms = notify.NewMockSMSSender(logger)
	}

	dialogMetrics := metrics.NewDialogMetrics(nil)

	engine := dialog.NewEngine(sessions, adapter, fingerprints, logger).
		WithVerifier(verifier).
		WithSMS(sms).
		WithOutbox(outbox).
		WithMetrics(dialogMetrics)

	r := router.New(&router.Config{
		Logger:             logger,
		DialogHandler:      dialog.NewHandler(engine, adapter, sessions, logger),
		PortalHandler:      portalHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TurnRateLimit:      cfg.TurnRateLimit,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
