// The outbox worker drains the confirmation email queue. It runs as its own
// process so a mail provider outage never slows down call handling.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/nordicvoice/voicebooking/internal/config"
	"github.com/nordicvoice/voicebooking/internal/notify"
	"github.com/nordicvoice/voicebooking/internal/observability/metrics"
	"github.com/nordicvoice/voicebooking/pkg/logging"
)

func main() {
	godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voicebooking outbox worker",
		"env", cfg.Env,
		"poll_interval", cfg.OutboxPollInterval,
		"max_attempts", cfg.OutboxMaxAttempts,
	)

	outbox, err := notify.NewOutbox(cfg.OutboxDBPath)
	if err != nil {
		logger.Error("failed to open outbox db", "error", err, "path", cfg.OutboxDBPath)
		os.Exit(1)
	}
	defer outbox.Close()

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		logger.Warn("SENDGRID_API_KEY not set, using stub email sender")
		sender = notify.NewStubEmailSender(logger)
	}

	outboxMetrics := metrics.NewOutboxMetrics(nil)
	worker := notify.NewOutboxWorker(outbox, sender, logger).
		WithInterval(cfg.OutboxPollInterval).
		WithMaxAttempts(cfg.OutboxMaxAttempts).
		WithCounters(outboxMetrics.ObserveSent, outboxMetrics.ObserveFailed)

	// Metrics endpoint for scraping.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
		addr := ":" + cfg.Port
		logger.Info("worker metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		cancel()
	}()

	worker.Run(ctx)
	logger.Info("worker stopped")
}
