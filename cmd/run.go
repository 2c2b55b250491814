package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lottery/api"
	"lottery/bot"
	"lottery/config"
	"lottery/database"
	"lottery/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Build information, set by LDFLAGS
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.SetLevel(cfg.LogLevel)
	log.WithField("version", Version).Info("Starting lottery settlement service...")
	metrics.BuildInfo.WithLabelValues(Version, Commit, Date).Set(1)

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eng, err := newEngine(cfg, db)
	if err != nil {
		return err
	}

	var announcer *bot.Announcer
	if cfg.DiscordToken != "" {
		log.Info("Initializing Discord announcer...")
		announcer, err = bot.New(bot.Config{
			Token:         cfg.DiscordToken,
			ChannelID:     cfg.DiscordChannelID,
			AssetDecimals: cfg.AssetDecimals,
		}, eng.eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord announcer: %w", err)
		}
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	server := api.NewServer(cfg.HTTPAddr, eng.processor, eng.settlements)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Infof("Service is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if announcer != nil {
		if err := announcer.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord announcer")
		}
	}

	log.Info("Shutdown completed")
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.WithField("addr", addr).Info("Prometheus metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Metrics server failed")
	}
}
