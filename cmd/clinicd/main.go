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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/api"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/config"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/events"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/metrics"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/service"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/store"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CLINIC_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer st.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	cache := store.NewReservedCache(st, rdb, cfg.CacheTTL())

	metrics.Register()

	bus := events.NewEventBus()
	bus.Subscribe(events.TypeStatusChanged, func(e events.Event) error {
		logger.Debug().RawJSON("payload", e.Payload).Msg("appointment status changed")
		return nil
	})

	svc := service.NewBookingService(st, cache, service.NewRealClock(), bus, &logger, cfg.Booking.HorizonDays)
	server := api.NewHTTPServer(svc, &logger, float64(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backup := store.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort != 0 {
		go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, st, rdb, &logger)
	}

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("api server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}
}

func startHealthServer(ctx context.Context, port int, st *store.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	runServer(ctx, port, mux, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	runServer(ctx, port, mux, "metrics", logger)
}

func runServer(ctx context.Context, port int, handler http.Handler, name string, logger *zerolog.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msgf("%s server listening", name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msgf("%s server error", name)
	}
}
