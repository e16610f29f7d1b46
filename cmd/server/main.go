// Command server wires the configuration, storage, notification, and
// service layers together and runs the ingestion engine. Apart from a
// Prometheus metrics endpoint on :9090, it does not mount an HTTP or gRPC
// surface: the upstream-facing API, OAuth2 exchange, and WebSocket
// transport are external collaborators, not part of this core.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/config"
	"github.com/akimon658/twittra/internal/ingest"
	"github.com/akimon658/twittra/internal/metrics"
	kafkanotify "github.com/akimon658/twittra/internal/notify/kafka"
	"github.com/akimon658/twittra/internal/service"
	"github.com/akimon658/twittra/internal/storage/postgres"
	"github.com/akimon658/twittra/internal/storage/rediscache"
	"github.com/akimon658/twittra/internal/upstream"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.NewEntry(logger)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	logger.SetLevel(parseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open postgres")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	baseRepo := postgres.NewRepository(db)
	repo := baseRepo
	repo.User = rediscache.NewUserRepository(baseRepo.User, redisClient, log)
	repo.Stamp = rediscache.NewStampRepository(baseRepo.Stamp, redisClient, log)

	notifier := kafkanotify.New(cfg.KafkaBrokers, "message.updated", log)
	defer notifier.Close()

	client := upstream.New(cfg.UpstreamAPIBaseURL)

	// The cache-through and timeline services are constructed here so an
	// external API surface (out of this core's scope, per the upstream
	// API boundary) can be wired against them without touching this
	// startup sequence.
	services := struct {
		CacheThrough *service.CacheThroughService
		Timeline     *service.TimelineService
	}{
		CacheThrough: service.New(repo, client, log),
		Timeline:     service.NewTimeline(repo, log),
	}
	log.WithFields(logrus.Fields{
		"cache_through_ready": services.CacheThrough != nil,
		"timeline_ready":      services.Timeline != nil,
	}).Info("domain services constructed")

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}

	metricsServer := &http.Server{Addr: ":9090", Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped unexpectedly")
		}
	}()

	engine := ingest.New(client, repo, notifier, log)
	log.Info("starting ingestion engine")
	engine.Run(ctx)

	_ = metricsServer.Shutdown(context.Background())
	log.Info("shutdown complete")
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
