// Package app assembles the replenishment services from configuration.
package app

import (
	"fmt"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/cache"
	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/forecast"
	"github.com/eroudini/AiMerchant-sub000/internal/metrics"
	"github.com/eroudini/AiMerchant-sub000/internal/repository/postgres"
	"github.com/eroudini/AiMerchant-sub000/internal/service"
	"github.com/eroudini/AiMerchant-sub000/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Container holds the wired services shared by the server and the CLI.
type Container struct {
	Recommendations *service.RecommendationService
	AutoAction      *service.AutoActionService
	Exporter        *storage.POExporter
	Metrics         *metrics.Metrics

	redis *redis.Client
}

// Close releases the shared redis handle.
func (c *Container) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// New wires repositories, cache, forecast client and exporter around db.
// A nil registerer disables metrics.
func New(cfg *config.Config, db *postgres.DB, registerer prometheus.Registerer) (*Container, error) {
	var m *metrics.Metrics
	if registerer != nil {
		m = metrics.New(registerer)
	}

	redisClient, err := cache.NewRedisClient(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	listCache := cache.NewRecommendationCache(redisClient, cfg.Cache)
	locker := cache.NewRunLocker(redisClient, cfg.Cache)

	recommendations := service.NewRecommendationService(
		postgres.NewRecommendationRepository(db),
		postgres.NewInventoryRepository(db),
		listCache,
		m,
	)

	opts := []service.AutoActionOption{
		service.WithRunLocker(locker),
		service.WithMetrics(m),
		service.WithForecastTimeout(time.Duration(cfg.Forecast.TimeoutSeconds) * time.Second),
	}

	c := &Container{Recommendations: recommendations, Metrics: m, redis: redisClient}
	if cfg.Export.Enabled {
		store, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Export.Endpoint,
			AccessKey: cfg.Export.AccessKey,
			SecretKey: cfg.Export.SecretKey,
			Bucket:    cfg.Export.Bucket,
			Region:    cfg.Export.Region,
			UseSSL:    cfg.Export.UseSSL,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init export storage: %w", err)
		}
		c.Exporter = storage.NewPOExporter(store, cfg.Export.Prefix, cfg.Export.Format)
		opts = append(opts, service.WithExporter(c.Exporter))
		log.Info().Str("bucket", cfg.Export.Bucket).Str("format", cfg.Export.Format).Msg("purchase order export enabled")
	}

	c.AutoAction = service.NewAutoActionService(
		cfg.AutoAction,
		postgres.NewActivityRepository(db),
		forecast.NewClient(cfg.Forecast),
		recommendations,
		opts...,
	)

	return c, nil
}
