package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/api"
	"github.com/eroudini/AiMerchant-sub000/internal/app"
	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/repository/postgres"
	"github.com/eroudini/AiMerchant-sub000/internal/scheduler"
	"github.com/eroudini/AiMerchant-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.Mode, cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// cancelled on SIGINT/SIGTERM; running auto-action passes stop between accounts
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := app.New(cfg, db, registry)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Close()

	router := api.NewRouter(ctx, &api.Services{
		RecommendationService: services.Recommendations,
		AutoActionService:     services.AutoAction,
	}, api.RouterConfig{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		DefaultAccountID: cfg.AutoAction.DefaultAccountID,
		RunRateLimit:     cfg.Server.RunRateLimit,
		RunRateBurst:     cfg.Server.RunRateBurst,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	opsSrv := &http.Server{
		Addr: ":" + cfg.Ops.Port,
		Handler: api.NewOpsRouter(registry, map[string]api.Pinger{
			"postgres": db.PingContext,
		}),
		ReadTimeout: 5 * time.Second,
	}

	cron := scheduler.New(ctx)
	if err := scheduler.NewReplenishmentJob(services.AutoAction).Schedule(cron, cfg.AutoAction.CronSpec, cfg.AutoAction.Enabled); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to schedule auto-action job")
	}
	cron.Start()

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	go func() {
		logger.Log.Info().Str("port", cfg.Ops.Port).Msg("Starting ops listener")
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error().Err(err).Msg("Ops listener stopped")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}
	cron.Stop()
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Ops listener forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
