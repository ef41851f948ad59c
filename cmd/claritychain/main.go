package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"claritychain/internal/ai"
	"claritychain/internal/amqp"
	"claritychain/internal/cache"
	"claritychain/internal/cli"
	apphttp "claritychain/internal/http"
	"claritychain/internal/log"
	"claritychain/internal/services"
	"claritychain/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)

	dash := services.NewDashboardService(res.Store, services.DashboardOptions{
		Normalization:   cfg.Normalization(),
		HallOfFameLimit: cfg.HallOfFameLimit,
		FeedLimit:       cfg.FeedLimit,
		CacheTTL:        cfg.CacheTTL,
	})

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.Publisher
	amqpClient := cli.InitAMQP(logger, cfg, "")
	if amqpClient != nil {
		publisher = amqpClient
	}
	donations := services.NewDonationService(res.Store, publisher)
	donations.OnChange(dash.Invalidate)

	gen, err := ai.New(context.Background(), ai.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AI generator", err)
	}
	content := services.NewContentService(dash, gen)
	_, aiDisabled := gen.(ai.Disabled)
	aiEnabled := !aiDisabled

	cacheManager := cache.NewManager()
	cacheManager.Register(dash.Cache())
	cleanupEvery := cfg.CacheTTL
	if cleanupEvery <= 0 {
		cleanupEvery = time.Minute
	}
	cacheManager.StartCleanup(cleanupEvery)

	// Each process consumes from its own queue; the feed window also
	// invalidates the snapshot so writes from other instances show up.
	var (
		live       apphttp.LiveFeed
		feed       *worker.FeedConsumer
		feedClient *amqp.Client
	)
	if cfg.AMQPFeedQueue != "" {
		if feedClient = cli.InitAMQP(logger, cfg, cfg.AMQPFeedQueue); feedClient != nil {
			feed = worker.NewFeedConsumer(worker.DefaultFeedWindow, dash.Invalidate)
			live = feed
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Dashboard: dash,
		Donations: donations,
		Content:   content,
		Live:      live,
		Ready:     res.Ready,
		Logger:    logger.WithComponent(log.ComponentHTTP),
	}, apphttp.DefaultOptions())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if feedClient != nil {
			_ = feedClient.Close()
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	if feedClient != nil {
		go func() {
			if err := feedClient.ConsumeActivity(ctx, feed.HandleActivity); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Live feed consumption stopped", "error", err)
			}
		}()
	}

	if cfg.SimulatorEnabled {
		simCfg := worker.DefaultSimulatorConfig()
		simCfg.Interval = cfg.SimulatorInterval
		sim := worker.NewSimulator(donations, res.Store, simCfg)
		go func() {
			if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Simulator stopped", "error", err)
			}
		}()
	}

	logger.Info("Starting claritychain server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", amqpClient != nil,
		"live_feed", live != nil,
		"ai", aiEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
