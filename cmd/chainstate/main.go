package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "chainstate/internal/adapter/delivery/http"
	handlerHTTP "chainstate/internal/adapter/handler/http"
	"chainstate/internal/adapter/rpc"
	"chainstate/internal/adapter/storage/memory"
	"chainstate/internal/adapter/storage/netlist"
	"chainstate/internal/application"
	"chainstate/internal/config"
	"chainstate/internal/domain/entity"
	"chainstate/internal/logger"
	"chainstate/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to parse flags: %v", err)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Logger ---
	appLogger := logger.NewLogger(cfg.Logger, cfg.App)
	defer func() { _ = appLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Dependency Injection (Manual) ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	gateway := rpc.NewGateway(cfg.RPC, appMetrics, appLogger)
	resultCache := memory.NewResultCache(cfg.Cache, appMetrics, appLogger)
	statusService := application.NewChainStatusService(gateway, resultCache, cfg.RPC, appMetrics, appLogger)
	blockService := application.NewBlockService(gateway, resultCache, cfg.RPC, appLogger)
	scheduler := application.NewScheduler(statusService, appLogger)

	mode := cfg.Mode
	switch {
	case mode.Endpoints:
		networks := loadNetworks(ctx, mode, appLogger)
		for _, endpoint := range scheduler.HealthyEndpoints(ctx, networks) {
			fmt.Println(endpoint)
		}

	case mode.Network != "":
		application.LogStatus(appLogger, statusService.Evaluate(ctx, mode.Network))

	case mode.NetworksFile != "":
		scheduler.LogStatuses(ctx, loadNetworks(ctx, mode, appLogger))

	case mode.Serve:
		handler := handlerHTTP.NewChainStateHandler(
			blockService, statusService, mode.Eth1, cfg.Blocks.GetRecentCount(), appLogger,
		)
		r := deliveryHTTP.NewRouter(handler, registry, appLogger)
		serve(ctx, cfg.Server.Addr, deliveryHTTP.LoggingMiddleware(r.Handler, appLogger), appLogger)

	default:
		fmt.Fprintf(os.Stderr, "Usage of chainstate:\n%s", flags.FlagUsages())
		os.Exit(2)
	}
}

// loadNetworks reads the networks file and applies the tag query.
func loadNetworks(ctx context.Context, mode config.ModeConfig, logger *zap.Logger) []entity.Network {
	all, err := netlist.NewRepository(mode.NetworksFile, logger).Networks(ctx)
	if err != nil {
		logger.Fatal("Failed to load networks", zap.String("source", mode.NetworksFile), zap.Error(err))
	}
	query := entity.ParseTagQuery(mode.Tag)
	matching := entity.FilterNetworks(all, query)
	logger.Info("Networks selected",
		zap.Int("total", len(all)), zap.Int("matching", len(matching)), zap.Stringers("query", []entity.TagPredicate(query)),
	)
	return matching
}

// serve runs the read API until ctx is cancelled.
func serve(ctx context.Context, addr string, handler fasthttp.RequestHandler, logger *zap.Logger) {
	server := &fasthttp.Server{
		Handler: handler,
		Name:    "chainstate",
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", addr))
		errCh <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}
}
