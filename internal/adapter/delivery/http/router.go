package http

import (
	"time"

	handler "chainstate/internal/adapter/handler/http"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// NewRouter registers the read API, health and metrics routes.
func NewRouter(h *handler.ChainStateHandler, gatherer prometheus.Gatherer, logger *zap.Logger) *router.Router {
	logger.Info("Setting up application-specific routes...")
	r := router.New()

	r.GET("/api/chainstate", h.GetChainState)
	r.GET("/api/status", h.GetStatus)

	logger.Info("Setting up health check and metrics routes...")
	r.GET("/health", h.Health)
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	))

	logger.Info("All routes registered.")
	return r
}

// LoggingMiddleware logs every request with its status and latency.
func LoggingMiddleware(next fasthttp.RequestHandler, logger *zap.Logger) fasthttp.RequestHandler {
	logger = logger.Named("HTTP")
	return func(ctx *fasthttp.RequestCtx) {
		startTime := time.Now()
		next(ctx)
		logger.Info("Request handled",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
		)
	}
}
