package http

import (
	"encoding/json"

	"chainstate/internal/application/port"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// ChainStateHandler serves the read API for the configured endpoint.
type ChainStateHandler struct {
	blocks      port.BlockFetcher
	statuses    port.ChainStatusEvaluator
	endpoint    string
	recentCount int
	logger      *zap.Logger
}

func NewChainStateHandler(
	blocks port.BlockFetcher,
	statuses port.ChainStatusEvaluator,
	endpoint string,
	recentCount int,
	logger *zap.Logger,
) *ChainStateHandler {
	return &ChainStateHandler{
		blocks:      blocks,
		statuses:    statuses,
		endpoint:    endpoint,
		recentCount: recentCount,
		logger:      logger.Named("ChainStateHandler"),
	}
}

// GetChainState returns the recent blocks of the endpoint, or null when they cannot be read.
func (h *ChainStateHandler) GetChainState(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")

	blocks, ok := h.blocks.FetchRecentBlocks(ctx, h.endpoint, h.recentCount)
	if !ok {
		h.logger.Debug("No chain state available", zap.String("url", h.endpoint))
		ctx.SetBodyString("null")
		return
	}

	if err := json.NewEncoder(ctx).Encode(blocks); err != nil {
		h.logger.Error("Failed to encode chain state", zap.Error(err))
		ctx.ResetBody()
		ctx.SetBodyString("null")
	}
}

// GetStatus evaluates the endpoint and returns its classified status.
func (h *ChainStateHandler) GetStatus(ctx *fasthttp.RequestCtx) {
	status := h.statuses.Evaluate(ctx, h.endpoint)

	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(status); err != nil {
		h.logger.Error("Failed to encode status response", zap.Error(err))
	}
}

// Health always answers OK.
func (h *ChainStateHandler) Health(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString("OK")
}
