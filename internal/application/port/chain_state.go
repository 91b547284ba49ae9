package port

import (
	"context"

	"chainstate/internal/domain/entity"
)

// ChainStatusEvaluator classifies the health of one endpoint.
type ChainStatusEvaluator interface {
	// Evaluate never returns an error: failures are reported as a Fail status.
	Evaluate(ctx context.Context, endpoint string) entity.ChainStatus
}

// BlockFetcher reads blocks together with their receipts.
type BlockFetcher interface {
	// FetchBlock returns false when the block or its receipts could not be read.
	FetchBlock(ctx context.Context, endpoint string, number uint64) (*entity.Block, bool)

	// FetchRecentBlocks returns up to count-1 blocks ending at the head, newest first.
	// It returns false when the head is unknown or zero.
	FetchRecentBlocks(ctx context.Context, endpoint string, count int) ([]entity.Block, bool)
}

// FanoutScheduler runs status evaluations across many networks concurrently.
type FanoutScheduler interface {
	// LogStatuses evaluates every network and logs each result with its address.
	LogStatuses(ctx context.Context, networks []entity.Network)

	// HealthyEndpoints returns the endpoints whose status is Ok, in completion order.
	HealthyEndpoints(ctx context.Context, networks []entity.Network) []string
}
