package repository

import (
	"context"

	"chainstate/internal/domain/entity"
)

// NetworkRepository loads the configured endpoint list.
type NetworkRepository interface {
	// Networks returns the configured networks in declaration order.
	Networks(ctx context.Context) ([]entity.Network, error)
}
