package application

import (
	"context"
	"fmt"
	"sync"

	"chainstate/internal/application/port"
	"chainstate/internal/domain/entity"
	"chainstate/internal/pkg/apperrors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compile-time check
var _ port.FanoutScheduler = (*Scheduler)(nil)

// Scheduler runs one evaluation per network concurrently and waits for all of them.
// A panicking unit is logged and does not affect the others.
type Scheduler struct {
	evaluator port.ChainStatusEvaluator
	logger    *zap.Logger
}

// NewScheduler creates a new fan-out scheduler.
func NewScheduler(evaluator port.ChainStatusEvaluator, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		evaluator: evaluator,
		logger:    logger.Named("FanoutScheduler"),
	}
}

// LogStatuses evaluates every network and logs its status tagged with its address.
func (s *Scheduler) LogStatuses(ctx context.Context, networks []entity.Network) {
	s.fanout(networks, func(n entity.Network) {
		LogStatusWithAddress(s.logger, s.evaluator.Evaluate(ctx, n.Endpoint()), n.Endpoint())
	})
}

// HealthyEndpoints returns the endpoints whose status is Ok.
// The lock guards only the append; evaluations run unserialized.
func (s *Scheduler) HealthyEndpoints(ctx context.Context, networks []entity.Network) []string {
	var (
		mu      sync.Mutex
		healthy = make([]string, 0, len(networks))
	)
	s.fanout(networks, func(n entity.Network) {
		if !s.evaluator.Evaluate(ctx, n.Endpoint()).IsOk() {
			return
		}
		mu.Lock()
		healthy = append(healthy, n.Endpoint())
		mu.Unlock()
	})
	return healthy
}

func (s *Scheduler) fanout(networks []entity.Network, unit func(entity.Network)) {
	s.logger.Debug("Starting fan-out", zap.Int("networks", len(networks)))

	var g errgroup.Group
	for _, n := range networks {
		n := n
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Evaluation unit panicked",
						zap.String("address", n.Endpoint()), zap.Error(fmt.Errorf("%w: %v", apperrors.ErrInternal, r)),
					)
				}
			}()
			unit(n)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("Fan-out finished", zap.Int("networks", len(networks)))
}
