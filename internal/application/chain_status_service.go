package application

import (
	"context"
	"fmt"
	"time"

	"chainstate/internal/application/port"
	"chainstate/internal/config"
	"chainstate/internal/domain"
	"chainstate/internal/domain/entity"
	domainRepo "chainstate/internal/domain/repository"
	domainService "chainstate/internal/domain/service"
	"chainstate/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Compile-time check
var _ port.ChainStatusEvaluator = (*ChainStatusService)(nil)

// Memoization windows of the evaluation stages.
const (
	chainIDTTL   = 3000 * time.Second
	syncingTTL   = 15 * time.Second
	headBlockTTL = 5 * time.Second
	gapsTTL      = 5 * time.Second
)

const (
	methodNetVersion  = "net_version"
	methodSyncing     = "eth_syncing"
	methodBlockNumber = "eth_blockNumber"
)

// ChainStatusService evaluates endpoints as chain id, sync state, head block and gap report,
// stopping at the first hard failure.
type ChainStatusService struct {
	gateway    domainService.RPCGateway
	cache      domainRepo.ResultCache
	gapsMethod string
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewChainStatusService creates a new evaluator.
func NewChainStatusService(
	gateway domainService.RPCGateway,
	cache domainRepo.ResultCache,
	cfg config.RPCConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ChainStatusService {
	gapsMethod := cfg.GapsMethod
	if gapsMethod == "" {
		gapsMethod = "parity_chainStatus"
	}
	return &ChainStatusService{
		gateway:    gateway,
		cache:      cache,
		gapsMethod: gapsMethod,
		metrics:    m,
		logger:     logger.Named("ChainStatusEvaluator"),
	}
}

// Evaluate runs the staged status check against endpoint.
func (s *ChainStatusService) Evaluate(ctx context.Context, endpoint string) entity.ChainStatus {
	status := s.evaluate(ctx, endpoint)
	s.metrics.StatusEvaluated(status.Level.String())
	return status
}

func (s *ChainStatusService) evaluate(ctx context.Context, endpoint string) entity.ChainStatus {
	chainID, err := s.chainID(ctx, endpoint)
	if err != nil {
		return entity.FailStatus(err.Error())
	}

	syncState, err := s.syncing(ctx, endpoint)
	switch {
	case domain.IsMethodUnsupported(err, methodSyncing):
		s.logger.Debug("eth_syncing unsupported, assuming not syncing", zap.String("url", endpoint))
	case err != nil:
		return entity.FailStatus(err.Error())
	default:
		if progress, ok := syncState.(entity.SyncProgress); ok {
			return entity.WarnStatus(fmt.Sprintf("chain %d, %d%% %d out of %d",
				chainID, progress.Percent(), progress.CurrentBlock, progress.HighestBlock,
			))
		}
	}

	head, err := s.HeadBlock(ctx, endpoint)
	if err != nil {
		return entity.FailStatus(err.Error())
	}

	gaps, err := s.gaps(ctx, endpoint)
	if err != nil {
		s.logger.Debug("Gap report unavailable",
			zap.String("url", endpoint), zap.String("method", s.gapsMethod), zap.Error(err),
		)
		if head == 0 {
			return entity.WarnStatus(fmt.Sprintf("chain %d, zero head block", chainID))
		}
		return entity.OkStatus(fmt.Sprintf("chain %d, block %d", chainID, head))
	}

	return entity.OkStatus(fmt.Sprintf("chain %d, block %d, gaps %s", chainID, head, gaps))
}

func (s *ChainStatusService) chainID(ctx context.Context, endpoint string) (entity.ChainID, error) {
	return domainRepo.Memoize(s.cache, domainRepo.Key(methodNetVersion, endpoint), chainIDTTL,
		func() (entity.ChainID, error) {
			return domainService.Call[entity.ChainID](ctx, s.gateway, endpoint, methodNetVersion)
		},
	)
}

func (s *ChainStatusService) syncing(ctx context.Context, endpoint string) (entity.SyncState, error) {
	return domainRepo.Memoize(s.cache, domainRepo.Key(methodSyncing, endpoint), syncingTTL,
		func() (entity.SyncState, error) {
			raw, err := s.gateway.Send(ctx, endpoint, methodSyncing, nil, 1)
			if err != nil {
				return nil, err
			}
			state, err := entity.DecodeSyncState(raw)
			if err != nil {
				return nil, &domain.DecodeError{Raw: raw, Err: err}
			}
			return state, nil
		},
	)
}

// HeadBlock returns the memoized eth_blockNumber of endpoint.
func (s *ChainStatusService) HeadBlock(ctx context.Context, endpoint string) (uint64, error) {
	return headBlock(ctx, s.gateway, s.cache, endpoint)
}

func (s *ChainStatusService) gaps(ctx context.Context, endpoint string) (entity.BlockGapReport, error) {
	return domainRepo.Memoize(s.cache, domainRepo.Key(s.gapsMethod, endpoint), gapsTTL,
		func() (entity.BlockGapReport, error) {
			raw, err := s.gateway.Send(ctx, endpoint, s.gapsMethod, nil, 1)
			if err != nil {
				return nil, err
			}
			report, err := entity.DecodeBlockGapReport(raw)
			if err != nil {
				return nil, &domain.DecodeError{Raw: raw, Err: err}
			}
			return report, nil
		},
	)
}

// LogStatus writes status at the level matching its classification.
func LogStatus(logger *zap.Logger, status entity.ChainStatus, fields ...zap.Field) {
	fields = append(fields, zap.String("status", status.Level.String()))
	switch status.Level {
	case entity.StatusOk:
		logger.Info(status.Message, fields...)
	case entity.StatusWarn:
		logger.Warn(status.Message, fields...)
	default:
		logger.Error(status.Message, fields...)
	}
}

// LogStatusWithAddress is LogStatus with the endpoint attached.
func LogStatusWithAddress(logger *zap.Logger, status entity.ChainStatus, address string) {
	LogStatus(logger, status, zap.String("address", address))
}
