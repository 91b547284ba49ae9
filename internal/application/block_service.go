package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chainstate/internal/application/port"
	"chainstate/internal/config"
	"chainstate/internal/domain"
	"chainstate/internal/domain/entity"
	domainRepo "chainstate/internal/domain/repository"
	domainService "chainstate/internal/domain/service"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compile-time check
var _ port.BlockFetcher = (*BlockService)(nil)

const (
	blockTTL        = 30 * time.Second
	recentBlocksTTL = 10 * time.Second

	methodGetBlockByNumber = "eth_getBlockByNumber"

	opFetchBlock   = "fetch_block"
	opRecentBlocks = "recent_blocks"

	// blockFetchConcurrency bounds parallel block reads within one window.
	blockFetchConcurrency = 4
)

// BlockService reads blocks with their receipts and assembles recent-block windows.
// Failures are logged and reported as absence, never returned.
type BlockService struct {
	gateway        domainService.RPCGateway
	cache          domainRepo.ResultCache
	receiptsMethod string
	logger         *zap.Logger
}

// NewBlockService creates a new block fetcher.
func NewBlockService(
	gateway domainService.RPCGateway,
	cache domainRepo.ResultCache,
	cfg config.RPCConfig,
	logger *zap.Logger,
) *BlockService {
	receiptsMethod := cfg.ReceiptsMethod
	if receiptsMethod == "" {
		receiptsMethod = "parity_getBlockReceipts"
	}
	return &BlockService{
		gateway:        gateway,
		cache:          cache,
		receiptsMethod: receiptsMethod,
		logger:         logger.Named("BlockFetcher"),
	}
}

// FetchBlock reads block number together with its receipts.
func (s *BlockService) FetchBlock(ctx context.Context, endpoint string, number uint64) (*entity.Block, bool) {
	block, err := domainRepo.Memoize(s.cache, domainRepo.Key(opFetchBlock, endpoint, number), blockTTL,
		func() (*entity.Block, error) {
			return s.fetchBlock(ctx, endpoint, number)
		},
	)
	if err != nil {
		s.logger.Warn("Failed to fetch block",
			zap.String("url", endpoint), zap.Uint64("block", number), zap.Error(err),
		)
		return nil, false
	}
	return block, true
}

func (s *BlockService) fetchBlock(ctx context.Context, endpoint string, number uint64) (*entity.Block, error) {
	tag := hexutil.EncodeUint64(number)
	results, err := s.gateway.SendBatch(ctx, endpoint, []entity.RPCCall{
		{Method: methodGetBlockByNumber, Params: []any{tag, false}, ID: 1},
		{Method: s.receiptsMethod, Params: []any{tag}, ID: 2},
	})
	if err != nil {
		return nil, err
	}
	if len(results) != 2 {
		return nil, fmt.Errorf("expected 2 batch results, got %d", len(results))
	}

	var block *blockWire
	if err := json.Unmarshal(results[0], &block); err != nil {
		return nil, &domain.DecodeError{Raw: results[0], Err: err}
	}
	if block == nil {
		return nil, fmt.Errorf("%w: block %d not found", domain.ErrNotReady, number)
	}

	receipts, err := domainService.Decode[[]receiptWire](results[1])
	if err != nil {
		return nil, err
	}

	return block.toEntity(receipts), nil
}

// FetchRecentBlocks reads the count-1 newest blocks, skipping blocks that fail to load.
func (s *BlockService) FetchRecentBlocks(ctx context.Context, endpoint string, count int) ([]entity.Block, bool) {
	blocks, err := domainRepo.Memoize(s.cache, domainRepo.Key(opRecentBlocks, endpoint, count), recentBlocksTTL,
		func() ([]entity.Block, error) {
			return s.fetchRecentBlocks(ctx, endpoint, count)
		},
	)
	if err != nil {
		s.logger.Warn("Failed to fetch recent blocks", zap.String("url", endpoint), zap.Error(err))
		return nil, false
	}
	return blocks, true
}

func (s *BlockService) fetchRecentBlocks(ctx context.Context, endpoint string, count int) ([]entity.Block, error) {
	head, err := headBlock(ctx, s.gateway, s.cache, endpoint)
	if err != nil {
		return nil, err
	}
	if head == 0 {
		return nil, fmt.Errorf("%w: zero head block", domain.ErrNotReady)
	}

	numbers := recentWindow(head, count)
	slots := make([]*entity.Block, len(numbers))

	g := new(errgroup.Group)
	g.SetLimit(blockFetchConcurrency)
	for i, n := range numbers {
		i, n := i, n
		g.Go(func() error {
			if block, ok := s.FetchBlock(ctx, endpoint, n); ok {
				slots[i] = block
			}
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]entity.Block, 0, len(slots))
	for _, b := range slots {
		if b != nil {
			blocks = append(blocks, *b)
		}
	}
	return blocks, nil
}

// recentWindow lists count-1 block numbers from head downwards, stopping at block 0.
func recentWindow(head uint64, count int) []uint64 {
	if count <= 1 {
		return []uint64{}
	}
	size := uint64(count - 1)
	if size > head+1 {
		size = head + 1
	}
	numbers := make([]uint64, 0, size)
	for i := uint64(0); i < size; i++ {
		numbers = append(numbers, head-i)
	}
	return numbers
}
