package application

import (
	"context"

	"chainstate/internal/domain/entity"
	domainRepo "chainstate/internal/domain/repository"
	domainService "chainstate/internal/domain/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// blockWire is the eth_getBlockByNumber(n, false) result.
type blockWire struct {
	Number   hexutil.Uint64  `json:"number"`
	Hash     *common.Hash    `json:"hash"`
	Miner    *common.Address `json:"miner"`
	GasUsed  hexutil.Uint64  `json:"gasUsed"`
	GasLimit hexutil.Uint64  `json:"gasLimit"`
}

// receiptWire is one element of a block receipts result.
type receiptWire struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	Status            *hexutil.Uint64 `json:"status"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []logWire       `json:"logs"`
}

type logWire struct {
	Topics []common.Hash `json:"topics"`
	Data   hexutil.Bytes `json:"data"`
}

func (b blockWire) toEntity(receipts []receiptWire) *entity.Block {
	block := &entity.Block{
		Number:       uint64(b.Number),
		GasUsed:      uint64(b.GasUsed),
		GasLimit:     uint64(b.GasLimit),
		Transactions: make([]entity.Tx, 0, len(receipts)),
	}
	if b.Hash != nil {
		block.Hash = b.Hash.Hex()
	}
	if b.Miner != nil {
		block.Miner = b.Miner.Hex()
	}
	for _, r := range receipts {
		block.Transactions = append(block.Transactions, r.toEntity())
	}
	return block
}

func (r receiptWire) toEntity() entity.Tx {
	tx := entity.Tx{
		Hash:           r.TransactionHash.Hex(),
		GasUsed:        uint64(r.GasUsed),
		Classification: classify(r),
	}
	if r.EffectiveGasPrice != nil {
		tx.EffectiveGasPrice = r.EffectiveGasPrice.ToInt()
	}
	if r.Status != nil {
		tx.Status = uint64(*r.Status)
	}
	if r.ContractAddress != nil {
		addr := r.ContractAddress.Hex()
		tx.ContractAddress = &addr
	}
	return tx
}

// headBlock is eth_blockNumber memoized per endpoint, shared by status checks and block windows.
func headBlock(
	ctx context.Context,
	gateway domainService.RPCGateway,
	cache domainRepo.ResultCache,
	endpoint string,
) (uint64, error) {
	return domainRepo.Memoize(cache, domainRepo.Key(methodBlockNumber, endpoint), headBlockTTL,
		func() (uint64, error) {
			head, err := domainService.Call[hexutil.Uint64](ctx, gateway, endpoint, methodBlockNumber)
			return uint64(head), err
		},
	)
}
