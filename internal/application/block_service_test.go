package application

import (
	"context"
	"encoding/json"
	"testing"

	"chainstate/internal/config"
	"chainstate/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const transferWord = "ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

func blockJSON(n uint64) string {
	return `{"number":"` + hexutil.EncodeUint64(n) + `","hash":"0x00000000000000000000000000000000000000000000000000000000000000aa",` +
		`"miner":"0x00000000000000000000000000000000000000bb","gasUsed":"0x5208","gasLimit":"0x1c9c380","transactions":[]}`
}

const receiptsJSON = `[
  {"transactionHash":"0x0000000000000000000000000000000000000000000000000000000000000001","gasUsed":"0x5208",
   "effectiveGasPrice":"0x3b9aca00","status":"0x1","contractAddress":null,
   "logs":[{"topics":[],"data":"0x` + transferWord + `00"},{"topics":[],"data":"0x"}]},
  {"transactionHash":"0x0000000000000000000000000000000000000000000000000000000000000002","gasUsed":"0x10",
   "status":"0x1","contractAddress":"0x00000000000000000000000000000000000000cc","logs":[]},
  {"transactionHash":"0x0000000000000000000000000000000000000000000000000000000000000003","gasUsed":"0x10",
   "status":"0x0","contractAddress":null,"logs":[]}
]`

func onBlock(gw *fakeGateway, n uint64) {
	tag := hexutil.EncodeUint64(n)
	gw.on(node, methodGetBlockByNumber+":"+tag, blockJSON(n))
	gw.on(node, "parity_getBlockReceipts:"+tag, `[]`)
}

func newBlockService(gw *fakeGateway) *BlockService {
	return NewBlockService(gw, newMapCache(), config.RPCConfig{}, zap.NewNop())
}

func TestBlockService_FetchBlock(t *testing.T) {
	gw := newFakeGateway()
	gw.on(node, methodGetBlockByNumber+":0x7", blockJSON(7))
	gw.on(node, "parity_getBlockReceipts:0x7", receiptsJSON)
	svc := newBlockService(gw)

	block, ok := svc.FetchBlock(context.Background(), node, 7)
	require.True(t, ok)

	assert.Equal(t, uint64(7), block.Number)
	assert.Equal(t, uint64(21000), block.GasUsed)
	assert.Equal(t, uint64(30000000), block.GasLimit)
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000aa", block.Hash)
	require.Len(t, block.Transactions, 3)

	transfer := block.Transactions[0]
	assert.Equal(t, entity.ClassificationTransfer, transfer.Classification)
	assert.Equal(t, int64(1000000000), transfer.EffectiveGasPrice.Int64())
	assert.Equal(t, uint64(1), transfer.Status)
	assert.Nil(t, transfer.ContractAddress)

	publish := block.Transactions[1]
	assert.Equal(t, entity.ClassificationPublish, publish.Classification)
	require.NotNil(t, publish.ContractAddress)
	assert.Nil(t, publish.EffectiveGasPrice)

	plain := block.Transactions[2]
	assert.Empty(t, plain.Classification)

	encoded, err := json.Marshal(plain)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "classification")
	assert.NotContains(t, string(encoded), "contractAddress")

	_, ok = svc.FetchBlock(context.Background(), node, 7)
	require.True(t, ok)
	assert.Equal(t, 1, gw.count(methodGetBlockByNumber+":0x7"))
}

func TestBlockService_FetchBlock_Failures(t *testing.T) {
	t.Run("null block", func(t *testing.T) {
		gw := newFakeGateway()
		gw.on(node, methodGetBlockByNumber+":0x1", `null`)
		gw.on(node, "parity_getBlockReceipts:0x1", `[]`)

		_, ok := newBlockService(gw).FetchBlock(context.Background(), node, 1)
		assert.False(t, ok)
	})

	t.Run("receipts unsupported", func(t *testing.T) {
		gw := newFakeGateway()
		gw.on(node, methodGetBlockByNumber+":0x1", blockJSON(1))

		_, ok := newBlockService(gw).FetchBlock(context.Background(), node, 1)
		assert.False(t, ok)
	})

	t.Run("malformed receipts", func(t *testing.T) {
		gw := newFakeGateway()
		gw.on(node, methodGetBlockByNumber+":0x1", blockJSON(1))
		gw.on(node, "parity_getBlockReceipts:0x1", `{"not":"a list"}`)

		_, ok := newBlockService(gw).FetchBlock(context.Background(), node, 1)
		assert.False(t, ok)
	})
}

func TestBlockService_CustomReceiptsMethod(t *testing.T) {
	gw := newFakeGateway()
	gw.on(node, methodGetBlockByNumber+":0x1", blockJSON(1))
	gw.on(node, "eth_getBlockReceipts:0x1", `[]`)
	svc := NewBlockService(gw, newMapCache(), config.RPCConfig{ReceiptsMethod: "eth_getBlockReceipts"}, zap.NewNop())

	_, ok := svc.FetchBlock(context.Background(), node, 1)
	assert.True(t, ok)
}

func TestBlockService_FetchRecentBlocks(t *testing.T) {
	gw := newFakeGateway().on(node, "eth_blockNumber", `"0x64"`)
	for n := uint64(100); n > 95; n-- {
		if n == 98 {
			continue
		}
		onBlock(gw, n)
	}

	blocks, ok := newBlockService(gw).FetchRecentBlocks(context.Background(), node, 5)
	require.True(t, ok)

	numbers := make([]uint64, len(blocks))
	for i, b := range blocks {
		numbers[i] = b.Number
	}
	// Window of four ending at the head, with 98 missing.
	assert.Equal(t, []uint64{100, 99, 97}, numbers)
}

func TestBlockService_FetchRecentBlocks_ZeroHead(t *testing.T) {
	gw := newFakeGateway().on(node, "eth_blockNumber", `"0x0"`)

	blocks, ok := newBlockService(gw).FetchRecentBlocks(context.Background(), node, 10)
	assert.False(t, ok)
	assert.Nil(t, blocks)
	assert.Equal(t, 0, gw.count(methodGetBlockByNumber+":0x0"))
}

func TestBlockService_FetchRecentBlocks_HeadUnavailable(t *testing.T) {
	_, ok := newBlockService(newFakeGateway()).FetchRecentBlocks(context.Background(), node, 10)
	assert.False(t, ok)
}

func TestRecentWindow(t *testing.T) {
	assert.Equal(t, []uint64{10, 9, 8}, recentWindow(10, 4))
	assert.Equal(t, []uint64{2, 1, 0}, recentWindow(2, 10))
	assert.Empty(t, recentWindow(10, 1))
	assert.Empty(t, recentWindow(10, 0))
}

func TestClassify(t *testing.T) {
	word, err := hexutil.Decode("0x" + transferWord)
	require.NoError(t, err)
	longer := append(append([]byte{}, word...), 0x01)
	creator := common.HexToAddress("0xcc")

	tests := []struct {
		name    string
		receipt receiptWire
		want    entity.Classification
	}{
		{name: "contract creation", receipt: receiptWire{ContractAddress: &creator, Logs: []logWire{{Data: longer}, {}}}, want: entity.ClassificationPublish},
		{name: "no logs", receipt: receiptWire{}, want: ""},
		{name: "single log", receipt: receiptWire{Logs: []logWire{{Data: longer}}}, want: ""},
		{name: "data of exactly one word", receipt: receiptWire{Logs: []logWire{{Data: word}, {}}}, want: ""},
		{name: "transfer word in data", receipt: receiptWire{Logs: []logWire{{Data: longer}, {}}}, want: entity.ClassificationTransfer},
		{name: "other word", receipt: receiptWire{Logs: []logWire{{Data: make([]byte, 40)}, {}}}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.receipt))
		})
	}
}
