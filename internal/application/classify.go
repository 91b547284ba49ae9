package application

import (
	"chainstate/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TransferEventSignature is keccak256("Transfer(address,address,uint256)").
var TransferEventSignature = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

var transferEventWord = new(uint256.Int).SetBytes32(TransferEventSignature.Bytes())

// classify labels a receipt. Contract creations are Publish. Otherwise a receipt with more than one
// log whose first log data is longer than one word and starts with the Transfer signature is Transfer.
// The signature is looked up in log data, not topics.
func classify(r receiptWire) entity.Classification {
	if r.ContractAddress != nil {
		return entity.ClassificationPublish
	}
	if len(r.Logs) <= 1 {
		return ""
	}
	data := r.Logs[0].Data
	if len(data) <= 32 {
		return ""
	}
	if new(uint256.Int).SetBytes32(data[:32]).Eq(transferEventWord) {
		return entity.ClassificationTransfer
	}
	return ""
}
