package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SyncState is the decoded result of eth_syncing: either SyncDone or SyncProgress.
type SyncState interface {
	isSyncState()
}

// SyncDone is the bare boolean form of eth_syncing.
type SyncDone struct {
	Value bool
}

// SyncProgress is the object form of eth_syncing reported while a node catches up.
type SyncProgress struct {
	StartingBlock uint64
	CurrentBlock  uint64
	HighestBlock  uint64
}

func (SyncDone) isSyncState()     {}
func (SyncProgress) isSyncState() {}

// Percent is CurrentBlock*100/HighestBlock, truncated. Zero when HighestBlock is zero.
func (p SyncProgress) Percent() uint64 {
	if p.HighestBlock == 0 {
		return 0
	}
	return p.CurrentBlock * 100 / p.HighestBlock
}

type syncProgressWire struct {
	StartingBlock *hexutil.Uint64 `json:"startingBlock"`
	CurrentBlock  *hexutil.Uint64 `json:"currentBlock"`
	HighestBlock  *hexutil.Uint64 `json:"highestBlock"`
}

// DecodeSyncState tries the boolean shape first and the progress object second.
func DecodeSyncState(raw []byte) (SyncState, error) {
	var done bool
	if err := json.Unmarshal(raw, &done); err == nil {
		return SyncDone{Value: done}, nil
	}

	var wire syncProgressWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("sync state is neither boolean nor progress object: %w", err)
	}
	if wire.CurrentBlock == nil || wire.HighestBlock == nil {
		return nil, fmt.Errorf("sync progress object lacks currentBlock/highestBlock")
	}
	p := SyncProgress{
		CurrentBlock: uint64(*wire.CurrentBlock),
		HighestBlock: uint64(*wire.HighestBlock),
	}
	if wire.StartingBlock != nil {
		p.StartingBlock = uint64(*wire.StartingBlock)
	}
	return p, nil
}

// ChainID is a network id decoded from either a JSON number or a numeric string.
type ChainID uint64

func (c *ChainID) UnmarshalJSON(data []byte) error {
	v, err := decodeQuantity(data)
	if err != nil {
		return fmt.Errorf("invalid chain id: %w", err)
	}
	*c = ChainID(v)
	return nil
}

// decodeQuantity accepts a JSON number, a decimal string or a 0x-prefixed hex string.
func decodeQuantity(data []byte) (uint64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			return hexutil.DecodeUint64(s)
		}
		return strconv.ParseUint(s, 10, 64)
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("%s: %w", data, err)
	}
	return v, nil
}

// StatusLevel is the tri-state outcome of a chain status evaluation.
type StatusLevel int

const (
	StatusOk StatusLevel = iota
	StatusWarn
	StatusFail
)

func (l StatusLevel) String() string {
	switch l {
	case StatusOk:
		return "ok"
	case StatusWarn:
		return "warn"
	default:
		return "fail"
	}
}

func (l StatusLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ChainStatus is an evaluation outcome with a human-readable message.
type ChainStatus struct {
	Level   StatusLevel `json:"status"`
	Message string      `json:"message"`
}

func OkStatus(msg string) ChainStatus   { return ChainStatus{Level: StatusOk, Message: msg} }
func WarnStatus(msg string) ChainStatus { return ChainStatus{Level: StatusWarn, Message: msg} }
func FailStatus(msg string) ChainStatus { return ChainStatus{Level: StatusFail, Message: msg} }

// IsOk reports whether the endpoint is healthy.
func (s ChainStatus) IsOk() bool {
	return s.Level == StatusOk
}

func (s ChainStatus) String() string {
	return s.Level.String() + ": " + s.Message
}

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	Low  uint64
	High uint64
}

// BlockGapReport is the ordered list of ranges a node reports missing.
type BlockGapReport []BlockRange

// String renders the ranges as low..high pairs joined by "..", or "none" when empty.
func (r BlockGapReport) String() string {
	if len(r) == 0 {
		return "none"
	}
	parts := make([]string, len(r))
	for i, rg := range r {
		parts[i] = strconv.FormatUint(rg.Low, 10) + ".." + strconv.FormatUint(rg.High, 10)
	}
	return strings.Join(parts, "..")
}

type quantity uint64

func (q *quantity) UnmarshalJSON(data []byte) error {
	v, err := decodeQuantity(data)
	if err != nil {
		return err
	}
	*q = quantity(v)
	return nil
}

// DecodeBlockGapReport decodes {"blockGap": null | [lo, hi] | [[lo, hi], ...]}.
func DecodeBlockGapReport(raw []byte) (BlockGapReport, error) {
	var wire struct {
		BlockGap json.RawMessage `json:"blockGap"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("gap report is not an object: %w", err)
	}
	gap := bytes.TrimSpace(wire.BlockGap)
	if len(gap) == 0 || bytes.Equal(gap, []byte("null")) {
		return BlockGapReport{}, nil
	}

	var pairs [][2]quantity
	if err := json.Unmarshal(gap, &pairs); err != nil {
		var single [2]quantity
		if err := json.Unmarshal(gap, &single); err != nil {
			return nil, fmt.Errorf("blockGap is neither a range nor a list of ranges: %w", err)
		}
		pairs = [][2]quantity{single}
	}

	report := make(BlockGapReport, len(pairs))
	for i, p := range pairs {
		report[i] = BlockRange{Low: uint64(p[0]), High: uint64(p[1])}
	}
	return report, nil
}

// Classification is a best-effort label derived from a transaction receipt.
type Classification string

const (
	ClassificationTransfer Classification = "Transfer"
	ClassificationPublish  Classification = "Publish"
)

// Block is a block header summary with its receipts folded into transactions.
type Block struct {
	Number       uint64 `json:"number"`
	Hash         string `json:"hash"`
	Miner        string `json:"miner"`
	GasUsed      uint64 `json:"gasUsed"`
	GasLimit     uint64 `json:"gasLimit"`
	Transactions []Tx   `json:"transactions"`
}

// Tx is a transaction as seen through its receipt.
type Tx struct {
	Hash              string         `json:"hash"`
	GasUsed           uint64         `json:"gasUsed"`
	EffectiveGasPrice *big.Int       `json:"effectiveGasPrice,omitempty"`
	Status            uint64         `json:"status"`
	Classification    Classification `json:"classification,omitempty"`
	ContractAddress   *string        `json:"contractAddress,omitempty"`
}
