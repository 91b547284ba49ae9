package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"chainstate/internal/domain"
	"chainstate/internal/domain/entity"
)

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// jsonRPCResponse keeps Result as raw bytes: nil when absent, "null" when the node sent null.
type jsonRPCResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

func newRequest(method string, params []any, id int) jsonRPCRequest {
	if params == nil {
		params = []any{}
	}
	return jsonRPCRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id}
}

// result unwraps a single envelope.
func (r *jsonRPCResponse) result(raw []byte) (json.RawMessage, error) {
	if r.Error != nil {
		return nil, &domain.RemoteError{Code: r.Error.Code, Message: r.Error.Message}
	}
	if r.Result == nil {
		return nil, &domain.DecodeError{Raw: raw, Err: fmt.Errorf("envelope has neither result nor error")}
	}
	return r.Result, nil
}

func decodeSingle(raw []byte) ([]json.RawMessage, error) {
	var resp jsonRPCResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.DecodeError{Raw: raw, Err: err}
	}
	result, err := resp.result(raw)
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{result}, nil
}

// decodeBatch matches responses to calls by id and returns results in call order.
func decodeBatch(raw []byte, calls []entity.RPCCall) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		// Nodes without batch support answer with a single error envelope.
		if remote := peekRemoteError(trimmed); remote != nil {
			return nil, remote
		}
		return nil, &domain.DecodeError{Raw: raw, Err: fmt.Errorf("expected batch response array")}
	}

	var responses []jsonRPCResponse
	if err := json.Unmarshal(trimmed, &responses); err != nil {
		return nil, &domain.DecodeError{Raw: raw, Err: err}
	}

	byID := make(map[int]*jsonRPCResponse, len(responses))
	for i := range responses {
		var id int
		if err := json.Unmarshal(responses[i].ID, &id); err != nil {
			return nil, &domain.DecodeError{Raw: raw, Err: fmt.Errorf("invalid response id %s: %w", responses[i].ID, err)}
		}
		byID[id] = &responses[i]
	}

	results := make([]json.RawMessage, len(calls))
	for i, c := range calls {
		resp, ok := byID[c.ID]
		if !ok {
			return nil, &domain.DecodeError{Raw: raw, Err: fmt.Errorf("no response for %s (id %d)", c.Method, c.ID)}
		}
		result, err := resp.result(raw)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}

// peekRemoteError returns the error envelope carried by raw, if any.
func peekRemoteError(raw []byte) *domain.RemoteError {
	var resp jsonRPCResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Error == nil {
		return nil
	}
	return &domain.RemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
}
