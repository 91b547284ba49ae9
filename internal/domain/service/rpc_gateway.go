package service

import (
	"context"
	"encoding/json"

	"chainstate/internal/domain"
	"chainstate/internal/domain/entity"
)

// RPCGateway sends JSON-RPC 2.0 requests to an endpoint and returns raw results.
// Implementations return *domain.TransportError, *domain.RemoteError or *domain.DecodeError.
type RPCGateway interface {
	// Send issues one request and returns the result member of the response.
	Send(ctx context.Context, endpoint string, method string, params []any, id int) (json.RawMessage, error)

	// SendBatch issues calls in a single request and returns results in the order of calls.
	SendBatch(ctx context.Context, endpoint string, calls []entity.RPCCall) ([]json.RawMessage, error)
}

// Decode unmarshals a raw result into T, reporting shape mismatches as *domain.DecodeError.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &domain.DecodeError{Raw: raw, Err: err}
	}
	return out, nil
}

// Call sends one request with id 1 and decodes its result into T.
func Call[T any](ctx context.Context, gw RPCGateway, endpoint, method string, params ...any) (T, error) {
	if params == nil {
		params = []any{}
	}
	raw, err := gw.Send(ctx, endpoint, method, params, 1)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](raw)
}
