package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chainstate/internal/domain"
	"chainstate/internal/domain/entity"
)

type reply struct {
	result string
	err    error
}

// fakeGateway answers by endpoint and method and counts calls.
type fakeGateway struct {
	mu      sync.Mutex
	replies map[string]map[string]reply
	calls   map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		replies: make(map[string]map[string]reply),
		calls:   make(map[string]int),
	}
}

func (g *fakeGateway) on(endpoint, method, result string) *fakeGateway {
	return g.set(endpoint, method, reply{result: result})
}

func (g *fakeGateway) fail(endpoint, method string, err error) *fakeGateway {
	return g.set(endpoint, method, reply{err: err})
}

func (g *fakeGateway) set(endpoint, method string, r reply) *fakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.replies[endpoint] == nil {
		g.replies[endpoint] = make(map[string]reply)
	}
	g.replies[endpoint][method] = r
	return g
}

func (g *fakeGateway) count(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *fakeGateway) answer(endpoint, method string) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[method]++
	r, ok := g.replies[endpoint][method]
	if !ok {
		return nil, &domain.RemoteError{Code: -32601, Message: "the method " + method + " does not exist/is not available"}
	}
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.result), nil
}

func (g *fakeGateway) Send(_ context.Context, endpoint, method string, _ []any, _ int) (json.RawMessage, error) {
	return g.answer(endpoint, method)
}

func (g *fakeGateway) SendBatch(_ context.Context, endpoint string, calls []entity.RPCCall) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(calls))
	for i, c := range calls {
		raw, err := g.answer(endpoint, c.Method+":"+c.Params[0].(string))
		if err != nil {
			return nil, err
		}
		results[i] = raw
	}
	return results, nil
}

// mapCache is an unbounded cache that ignores TTLs.
type mapCache struct {
	mu     sync.Mutex
	values map[string]any
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]any)}
}

func (c *mapCache) Memoize(key string, _ time.Duration, producer func() (any, error)) (any, error) {
	c.mu.Lock()
	v, ok := c.values[key]
	c.mu.Unlock()
	if ok {
		return v, nil
	}
	v, err := producer()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
	return v, nil
}
