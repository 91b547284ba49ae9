package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chainstate/internal/config"
	"chainstate/internal/domain"
	"chainstate/internal/domain/entity"
	domainService "chainstate/internal/domain/service"
	"chainstate/internal/pkg/apperrors"
	"chainstate/internal/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCGateway = (*Gateway)(nil)

// Gateway implements domainService.RPCGateway over HTTP(S) and WS(S). It never retries.
type Gateway struct {
	client      *fasthttp.Client
	dialer      *websocket.Dialer
	readTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewGateway creates a gateway with the configured read timeout.
func NewGateway(cfg config.RPCConfig, m *metrics.Metrics, logger *zap.Logger) *Gateway {
	readTimeout := cfg.GetReadTimeout()
	return &Gateway{
		client: &fasthttp.Client{
			ReadTimeout: readTimeout,
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: readTimeout,
		},
		readTimeout: readTimeout,
		metrics:     m,
		logger:      logger.Named("RPCGateway"),
	}
}

// Send issues one JSON-RPC request and returns its result.
func (g *Gateway) Send(
	ctx context.Context,
	endpoint string,
	method string,
	params []any,
	id int,
) (json.RawMessage, error) {
	body, err := json.Marshal(newRequest(method, params, id))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode %s request: %v", apperrors.ErrInvalidInput, method, err)
	}

	startTime := time.Now()
	result, err := g.send(ctx, endpoint, body, decodeSingle)
	g.metrics.ObserveRPC(method, err, time.Since(startTime))
	if err != nil {
		g.logger.Debug("RPC call failed",
			zap.String("url", endpoint), zap.String("method", method), zap.Error(err),
		)
		return nil, err
	}

	g.logger.Debug("RPC call succeeded",
		zap.String("url", endpoint), zap.String("method", method), zap.Duration("latency", time.Since(startTime)),
	)
	return result[0], nil
}

// SendBatch issues all calls in a single JSON-RPC batch and returns results in call order.
// The first call answered with an error envelope fails the whole batch.
func (g *Gateway) SendBatch(ctx context.Context, endpoint string, calls []entity.RPCCall) ([]json.RawMessage, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	reqs := make([]jsonRPCRequest, len(calls))
	for i, c := range calls {
		reqs[i] = newRequest(c.Method, c.Params, c.ID)
	}
	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode batch request: %v", apperrors.ErrInvalidInput, err)
	}

	startTime := time.Now()
	results, err := g.send(ctx, endpoint, body, func(raw []byte) ([]json.RawMessage, error) {
		return decodeBatch(raw, calls)
	})
	took := time.Since(startTime)
	for _, c := range calls {
		g.metrics.ObserveRPC(c.Method, err, took)
	}
	if err != nil {
		g.logger.Debug("RPC batch failed",
			zap.String("url", endpoint), zap.Int("calls", len(calls)), zap.Error(err),
		)
		return nil, err
	}
	return results, nil
}

// send dispatches body over the transport implied by the endpoint scheme.
func (g *Gateway) send(
	ctx context.Context,
	endpoint string,
	body []byte,
	decode func([]byte) ([]json.RawMessage, error),
) ([]json.RawMessage, error) {
	rpcURL, err := entity.NewRPCURL(endpoint)
	if err != nil {
		return nil, err
	}

	if rpcURL.Protocol().IsWebsocket() {
		raw, err := g.roundTripWS(ctx, rpcURL.String(), body)
		if err != nil {
			return nil, err
		}
		return decode(raw)
	}

	raw, status, err := g.roundTripHTTP(ctx, rpcURL.String(), body)
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		// Some nodes answer JSON-RPC errors with a 4xx status; keep the remote error when there is one.
		if remote := peekRemoteError(raw); remote != nil {
			return nil, remote
		}
		return nil, &domain.TransportError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("%w: non-OK http status %d", apperrors.ErrExternalServiceFailure, status),
		}
	}
	return decode(raw)
}

// roundTripHTTP performs one POST and returns a copy of the body.
func (g *Gateway) roundTripHTTP(ctx context.Context, rpcURL string, body []byte) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := g.effectiveTimeout(ctx)
	if err := g.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, 0, &domain.TransportError{
				Endpoint: rpcURL,
				Err:      fmt.Errorf("%w: http request timed out after %v: %v", apperrors.ErrTimeout, timeout, err),
			}
		}
		return nil, 0, &domain.TransportError{
			Endpoint: rpcURL,
			Err:      fmt.Errorf("%w: http request failed: %v", apperrors.ErrExternalServiceFailure, err),
		}
	}

	return append([]byte(nil), resp.Body()...), resp.StatusCode(), nil
}

// roundTripWS dials, writes body as one text frame and reads one reply.
func (g *Gateway) roundTripWS(ctx context.Context, rpcURL string, body []byte) ([]byte, error) {
	timeout := g.effectiveTimeout(ctx)
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := g.dialer.DialContext(dialCtx, rpcURL, nil)
	if err != nil {
		return nil, g.wsError(dialCtx, rpcURL, "dial", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		return nil, g.wsError(dialCtx, rpcURL, "write", err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, g.wsError(dialCtx, rpcURL, "read", err)
	}
	return message, nil
}

func (g *Gateway) wsError(ctx context.Context, rpcURL, op string, err error) error {
	var netErr interface{ Timeout() bool }
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.TransportError{
			Endpoint: rpcURL,
			Err:      fmt.Errorf("%w: wss %s timed out: %v", apperrors.ErrTimeout, op, err),
		}
	}
	return &domain.TransportError{
		Endpoint: rpcURL,
		Err:      fmt.Errorf("%w: wss %s failed: %v", apperrors.ErrExternalServiceFailure, op, err),
	}
}

// effectiveTimeout is the read timeout, shortened by an earlier context deadline.
func (g *Gateway) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := g.readTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}
