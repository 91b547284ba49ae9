package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport means the upstream node could not be reached or did not answer in time.
	ErrTransport = errors.New("rpc transport failure")

	// ErrRemote means the upstream node answered with a JSON-RPC error envelope.
	ErrRemote = errors.New("rpc remote error")

	// ErrDecode means the upstream answer did not have the expected shape.
	ErrDecode = errors.New("rpc decode failure")

	// ErrNotReady means the node answered but cannot serve data yet (zero head block).
	ErrNotReady = errors.New("node not ready")
)

// TransportError wraps a connection, status or timeout failure.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error from %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RemoteError carries the code and message of a JSON-RPC error envelope.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// DecodeError keeps the raw payload that failed to decode.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	raw := e.Raw
	if len(raw) > 256 {
		raw = raw[:256]
	}
	return fmt.Sprintf("decode error: %v (raw: %s)", e.Err, raw)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// IsMethodUnsupported reports whether err is a remote error saying the node does not serve method.
// Nodes phrase this differently ("the method eth_syncing does not exist/is not available",
// "method eth_syncing not supported") so only the "method <name>" fragment is matched.
func IsMethodUnsupported(err error, method string) bool {
	var remote *RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	return strings.Contains(remote.Message, "method "+method)
}
