package entity

import (
	"fmt"
	"net/url"
	"strings"

	"chainstate/internal/pkg/apperrors"
)

// RPCURL represents a validated URL for an RPC endpoint.
type RPCURL string

// NewRPCURL validates rawURL and returns it as an RPCURL.
func NewRPCURL(rawURL string) (RPCURL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: rpc url cannot be empty", apperrors.ErrInvalidInput)
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid rpc url format '%s': %v", apperrors.ErrInvalidInput, rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return "", fmt.Errorf("%w: rpc url '%s' has unsupported scheme '%s'", apperrors.ErrInvalidInput, rawURL, u.Scheme)
	}

	return RPCURL(rawURL), nil
}

// String returns the string representation of the RPCURL.
func (r RPCURL) String() string {
	return string(r)
}

// Protocol returns the transport implied by the URL scheme.
func (r RPCURL) Protocol() Protocol {
	scheme, _, _ := strings.Cut(string(r), "://")
	switch strings.ToLower(scheme) {
	case "http":
		return ProtocolHTTP
	case "https":
		return ProtocolHTTPS
	case "ws":
		return ProtocolWS
	case "wss":
		return ProtocolWSS
	default:
		return ProtocolUnknown
	}
}
