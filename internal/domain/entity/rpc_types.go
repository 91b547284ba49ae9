package entity

// Protocol defines the transport scheme of an RPC endpoint.
type Protocol string

// Constants for known protocols.
const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// IsWebsocket reports whether calls over this protocol go through a websocket dial.
func (p Protocol) IsWebsocket() bool {
	return p == ProtocolWS || p == ProtocolWSS
}

// RPCCall is one element of a batched JSON-RPC request.
type RPCCall struct {
	Method string
	Params []any
	ID     int
}
