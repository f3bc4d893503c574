package router

import (
	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/transport"
)

// TransportAdapter lets a core.Socket push through a WebSocket transport.
type TransportAdapter struct {
	ws *transport.WebSocket
}

// NewTransportAdapter wraps ws.
func NewTransportAdapter(ws *transport.WebSocket) *TransportAdapter {
	return &TransportAdapter{ws: ws}
}

// Send implements core.Transport.
func (a *TransportAdapter) Send(msg core.Message) error {
	return a.ws.Send(transport.Message{
		Ref:     msg.Ref,
		Topic:   msg.Topic,
		Event:   msg.Event,
		Payload: msg.Payload,
	})
}

// Close implements core.Transport.
func (a *TransportAdapter) Close() error {
	return a.ws.Close()
}

// IsConnected implements core.Transport.
func (a *TransportAdapter) IsConnected() bool {
	return a.ws.IsConnected()
}
