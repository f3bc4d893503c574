// Package transport carries live-view messages between the browser and
// the server over WebSocket.
package transport

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// Common transport errors.
var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendTimeout      = errors.New("send timeout")
	ErrTransportFull    = errors.New("transport buffer full")
)

// Message is one frame of the live protocol.
type Message struct {
	// Ref correlates a reply with the request that caused it.
	Ref string `json:"ref,omitempty"`

	// Topic is the live-view channel, "lv:<socket id>".
	Topic string `json:"topic"`

	// Event is the event name: "join", "heartbeat", "reply", "diff" or
	// a component event such as "input" or "next".
	Event string `json:"event"`

	Payload map[string]any `json:"payload,omitempty"`
}

// NewMessage creates a new message.
func NewMessage(topic, event string, payload map[string]any) Message {
	return Message{
		Topic:   topic,
		Event:   event,
		Payload: payload,
	}
}

// WithRef adds a reference to the message.
func (m Message) WithRef(ref string) Message {
	m.Ref = ref
	return m
}

// Marshal serializes the message to JSON.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal deserializes a message from JSON.
func Unmarshal(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}

// Config holds transport configuration.
type Config struct {
	// ReadTimeout bounds the wait for the next client frame. The client
	// heartbeats well inside it.
	ReadTimeout time.Duration

	WriteTimeout time.Duration

	// PingInterval is how often protocol-level pings are sent.
	PingInterval time.Duration

	// MaxMessageSize is the maximum inbound frame size in bytes.
	MaxMessageSize int64

	SendBufferSize    int
	ReceiveBufferSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendBufferSize:    64,
		ReceiveBufferSize: 64,
	}
}

// base holds the channels shared by the read and write loops.
type base struct {
	config    *Config
	connected bool
	sendCh    chan Message
	recvCh    chan Message
	closeCh   chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
}

func newBase(config *Config) *base {
	if config == nil {
		config = DefaultConfig()
	}
	return &base{
		config:  config,
		sendCh:  make(chan Message, config.SendBufferSize),
		recvCh:  make(chan Message, config.ReceiveBufferSize),
		closeCh: make(chan struct{}),
	}
}

// IsConnected returns the connection status.
func (b *base) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func (b *base) setConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

// Receive returns the channel of inbound messages. It is never closed;
// select on CloseChan to detect disconnection.
func (b *base) Receive() <-chan Message {
	return b.recvCh
}

// CloseChan is closed when the connection ends.
func (b *base) CloseChan() <-chan struct{} {
	return b.closeCh
}

func (b *base) shutdown() bool {
	first := false
	b.closeOnce.Do(func() {
		first = true
		b.setConnected(false)
		close(b.closeCh)
	})
	return first
}
