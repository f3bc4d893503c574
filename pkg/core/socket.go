package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Common socket errors.
var (
	ErrSocketClosed = errors.New("socket is closed")
	ErrSendFailed   = errors.New("failed to send message")
	ErrInfoFull     = errors.New("info queue full")
)

// DefaultInfoBuffer is the capacity of a socket's info queue.
const DefaultInfoBuffer = 16

// Transport is the interface for underlying connection transports.
type Transport interface {
	Send(msg Message) error
	Close() error
	IsConnected() bool
}

// Message represents a message sent over the socket.
type Message struct {
	Ref     string         `json:"ref,omitempty"`
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Socket is a component's handle on its live connection. Besides pushing
// frames to the browser it carries the info queue through which
// background work reports back to the session loop.
type Socket struct {
	id          string
	connectedAt time.Time

	// Unix nanoseconds
	lastActivity atomic.Int64

	transport Transport
	info      chan any
	closed    bool
	metadata  map[string]any

	mu sync.RWMutex
}

// NewSocket creates a new socket with the given ID and transport.
func NewSocket(id string, transport Transport) *Socket {
	now := time.Now()
	s := &Socket{
		id:          id,
		connectedAt: now,
		transport:   transport,
		info:        make(chan any, DefaultInfoBuffer),
		metadata:    make(map[string]any),
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic returns the live-view topic of this socket.
func (s *Socket) Topic() string {
	return "lv:" + s.id
}

// IsConnected returns true if the socket is connected.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.transport != nil && s.transport.IsConnected()
}

// ConnectedAt returns when the socket connected.
func (s *Socket) ConnectedAt() time.Time {
	return s.connectedAt
}

// LastActivity returns the time of last activity.
func (s *Socket) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity updates the last activity timestamp.
func (s *Socket) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Send sends a message to the client.
func (s *Socket) Send(msg Message) error {
	s.mu.RLock()
	closed := s.closed
	transport := s.transport
	s.mu.RUnlock()

	if closed || transport == nil || !transport.IsConnected() {
		return ErrSocketClosed
	}

	s.UpdateActivity()

	if err := transport.Send(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Push sends an event to the client on the socket's topic.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(Message{
		Topic:   s.Topic(),
		Event:   event,
		Payload: payload,
	})
}

// SendInfo queues msg for the component's HandleInfo. It never blocks;
// a full queue or a closed socket is reported as an error.
func (s *Socket) SendInfo(msg any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSocketClosed
	}
	select {
	case s.info <- msg:
		return nil
	default:
		return ErrInfoFull
	}
}

// Info returns the queue drained by the session loop.
func (s *Socket) Info() <-chan any {
	return s.info
}

// DiffPayload is the update format sent to clients: changed text slots,
// changed HTML slots, or a full render when the view has no slots.
type DiffPayload struct {
	Version   uint64            `json:"v"`
	Slots     map[string]string `json:"s,omitempty"`
	HTMLSlots map[string]string `json:"h,omitempty"`
	Full      string            `json:"f,omitempty"`
}

// IsEmpty returns true if the payload has no changes.
func (d *DiffPayload) IsEmpty() bool {
	return len(d.Slots) == 0 && len(d.HTMLSlots) == 0 && d.Full == ""
}

// SendDiff pushes a non-empty diff to the client.
func (s *Socket) SendDiff(payload *DiffPayload) error {
	if payload == nil || payload.IsEmpty() {
		return nil
	}
	return s.Push("diff", map[string]any{
		"v": payload.Version,
		"s": payload.Slots,
		"h": payload.HTMLSlots,
		"f": payload.Full,
	})
}

// GetMetadata retrieves metadata by key.
func (s *Socket) GetMetadata(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[key]
}

// SetMetadata stores metadata.
func (s *Socket) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

// Close closes the socket connection. Pending info messages are dropped.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	transport := s.transport
	s.mu.Unlock()

	if transport != nil {
		return transport.Close()
	}
	return nil
}

// SocketManager tracks the active sockets.
type SocketManager struct {
	sockets    map[string]*Socket
	isShutdown bool
	mu         sync.RWMutex
}

// NewSocketManager creates a new socket manager.
func NewSocketManager() *SocketManager {
	return &SocketManager{
		sockets: make(map[string]*Socket),
	}
}

// Add registers a socket. It returns false once Shutdown has begun.
func (sm *SocketManager) Add(socket *Socket) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.isShutdown {
		return false
	}
	sm.sockets[socket.ID()] = socket
	return true
}

// Remove unregisters a socket.
func (sm *SocketManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sockets, id)
}

// Get retrieves a socket by ID.
func (sm *SocketManager) Get(id string) (*Socket, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sockets[id]
	return s, ok
}

// Count returns the number of active sockets.
func (sm *SocketManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sockets)
}

// All returns all sockets.
func (sm *SocketManager) All() []*Socket {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		result = append(result, s)
	}
	return result
}

// Shutdown refuses new sockets and closes the existing ones, stopping
// early if ctx ends.
func (sm *SocketManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	sm.isShutdown = true
	sockets := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		sockets = append(sockets, s)
	}
	sm.mu.Unlock()

	for _, s := range sockets {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Close()
	}
	return nil
}

// IsShutdown returns true if the manager is shutting down.
func (sm *SocketManager) IsShutdown() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isShutdown
}
