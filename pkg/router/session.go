package router

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/transport"
)

// Session binds a mounted component to its live connection.
type Session struct {
	ID        string
	Component core.Component
	Socket    *core.Socket
	Transport *transport.WebSocket
	Params    core.Params
	Session   core.Session
	CreatedAt time.Time

	mounted    bool
	version    uint64
	slotHashes map[string]uint64

	mu sync.Mutex
}

// SetMounted marks the component as mounted.
func (s *Session) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the join has mounted the component.
func (s *Session) IsMounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// NextVersion returns the next diff version.
func (s *Session) NextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// SlotHashes returns the slot hashes of the last render sent.
func (s *Session) SlotHashes() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotHashes
}

// SetSlotHashes records the slot hashes of the render just sent.
func (s *Session) SetSlotHashes(hashes map[string]uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slotHashes = hashes
}

// SessionManager tracks the live sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create registers a session for a freshly upgraded connection.
func (m *SessionManager) Create(socket *core.Socket, ws *transport.WebSocket, comp core.Component, params core.Params, session core.Session) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Component: comp,
		Socket:    socket,
		Transport: ws,
		Params:    params,
		Session:   session,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get obtains a session by ID.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove deletes a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
