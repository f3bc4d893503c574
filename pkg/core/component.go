// Package core provides the live-view abstractions: components, the
// socket a component talks through and the context it runs in.
package core

import (
	"context"
	"io"
)

// Component is a stateful server-side view. The router mounts it, feeds
// it browser events and background messages one at a time, and
// re-renders it after each.
type Component interface {
	// Name returns the unique identifier for this component type.
	Name() string

	// Mount is called once before the first render, for the initial HTTP
	// request and again on the live connection.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML representation of the component.
	Render(ctx context.Context) Renderer

	// HandleEvent processes a browser event such as "input" or "next".
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// HandleInfo processes a message sent through Socket.SendInfo,
	// typically the result of a background task.
	HandleInfo(ctx context.Context, msg any) error

	// Terminate is called when the connection ends.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer is the interface for rendering HTML content.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params contains query parameters from the connection.
type Params map[string]string

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// GetDefault returns a parameter value or the default if not found.
func (p Params) GetDefault(key, defaultValue string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return defaultValue
}

// Session contains request-scoped data passed from the HTTP handler.
// Cookies are stored under "cookie:<name>".
type Session map[string]any

// Get returns a session value.
func (s Session) Get(key string) any {
	return s[key]
}

// GetString returns a session value as string.
func (s Session) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Cookie returns the value of a request cookie.
func (s Session) Cookie(name string) string {
	return s.GetString("cookie:" + name)
}

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	// TerminateNormal indicates clean disconnection.
	TerminateNormal TerminateReason = iota
	// TerminateShutdown indicates server shutdown.
	TerminateShutdown
	// TerminateError indicates termination due to an error.
	TerminateError
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	default:
		return "unknown"
	}
}

// BaseComponent provides default implementations for Component methods.
// Embed it to avoid implementing unused methods.
type BaseComponent struct {
	socket *Socket
}

// SetSocket sets the socket for the component (called by the framework).
func (bc *BaseComponent) SetSocket(s *Socket) {
	bc.socket = s
}

// Socket returns the component's socket, or nil during the initial HTTP
// render.
func (bc *BaseComponent) Socket() *Socket {
	return bc.socket
}

// IsLive reports whether the component is attached to a live connection.
func (bc *BaseComponent) IsLive() bool {
	return bc.socket != nil
}

// Mount does nothing by default.
func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

// HandleEvent does nothing by default.
func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

// HandleInfo does nothing by default.
func (bc *BaseComponent) HandleInfo(ctx context.Context, msg any) error {
	return nil
}

// Terminate does nothing by default.
func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
