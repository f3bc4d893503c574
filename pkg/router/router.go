// Package router serves live views over HTTP: the first request renders
// the component to a full page, the live connection then mounts a fresh
// instance and streams re-rendered slots after every event.
package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/logging"
	"github.com/nmtp/applyportal/pkg/metrics"
	"github.com/nmtp/applyportal/pkg/transport"
)

// Common router errors.
var (
	ErrShuttingDown = errors.New("server is shutting down")
)

// Protocol events handled by the router itself.
const (
	EventJoin      = "join"
	EventHeartbeat = "heartbeat"
	EventLeave     = "leave"
	EventReply     = "reply"
	EventDiff      = "diff"
)

// Router handles HTTP routing for live views.
type Router struct {
	mux          *http.ServeMux
	middleware   []Middleware
	errorHandler ErrorHandler
	layout       Layout

	sessions *SessionManager
	sockets  *core.SocketManager

	logger          logging.Logger
	metrics         *metrics.Metrics
	wsConfig        *transport.WebSocketConfig
	transportConfig *transport.Config

	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the URL path pattern.
	Path string

	// Title is the document title used by the layout.
	Title string

	// Component is the factory function for creating the component.
	Component func() core.Component

	// Middleware are route-specific middleware.
	Middleware []Middleware
}

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMetrics records session and render metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithWebSocketConfig sets the origin policy for live connections.
func WithWebSocketConfig(cfg *transport.WebSocketConfig) Option {
	return func(r *Router) { r.wsConfig = cfg }
}

// WithTransportConfig sets timeouts and buffer sizes for live connections.
func WithTransportConfig(cfg *transport.Config) Option {
	return func(r *Router) { r.transportConfig = cfg }
}

// WithLayout replaces the page layout used for the initial render.
func WithLayout(l Layout) Option {
	return func(r *Router) { r.layout = l }
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		sessions:        NewSessionManager(),
		sockets:         core.NewSocketManager(),
		logger:          logging.NopLogger{},
		layout:          DefaultLayout,
		wsConfig:        transport.DefaultWebSocketConfig(),
		transportConfig: transport.DefaultConfig(),
	}
	r.errorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logging.L(req.Context()).Error("request failed", logging.Err(err), logging.String("path", req.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. It applies to routes registered
// afterwards.
func (r *Router) Use(mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw)
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// Sessions returns the live session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Sockets returns the socket manager.
func (r *Router) Sockets() *core.SocketManager {
	return r.sockets
}

// Live registers a live view route.
func (r *Router) Live(path, title string, component func() core.Component, mw ...Middleware) {
	route := &LiveRoute{
		Path:       path,
		Title:      title,
		Component:  component,
		Middleware: mw,
	}

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.serveLive(w, req, route)
	})
	for i := len(route.Middleware) - 1; i >= 0; i-- {
		h = route.Middleware[i](h)
	}
	r.Handle(path, h)
}

// Handle registers a standard HTTP handler behind the global middleware.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mu.RLock()
	middleware := make([]Middleware, len(r.middleware))
	copy(middleware, r.middleware)
	r.mu.RUnlock()

	h := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	r.mux.Handle(pattern, h)
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Shutdown closes every live connection.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.sockets.Shutdown(ctx)
}

func (r *Router) serveLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if isWebSocketRequest(req) {
		r.handleWebSocket(w, req, route)
		return
	}

	ctx := req.Context()
	component := route.Component()

	if err := component.Mount(ctx, extractParams(req), extractSession(req)); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	var body bytes.Buffer
	if err := r.render(ctx, component, &body); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.layout(w, Page{Title: route.Title, Path: req.URL.RequestURI(), Body: body.Bytes()}); err != nil {
		r.logger.Error("layout render failed", logging.Err(err))
	}
}

func (r *Router) render(ctx context.Context, component core.Component, buf *bytes.Buffer) error {
	start := time.Now()
	renderer := component.Render(ctx)
	if renderer == nil {
		return ErrNilRenderer
	}
	if err := renderer.Render(ctx, buf); err != nil {
		return fmt.Errorf("render %s: %w", component.Name(), err)
	}
	r.metrics.ObserveRender(time.Since(start).Seconds())
	return nil
}

func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if r.sockets.IsShutdown() {
		http.Error(w, ErrShuttingDown.Error(), http.StatusServiceUnavailable)
		return
	}

	ws := transport.NewWebSocket(r.transportConfig, r.wsConfig, r.logger)
	if err := ws.Upgrade(w, req); err != nil {
		r.logger.Warn("websocket upgrade failed", logging.Err(err), logging.String("path", req.URL.Path))
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, NewTransportAdapter(ws))
	if !r.sockets.Add(socket) {
		ws.Close()
		return
	}

	component := route.Component()
	if aware, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
		aware.SetSocket(socket)
	}

	session := r.sessions.Create(socket, ws, component, extractParams(req), extractSession(req))
	logger := r.logger.With(logging.Component(component.Name()), logging.Socket(socketID))

	r.metrics.SessionOpened()
	logger.Info("live session opened", logging.String("path", route.Path))

	// The handler holds the connection until the session ends. Server
	// shutdown does not cancel hijacked requests, so the session gets
	// its own context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.ContextWithLogger(ctx, logger)
	ctx = core.BuildContext(ctx, socket, session.Session, session.Params)

	r.messageLoop(ctx, session)
	r.handleDisconnect(session, core.TerminateNormal)
	logger.Info("live session closed")
}

// messageLoop runs a session's events and info messages one at a time.
func (r *Router) messageLoop(ctx context.Context, session *Session) {
	recvCh := session.Transport.Receive()
	infoCh := session.Socket.Info()
	closeCh := session.Transport.CloseChan()

	for {
		select {
		case msg := <-recvCh:
			session.Socket.UpdateActivity()

			switch msg.Event {
			case EventHeartbeat:
				r.sendReply(session, msg, nil)

			case EventJoin:
				r.handleJoin(ctx, session, msg)

			case EventLeave:
				return

			default:
				if !session.IsMounted() {
					r.sendError(session, msg, ErrNotMounted)
					continue
				}
				r.metrics.Event(session.Component.Name(), msg.Event)
				payload := msg.Payload
				if payload == nil {
					payload = make(map[string]any)
				}
				if err := session.Component.HandleEvent(ctx, msg.Event, payload); err != nil {
					logging.L(ctx).Warn("event failed", logging.String("event", msg.Event), logging.Err(err))
					r.sendError(session, msg, err)
				}
				r.renderAndSendDiff(ctx, session)
			}

		case info := <-infoCh:
			if err := session.Component.HandleInfo(ctx, info); err != nil {
				logging.L(ctx).Warn("info failed", logging.Err(err))
			}
			r.renderAndSendDiff(ctx, session)

		case <-closeCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleJoin mounts the component and replies with the full render.
func (r *Router) handleJoin(ctx context.Context, session *Session, msg transport.Message) {
	component := session.Component

	if !session.IsMounted() {
		if err := component.Mount(ctx, session.Params, session.Session); err != nil {
			r.sendError(session, msg, err)
			return
		}
		session.SetMounted(true)
	}

	var buf bytes.Buffer
	if err := r.render(ctx, component, &buf); err != nil {
		r.sendError(session, msg, err)
		return
	}

	html := buf.String()
	session.SetSlotHashes(hashSlots(extractSlots(html)))

	r.sendReply(session, msg, map[string]any{"rendered": html})
}

// renderAndSendDiff renders the component and pushes the changed slots.
func (r *Router) renderAndSendDiff(ctx context.Context, session *Session) {
	var buf bytes.Buffer
	if err := r.render(ctx, session.Component, &buf); err != nil {
		logging.L(ctx).Error("render failed", logging.Err(err))
		return
	}

	payload := buildDiff(session, buf.String())
	if err := session.Socket.SendDiff(payload); err != nil {
		logging.L(ctx).Debug("diff not sent", logging.Err(err))
	}
}

// buildDiff compares the rendered slots with the previous render by hash.
// A render without slots is sent in full.
func buildDiff(session *Session, html string) *core.DiffPayload {
	payload := &core.DiffPayload{
		Version:   session.NextVersion(),
		Slots:     make(map[string]string),
		HTMLSlots: make(map[string]string),
	}

	slots := extractSlots(html)
	if len(slots) == 0 {
		payload.Full = html
		return payload
	}

	prev := session.SlotHashes()
	next := hashSlots(slots)
	for id, content := range slots {
		if prev != nil && prev[id] == next[id] {
			continue
		}
		if strings.ContainsAny(content, "<>") {
			payload.HTMLSlots[id] = content
		} else {
			payload.Slots[id] = content
		}
	}
	session.SetSlotHashes(next)
	return payload
}

// extractSlots returns the inner content of every top-level element
// carrying a data-slot attribute. Slots nested inside another slot are
// part of their parent's content.
func extractSlots(html string) map[string]string {
	slots := make(map[string]string)

	const marker = `data-slot="`
	htmlLen := len(html)
	pos := 0

	for pos < htmlLen {
		idx := strings.Index(html[pos:], marker)
		if idx == -1 {
			break
		}

		slotStart := pos + idx + len(marker)
		slotEnd := strings.IndexByte(html[slotStart:], '"')
		if slotEnd == -1 {
			break
		}
		slotID := html[slotStart : slotStart+slotEnd]

		tagStart := pos + idx
		for tagStart > 0 && html[tagStart] != '<' {
			tagStart--
		}
		tagNameEnd := tagStart + 1
		for tagNameEnd < htmlLen && !strings.ContainsRune(" \t\n/>", rune(html[tagNameEnd])) {
			tagNameEnd++
		}
		tagName := html[tagStart+1 : tagNameEnd]

		closeAngle := strings.IndexByte(html[slotStart+slotEnd:], '>')
		if closeAngle == -1 {
			break
		}
		contentStart := slotStart + slotEnd + closeAngle + 1

		openTag := "<" + tagName
		closeTag := "</" + tagName + ">"
		depth := 1
		searchPos := contentStart
		contentEnd := -1

		for depth > 0 && searchPos < htmlLen {
			nextClose := strings.Index(html[searchPos:], closeTag)
			if nextClose == -1 {
				break
			}
			nextClose += searchPos

			nextOpen := strings.Index(html[searchPos:], openTag)
			if nextOpen != -1 {
				nextOpen += searchPos
			}

			if nextOpen != -1 && nextOpen < nextClose {
				after := nextOpen + len(openTag)
				if after < htmlLen && strings.ContainsRune(" \t\n>/", rune(html[after])) {
					depth++
				}
				searchPos = after
				continue
			}

			depth--
			if depth == 0 {
				contentEnd = nextClose
			}
			searchPos = nextClose + len(closeTag)
		}

		if contentEnd == -1 {
			break
		}
		slots[slotID] = strings.TrimSpace(html[contentStart:contentEnd])
		pos = searchPos
	}

	return slots
}

func hashSlots(slots map[string]string) map[string]uint64 {
	hashes := make(map[string]uint64, len(slots))
	for id, content := range slots {
		h := fnv.New64a()
		h.Write([]byte(content))
		hashes[id] = h.Sum64()
	}
	return hashes
}

func (r *Router) handleDisconnect(session *Session, reason core.TerminateReason) {
	if err := session.Component.Terminate(context.Background(), reason); err != nil {
		r.logger.Warn("terminate failed", logging.Err(err), logging.Socket(session.Socket.ID()))
	}
	r.sessions.Remove(session.ID)
	r.sockets.Remove(session.Socket.ID())
	session.Socket.Close()
	r.metrics.SessionClosed()
}

func (r *Router) sendReply(session *Session, req transport.Message, response map[string]any) {
	msg := transport.Message{
		Ref:   req.Ref,
		Topic: session.Socket.Topic(),
		Event: EventReply,
		Payload: map[string]any{
			"status":   "ok",
			"response": response,
		},
	}
	if err := session.Transport.Send(msg); err != nil {
		r.logger.Debug("reply not sent", logging.Err(err))
	}
}

func (r *Router) sendError(session *Session, req transport.Message, err error) {
	msg := transport.Message{
		Ref:   req.Ref,
		Topic: session.Socket.Topic(),
		Event: EventReply,
		Payload: map[string]any{
			"status":   "error",
			"response": map[string]any{"reason": err.Error()},
		},
	}
	session.Transport.Send(msg)
}

// extractSession collects the request cookies for Mount.
func extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}
	if id := logging.RequestID(req.Context()); id != "" {
		session["request_id"] = id
	}
	return session
}

// extractParams extracts URL query parameters.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// isWebSocketRequest checks if this is a WebSocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}
