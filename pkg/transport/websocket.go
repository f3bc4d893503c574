package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/nmtp/applyportal/pkg/logging"
)

// WebSocket security errors
var (
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// WebSocketConfig configures WebSocket security settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of allowed origins for WebSocket connections.
	// If empty and InsecureDevMode is false, only same-origin connections are allowed.
	AllowedOrigins []string

	// InsecureDevMode disables origin validation (ONLY for development).
	InsecureDevMode bool
}

// DefaultWebSocketConfig returns secure default configuration.
func DefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{}
}

// WebSocket is the server side of one live connection.
type WebSocket struct {
	*base
	conn     *websocket.Conn
	wsConfig *WebSocketConfig
	logger   logging.Logger
	mu       sync.Mutex
}

// NewWebSocket creates an unconnected transport. Call Upgrade to accept
// a request.
func NewWebSocket(config *Config, wsConfig *WebSocketConfig, logger logging.Logger) *WebSocket {
	if wsConfig == nil {
		wsConfig = DefaultWebSocketConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &WebSocket{
		base:     newBase(config),
		wsConfig: wsConfig,
		logger:   logger,
	}
}

// isOriginAllowed checks if the origin is allowed for WebSocket connections.
func (t *WebSocket) isOriginAllowed(origin string, requestHost string) bool {
	if t.wsConfig.InsecureDevMode {
		return true
	}

	// Empty origin = same-origin request (allowed)
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if originURL.Host == requestHost {
		return true
	}

	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if allowedURL, err := url.Parse(allowed); err == nil && allowedURL.Host == originURL.Host {
			return true
		}
	}
	return false
}

// originPatterns converts the allow list into the host patterns
// websocket.Accept verifies against.
func (t *WebSocket) originPatterns() []string {
	patterns := make([]string, 0, len(t.wsConfig.AllowedOrigins))
	for _, allowed := range t.wsConfig.AllowedOrigins {
		if allowed == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, allowed)
	}
	return patterns
}

// Upgrade upgrades an HTTP connection to WebSocket and starts the read,
// write and ping loops.
func (t *WebSocket) Upgrade(w http.ResponseWriter, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if !t.isOriginAllowed(origin, r.Host) {
		http.Error(w, "Forbidden: Origin not allowed", http.StatusForbidden)
		return ErrOriginNotAllowed
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: t.wsConfig.InsecureDevMode,
		OriginPatterns:     t.originPatterns(),
	})
	if err != nil {
		return fmt.Errorf("accept websocket: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	t.setConnected(true)

	conn.SetReadLimit(t.config.MaxMessageSize)

	go t.readLoop()
	go t.writeLoop()
	go t.pingLoop()

	return nil
}

// Send queues a message for the write loop.
func (t *WebSocket) Send(msg Message) error {
	if !t.IsConnected() {
		return ErrNotConnected
	}

	timer := time.NewTimer(t.config.WriteTimeout)
	defer timer.Stop()

	select {
	case t.sendCh <- msg:
		return nil
	case <-t.closeCh:
		return ErrConnectionClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

// Close closes the WebSocket connection. It is safe to call more than once.
func (t *WebSocket) Close() error {
	if !t.shutdown() {
		return nil
	}

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "closing")
	}
	return nil
}

func (t *WebSocket) current() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *WebSocket) readLoop() {
	defer t.Close()

	for {
		conn := t.current()
		if conn == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.config.ReadTimeout)
		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				t.logger.Debug("websocket read ended", logging.Err(err))
			}
			return
		}

		msg, err := Unmarshal(data)
		if err != nil {
			t.logger.Warn("dropping malformed frame", logging.Err(err), logging.Int("bytes", len(data)))
			continue
		}

		// A full buffer stalls reads instead of dropping input.
		select {
		case t.recvCh <- msg:
		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocket) writeLoop() {
	for {
		select {
		case msg := <-t.sendCh:
			conn := t.current()
			if conn == nil {
				return
			}

			data, err := msg.Marshal()
			if err != nil {
				t.logger.Error("marshal frame", logging.Err(err), logging.String("event", msg.Event))
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			err = conn.Write(ctx, websocket.MessageText, data)
			cancel()

			if err != nil {
				t.logger.Debug("websocket write failed", logging.Err(err))
				t.Close()
				return
			}

		case <-t.closeCh:
			return
		}
	}
}

func (t *WebSocket) pingLoop() {
	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn := t.current()
			if conn == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
			conn.Ping(ctx)
			cancel()
		case <-t.closeCh:
			return
		}
	}
}
