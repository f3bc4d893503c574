// Package shutdown runs ordered cleanup hooks when the portal stops:
// stop accepting requests, close live sessions, then close the store.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/nmtp/applyportal/pkg/logging"
)

// Common shutdown errors.
var (
	ErrShutdownTimeout = errors.New("shutdown timed out")
	ErrAlreadyClosed   = errors.New("shutdown handler already closed")
)

// Hook priorities. Lower runs earlier.
const (
	PriorityHTTP  = 100
	PriorityLive  = 200
	PriorityStore = 300
	PriorityLast  = 1000
)

// Hook represents a shutdown hook.
type Hook struct {
	// Name identifies the hook in logs.
	Name string

	// Priority determines execution order (lower = earlier).
	Priority int

	// Fn is the function to execute during shutdown.
	Fn func(ctx context.Context) error
}

// Config configures the shutdown handler.
type Config struct {
	// Timeout is the maximum time all hooks together may take.
	Timeout time.Duration

	// Signals are the OS signals to listen for.
	Signals []os.Signal

	Logger logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		Logger:  logging.NopLogger{},
	}
}

// Handler manages graceful shutdown.
type Handler struct {
	config *Config
	hooks  []Hook
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewHandler creates a new shutdown handler.
func NewHandler(config *Config) *Handler {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if len(config.Signals) == 0 {
		config.Signals = def.Signals
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}
	return &Handler{
		config: config,
		done:   make(chan struct{}),
	}
}

// Register adds a shutdown hook.
func (h *Handler) Register(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// RegisterFunc registers fn as a hook.
func (h *Handler) RegisterFunc(name string, priority int, fn func(ctx context.Context) error) {
	h.Register(Hook{Name: name, Priority: priority, Fn: fn})
}

// RegisterCloser registers c.Close as a hook.
func (h *Handler) RegisterCloser(name string, priority int, c interface{ Close() error }) {
	h.RegisterFunc(name, priority, func(context.Context) error { return c.Close() })
}

// Wait blocks until a shutdown signal arrives or ctx is done, then runs
// the hooks. A Shutdown triggered elsewhere makes Wait return nil.
func (h *Handler) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, h.config.Signals...)
	defer stop()

	select {
	case <-sigCtx.Done():
		h.config.Logger.Info("shutdown signal received")
	case <-h.done:
		return nil
	}
	return h.Shutdown()
}

// Shutdown runs every hook in priority order. Hook errors are joined;
// running past the timeout adds ErrShutdownTimeout and skips the
// remaining hooks.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.closed = true
	close(h.done)

	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority < hooks[j].Priority
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	log := h.config.Logger
	var errs []error
	for _, hook := range hooks {
		start := time.Now()
		err := hook.Fn(ctx)
		fields := []logging.Field{logging.String("hook", hook.Name), logging.Duration("duration", time.Since(start))}
		if err != nil {
			log.Error("shutdown hook failed", append(fields, logging.Err(err))...)
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
		} else {
			log.Info("shutdown hook done", fields...)
		}

		if ctx.Err() != nil {
			return errors.Join(append(errs, ErrShutdownTimeout)...)
		}
	}
	return errors.Join(errs...)
}

// Done is closed once shutdown has started.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// IsClosed reports whether shutdown has started.
func (h *Handler) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
