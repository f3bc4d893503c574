// Package submission turns a completed application into a submission
// with a reference number. Delivery is simulated by a Sender.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmtp/applyportal/internal/application"
	"github.com/nmtp/applyportal/pkg/logging"
	"github.com/nmtp/applyportal/pkg/uploads"
)

// Submission errors.
var (
	ErrDeclarationsIncomplete = errors.New("declarations not accepted")
	ErrInProgress             = errors.New("submission already in progress")
	ErrAlreadySubmitted       = errors.New("application already submitted")
	ErrCancelled              = errors.New("submission cancelled")
)

// DefaultDelay is the simulated delivery time.
const DefaultDelay = 2 * time.Second

// Submit control captions.
const (
	LabelIdle       = "Submit Application"
	LabelSubmitting = "Submitting Application..."
)

// Payload is the immutable content of a submission.
type Payload struct {
	values      map[string]any
	attachments []uploads.Attachment
}

// NewPayload snapshots values and attachments.
func NewPayload(values map[string]any, attachments []uploads.Attachment) Payload {
	v := make(map[string]any, len(values))
	for k, val := range values {
		v[k] = val
	}
	return Payload{
		values:      v,
		attachments: append([]uploads.Attachment(nil), attachments...),
	}
}

// Value returns one payload field.
func (p Payload) Value(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Values returns a copy of the payload fields.
func (p Payload) Values() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Attachments returns a copy of the attached documents.
func (p Payload) Attachments() []uploads.Attachment {
	return append([]uploads.Attachment(nil), p.attachments...)
}

// Result is the outcome of a successful submission.
type Result struct {
	Reference   string
	SubmittedAt time.Time
	Payload     Payload
}

// Sender delivers a payload. Implementations must honour ctx.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, p Payload) error

func (f SenderFunc) Send(ctx context.Context, p Payload) error { return f(ctx, p) }

// SimulatedSender waits Delay and reports success.
type SimulatedSender struct {
	Delay time.Duration
}

func (s SimulatedSender) Send(ctx context.Context, _ Payload) error {
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewReference builds "<prefix>-<unix millis>-<8 hex chars>".
func NewReference(prefix string, now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), token)
}

// Status is the state of the submit control.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSubmitted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSubmitted:
		return "submitted"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Handler drives the submission of one application.
type Handler struct {
	sender   Sender
	prefix   string
	now      func() time.Time
	onResult func(*Result, error)

	mu     sync.Mutex
	status Status
	result *Result
	err    error
}

// Option configures a Handler.
type Option func(*Handler)

// WithSender replaces the simulated sender.
func WithSender(s Sender) Option {
	return func(h *Handler) { h.sender = s }
}

// WithDelay sets the simulated delivery delay.
func WithDelay(d time.Duration) Option {
	return func(h *Handler) { h.sender = SimulatedSender{Delay: d} }
}

// WithReferencePrefix sets the reference prefix (default "NMTP").
func WithReferencePrefix(prefix string) Option {
	return func(h *Handler) { h.prefix = prefix }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// OnResult registers a callback run on the task goroutine once the
// outcome is known. Cancellation reports ErrCancelled.
func OnResult(fn func(*Result, error)) Option {
	return func(h *Handler) { h.onResult = fn }
}

// NewHandler creates a handler with a simulated sender.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		sender: SimulatedSender{Delay: DefaultDelay},
		prefix: "NMTP",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status returns the current state.
func (h *Handler) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Result returns the successful result, or nil.
func (h *Handler) Result() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Err returns the last delivery error, or nil.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// CanSubmit reports whether the submit control is enabled for app.
func (h *Handler) CanSubmit(app *application.Application) bool {
	switch h.Status() {
	case StatusSubmitting, StatusSubmitted:
		return false
	}
	return app.CanSubmit()
}

// ButtonLabel returns the submit control caption.
func (h *Handler) ButtonLabel() string {
	if h.Status() == StatusSubmitting {
		return LabelSubmitting
	}
	return LabelIdle
}

// Submit validates the declarations, snapshots the visible fields and
// attachments as the payload and starts
// delivery in the background. The control stays disabled until the task
// fails or is cancelled; it is never re-enabled after success.
func (h *Handler) Submit(ctx context.Context, app *application.Application) (*Task, error) {
	if !app.CanSubmit() {
		return nil, ErrDeclarationsIncomplete
	}

	h.mu.Lock()
	switch h.status {
	case StatusSubmitting:
		h.mu.Unlock()
		return nil, ErrInProgress
	case StatusSubmitted:
		h.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	h.status = StatusSubmitting
	h.err = nil
	h.mu.Unlock()

	payload := NewPayload(app.Form.VisibleValues(), app.Files.Attachments())

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	task := &Task{done: make(chan struct{}), cancel: cancel}

	log := logging.L(ctx).With(logging.Component("submission"))
	log.Info("submission started", logging.Int("attachments", len(payload.attachments)))

	go func() {
		defer cancel()
		res, err := h.deliver(taskCtx, payload)
		h.finish(res, err)
		if err != nil {
			log.Warn("submission did not complete", logging.Err(err))
		} else {
			log.Info("submission completed", logging.Reference(res.Reference))
		}
		task.complete(res, err)
		if h.onResult != nil {
			h.onResult(res, err)
		}
	}()

	return task, nil
}

func (h *Handler) deliver(ctx context.Context, p Payload) (*Result, error) {
	if err := h.sender.Send(ctx, p); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("send application: %w", err)
	}
	now := h.now()
	return &Result{
		Reference:   NewReference(h.prefix, now),
		SubmittedAt: now,
		Payload:     p,
	}, nil
}

func (h *Handler) finish(res *Result, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case err == nil:
		h.status = StatusSubmitted
		h.result = res
	case errors.Is(err, ErrCancelled):
		h.status = StatusIdle
	default:
		h.status = StatusFailed
		h.err = err
	}
}

// Task is an in-flight submission.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc

	once   sync.Once
	result *Result
	err    error
}

func (t *Task) complete(res *Result, err error) {
	t.once.Do(func() {
		t.result, t.err = res, err
		close(t.done)
	})
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel aborts the delivery. The task then finishes with ErrCancelled
// unless it had already completed.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
