package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrUnknownAction is returned for actions without a handler.
var ErrUnknownAction = errors.New("unknown action")

// ActionKind identifies a dashboard action.
type ActionKind string

const (
	ActionReview      ActionKind = "review"
	ActionMessage     ActionKind = "message"
	ActionExport      ActionKind = "export-data"
	ActionBulkMessage ActionKind = "send-bulk-message"
	ActionReport      ActionKind = "generate-report"
	ActionSettings    ActionKind = "settings"
)

// QuickActions are the action buttons of the dashboard, in order.
var QuickActions = []ActionKind{ActionExport, ActionBulkMessage, ActionReport, ActionSettings}

// Label returns the button caption of an action.
func (k ActionKind) Label() string {
	switch k {
	case ActionReview:
		return "Review"
	case ActionMessage:
		return "Message"
	case ActionExport:
		return "Export Data"
	case ActionBulkMessage:
		return "Send Bulk Message"
	case ActionReport:
		return "Generate Report"
	case ActionSettings:
		return "Settings"
	}
	return string(k)
}

// ParseAction maps a button caption or kind ("Export Data",
// "export-data") to its ActionKind.
func ParseAction(s string) (ActionKind, error) {
	key := strings.Join(strings.Fields(strings.ToLower(s)), "-")
	switch k := ActionKind(key); k {
	case ActionReview, ActionMessage, ActionExport, ActionBulkMessage, ActionReport, ActionSettings:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Action is a dispatched request. Target is the row id for row actions.
type Action struct {
	Kind   ActionKind
	Target string
}

// Download is a file produced by an action.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Outcome is what the dashboard shows after an action.
type Outcome struct {
	Notice   string
	Download *Download
}

// ActionFunc handles one kind of action.
type ActionFunc func(ctx context.Context, a Action) (Outcome, error)

// Dispatcher routes actions to their handlers.
type Dispatcher struct {
	handlers map[ActionKind]ActionFunc
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[ActionKind]ActionFunc)}
}

// Handle registers fn for kind, replacing any previous handler.
func (d *Dispatcher) Handle(kind ActionKind, fn ActionFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = fn
}

// Dispatch runs the handler of a.Kind.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (Outcome, error) {
	d.mu.RLock()
	fn, ok := d.handlers[a.Kind]
	d.mu.RUnlock()
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}
	return fn(ctx, a)
}

// NewDefaultDispatcher wires the standard dashboard actions over reg and
// the table the admin is looking at.
func NewDefaultDispatcher(reg *Registry, table *Table, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	d := NewDispatcher()

	d.Handle(ActionReview, func(_ context.Context, a Action) (Outcome, error) {
		rec, err := reg.Get(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		if rec.Status == StatusPending {
			if err := reg.SetStatus(rec.ID, StatusReview); err != nil {
				return Outcome{}, err
			}
		}
		return Outcome{Notice: "Opening detailed review for application: " + rec.ID}, nil
	})

	d.Handle(ActionMessage, func(_ context.Context, a Action) (Outcome, error) {
		rec, err := reg.Get(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Notice: "Opening message composer for: " + rec.Name}, nil
	})

	d.Handle(ActionExport, func(_ context.Context, _ Action) (Outcome, error) {
		rows := table.Selected()
		if len(rows) == 0 {
			rows = table.Rows()
		}
		var buf bytes.Buffer
		if err := ExportCSV(&buf, rows); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Notice: fmt.Sprintf("Exported %d applications.", len(rows)),
			Download: &Download{
				Filename:    "applications-" + now().Format("20060102") + ".csv",
				ContentType: "text/csv",
				Data:        buf.Bytes(),
			},
		}, nil
	})

	d.Handle(ActionBulkMessage, func(_ context.Context, _ Action) (Outcome, error) {
		n := len(table.Selected())
		if n == 0 {
			return Outcome{Notice: "Select applicants to message first."}, nil
		}
		return Outcome{Notice: fmt.Sprintf("Bulk message queued for %d applicants.", n)}, nil
	})

	d.Handle(ActionReport, func(_ context.Context, _ Action) (Outcome, error) {
		counts := reg.Counts()
		parts := make([]string, 0, len(Statuses))
		for _, st := range Statuses {
			parts = append(parts, fmt.Sprintf("%s: %d", st.Label(), counts[st]))
		}
		return Outcome{Notice: fmt.Sprintf("Report: %d applications (%s).", reg.Len(), strings.Join(parts, ", "))}, nil
	})

	d.Handle(ActionSettings, func(_ context.Context, _ Action) (Outcome, error) {
		return Outcome{Notice: "System settings are managed through configuration."}, nil
	})

	return d
}
