// Package admin backs the recruitment dashboard: an in-memory registry of
// submitted applications, a sortable and filterable table over it, CSV
// export and typed quick actions.
package admin

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry errors.
var (
	ErrNotFound      = errors.New("application not found")
	ErrDuplicate     = errors.New("application already registered")
	ErrInvalidStatus = errors.New("invalid status")
	ErrMissingID     = errors.New("application id is empty")
)

// Status is the review state of an application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Statuses lists every status in filter order.
var Statuses = []Status{StatusApproved, StatusPending, StatusRejected, StatusReview}

// Label returns the display name of a status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReview:
		return "Under Review"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// ParseStatus accepts a status value or its label, case-insensitively.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range Statuses {
		if s == string(st) || s == strings.ToLower(st.Label()) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Record is one submitted application as seen by administrators.
type Record struct {
	ID        string
	Name      string
	Email     string
	Province  string
	Status    Status
	Submitted time.Time
	// Device is the applicant device that submitted the application.
	Device string
}

// Registry keeps submitted applications for the lifetime of the process.
type Registry struct {
	records map[string]Record
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// Add registers a record. New records default to pending.
func (r *Registry) Add(rec Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; ok {
		return ErrDuplicate
	}
	r.records[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return nil
}

// Get returns a record by id.
func (r *Registry) Get(id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// SetStatus changes the review state of a record.
func (r *Registry) SetStatus(id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	r.records[id] = rec
	return nil
}

// List returns all records in registration order.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

// ByDevice returns the records submitted from device, newest first.
func (r *Registry) ByDevice(device string) []Record {
	var out []Record
	for _, rec := range r.List() {
		if rec.Device == device {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Submitted.After(out[j].Submitted)
	})
	return out
}

// Counts returns the number of records per status.
func (r *Registry) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, rec := range r.List() {
		counts[rec.Status]++
	}
	return counts
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
