package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DraftKeyPrefix prefixes the per-form draft key.
const DraftKeyPrefix = "application_"

// DraftKey returns the storage key of a form's draft: application_<formID>.
func DraftKey(formID string) string {
	return DraftKeyPrefix + formID
}

// Draft is an autosaved snapshot of one form. Values hold a bool for
// checkboxes and a string for every other field.
type Draft struct {
	FormID  string         `msgpack:"form_id"`
	Values  map[string]any `msgpack:"values"`
	SavedAt time.Time      `msgpack:"saved_at"`
}

// Drafts persists form drafts per device. Each save overwrites the
// previous snapshot for that device and form. Drafts are never deleted;
// they expire through the store TTL.
type Drafts struct {
	store     *TypedStore[Draft]
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// DraftsOption configures Drafts.
type DraftsOption func(*Drafts)

// WithKeyPrefix sets the namespace placed before the device id.
func WithKeyPrefix(prefix string) DraftsOption {
	return func(d *Drafts) {
		d.keyPrefix = prefix
	}
}

// WithTTL expires drafts after ttl. Zero keeps them indefinitely.
func WithTTL(ttl time.Duration) DraftsOption {
	return func(d *Drafts) {
		d.ttl = ttl
	}
}

// NewDrafts creates a draft repository on top of store.
func NewDrafts(store Store, opts ...DraftsOption) *Drafts {
	d := &Drafts{
		store:     NewTypedStore[Draft](store, NewGenericSerializer[Draft]()),
		keyPrefix: "nmtp:draft:",
		ttl:       30 * 24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Drafts) key(device, formID string) string {
	return d.keyPrefix + device + ":" + DraftKey(formID)
}

// Save overwrites the draft of formID for device. Values other than
// string and bool are rejected.
func (d *Drafts) Save(ctx context.Context, device, formID string, values map[string]any) error {
	if device == "" || formID == "" {
		return fmt.Errorf("save draft: %w: empty device or form id", ErrInvalidData)
	}

	clean := make(map[string]any, len(values))
	for k, v := range values {
		switch v.(type) {
		case string, bool:
			clean[k] = v
		default:
			return fmt.Errorf("save draft %s: %w: field %s has type %T", formID, ErrInvalidData, k, v)
		}
	}

	draft := Draft{FormID: formID, Values: clean, SavedAt: d.now()}
	if err := d.store.Set(ctx, d.key(device, formID), draft, d.ttl); err != nil {
		return fmt.Errorf("save draft %s: %w", formID, err)
	}
	return nil
}

// Load returns the stored draft values. A missing draft yields
// (nil, false, nil).
func (d *Drafts) Load(ctx context.Context, device, formID string) (map[string]any, bool, error) {
	draft, err := d.store.Get(ctx, d.key(device, formID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load draft %s: %w", formID, err)
	}
	if draft.Values == nil {
		draft.Values = map[string]any{}
	}
	return draft.Values, true, nil
}

// Forms lists the form ids with a stored draft for device.
func (d *Drafts) Forms(ctx context.Context, device string) ([]string, error) {
	prefix := d.keyPrefix + device + ":" + DraftKeyPrefix
	keys, err := d.store.store.Keys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}
