// Package forms provides field definitions, validation rules and the
// explicit form state shared by the wizard, review and submission layers.
package forms

import (
	"fmt"
	"strings"
	"sync"
)

// Accessor looks up current field values by key. The boolean result is
// false when no such field exists, in which case callers skip the field
// instead of failing.
type Accessor interface {
	Value(name string) (string, bool)
	Checked(name string) (bool, bool)
}

// Result is the outcome of validating one field.
type Result struct {
	Valid   bool
	Message string
}

var valid = Result{Valid: true}

// Validate checks a field against its rules using acc for the value and
// for cross-field predicates. Rules run in order: required, then each
// validator; only the first failing message is reported. Hidden fields
// and fields missing from acc are valid.
func Validate(f *Field, acc Accessor) Result {
	if !f.IsVisible(acc) {
		return valid
	}

	var raw string
	if f.Type == FieldCheckbox {
		checked, ok := acc.Checked(f.Name)
		if !ok {
			return valid
		}
		if checked {
			raw = "on"
		}
	} else {
		v, ok := acc.Value(f.Name)
		if !ok {
			return valid
		}
		raw = v
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		if f.IsRequired(acc) {
			return Result{Message: requiredMessage(f)}
		}
		return valid
	}

	for _, v := range f.Validators {
		if err := v.Validate(value); err != nil {
			return Result{Message: v.Message()}
		}
	}
	return valid
}

func requiredMessage(f *Field) string {
	name := f.Label
	if name == "" {
		name = f.Name
	}
	return fmt.Sprintf("%s is required", name)
}

// Form is the explicit state of a multi-step form: its ordered fields,
// their current values and any validation errors.
type Form struct {
	// Name is the form identifier.
	Name string

	// Fields are the form fields in page order.
	Fields []Field

	values  map[string]string
	checked map[string]bool
	errors  map[string]string
	index   map[string]int

	mu sync.RWMutex
}

// NewForm creates a form with fields initialised from their defaults.
func NewForm(name string, fields ...Field) *Form {
	f := &Form{
		Name:    name,
		Fields:  fields,
		values:  make(map[string]string, len(fields)),
		checked: make(map[string]bool),
		errors:  make(map[string]string),
		index:   make(map[string]int, len(fields)),
	}
	for i, field := range fields {
		f.index[field.Name] = i
		if field.Type == FieldCheckbox {
			f.checked[field.Name] = field.Default == "on"
			continue
		}
		f.values[field.Name] = field.Default
	}
	return f
}

// Field retrieves a field definition by name, or nil.
func (f *Form) Field(name string) *Field {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return &f.Fields[i]
}

// Value implements Accessor.
func (f *Form) Value(name string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.index[name]; !ok {
		return "", false
	}
	return f.values[name], true
}

// Checked implements Accessor.
func (f *Form) Checked(name string) (bool, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.index[name]; !ok {
		return false, false
	}
	return f.checked[name], true
}

// String returns a field value, or "" for unknown fields.
func (f *Form) String(name string) string {
	v, _ := f.Value(name)
	return v
}

// Bool returns a checkbox state, or false for unknown fields.
func (f *Form) Bool(name string) bool {
	v, _ := f.Checked(name)
	return v
}

// SetValue records an edit. It clears the field's validation error and
// reports false when the field does not exist.
func (f *Form) SetValue(name, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.index[name]; !ok {
		return false
	}
	f.values[name] = value
	delete(f.errors, name)
	return true
}

// SetChecked records a checkbox edit.
func (f *Form) SetChecked(name string, checked bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.index[name]; !ok {
		return false
	}
	f.checked[name] = checked
	delete(f.errors, name)
	return true
}

// ValidateField validates one field and records or clears its error.
// Unknown fields are valid.
func (f *Form) ValidateField(name string) Result {
	field := f.Field(name)
	if field == nil {
		return valid
	}

	res := Validate(field, f)

	f.mu.Lock()
	defer f.mu.Unlock()
	if res.Valid {
		delete(f.errors, name)
	} else {
		f.errors[name] = res.Message
	}
	return res
}

// ValidateStep validates every field owned by step and reports whether
// all of them passed.
func (f *Form) ValidateStep(step int) bool {
	ok := true
	for i := range f.Fields {
		if f.Fields[i].Step != step {
			continue
		}
		if res := f.ValidateField(f.Fields[i].Name); !res.Valid {
			ok = false
		}
	}
	return ok
}

// StepFields returns the fields owned by step.
func (f *Form) StepFields(step int) []Field {
	var out []Field
	for _, field := range f.Fields {
		if field.Step == step {
			out = append(out, field)
		}
	}
	return out
}

// FieldError returns the current error for a field.
func (f *Form) FieldError(name string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errors[name]
}

// ClearError removes a field's error.
func (f *Form) ClearError(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errors, name)
}

// HasErrors returns true if any field has an error.
func (f *Form) HasErrors() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.errors) > 0
}

// Errors returns a copy of the current errors keyed by field.
func (f *Form) Errors() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// IsVisible reports whether a field is currently shown. Unknown fields
// are not.
func (f *Form) IsVisible(name string) bool {
	field := f.Field(name)
	return field != nil && field.IsVisible(f)
}

// Values snapshots every non-file field: checkboxes as bool, everything
// else as string.
func (f *Form) Values() map[string]any {
	return f.snapshot(func(Field) bool { return true })
}

// VisibleValues snapshots the non-file fields that are currently shown.
// Hidden dynamic fields keep their edits but are left out.
func (f *Form) VisibleValues() map[string]any {
	visible := make(map[string]bool, len(f.Fields))
	for i := range f.Fields {
		if f.Fields[i].IsVisible(f) {
			visible[f.Fields[i].Name] = true
		}
	}
	return f.snapshot(func(field Field) bool { return visible[field.Name] })
}

// StepValues snapshots the non-file fields of one step.
func (f *Form) StepValues(step int) map[string]any {
	return f.snapshot(func(field Field) bool { return field.Step == step })
}

func (f *Form) snapshot(keep func(Field) bool) map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]any)
	for _, field := range f.Fields {
		if field.Type == FieldFile || !keep(field) {
			continue
		}
		if field.Type == FieldCheckbox {
			out[field.Name] = f.checked[field.Name]
			continue
		}
		out[field.Name] = f.values[field.Name]
	}
	return out
}

// Restore populates matching fields from a snapshot. Unknown keys and
// file fields are ignored; errors are not touched. It returns the number
// of fields populated.
func (f *Form) Restore(values map[string]any) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for key, raw := range values {
		i, ok := f.index[key]
		if !ok || f.Fields[i].Type == FieldFile {
			continue
		}
		if f.Fields[i].Type == FieldCheckbox {
			switch v := raw.(type) {
			case bool:
				f.checked[key] = v
			case string:
				f.checked[key] = v == "on" || v == "true"
			default:
				continue
			}
			n++
			continue
		}
		if s, ok := raw.(string); ok {
			f.values[key] = s
			n++
		}
	}
	return n
}
