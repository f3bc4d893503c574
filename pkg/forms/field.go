package forms

// FieldType identifies the type of form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
	FieldDate     FieldType = "date"
	FieldTel      FieldType = "tel"
)

// Predicate decides something about a field from the rest of the form,
// e.g. whether it is currently required or shown.
type Predicate func(acc Accessor) bool

// Field represents a single user-editable input bound to one payload key.
type Field struct {
	// Name is the field key. It doubles as the element id in the page.
	Name string

	// Type is the field type.
	Type FieldType

	// Label is the display label, also used in the required message.
	Label string

	// Step is the 1-based wizard step that owns the field.
	Step int

	// Required indicates if the field is always required.
	Required bool

	// RequiredWhen makes the field conditionally required.
	RequiredWhen Predicate

	// VisibleWhen hides the field (and skips its validation) when false.
	VisibleWhen Predicate

	// Validators run in order after the required check.
	Validators []Validator

	// Options are the available options (for select/radio fields).
	Options []Option

	// Default is the initial value from the page markup.
	Default string

	// Placeholder is the placeholder text.
	Placeholder string

	// Help is help text shown below the field.
	Help string

	// Unit is appended to the value on review (e.g. "cm").
	Unit string
}

// Option represents a select/radio option.
type Option struct {
	Value string
	Label string
}

// FieldOption is a function that configures a field.
type FieldOption func(*Field)

// NewField creates a new field.
func NewField(name string, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:       name,
		Type:       fieldType,
		Label:      label,
		Validators: make([]Validator, 0),
		Options:    make([]Option, 0),
	}

	for _, opt := range opts {
		opt(&field)
	}

	return field
}

// IsRequired reports whether the field must have a value right now.
func (f *Field) IsRequired(acc Accessor) bool {
	if f.Required {
		return true
	}
	return f.RequiredWhen != nil && f.RequiredWhen(acc)
}

// IsVisible reports whether the field is currently shown.
func (f *Field) IsVisible(acc Accessor) bool {
	return f.VisibleWhen == nil || f.VisibleWhen(acc)
}

// OptionLabel returns the label of the option with the given value,
// or an empty string when no option matches.
func (f *Field) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return ""
}

// Field options

// WithRequired marks the field as required.
func WithRequired() FieldOption {
	return func(f *Field) {
		f.Required = true
	}
}

// WithRequiredWhen makes the field required while pred holds.
func WithRequiredWhen(pred Predicate) FieldOption {
	return func(f *Field) {
		f.RequiredWhen = pred
	}
}

// WithVisibleWhen shows the field only while pred holds.
func WithVisibleWhen(pred Predicate) FieldOption {
	return func(f *Field) {
		f.VisibleWhen = pred
	}
}

// WithStep assigns the field to a wizard step.
func WithStep(step int) FieldOption {
	return func(f *Field) {
		f.Step = step
	}
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(placeholder string) FieldOption {
	return func(f *Field) {
		f.Placeholder = placeholder
	}
}

// WithDefault sets the default value.
func WithDefault(value string) FieldOption {
	return func(f *Field) {
		f.Default = value
	}
}

// WithHelp sets the help text.
func WithHelp(help string) FieldOption {
	return func(f *Field) {
		f.Help = help
	}
}

// WithUnit sets the display unit.
func WithUnit(unit string) FieldOption {
	return func(f *Field) {
		f.Unit = unit
	}
}

// WithValidator adds a validator.
func WithValidator(v Validator) FieldOption {
	return func(f *Field) {
		f.Validators = append(f.Validators, v)
	}
}

// WithOptions sets the select/radio options.
func WithOptions(options ...Option) FieldOption {
	return func(f *Field) {
		f.Options = options
	}
}

// ValueEquals is a Predicate that holds when field name has value want.
func ValueEquals(name, want string) Predicate {
	return func(acc Accessor) bool {
		v, ok := acc.Value(name)
		return ok && v == want
	}
}

// TextField creates a text field.
func TextField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldText, label, opts...)
}

// EmailField creates an email field.
func EmailField(name, label string, opts ...FieldOption) Field {
	field := NewField(name, FieldEmail, label, opts...)
	field.Validators = append(field.Validators, EmailValidator{})
	return field
}

// TelField creates a phone number field.
func TelField(name, label string, opts ...FieldOption) Field {
	field := NewField(name, FieldTel, label, opts...)
	field.Validators = append(field.Validators, PhoneValidator{})
	return field
}

// NumberField creates a number field.
func NumberField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldNumber, label, opts...)
}

// TextareaField creates a textarea field.
func TextareaField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldTextarea, label, opts...)
}

// SelectField creates a select field.
func SelectField(name, label string, options []Option, opts ...FieldOption) Field {
	field := NewField(name, FieldSelect, label, opts...)
	field.Options = options
	return field
}

// RadioField creates a radio field.
func RadioField(name, label string, options []Option, opts ...FieldOption) Field {
	field := NewField(name, FieldRadio, label, opts...)
	field.Options = options
	return field
}

// CheckboxField creates a checkbox field.
func CheckboxField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldCheckbox, label, opts...)
}

// DateField creates a date field. Values use the YYYY-MM-DD layout.
func DateField(name, label string, opts ...FieldOption) Field {
	field := NewField(name, FieldDate, label, opts...)
	field.Validators = append([]Validator{DateValidator{}}, field.Validators...)
	return field
}

// FileField creates a file upload field.
func FileField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldFile, label, opts...)
}

// WithValidators adds several validators in order.
func WithValidators(vs ...Validator) FieldOption {
	return func(f *Field) {
		f.Validators = append(f.Validators, vs...)
	}
}
