// Package i18n formats dates for a display locale. Translation of UI text
// is out of scope; only calendar dates are localized.
package i18n

import (
	"strings"
	"time"
)

// DefaultLocale is the locale used when none is configured.
const DefaultLocale = "en-ZA"

// InputLayout is the layout of date input values.
const InputLayout = "2006-01-02"

// Formatter renders dates per locale. It is immutable and safe for
// concurrent use.
type Formatter struct {
	locale   string
	fallback string
	layouts  map[string]string
}

// NewFormatter creates a formatter for locale with the built-in layouts.
func NewFormatter(locale string) *Formatter {
	f := &Formatter{
		locale:   DefaultLocale,
		fallback: DefaultLocale,
		layouts:  defaultLayouts(),
	}
	if locale != "" {
		f.locale = normalize(locale)
	}
	return f
}

// Locale returns the formatter's locale.
func (f *Formatter) Locale() string {
	return f.locale
}

// Layout returns the date layout of the current locale, falling back to
// the base language and then to the default locale.
func (f *Formatter) Layout() string {
	if l, ok := f.layouts[f.locale]; ok {
		return l
	}
	if base, _, found := strings.Cut(f.locale, "-"); found {
		if l, ok := f.layouts[base]; ok {
			return l
		}
	}
	return f.layouts[f.fallback]
}

// Date formats t in the current locale.
func (f *Formatter) Date(t time.Time) string {
	return t.Format(f.Layout())
}

// DateString re-formats a YYYY-MM-DD input value. Empty or unparseable
// values yield placeholder.
func (f *Formatter) DateString(value, placeholder string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return placeholder
	}
	t, err := time.Parse(InputLayout, value)
	if err != nil {
		return placeholder
	}
	return f.Date(t)
}

func normalize(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	base, region, found := strings.Cut(locale, "-")
	if !found {
		return strings.ToLower(base)
	}
	return strings.ToLower(base) + "-" + strings.ToUpper(region)
}

func defaultLayouts() map[string]string {
	return map[string]string{
		"en-ZA": "2006/01/02",
		"en-US": "1/2/2006",
		"en-GB": "02/01/2006",
		"en":    "1/2/2006",
		"af":    "2006-01-02",
	}
}
