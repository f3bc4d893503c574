package i18n

import (
	"testing"
	"time"
)

func TestFormatter_DefaultLocale(t *testing.T) {
	f := NewFormatter("")

	if f.Locale() != "en-ZA" {
		t.Errorf("Expected en-ZA, got %s", f.Locale())
	}
	if got := f.DateString("2004-03-09", "-"); got != "2004/03/09" {
		t.Errorf("Expected 2004/03/09, got %s", got)
	}
	if got := f.DateString("", "-"); got != "-" {
		t.Errorf("Empty date should yield placeholder, got %s", got)
	}
	if got := f.DateString("yesterday", "-"); got != "-" {
		t.Errorf("Bad date should yield placeholder, got %s", got)
	}
}

func TestFormatter_Fallbacks(t *testing.T) {
	f := NewFormatter("en_us")
	if f.Locale() != "en-US" {
		t.Errorf("Locale should be normalized, got %s", f.Locale())
	}

	d := time.Date(2004, time.March, 9, 0, 0, 0, 0, time.UTC)
	if got := f.Date(d); got != "3/9/2004" {
		t.Errorf("en-US date = %s", got)
	}

	if got := NewFormatter("en-AU").Date(d); got != "3/9/2004" {
		t.Errorf("en-AU should fall back to en, got %s", got)
	}
	if got := NewFormatter("zu").Date(d); got != "2004/03/09" {
		t.Errorf("Unknown locale should fall back to en-ZA, got %s", got)
	}
	if got := NewFormatter("en-GB").Date(d); got != "09/03/2004" {
		t.Errorf("en-GB date = %s", got)
	}
}
