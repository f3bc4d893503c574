package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDraftKey(t *testing.T) {
	if got := DraftKey("step3"); got != "application_step3" {
		t.Errorf("DraftKey = %q", got)
	}
}

func TestDrafts_RoundTrip(t *testing.T) {
	ms := NewMemoryStore(time.Hour)
	defer ms.Close()
	d := NewDrafts(ms)
	ctx := context.Background()

	values := map[string]any{
		"firstName":           "Thabo",
		"accuracyDeclaration": true,
		"medicalConsent":      false,
		"postalCode":          "",
	}
	if err := d.Save(ctx, "dev-1", "step1", values); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := d.Load(ctx, "dev-1", "step1")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	for k, want := range values {
		if got[k] != want {
			t.Errorf("%s: got %#v, want %#v", k, got[k], want)
		}
	}

	if _, err := ms.Get(ctx, "nmtp:draft:dev-1:application_step1"); err != nil {
		t.Errorf("Draft should be stored under the per-form key: %v", err)
	}
}

func TestDrafts_LastWriteWins(t *testing.T) {
	ms := NewMemoryStore(time.Hour)
	defer ms.Close()
	d := NewDrafts(ms)
	ctx := context.Background()

	d.Save(ctx, "dev", "step2", map[string]any{"schoolName": "Old", "achievements": "x"})
	d.Save(ctx, "dev", "step2", map[string]any{"schoolName": "New"})

	got, _, _ := d.Load(ctx, "dev", "step2")
	if got["schoolName"] != "New" {
		t.Errorf("Expected last write, got %v", got)
	}
	if _, ok := got["achievements"]; ok {
		t.Error("Save should overwrite the whole snapshot")
	}
}

func TestDrafts_Missing(t *testing.T) {
	ms := NewMemoryStore(time.Hour)
	defer ms.Close()
	d := NewDrafts(ms)

	got, ok, err := d.Load(context.Background(), "dev", "step4")
	if err != nil || ok || got != nil {
		t.Errorf("Missing draft: got %v, %v, %v", got, ok, err)
	}
}

func TestDrafts_DevicesIsolated(t *testing.T) {
	ms := NewMemoryStore(time.Hour)
	defer ms.Close()
	d := NewDrafts(ms)
	ctx := context.Background()

	d.Save(ctx, "a", "step1", map[string]any{"firstName": "A"})
	d.Save(ctx, "b", "step1", map[string]any{"firstName": "B"})

	got, _, _ := d.Load(ctx, "a", "step1")
	if got["firstName"] != "A" {
		t.Errorf("Device a sees %v", got)
	}

	forms, err := d.Forms(ctx, "a")
	if err != nil || len(forms) != 1 || forms[0] != "step1" {
		t.Errorf("Forms = %v, %v", forms, err)
	}
}

func TestDrafts_RejectsUnsupportedValues(t *testing.T) {
	ms := NewMemoryStore(time.Hour)
	defer ms.Close()
	d := NewDrafts(ms)

	err := d.Save(context.Background(), "dev", "step3", map[string]any{"height": 170})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData, got %v", err)
	}
	if err := d.Save(context.Background(), "", "step3", nil); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData for empty device, got %v", err)
	}
}
