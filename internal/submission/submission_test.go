package submission

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nmtp/applyportal/internal/application"
)

func newApp(declared bool) *application.Application {
	app := application.New(func() time.Time {
		return time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	}, nil)
	app.Form.SetValue(application.FirstName, "Thabo")
	app.Attach(application.IDDocument, "id.pdf", 2048, "application/pdf")
	if declared {
		for _, d := range application.Declarations {
			app.Form.SetChecked(d, true)
		}
	}
	return app
}

func TestSubmit_RequiresDeclarations(t *testing.T) {
	h := NewHandler(WithDelay(time.Millisecond))
	app := newApp(false)

	if h.CanSubmit(app) {
		t.Error("Submit control should be disabled")
	}
	if _, err := h.Submit(context.Background(), app); !errors.Is(err, ErrDeclarationsIncomplete) {
		t.Errorf("Expected ErrDeclarationsIncomplete, got %v", err)
	}
	if h.Status() != StatusIdle {
		t.Errorf("Guard failure must not change status, got %s", h.Status())
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	release := make(chan struct{})
	var calls atomic.Int32

	h := NewHandler(
		WithClock(func() time.Time { return now }),
		WithSender(SenderFunc(func(ctx context.Context, p Payload) error {
			calls.Add(1)
			if v, _ := p.Value(application.FirstName); v != "Thabo" {
				t.Errorf("Payload missing first name: %v", v)
			}
			<-release
			return nil
		})),
	)
	app := newApp(true)

	task, err := h.Submit(context.Background(), app)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if h.CanSubmit(app) {
		t.Error("Control must be disabled while submitting")
	}
	if h.ButtonLabel() != LabelSubmitting {
		t.Errorf("Unexpected label %q", h.ButtonLabel())
	}
	if _, err := h.Submit(context.Background(), app); !errors.Is(err, ErrInProgress) {
		t.Errorf("Expected ErrInProgress, got %v", err)
	}

	// Edits after submit do not leak into the payload.
	app.Form.SetValue(application.FirstName, "Changed")
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if !regexp.MustCompile(`^NMTP-1718000000000-[0-9a-f]{8}$`).MatchString(res.Reference) {
		t.Errorf("Unexpected reference %q", res.Reference)
	}
	if v, _ := res.Payload.Value(application.FirstName); v != "Thabo" {
		t.Errorf("Payload should be a snapshot, got %v", v)
	}
	if len(res.Payload.Attachments()) != 1 {
		t.Error("Payload should carry the attachment")
	}
	if h.Status() != StatusSubmitted || h.CanSubmit(app) {
		t.Error("Control must stay disabled after success")
	}
	if _, err := h.Submit(context.Background(), app); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Expected ErrAlreadySubmitted, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Sender called %d times", calls.Load())
	}
}

func TestSubmit_SimulatedDelay(t *testing.T) {
	h := NewHandler(WithDelay(20 * time.Millisecond))
	start := time.Now()

	task, err := h.Submit(context.Background(), newApp(true))
	if err != nil {
		t.Fatal(err)
	}
	<-task.Done()

	if time.Since(start) < 20*time.Millisecond {
		t.Error("Result arrived before the delay elapsed")
	}
	if res := h.Result(); res == nil || res.Reference == "" {
		t.Error("Expected a reference")
	}
}

func TestSubmit_Cancel(t *testing.T) {
	var got error
	done := make(chan struct{})
	h := NewHandler(WithDelay(time.Hour), OnResult(func(_ *Result, err error) {
		got = err
		close(done)
	}))
	app := newApp(true)

	task, err := h.Submit(context.Background(), app)
	if err != nil {
		t.Fatal(err)
	}
	task.Cancel()

	_, err = task.Wait(context.Background())
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
	<-done
	if !errors.Is(got, ErrCancelled) {
		t.Errorf("OnResult saw %v", got)
	}
	if h.Status() != StatusIdle || !h.CanSubmit(app) {
		t.Error("Cancelled submission should re-enable the control")
	}
}

func TestSubmit_SendFailure(t *testing.T) {
	boom := errors.New("network down")
	h := NewHandler(WithSender(SenderFunc(func(context.Context, Payload) error { return boom })))
	app := newApp(true)

	task, _ := h.Submit(context.Background(), app)
	_, err := task.Wait(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped send error, got %v", err)
	}
	if h.Status() != StatusFailed || !h.CanSubmit(app) {
		t.Error("Failed submission should re-enable the control")
	}
	if h.Result() != nil {
		t.Error("No result after failure")
	}
}

func TestSubmit_CallerContextDoesNotCancel(t *testing.T) {
	h := NewHandler(WithDelay(10 * time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	task, err := h.Submit(ctx, newApp(true))
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	if _, err := task.Wait(context.Background()); err != nil {
		t.Errorf("Request context end must not abort delivery, got %v", err)
	}
}

func TestNewConfirmation(t *testing.T) {
	c := NewConfirmation(&Result{Reference: "NMTP-1-abcdef12"})
	if c.Reference != "NMTP-1-abcdef12" || len(c.NextSteps) != 4 || len(c.ImportantInfo) != 4 {
		t.Errorf("Unexpected confirmation %+v", c)
	}
	if c.Links[1].Href != "/dashboard" {
		t.Errorf("Unexpected links %+v", c.Links)
	}
}

func TestSubmit_SkipsHiddenFields(t *testing.T) {
	h := NewHandler(WithDelay(0))
	app := newApp(true)
	app.Form.SetValue(application.Nationality, "other")
	app.Form.SetValue(application.OtherNationality, "Zimbabwean")
	app.Form.SetValue(application.MedicalConditions, "no")
	app.Form.SetValue(application.ConditionsList, "asthma")
	app.Form.SetValue(application.Nationality, "south-african")

	task, err := h.Submit(context.Background(), app)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if v, ok := res.Payload.Value(application.OtherNationality); ok {
		t.Errorf("Hidden other nationality leaked into the payload: %v", v)
	}
	if v, ok := res.Payload.Value(application.ConditionsList); ok {
		t.Errorf("Hidden conditions list leaked into the payload: %v", v)
	}
	if v, _ := res.Payload.Value(application.Nationality); v != "south-african" {
		t.Errorf("Expected nationality, got %v", v)
	}
}
