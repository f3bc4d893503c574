package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nmtp/applyportal/internal/admin"
	"github.com/nmtp/applyportal/internal/application"
	"github.com/nmtp/applyportal/internal/submission"
	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/forms"
	"github.com/nmtp/applyportal/pkg/logging"
	"github.com/nmtp/applyportal/pkg/uploads"
	"github.com/nmtp/applyportal/pkg/wizard"
)

// Notices shown under the submit control.
const (
	NoticeDeclarations = "Please accept all declarations before submitting."
	NoticeCancelled    = "Submission cancelled. You can submit again when ready."
	NoticeFailed       = "There was an error submitting your application. Please try again."
)

// submitted carries a finished submission back into the session loop.
type submitted struct {
	res *submission.Result
	err error
}

// ApplicationView is the five-step application wizard.
type ApplicationView struct {
	core.BaseComponent

	deps   *Deps
	device string
	log    logging.Logger

	app     *application.Application
	wizard  *wizard.Controller
	submit  *submission.Handler
	task    *submission.Task
	confirm *submission.Confirmation
	notice  string

	restored int
}

// NewApplicationView creates an unmounted wizard.
func NewApplicationView(d *Deps) *ApplicationView {
	return &ApplicationView{deps: d, log: logging.NopLogger{}}
}

func (v *ApplicationView) Name() string { return "application" }

// Mount builds a fresh application and restores any drafts saved from
// this device.
func (v *ApplicationView) Mount(ctx context.Context, _ core.Params, session core.Session) error {
	v.device = session.Cookie(DeviceCookieName)
	v.log = logging.L(ctx).With(logging.Component(v.Name()))

	now := v.deps.clock()
	v.app = application.New(now, v.deps.Uploads)
	v.wizard = wizard.New(v.app.ValidateStep,
		wizard.WithSteps(application.Steps),
		wizard.OnTransition(func(t wizard.Transition) {
			v.log.Debug("step changed", logging.Step(t.To), logging.Int("from", t.From))
		}),
	)

	opts := []submission.Option{submission.WithClock(now)}
	opts = append(opts, v.deps.Submission...)
	opts = append(opts, submission.OnResult(v.deliver))
	v.submit = submission.NewHandler(opts...)

	v.restore(ctx)
	return nil
}

func (v *ApplicationView) restore(ctx context.Context) {
	if v.device == "" || v.deps.Drafts == nil {
		return
	}
	for _, id := range application.FormIDs() {
		values, ok, err := v.deps.Drafts.Load(ctx, v.device, id)
		if err != nil {
			v.log.Warn("draft not restored", logging.String("form", id), logging.Err(err))
			continue
		}
		if ok {
			v.restored += v.app.Form.Restore(values)
		}
	}
	if v.restored > 0 {
		v.log.Debug("draft restored", logging.Int("fields", v.restored))
	}
}

// deliver runs on the submission goroutine and hands the outcome to the
// session loop.
func (v *ApplicationView) deliver(res *submission.Result, err error) {
	s := v.Socket()
	if s == nil {
		return
	}
	if sendErr := s.SendInfo(submitted{res: res, err: err}); sendErr != nil {
		v.log.Error("submission outcome dropped", logging.Err(sendErr))
	}
}

func (v *ApplicationView) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case "input":
		return v.handleInput(ctx, payload)
	case "blur":
		v.handleBlur(stringArg(payload, "field"))
	case "next":
		v.navigate(v.wizard.Next())
	case "prev":
		v.navigate(v.wizard.Prev())
	case "goto":
		n, err := intArg(payload, "step")
		if err != nil {
			return err
		}
		v.navigate(v.wizard.GoToStep(n))
	case "attach":
		return v.handleAttach(payload)
	case "submit":
		return v.handleSubmit(ctx)
	case "cancel":
		if v.task != nil {
			v.task.Cancel()
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return nil
}

func (v *ApplicationView) handleInput(ctx context.Context, payload map[string]any) error {
	name := stringArg(payload, "field")
	field := v.app.Form.Field(name)
	if field == nil || field.Type == forms.FieldFile {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	if field.Type == forms.FieldCheckbox {
		v.app.Form.SetChecked(name, boolArg(payload, "checked"))
		if v.app.CanSubmit() && v.notice == NoticeDeclarations {
			v.notice = ""
		}
	} else {
		v.app.Form.SetValue(name, stringArg(payload, "value"))
	}

	v.autosave(ctx, field.Step)
	return nil
}

// autosave overwrites the draft of the step section that owns the edit.
func (v *ApplicationView) autosave(ctx context.Context, step int) {
	if v.device == "" || v.deps.Drafts == nil {
		return
	}
	id := application.FormID(step)
	if err := v.deps.Drafts.Save(ctx, v.device, id, v.app.Form.StepValues(step)); err != nil {
		v.log.Warn("autosave failed", logging.String("form", id), logging.Err(err))
		return
	}
	v.deps.Metrics.DraftSaved()
}

func (v *ApplicationView) handleBlur(name string) {
	if res := v.app.Form.ValidateField(name); !res.Valid {
		v.deps.Metrics.ValidationFailed(name)
	}
}

func (v *ApplicationView) navigate(t wizard.Transition) {
	v.deps.Metrics.Transition(t.From, string(t.Reason))
	if !t.Moved {
		if t.Reason == wizard.ReasonInvalid {
			for name := range v.app.Form.Errors() {
				v.deps.Metrics.ValidationFailed(name)
			}
		}
		return
	}
	if s := v.Socket(); s != nil {
		if err := s.Push("scroll", nil); err != nil {
			v.log.Debug("scroll not sent", logging.Err(err))
		}
	}
}

func (v *ApplicationView) handleAttach(payload map[string]any) error {
	slot := stringArg(payload, "slot")
	name := stringArg(payload, "name")
	if name == "" {
		v.app.Files.Clear(slot)
		return nil
	}

	err := v.app.Attach(slot, name, int64Arg(payload, "size"), stringArg(payload, "type"))
	switch {
	case err == nil:
		v.deps.Metrics.Attachment("accepted")
	case errors.Is(err, uploads.ErrUnknownSlot):
		return err
	default:
		// The rejection is shown as the slot's status line.
		v.deps.Metrics.Attachment("rejected")
		v.log.Debug("attachment rejected", logging.String("slot", slot), logging.Err(err))
	}
	return nil
}

func (v *ApplicationView) handleSubmit(ctx context.Context) error {
	task, err := v.submit.Submit(ctx, v.app)
	switch {
	case errors.Is(err, submission.ErrDeclarationsIncomplete):
		v.notice = NoticeDeclarations
		return nil
	case err != nil:
		return err
	}
	v.task = task
	v.notice = ""
	return nil
}

// HandleInfo receives the outcome of a submission.
func (v *ApplicationView) HandleInfo(ctx context.Context, msg any) error {
	done, ok := msg.(submitted)
	if !ok {
		return nil
	}
	v.task = nil

	switch {
	case done.err == nil:
		v.deps.Metrics.Submission("success")
		conf := submission.NewConfirmation(done.res)
		v.confirm = &conf
		v.notice = ""
		v.record(done.res)
	case errors.Is(done.err, submission.ErrCancelled):
		v.deps.Metrics.Submission("cancelled")
		v.notice = NoticeCancelled
	default:
		v.deps.Metrics.Submission("failed")
		v.notice = NoticeFailed
	}
	return nil
}

func (v *ApplicationView) record(res *submission.Result) {
	if v.deps.Registry == nil {
		return
	}
	form := v.app.Form
	field := form.Field(application.Province)
	err := v.deps.Registry.Add(admin.Record{
		ID:        res.Reference,
		Name:      form.String(application.FirstName) + " " + form.String(application.LastName),
		Email:     form.String(application.Email),
		Province:  field.OptionLabel(form.String(application.Province)),
		Submitted: res.SubmittedAt,
		Device:    v.device,
	})
	if err != nil {
		v.log.Error("application not registered", logging.Reference(res.Reference), logging.Err(err))
	}
}

// Terminate abandons an in-flight submission when the applicant leaves.
func (v *ApplicationView) Terminate(ctx context.Context, reason core.TerminateReason) error {
	if v.task != nil {
		v.task.Cancel()
	}
	return nil
}

func (v *ApplicationView) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		return applyTemplate.Execute(w, v.page())
	})
}
