package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmtp/applyportal/internal/admin"
	"github.com/nmtp/applyportal/internal/application"
	"github.com/nmtp/applyportal/internal/submission"
	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/i18n"
	"github.com/nmtp/applyportal/pkg/state"
	"github.com/nmtp/applyportal/pkg/uploads"
)

const device = "device-1"

func clock() time.Time {
	return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
}

// recordingTransport keeps every frame pushed through a socket.
type recordingTransport struct {
	mu   sync.Mutex
	sent []core.Message
}

func (t *recordingTransport) Send(msg core.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	return nil
}

func (t *recordingTransport) Close() error      { return nil }
func (t *recordingTransport) IsConnected() bool { return true }

func (t *recordingTransport) events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, m := range t.sent {
		out = append(out, m.Event)
	}
	return out
}

func (t *recordingTransport) last(event string) (core.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.sent) - 1; i >= 0; i-- {
		if t.sent[i].Event == event {
			return t.sent[i], true
		}
	}
	return core.Message{}, false
}

func newDeps(t *testing.T, opts ...submission.Option) *Deps {
	t.Helper()
	store := state.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })
	return &Deps{
		Drafts:     state.NewDrafts(store),
		Registry:   admin.NewRegistry(),
		Dates:      i18n.NewFormatter(i18n.DefaultLocale),
		Submission: opts,
		Now:        clock,
	}
}

func mountApply(t *testing.T, d *Deps) *ApplicationView {
	t.Helper()
	v := NewApplicationView(d)
	require.NoError(t, v.Mount(context.Background(), core.Params{}, core.Session{"cookie:" + DeviceCookieName: device}))
	return v
}

func render(t *testing.T, c core.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background()).Render(context.Background(), &buf))
	return buf.String()
}

func send(t *testing.T, c core.Component, event string, payload map[string]any) {
	t.Helper()
	require.NoError(t, c.HandleEvent(context.Background(), event, payload))
}

func input(t *testing.T, c core.Component, field, value string) {
	send(t, c, "input", map[string]any{"field": field, "value": value})
}

func fillSteps1to3(t *testing.T, v *ApplicationView) {
	t.Helper()
	for _, kv := range [][2]string{
		{application.FirstName, "Thabo"},
		{application.LastName, "Mokoena"},
		{application.IDNumber, "0408155009086"},
		{application.DateOfBirth, "2004-08-15"},
		{application.Gender, "male"},
		{application.Nationality, "south-african"},
		{application.Email, "thabo@example.co.za"},
		{application.Phone, "+27 82 123 4567"},
		{application.Address, "12 Long Street"},
		{application.City, "Cape Town"},
		{application.Province, "western-cape"},
		{application.PostalCode, "8001"},
		{application.EmergencyContact, "Lerato Mokoena"},
		{application.EmergencyPhone, "+27 21 555 0101"},
	} {
		input(t, v, kv[0], kv[1])
	}
	send(t, v, "next", nil)

	for _, kv := range [][2]string{
		{application.HighestQualification, "grade-12"},
		{application.SchoolName, "Cape Town High"},
		{application.GraduationYear, "2022"},
		{application.CareerGoals, "Serve my community"},
	} {
		input(t, v, kv[0], kv[1])
	}
	send(t, v, "next", nil)

	for _, kv := range [][2]string{
		{application.MedicalConditions, "no"},
		{application.Height, "175"},
		{application.Weight, "70"},
		{application.FitnessLevel, "intermediate"},
		{application.ExerciseFrequency, "weekly"},
		{application.MedicalClearance, "yes"},
	} {
		input(t, v, kv[0], kv[1])
	}
	send(t, v, "next", nil)
	require.Equal(t, 4, v.wizard.Current(), "errors: %v", v.app.Form.Errors())
}

func attachDocuments(t *testing.T, v *ApplicationView) {
	t.Helper()
	for _, slot := range []string{application.IDDocument, application.MatricCertificate, application.MedicalCertificate} {
		send(t, v, "attach", map[string]any{"slot": slot, "name": slot + ".pdf", "size": float64(1024), "type": "application/pdf"})
	}
}

func declare(t *testing.T, v *ApplicationView) {
	t.Helper()
	for _, d := range application.Declarations {
		send(t, v, "input", map[string]any{"field": d, "checked": true})
	}
}

func TestDeviceCookie(t *testing.T) {
	var seen string
	h := DeviceCookie(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(DeviceCookieName)
		require.NoError(t, err)
		seen = c.Value
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apply", nil))
	require.NotEmpty(t, seen)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), DeviceCookieName+"="+seen)

	req := httptest.NewRequest(http.MethodGet, "/apply", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "known"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "known", seen)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestApplicationView_InitialRender(t *testing.T) {
	v := mountApply(t, newDeps(t))
	html := render(t, v)

	for _, want := range []string{
		`data-slot="progress"`,
		`data-slot="step1"`,
		`data-slot="step5"`,
		`id="step1" class="form-step application-form active"`,
		`id="firstName"`,
		`Step 1 of 5`,
		`20% Complete`,
		`id="otherNationalityGroup"`,
	} {
		assert.Contains(t, html, want)
	}
	assert.NotContains(t, html, `id="step2" class="form-step application-form active"`)
	assert.Contains(t, html, `form-group hidden" id="otherNationalityGroup"`)
	assert.NotContains(t, html, "draftRestored")
}

func TestApplicationView_InputEscaped(t *testing.T) {
	v := mountApply(t, newDeps(t))
	input(t, v, application.FirstName, `<script>alert(1)</script>`)

	html := render(t, v)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestApplicationView_BlurAndNext(t *testing.T) {
	v := mountApply(t, newDeps(t))

	send(t, v, "blur", map[string]any{"field": application.Email})
	assert.Equal(t, "Email Address is required", v.app.Form.FieldError(application.Email))

	input(t, v, application.Email, "not-an-email")
	assert.Empty(t, v.app.Form.FieldError(application.Email), "input clears the error")
	send(t, v, "blur", map[string]any{"field": application.Email})
	assert.NotEmpty(t, v.app.Form.FieldError(application.Email))

	send(t, v, "next", nil)
	assert.Equal(t, 1, v.wizard.Current())
	html := render(t, v)
	assert.Contains(t, html, `form-group error" id="firstNameGroup"`)
}

func TestApplicationView_DynamicField(t *testing.T) {
	v := mountApply(t, newDeps(t))
	input(t, v, application.Nationality, "other")

	html := render(t, v)
	assert.Contains(t, html, `<div class="form-group" id="otherNationalityGroup">`)
	assert.True(t, v.app.Form.Field(application.OtherNationality).IsRequired(v.app.Form))
}

func TestApplicationView_UnknownInput(t *testing.T) {
	v := mountApply(t, newDeps(t))
	err := v.HandleEvent(context.Background(), "input", map[string]any{"field": "nope", "value": "x"})
	assert.ErrorIs(t, err, ErrUnknownField)

	err = v.HandleEvent(context.Background(), "explode", nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	err = v.HandleEvent(context.Background(), "goto", map[string]any{"step": "two"})
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestApplicationView_AutosaveAndRestore(t *testing.T) {
	d := newDeps(t)
	v := mountApply(t, d)
	input(t, v, application.FirstName, "Thabo")
	input(t, v, application.HighestQualification, "diploma")

	values, ok, err := d.Drafts.Load(context.Background(), device, "step1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Thabo", values[application.FirstName])

	values, ok, err = d.Drafts.Load(context.Background(), device, "step2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "diploma", values[application.HighestQualification])

	again := mountApply(t, d)
	assert.Equal(t, "Thabo", again.app.Form.String(application.FirstName))
	assert.Equal(t, "diploma", again.app.Form.String(application.HighestQualification))
	html := render(t, again)
	assert.Contains(t, html, `value="Thabo"`)
	assert.Contains(t, html, "draftRestored")

	other := NewApplicationView(d)
	require.NoError(t, other.Mount(context.Background(), core.Params{}, core.Session{"cookie:" + DeviceCookieName: "device-2"}))
	assert.Empty(t, other.app.Form.String(application.FirstName), "drafts are scoped per device")
}

func TestApplicationView_NavigationPushesScroll(t *testing.T) {
	tr := &recordingTransport{}
	v := NewApplicationView(newDeps(t))
	v.SetSocket(core.NewSocket("s1", tr))
	require.NoError(t, v.Mount(context.Background(), core.Params{}, core.Session{"cookie:" + DeviceCookieName: device}))

	send(t, v, "next", nil)
	assert.NotContains(t, tr.events(), "scroll", "rejected navigation does not scroll")

	fillSteps1to3(t, v)
	assert.Contains(t, tr.events(), "scroll")
	assert.Equal(t, 3, strings.Count(render(t, v), `class="step-card completed"`))

	send(t, v, "goto", map[string]any{"step": "1"})
	assert.Equal(t, 1, v.wizard.Current())
	assert.NotContains(t, render(t, v), `class="step-card completed"`)
	send(t, v, "goto", map[string]any{"step": float64(3)})
	assert.Equal(t, 1, v.wizard.Current(), "skipping ahead is rejected")
}

func TestApplicationView_Documents(t *testing.T) {
	v := mountApply(t, newDeps(t))
	fillSteps1to3(t, v)

	send(t, v, "next", nil)
	assert.Equal(t, 4, v.wizard.Current())
	assert.Contains(t, render(t, v), "Please upload: ID Document, Matric Certificate, Medical Certificate")

	send(t, v, "attach", map[string]any{"slot": application.IDDocument, "name": "id.exe", "size": float64(10), "type": "application/x-msdownload"})
	assert.Contains(t, render(t, v), "❌ Invalid file type")

	send(t, v, "attach", map[string]any{"slot": application.IDDocument, "name": "id.pdf", "size": float64(6 << 20), "type": "application/pdf"})
	assert.Contains(t, render(t, v), "❌ File too large (max 5MB)")

	send(t, v, "attach", map[string]any{"slot": application.IDDocument, "name": "id.pdf", "size": float64(-1), "type": "application/pdf"})
	html := render(t, v)
	assert.Contains(t, html, "❌ Invalid file size")
	assert.NotContains(t, html, "-0.00MB")

	attachDocuments(t, v)
	html = render(t, v)
	assert.Contains(t, html, "✅ idDocument.pdf (0.00MB)")
	assert.NotContains(t, html, "documentsError")

	err := v.HandleEvent(context.Background(), "attach", map[string]any{"slot": "passport", "name": "p.pdf", "size": float64(1), "type": "application/pdf"})
	assert.ErrorIs(t, err, uploads.ErrUnknownSlot)

	send(t, v, "next", nil)
	assert.Equal(t, 5, v.wizard.Current())
}

func TestApplicationView_Review(t *testing.T) {
	v := mountApply(t, newDeps(t))
	fillSteps1to3(t, v)
	attachDocuments(t, v)
	send(t, v, "next", nil)

	html := render(t, v)
	for _, want := range []string{
		`<dd id="reviewName">Thabo Mokoena</dd>`,
		`<dd id="reviewQualification">Grade 12 (Matric)</dd>`,
		`<dd id="reviewHeight">175 cm</dd>`,
		`<span id="statusTranscript" class="status-value">⚠️ Optional</span>`,
		`id="submitApplication" class="btn" disabled`,
	} {
		assert.Contains(t, html, want)
	}

	send(t, v, "submit", nil)
	assert.Contains(t, render(t, v), NoticeDeclarations)

	declare(t, v)
	html = render(t, v)
	assert.NotContains(t, html, NoticeDeclarations)
	assert.Contains(t, html, `id="submitApplication" class="btn">Submit Application`)
}

func TestApplicationView_Submit(t *testing.T) {
	release := make(chan struct{})
	d := newDeps(t, submission.WithSender(submission.SenderFunc(func(ctx context.Context, _ submission.Payload) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})))
	tr := &recordingTransport{}
	sock := core.NewSocket("s1", tr)
	v := NewApplicationView(d)
	v.SetSocket(sock)
	require.NoError(t, v.Mount(context.Background(), core.Params{}, core.Session{"cookie:" + DeviceCookieName: device}))

	fillSteps1to3(t, v)
	attachDocuments(t, v)
	send(t, v, "next", nil)
	declare(t, v)

	send(t, v, "submit", nil)
	html := render(t, v)
	assert.Contains(t, html, "Submitting Application...")
	assert.Contains(t, html, `id="cancelSubmission"`)
	assert.Contains(t, html, `id="submitApplication" class="btn" disabled`)

	close(release)
	var msg any
	select {
	case msg = <-sock.Info():
	case <-time.After(2 * time.Second):
		t.Fatal("submission outcome was not queued")
	}
	require.NoError(t, v.HandleInfo(context.Background(), msg))

	require.NotNil(t, v.confirm)
	html = render(t, v)
	assert.Contains(t, html, `id="applicationReference">`+v.confirm.Reference)
	assert.NotContains(t, html, `id="step1"`)
	assert.True(t, strings.HasPrefix(v.confirm.Reference, "NMTP-"))

	rec, err := d.Registry.Get(v.confirm.Reference)
	require.NoError(t, err)
	assert.Equal(t, "Thabo Mokoena", rec.Name)
	assert.Equal(t, "Western Cape", rec.Province)
	assert.Equal(t, device, rec.Device)
	assert.Equal(t, admin.StatusPending, rec.Status)

	ids, err := d.Drafts.Forms(context.Background(), device)
	require.NoError(t, err)
	assert.Contains(t, ids, "step1", "drafts survive submission")
	assert.Contains(t, ids, "step5")
	values, ok, err := d.Drafts.Load(context.Background(), device, "step1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Thabo", values["firstName"])
}

func TestApplicationView_CancelAndFailure(t *testing.T) {
	fail := errors.New("gateway down")
	var mu sync.Mutex
	failNext := false
	d := newDeps(t, submission.WithSender(submission.SenderFunc(func(ctx context.Context, _ submission.Payload) error {
		mu.Lock()
		f := failNext
		mu.Unlock()
		if f {
			return fail
		}
		<-ctx.Done()
		return ctx.Err()
	})))
	v := mountApply(t, d)
	fillSteps1to3(t, v)
	attachDocuments(t, v)
	send(t, v, "next", nil)
	declare(t, v)

	send(t, v, "submit", nil)
	task := v.task
	require.NotNil(t, task)
	send(t, v, "cancel", nil)
	res, err := task.Wait(context.Background())
	require.NoError(t, v.HandleInfo(context.Background(), submitted{res: res, err: err}))
	assert.Nil(t, v.confirm)
	assert.Contains(t, render(t, v), NoticeCancelled)
	assert.Equal(t, submission.StatusIdle, v.submit.Status())

	mu.Lock()
	failNext = true
	mu.Unlock()
	send(t, v, "submit", nil)
	res, err = v.task.Wait(context.Background())
	require.ErrorIs(t, err, fail)
	require.NoError(t, v.HandleInfo(context.Background(), submitted{res: res, err: err}))
	html := render(t, v)
	assert.Contains(t, html, NoticeFailed)
	assert.Contains(t, html, `id="submitApplication" class="btn">Submit Application`, "control is re-enabled after a failure")
	assert.Zero(t, d.Registry.Len())
}

func TestDashboardView(t *testing.T) {
	d := newDeps(t)
	require.NoError(t, d.Registry.Add(admin.Record{ID: "NMTP-1-aaaa", Name: "Thabo", Submitted: clock(), Device: device}))
	require.NoError(t, d.Registry.Add(admin.Record{ID: "NMTP-2-bbbb", Name: "Other", Submitted: clock(), Device: "device-2"}))
	require.NoError(t, d.Drafts.Save(context.Background(), device, "step1", map[string]any{"firstName": "T"}))

	v := NewDashboardView(d)
	require.NoError(t, v.Mount(context.Background(), core.Params{}, core.Session{"cookie:" + DeviceCookieName: device}))
	html := render(t, v)
	assert.Contains(t, html, "NMTP-1-aaaa")
	assert.NotContains(t, html, "NMTP-2-bbbb")
	assert.Contains(t, html, "1 of 5 sections saved")
	assert.Contains(t, html, "Pending")

	require.NoError(t, d.Drafts.Save(context.Background(), device, "step2", map[string]any{"schoolName": "Cape Town High"}))
	send(t, v, "refresh", nil)
	assert.Contains(t, render(t, v), "2 of 5 sections saved")

	empty := NewDashboardView(d)
	require.NoError(t, empty.Mount(context.Background(), core.Params{}, core.Session{}))
	assert.Contains(t, render(t, empty), "noApplications")
}

func TestAdminView(t *testing.T) {
	d := newDeps(t)
	admin.SeedDemo(d.Registry, clock())
	tr := &recordingTransport{}

	v := NewAdminView(d)
	v.SetSocket(core.NewSocket("admin", tr))
	require.NoError(t, v.Mount(context.Background(), core.Params{}, core.Session{}))

	html := render(t, v)
	assert.Contains(t, html, `id="totalApplications">12<`)
	assert.Contains(t, html, "Page 1 of 2")

	send(t, v, "input", map[string]any{"field": "search", "value": "Thabo"})
	html = render(t, v)
	assert.Contains(t, html, "Thabo Mokoena")
	assert.NotContains(t, html, "Lerato Dlamini")
	assert.NotContains(t, html, "pageInfo")

	send(t, v, "input", map[string]any{"field": "search", "value": ""})
	send(t, v, "input", map[string]any{"field": "status", "value": "approved"})
	assert.Len(t, v.table.Rows(), 3)
	send(t, v, "input", map[string]any{"field": "status", "value": ""})

	send(t, v, "sort", map[string]any{"col": "1"})
	assert.Equal(t, "Ayanda Khumalo", v.table.Rows()[0].Name)
	send(t, v, "sort", map[string]any{"col": "1"})
	assert.Equal(t, "Zanele Mahlangu", v.table.Rows()[0].Name)

	send(t, v, "page", map[string]any{"n": "2"})
	assert.Contains(t, render(t, v), "Page 2 of 2")

	id := v.table.Rows()[0].ID
	send(t, v, "input", map[string]any{"field": "check:" + id, "checked": true})
	send(t, v, "action", map[string]any{"kind": "export-data"})
	msg, ok := tr.last("download")
	require.True(t, ok)
	assert.Equal(t, "text/csv", msg.Payload["mime"])
	assert.Contains(t, msg.Payload["content"], id)
	assert.Contains(t, render(t, v), "Exported 1 applications.")

	var pending string
	for _, rec := range d.Registry.List() {
		if rec.Status == admin.StatusPending {
			pending = rec.ID
			break
		}
	}
	send(t, v, "action", map[string]any{"kind": "review", "target": pending})
	rec, err := d.Registry.Get(pending)
	require.NoError(t, err)
	assert.Equal(t, admin.StatusReview, rec.Status)
	assert.Contains(t, render(t, v), "Opening detailed review for application: "+pending)

	err = v.HandleEvent(context.Background(), "action", map[string]any{"kind": "launch-rocket"})
	assert.ErrorIs(t, err, admin.ErrUnknownAction)

	send(t, v, "input", map[string]any{"field": "from", "value": clock().AddDate(0, 0, -4).Format("2006-01-02")})
	assert.Len(t, v.table.Rows(), 2)
	err = v.HandleEvent(context.Background(), "input", map[string]any{"field": "to", "value": "15/06/2025"})
	assert.ErrorIs(t, err, ErrBadPayload)
}
