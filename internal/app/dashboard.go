package app

import (
	"context"
	"fmt"
	"io"

	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/logging"
)

type applicationRow struct {
	ID        string
	Submitted string
	Status    string
	Label     string
}

type dashboardPage struct {
	Drafts       int
	Applications []applicationRow
}

// DashboardView lists the applications submitted from the applicant's
// device and any draft still in progress.
type DashboardView struct {
	core.BaseComponent

	deps   *Deps
	device string
	drafts int
}

// NewDashboardView creates an unmounted applicant dashboard.
func NewDashboardView(d *Deps) *DashboardView {
	return &DashboardView{deps: d}
}

func (v *DashboardView) Name() string { return "dashboard" }

func (v *DashboardView) Mount(ctx context.Context, _ core.Params, session core.Session) error {
	v.device = session.Cookie(DeviceCookieName)
	v.countDrafts(ctx)
	return nil
}

func (v *DashboardView) countDrafts(ctx context.Context) {
	v.drafts = 0
	if v.device == "" || v.deps.Drafts == nil {
		return
	}
	ids, err := v.deps.Drafts.Forms(ctx, v.device)
	if err != nil {
		logging.L(ctx).Warn("drafts not listed", logging.Err(err))
		return
	}
	v.drafts = len(ids)
}

func (v *DashboardView) HandleEvent(ctx context.Context, event string, _ map[string]any) error {
	if event != "refresh" {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	v.countDrafts(ctx)
	return nil
}

func (v *DashboardView) page() dashboardPage {
	p := dashboardPage{Drafts: v.drafts}
	if v.device == "" || v.deps.Registry == nil {
		return p
	}
	for _, rec := range v.deps.Registry.ByDevice(v.device) {
		p.Applications = append(p.Applications, applicationRow{
			ID:        rec.ID,
			Submitted: v.deps.dates().Date(rec.Submitted),
			Status:    string(rec.Status),
			Label:     rec.Status.Label(),
		})
	}
	return p
}

func (v *DashboardView) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		return dashboardTemplate.Execute(w, v.page())
	})
}
