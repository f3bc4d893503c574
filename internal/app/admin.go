package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nmtp/applyportal/internal/admin"
	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/forms"
	"github.com/nmtp/applyportal/pkg/logging"
)

type countView struct {
	Status string
	Label  string
	Count  int
}

type actionView struct {
	Kind  string
	Label string
}

type columnView struct {
	Index int
	Label string
	Dir   string
}

type adminRow struct {
	ID          string
	Name        string
	Status      string
	StatusLabel string
	Date        string
	Active      bool
	Checked     bool
}

type adminPage struct {
	Total      int
	Counts     []countView
	Actions    []actionView
	Notice     string
	Search     string
	Statuses   []optionView
	From, To   string
	AllChecked bool
	Columns    []columnView
	Rows       []adminRow

	Paginated bool
	HasPrev   bool
	HasNext   bool
	Prev      int
	Next      int
	PageLabel string
}

// AdminView is the recruitment dashboard over every submitted
// application.
type AdminView struct {
	core.BaseComponent

	deps     *Deps
	table    *admin.Table
	dispatch *admin.Dispatcher
	search   string
	from, to string
	notice   string
}

// NewAdminView creates an unmounted dashboard.
func NewAdminView(d *Deps) *AdminView {
	return &AdminView{deps: d}
}

func (v *AdminView) Name() string { return "admin" }

func (v *AdminView) Mount(ctx context.Context, params core.Params, _ core.Session) error {
	v.table = admin.NewTable(v.deps.Registry.List)
	v.dispatch = admin.NewDefaultDispatcher(v.deps.Registry, v.table, v.deps.clock())

	if q := params.Get("q"); q != "" {
		v.search = q
		v.table.Search(q)
	}
	if st, err := admin.ParseStatus(params.Get("status")); err == nil {
		v.table.FilterStatus(st)
	}
	return nil
}

func (v *AdminView) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case "input":
		return v.handleInput(payload)
	case "blur":
	case "sort":
		col, err := intArg(payload, "col")
		if err != nil {
			return err
		}
		v.table.Sort(col)
	case "page":
		n, err := intArg(payload, "n")
		if err != nil {
			return err
		}
		v.table.GoToPage(n)
	case "select":
		v.table.Select(stringArg(payload, "id"))
	case "action":
		return v.handleAction(ctx, payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return nil
}

func (v *AdminView) handleInput(payload map[string]any) error {
	field := stringArg(payload, "field")
	value := stringArg(payload, "value")

	switch {
	case field == "search":
		v.search = value
		v.table.Search(value)
	case field == "status":
		if value == "" {
			v.table.FilterStatus("")
			return nil
		}
		st, err := admin.ParseStatus(value)
		if err != nil {
			return err
		}
		v.table.FilterStatus(st)
	case field == "from" || field == "to":
		return v.filterDates(field, value)
	case field == "checkAll":
		if boolArg(payload, "checked") {
			v.table.CheckAll()
		} else {
			v.table.UncheckAll()
		}
	case strings.HasPrefix(field, "check:"):
		v.table.Check(strings.TrimPrefix(field, "check:"), boolArg(payload, "checked"))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// filterDates applies the date range. The upper bound covers the whole
// day.
func (v *AdminView) filterDates(field, value string) error {
	if value != "" {
		if _, err := time.Parse(forms.DateLayout, value); err != nil {
			return fmt.Errorf("%w: %s=%q", ErrBadPayload, field, value)
		}
	}
	if field == "from" {
		v.from = value
	} else {
		v.to = value
	}

	var from, to time.Time
	if v.from != "" {
		from, _ = time.Parse(forms.DateLayout, v.from)
	}
	if v.to != "" {
		to, _ = time.Parse(forms.DateLayout, v.to)
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	v.table.FilterDates(from, to)
	return nil
}

func (v *AdminView) handleAction(ctx context.Context, payload map[string]any) error {
	kind, err := admin.ParseAction(stringArg(payload, "kind"))
	if err != nil {
		return err
	}
	v.deps.Metrics.AdminAction(string(kind))

	out, err := v.dispatch.Dispatch(ctx, admin.Action{Kind: kind, Target: stringArg(payload, "target")})
	if err != nil {
		return err
	}
	v.notice = out.Notice

	if out.Download != nil {
		if s := v.Socket(); s != nil {
			err := s.Push("download", map[string]any{
				"filename": out.Download.Filename,
				"mime":     out.Download.ContentType,
				"content":  string(out.Download.Data),
			})
			if err != nil {
				logging.L(ctx).Warn("download not sent", logging.Err(err))
			}
		}
	}
	return nil
}

func (v *AdminView) page() adminPage {
	reg := v.deps.Registry
	counts := reg.Counts()
	_, status := v.table.Filters()
	view := v.table.View()
	sortCol, sortDir := v.table.SortState()

	p := adminPage{
		Total:     reg.Len(),
		Notice:    v.notice,
		Search:    v.search,
		From:      v.from,
		To:        v.to,
		Paginated: view.Paginated(),
		HasPrev:   view.HasPrev(),
		HasNext:   view.HasNext(),
		Prev:      view.Number - 1,
		Next:      view.Number + 1,
		PageLabel: view.Label(),
	}

	for _, st := range admin.Statuses {
		p.Counts = append(p.Counts, countView{Status: string(st), Label: st.Label(), Count: counts[st]})
		p.Statuses = append(p.Statuses, optionView{Value: string(st), Label: st.Label(), Selected: st == status})
	}
	for _, k := range admin.QuickActions {
		p.Actions = append(p.Actions, actionView{Kind: string(k), Label: k.Label()})
	}
	for i, label := range admin.Columns {
		col := columnView{Index: i, Label: label}
		if i == sortCol {
			col.Dir = string(sortDir)
		}
		p.Columns = append(p.Columns, col)
	}

	active := v.table.Active()
	p.AllChecked = len(view.Rows) > 0
	for _, r := range view.Rows {
		checked := v.table.IsChecked(r.ID)
		p.AllChecked = p.AllChecked && checked
		p.Rows = append(p.Rows, adminRow{
			ID:          r.ID,
			Name:        r.Name,
			Status:      string(r.Status),
			StatusLabel: r.Status.Label(),
			Date:        r.Date,
			Active:      r.ID == active,
			Checked:     checked,
		})
	}
	return p
}

func (v *AdminView) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		return adminTemplate.Execute(w, v.page())
	})
}
