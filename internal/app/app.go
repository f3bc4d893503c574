// Package app holds the live views of the portal: the application
// wizard, the applicant dashboard and the recruitment dashboard.
package app

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nmtp/applyportal/internal/admin"
	"github.com/nmtp/applyportal/internal/submission"
	"github.com/nmtp/applyportal/pkg/core"
	"github.com/nmtp/applyportal/pkg/i18n"
	"github.com/nmtp/applyportal/pkg/metrics"
	"github.com/nmtp/applyportal/pkg/router"
	"github.com/nmtp/applyportal/pkg/state"
	"github.com/nmtp/applyportal/pkg/uploads"
)

// Event errors.
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownField = errors.New("unknown field")
	ErrBadPayload   = errors.New("bad event payload")
)

// Deps are the services shared by every view.
type Deps struct {
	Drafts   *state.Drafts
	Registry *admin.Registry
	Metrics  *metrics.Metrics
	Uploads  *uploads.UploadConfig
	Dates    *i18n.Formatter

	// Submission options applied to every applicant's handler.
	Submission []submission.Option

	Now func() time.Time
}

func (d *Deps) clock() func() time.Time {
	if d.Now == nil {
		return time.Now
	}
	return d.Now
}

func (d *Deps) dates() *i18n.Formatter {
	if d.Dates != nil {
		return d.Dates
	}
	return i18n.NewFormatter(i18n.DefaultLocale)
}

// Routes of the live views.
const (
	ApplyPath     = "/apply"
	DashboardPath = "/dashboard"
	AdminPath     = "/admin"
)

// Register mounts the live views on r.
func Register(r *router.Router, d *Deps) {
	if d.Registry == nil {
		d.Registry = admin.NewRegistry()
	}
	if d.Dates == nil {
		d.Dates = i18n.NewFormatter(i18n.DefaultLocale)
	}
	r.Live(ApplyPath, "Apply | NMTP", func() core.Component {
		return NewApplicationView(d)
	}, DeviceCookie)
	r.Live(DashboardPath, "My Applications | NMTP", func() core.Component {
		return NewDashboardView(d)
	}, DeviceCookie)
	r.Live(AdminPath, "Recruitment Dashboard | NMTP", func() core.Component {
		return NewAdminView(d)
	})
}

func stringArg(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func boolArg(payload map[string]any, key string) bool {
	switch v := payload[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on"
	}
	return false
}

func intArg(payload map[string]any, key string) (int, error) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrBadPayload, key, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: missing %s", ErrBadPayload, key)
}

func int64Arg(payload map[string]any, key string) int64 {
	switch v := payload[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
