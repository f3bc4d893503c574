package app

import (
	"github.com/nmtp/applyportal/internal/application"
	"github.com/nmtp/applyportal/internal/review"
	"github.com/nmtp/applyportal/internal/submission"
	"github.com/nmtp/applyportal/pkg/forms"
)

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type fieldView struct {
	Name        string
	Type        string
	Label       string
	Value       string
	Placeholder string
	Help        string
	Unit        string
	Error       string
	Required    bool
	Checked     bool
	Hidden      bool
	Options     []optionView

	// File inputs.
	Accept string
	Status string
}

type submitView struct {
	Enabled    bool
	Submitting bool
	Label      string
	Notice     string
}

type stepView struct {
	N         int
	ID        string
	Title     string
	Active    bool
	Completed bool
	First     bool
	Last      bool
	Fields    []fieldView
	DocsError string

	// Review step only.
	Review    []review.Row
	Documents []review.DocumentStatus
	Submit    *submitView
}

type applyPage struct {
	Steps        []stepView
	StepLabel    string
	PercentLabel string
	Percent      int
	Restored     bool
	Confirmation *submission.Confirmation
}

// acceptAttr is the file picker filter for document inputs.
const acceptAttr = ".pdf,.jpg,.jpeg,.png"

func (v *ApplicationView) page() applyPage {
	p := applyPage{
		StepLabel:    v.wizard.StepLabel(),
		PercentLabel: v.wizard.PercentLabel(),
		Percent:      v.wizard.Percent(),
		Restored:     v.restored > 0,
		Confirmation: v.confirm,
	}

	for n := 1; n <= application.Steps; n++ {
		sv := stepView{
			N:         n,
			ID:        application.FormID(n),
			Title:     application.StepTitle(n),
			Active:    v.wizard.IsActive(n),
			Completed: v.wizard.IsCompleted(n),
			First:     n == 1,
			Last:      n == application.Steps,
		}
		for _, f := range v.app.Form.StepFields(n) {
			sv.Fields = append(sv.Fields, v.fieldView(f))
		}
		if n == 4 {
			sv.DocsError = v.app.DocumentsError()
		}
		if sv.Last {
			if sv.Active {
				sv.Review = review.Project(v.app.Form, v.deps.dates()).Rows()
				sv.Documents = review.Documents(v.app.Files)
			}
			sv.Submit = &submitView{
				Enabled:    v.submit.CanSubmit(v.app),
				Submitting: v.submit.Status() == submission.StatusSubmitting,
				Label:      v.submit.ButtonLabel(),
				Notice:     v.notice,
			}
		}
		p.Steps = append(p.Steps, sv)
	}
	return p
}

func (v *ApplicationView) fieldView(f forms.Field) fieldView {
	form := v.app.Form
	fv := fieldView{
		Name:        f.Name,
		Type:        string(f.Type),
		Label:       f.Label,
		Value:       form.String(f.Name),
		Placeholder: f.Placeholder,
		Help:        f.Help,
		Unit:        f.Unit,
		Error:       form.FieldError(f.Name),
		Required:    f.IsRequired(form),
		Checked:     form.Bool(f.Name),
		Hidden:      !f.IsVisible(form),
	}
	for _, opt := range f.Options {
		fv.Options = append(fv.Options, optionView{
			Value:    opt.Value,
			Label:    opt.Label,
			Selected: opt.Value == fv.Value,
		})
	}

	if f.Type == forms.FieldFile {
		fv.Accept = acceptAttr
		fv.Status = v.app.Files.Status(f.Name)
		for _, slot := range v.app.Files.Slots() {
			if slot.Name == f.Name {
				fv.Required = slot.Required
			}
		}
	}
	return fv
}
