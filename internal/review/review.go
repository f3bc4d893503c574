// Package review projects the application form into the read-only
// summary shown on the final step.
package review

import (
	"strings"

	"github.com/nmtp/applyportal/internal/application"
	"github.com/nmtp/applyportal/pkg/forms"
	"github.com/nmtp/applyportal/pkg/i18n"
	"github.com/nmtp/applyportal/pkg/uploads"
)

// Placeholder is shown for empty values.
const Placeholder = "-"

// Row is one line of the summary, bound to a page element.
type Row struct {
	ID    string
	Label string
	Value string
}

// Summary is the projected review of an application.
type Summary struct {
	Name          string
	IDNumber      string
	DateOfBirth   string
	Email         string
	Qualification string
	School        string
	Year          string
	Height        string
	Weight        string
	Fitness       string
}

// Rows returns the summary in display order.
func (s Summary) Rows() []Row {
	return []Row{
		{ID: "reviewName", Label: "Full Name", Value: s.Name},
		{ID: "reviewID", Label: "ID Number", Value: s.IDNumber},
		{ID: "reviewDOB", Label: "Date of Birth", Value: s.DateOfBirth},
		{ID: "reviewEmail", Label: "Email", Value: s.Email},
		{ID: "reviewQualification", Label: "Highest Qualification", Value: s.Qualification},
		{ID: "reviewSchool", Label: "School/Institution", Value: s.School},
		{ID: "reviewYear", Label: "Year Completed", Value: s.Year},
		{ID: "reviewHeight", Label: "Height", Value: s.Height},
		{ID: "reviewWeight", Label: "Weight", Value: s.Weight},
		{ID: "reviewFitness", Label: "Fitness Level", Value: s.Fitness},
	}
}

// Project reads the summary from form. It has no side effects, so
// projecting twice yields the same summary. A nil formatter uses the
// default locale.
func Project(form *forms.Form, dates *i18n.Formatter) Summary {
	if dates == nil {
		dates = i18n.NewFormatter(i18n.DefaultLocale)
	}

	name := strings.TrimSpace(form.String(application.FirstName) + " " + form.String(application.LastName))

	return Summary{
		Name:          orPlaceholder(name),
		IDNumber:      text(form, application.IDNumber),
		DateOfBirth:   dates.DateString(form.String(application.DateOfBirth), Placeholder),
		Email:         text(form, application.Email),
		Qualification: optionLabel(form, application.HighestQualification),
		School:        text(form, application.SchoolName),
		Year:          text(form, application.GraduationYear),
		Height:        withUnit(form, application.Height),
		Weight:        withUnit(form, application.Weight),
		Fitness:       optionLabel(form, application.FitnessLevel),
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func text(form *forms.Form, name string) string {
	return orPlaceholder(strings.TrimSpace(form.String(name)))
}

func optionLabel(form *forms.Form, name string) string {
	value := strings.TrimSpace(form.String(name))
	if value == "" {
		return Placeholder
	}
	if f := form.Field(name); f != nil {
		if label := f.OptionLabel(value); label != "" {
			return label
		}
	}
	return value
}

func withUnit(form *forms.Form, name string) string {
	value := strings.TrimSpace(form.String(name))
	if value == "" {
		return Placeholder
	}
	if f := form.Field(name); f != nil && f.Unit != "" {
		return value + " " + f.Unit
	}
	return value
}

// Document status lines.
const (
	DocUploaded    = "✅ Uploaded"
	DocOptional    = "⚠️ Optional"
	DocNotUploaded = "❌ Not uploaded"
)

// DocumentStatus is the review line of one attachment slot.
type DocumentStatus struct {
	ID     string
	Label  string
	Status string
	OK     bool
}

var statusIDs = map[string]string{
	application.IDDocument:         "statusID",
	application.MatricCertificate:  "statusMatric",
	application.MedicalCertificate: "statusMedical",
	application.Transcript:         "statusTranscript",
}

// Documents reports the upload state of every slot in files.
func Documents(files *uploads.Set) []DocumentStatus {
	slots := files.Slots()
	out := make([]DocumentStatus, 0, len(slots))
	for _, slot := range slots {
		ds := DocumentStatus{
			ID:    statusIDs[slot.Name],
			Label: slot.Label,
		}
		if ds.ID == "" {
			ds.ID = "status" + slot.Name
		}
		switch {
		case files.Has(slot.Name):
			ds.Status, ds.OK = DocUploaded, true
		case !slot.Required:
			ds.Status = DocOptional
		default:
			ds.Status = DocNotUploaded
		}
		out = append(out, ds)
	}
	return out
}
