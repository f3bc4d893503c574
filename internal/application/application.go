package application

import (
	"strings"
	"time"

	"github.com/nmtp/applyportal/pkg/forms"
	"github.com/nmtp/applyportal/pkg/uploads"
)

// Application is the state of one applicant's form: field values plus
// the attached documents.
type Application struct {
	Form  *forms.Form
	Files *uploads.Set

	docsError string
}

// New creates an empty application.
func New(now func() time.Time, cfg *uploads.UploadConfig) *Application {
	return &Application{
		Form:  NewForm(now),
		Files: NewAttachments(cfg),
	}
}

// ValidateStep validates the fields of step. Leaving the document step
// also requires every mandatory document.
func (a *Application) ValidateStep(step int) bool {
	ok := a.Form.ValidateStep(step)
	if step == 4 {
		a.docsError = ""
		if missing := a.Files.MissingRequired(); len(missing) > 0 {
			labels := make([]string, len(missing))
			for i, s := range missing {
				labels[i] = s.Label
			}
			a.docsError = "Please upload: " + strings.Join(labels, ", ")
			ok = false
		}
	}
	return ok
}

// DocumentsError is the message shown when required documents are
// missing, or "".
func (a *Application) DocumentsError() string {
	return a.docsError
}

// Attach stores a selected document and clears the documents error once
// all required slots are filled.
func (a *Application) Attach(slot, name string, size int64, contentType string) error {
	_, err := a.Files.Attach(slot, name, size, contentType)
	if a.Files.Complete() {
		a.docsError = ""
	}
	return err
}

// CanSubmit reports whether all declarations are ticked.
func (a *Application) CanSubmit() bool {
	return DeclarationsAccepted(a.Form)
}
