package application

import (
	"strings"
	"testing"
	"time"

	"github.com/nmtp/applyportal/pkg/uploads"
)

func clock() time.Time {
	return time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
}

func fillStep1(a *Application) {
	f := a.Form
	f.SetValue(FirstName, "Thabo")
	f.SetValue(LastName, "Mokoena")
	f.SetValue(IDNumber, "0408155009086")
	f.SetValue(DateOfBirth, "2004-08-15")
	f.SetValue(Gender, "male")
	f.SetValue(Nationality, "south-african")
	f.SetValue(Email, "thabo@example.co.za")
	f.SetValue(Phone, "+27 82 123 4567")
	f.SetValue(Address, "12 Long Street")
	f.SetValue(City, "Cape Town")
	f.SetValue(Province, "western-cape")
	f.SetValue(PostalCode, "8001")
	f.SetValue(EmergencyContact, "Lerato Mokoena")
	f.SetValue(EmergencyPhone, "+27 21 555 0101")
}

func TestFieldsOwnedByOneStep(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Fields(clock) {
		if f.Step < 1 || f.Step > Steps {
			t.Errorf("%s has step %d", f.Name, f.Step)
		}
		if seen[f.Name] {
			t.Errorf("Duplicate field %s", f.Name)
		}
		seen[f.Name] = true
	}
	for _, d := range Declarations {
		if !seen[d] {
			t.Errorf("Declaration %s missing from fields", d)
		}
	}
}

func TestStep1(t *testing.T) {
	a := New(clock, nil)

	if a.ValidateStep(1) {
		t.Fatal("Empty step 1 should fail")
	}
	if msg := a.Form.FieldError(FirstName); msg != "First Name is required" {
		t.Errorf("Unexpected message %q", msg)
	}

	fillStep1(a)
	if !a.ValidateStep(1) {
		t.Fatalf("Filled step 1 should pass: %v", a.Form.Errors())
	}

	a.Form.SetValue(Nationality, "other")
	if a.ValidateStep(1) {
		t.Error("otherNationality becomes required")
	}
	a.Form.SetValue(OtherNationality, "Lesotho")
	if !a.ValidateStep(1) {
		t.Errorf("Step 1 should pass again: %v", a.Form.Errors())
	}
}

func TestStep3ConditionsList(t *testing.T) {
	a := New(clock, nil)
	f := a.Form
	f.SetValue(MedicalConditions, "no")
	f.SetValue(Height, "175")
	f.SetValue(Weight, "70")
	f.SetValue(FitnessLevel, "intermediate")
	f.SetValue(ExerciseFrequency, "weekly")
	f.SetValue(MedicalClearance, "yes")

	if !a.ValidateStep(3) {
		t.Fatalf("Step 3 should pass: %v", f.Errors())
	}

	f.SetValue(MedicalConditions, "yes")
	if a.ValidateStep(3) {
		t.Error("conditionsList should be required once medicalConditions is yes")
	}
	if !f.IsVisible(ConditionsList) {
		t.Error("conditionsList should be visible")
	}
}

func TestStep4RequiresDocuments(t *testing.T) {
	a := New(clock, nil)

	if a.ValidateStep(4) {
		t.Fatal("Step 4 needs documents")
	}
	if !strings.Contains(a.DocumentsError(), "ID Document") {
		t.Errorf("Unexpected documents error %q", a.DocumentsError())
	}

	a.Attach(IDDocument, "id.pdf", 1024, "application/pdf")
	a.Attach(MatricCertificate, "matric.png", 1024, "image/png")
	if err := a.Attach(MedicalCertificate, "med.exe", 1024, "application/x-msdownload"); err == nil {
		t.Error("Executable should be rejected")
	}
	if a.ValidateStep(4) {
		t.Error("Rejected medical certificate leaves the slot empty")
	}

	a.Attach(MedicalCertificate, "med.jpg", uploads.MaxFileSize, "image/jpeg")
	if !a.ValidateStep(4) {
		t.Error("Step 4 should pass without the optional transcript")
	}
	if a.DocumentsError() != "" {
		t.Errorf("Documents error should clear, got %q", a.DocumentsError())
	}
}

func TestCanSubmit(t *testing.T) {
	a := New(clock, nil)

	for i, d := range Declarations {
		if a.CanSubmit() {
			t.Fatalf("CanSubmit with %d of %d declarations", i, len(Declarations))
		}
		a.Form.SetChecked(d, true)
	}
	if !a.CanSubmit() {
		t.Error("All declarations ticked should enable submit")
	}
}

func TestFormIDs(t *testing.T) {
	ids := FormIDs()
	if len(ids) != 5 || ids[0] != "step1" || ids[4] != "step5" {
		t.Errorf("Unexpected form ids %v", ids)
	}
	if StepTitle(0) != "" || StepTitle(5) != "Review & Submit" {
		t.Error("Unexpected step titles")
	}
}
