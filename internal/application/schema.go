// Package application defines the NMTP application form: its fields,
// steps, declarations and document slots.
package application

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nmtp/applyportal/pkg/forms"
	"github.com/nmtp/applyportal/pkg/uploads"
)

// FormName identifies the application form.
const FormName = "application"

// Steps is the number of wizard steps.
const Steps = 5

// Field keys. Each key is also the element id of its input.
const (
	FirstName        = "firstName"
	LastName         = "lastName"
	IDNumber         = "idNumber"
	DateOfBirth      = "dateOfBirth"
	Gender           = "gender"
	Nationality      = "nationality"
	OtherNationality = "otherNationality"
	Email            = "email"
	Phone            = "phone"
	Address          = "address"
	City             = "city"
	Province         = "province"
	PostalCode       = "postalCode"
	EmergencyContact = "emergencyContact"
	EmergencyPhone   = "emergencyPhone"

	HighestQualification = "highestQualification"
	SchoolName           = "schoolName"
	GraduationYear       = "graduationYear"
	MathsGrade           = "mathsGrade"
	EnglishGrade         = "englishGrade"
	Achievements         = "achievements"
	CareerGoals          = "careerGoals"
	LeadershipExperience = "leadershipExperience"

	MedicalConditions = "medicalConditions"
	ConditionsList    = "conditionsList"
	Height            = "height"
	Weight            = "weight"
	FitnessLevel      = "fitnessLevel"
	ExerciseFrequency = "exerciseFrequency"
	SportsExperience  = "sportsExperience"
	MedicalClearance  = "medicalClearance"

	IDDocument         = "idDocument"
	MatricCertificate  = "matricCertificate"
	MedicalCertificate = "medicalCertificate"
	Transcript         = "transcript"

	AccuracyDeclaration = "accuracyDeclaration"
	MedicalConsent      = "medicalConsent"
	BackgroundCheck     = "backgroundCheck"
	TermsAcceptance     = "termsAcceptance"
)

// Declarations are the checkboxes that must all be ticked before the
// application can be submitted.
var Declarations = []string{
	AccuracyDeclaration,
	MedicalConsent,
	BackgroundCheck,
	TermsAcceptance,
}

// StepTitles are the headings of the five steps.
var StepTitles = [Steps]string{
	"Personal Information",
	"Educational Background",
	"Medical & Fitness",
	"Supporting Documents",
	"Review & Submit",
}

// StepTitle returns the heading of step n, or "" when out of range.
func StepTitle(n int) string {
	if n < 1 || n > Steps {
		return ""
	}
	return StepTitles[n-1]
}

// FormID returns the id of the page section holding step n ("step1".."step5").
// Drafts are keyed by it.
func FormID(n int) string {
	return "step" + strconv.Itoa(n)
}

// FormIDs returns the ids of every step section.
func FormIDs() []string {
	ids := make([]string, Steps)
	for i := range ids {
		ids[i] = FormID(i + 1)
	}
	return ids
}

var (
	genderOptions = []forms.Option{
		{Value: "male", Label: "Male"},
		{Value: "female", Label: "Female"},
		{Value: "other", Label: "Other"},
		{Value: "prefer-not", Label: "Prefer not to say"},
	}

	nationalityOptions = []forms.Option{
		{Value: "south-african", Label: "South African"},
		{Value: "other", Label: "Other"},
	}

	provinceOptions = []forms.Option{
		{Value: "eastern-cape", Label: "Eastern Cape"},
		{Value: "free-state", Label: "Free State"},
		{Value: "gauteng", Label: "Gauteng"},
		{Value: "kwazulu-natal", Label: "KwaZulu-Natal"},
		{Value: "limpopo", Label: "Limpopo"},
		{Value: "mpumalanga", Label: "Mpumalanga"},
		{Value: "northern-cape", Label: "Northern Cape"},
		{Value: "north-west", Label: "North West"},
		{Value: "western-cape", Label: "Western Cape"},
	}

	qualificationOptions = []forms.Option{
		{Value: "grade-12", Label: "Grade 12 (Matric)"},
		{Value: "certificate", Label: "Higher Certificate"},
		{Value: "diploma", Label: "Diploma"},
		{Value: "degree", Label: "Bachelor's Degree"},
		{Value: "other", Label: "Other"},
	}

	yesNoOptions = []forms.Option{
		{Value: "yes", Label: "Yes"},
		{Value: "no", Label: "No"},
	}

	fitnessOptions = []forms.Option{
		{Value: "beginner", Label: "Beginner - Little to no regular exercise"},
		{Value: "intermediate", Label: "Intermediate - Exercise 2-3 times per week"},
		{Value: "advanced", Label: "Advanced - Exercise 4+ times per week"},
		{Value: "athlete", Label: "Athlete - Competitive sports participation"},
	}

	frequencyOptions = []forms.Option{
		{Value: "never", Label: "Never"},
		{Value: "rarely", Label: "Rarely"},
		{Value: "weekly", Label: "1-2 times per week"},
		{Value: "regular", Label: "3-4 times per week"},
		{Value: "daily", Label: "Daily"},
	}
)

// Fields returns the field definitions in page order. now is the clock
// used by the age and graduation-year rules.
func Fields(now func() time.Time) []forms.Field {
	if now == nil {
		now = time.Now
	}
	req := forms.WithRequired()
	step := forms.WithStep
	otherNationality := forms.ValueEquals(Nationality, "other")
	hasConditions := forms.ValueEquals(MedicalConditions, "yes")

	graduationYear := forms.Custom(func(v string) error {
		y, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if y < 1990 || y > now().Year() {
			return fmt.Errorf("year %d out of range", y)
		}
		return nil
	}, "Please enter a valid graduation year")
	grade := forms.Range(0, 100, "Grade must be a percentage between 0 and 100")

	return []forms.Field{
		forms.TextField(FirstName, "First Name", req, step(1)),
		forms.TextField(LastName, "Last Name", req, step(1)),
		forms.TextField(IDNumber, "South African ID Number", req, step(1),
			forms.WithPlaceholder("13-digit ID number"),
			forms.WithValidators(forms.NationalID()...)),
		forms.DateField(DateOfBirth, "Date of Birth", req, step(1),
			forms.WithValidator(forms.AgeBetween(18, 22, now))),
		forms.SelectField(Gender, "Gender", genderOptions, req, step(1)),
		forms.SelectField(Nationality, "Nationality", nationalityOptions, req, step(1)),
		forms.TextField(OtherNationality, "Other Nationality", step(1),
			forms.WithRequiredWhen(otherNationality),
			forms.WithVisibleWhen(otherNationality)),
		forms.EmailField(Email, "Email Address", req, step(1)),
		forms.TelField(Phone, "Phone Number", req, step(1)),
		forms.TextareaField(Address, "Residential Address", req, step(1)),
		forms.TextField(City, "City", req, step(1)),
		forms.SelectField(Province, "Province", provinceOptions, req, step(1)),
		forms.TextField(PostalCode, "Postal Code", req, step(1),
			forms.WithValidator(forms.PostalCode())),
		forms.TextField(EmergencyContact, "Emergency Contact Name", req, step(1)),
		forms.TelField(EmergencyPhone, "Emergency Contact Phone", req, step(1)),

		forms.SelectField(HighestQualification, "Highest Qualification", qualificationOptions, req, step(2)),
		forms.TextField(SchoolName, "School/Institution Name", req, step(2)),
		forms.NumberField(GraduationYear, "Year Completed", req, step(2),
			forms.WithValidator(graduationYear)),
		forms.NumberField(MathsGrade, "Mathematics Grade (%)", step(2), forms.WithValidator(grade)),
		forms.NumberField(EnglishGrade, "English Grade (%)", step(2), forms.WithValidator(grade)),
		forms.TextareaField(Achievements, "Academic Achievements", step(2)),
		forms.TextareaField(CareerGoals, "Career Goals", req, step(2)),
		forms.TextareaField(LeadershipExperience, "Leadership Experience", step(2)),

		forms.RadioField(MedicalConditions, "Do you have any medical conditions?", yesNoOptions, req, step(3)),
		forms.TextareaField(ConditionsList, "Please list your medical conditions", step(3),
			forms.WithRequiredWhen(hasConditions),
			forms.WithVisibleWhen(hasConditions)),
		forms.NumberField(Height, "Height", req, step(3), forms.WithUnit("cm"),
			forms.WithValidator(forms.Range(140, 220, "Height must be between 140cm and 220cm"))),
		forms.NumberField(Weight, "Weight", req, step(3), forms.WithUnit("kg"),
			forms.WithValidator(forms.Range(40, 150, "Weight must be between 40kg and 150kg"))),
		forms.SelectField(FitnessLevel, "Current Fitness Level", fitnessOptions, req, step(3)),
		forms.SelectField(ExerciseFrequency, "Exercise Frequency", frequencyOptions, req, step(3)),
		forms.TextareaField(SportsExperience, "Sports Experience", step(3)),
		forms.RadioField(MedicalClearance, "Can you obtain medical clearance?", yesNoOptions, req, step(3)),

		forms.FileField(IDDocument, "Certified copy of ID", step(4)),
		forms.FileField(MatricCertificate, "Matric Certificate", step(4)),
		forms.FileField(MedicalCertificate, "Medical Certificate", step(4)),
		forms.FileField(Transcript, "Academic Transcript", step(4)),

		forms.CheckboxField(AccuracyDeclaration, "I declare that the information provided is accurate and complete", req, step(5)),
		forms.CheckboxField(MedicalConsent, "I consent to medical examinations as required", req, step(5)),
		forms.CheckboxField(BackgroundCheck, "I consent to a background check", req, step(5)),
		forms.CheckboxField(TermsAcceptance, "I accept the programme terms and conditions", req, step(5)),
	}
}

// NewForm returns an empty application form.
func NewForm(now func() time.Time) *forms.Form {
	return forms.NewForm(FormName, Fields(now)...)
}

// Slots are the document inputs of step 4. The transcript is optional.
var Slots = []uploads.Slot{
	{Name: IDDocument, Label: "ID Document", Required: true},
	{Name: MatricCertificate, Label: "Matric Certificate", Required: true},
	{Name: MedicalCertificate, Label: "Medical Certificate", Required: true},
	{Name: Transcript, Label: "Academic Transcript"},
}

// NewAttachments returns an empty attachment set for the document step.
func NewAttachments(cfg *uploads.UploadConfig) *uploads.Set {
	return uploads.NewSet(cfg, Slots...)
}

// DeclarationsAccepted reports whether every declaration is ticked.
func DeclarationsAccepted(acc forms.Accessor) bool {
	for _, name := range Declarations {
		checked, ok := acc.Checked(name)
		if !ok || !checked {
			return false
		}
	}
	return true
}
