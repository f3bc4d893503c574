package submission

// Link is a navigation link on the confirmation view.
type Link struct {
	Label string
	Href  string
}

// Confirmation is the content shown after a successful submission.
type Confirmation struct {
	Title         string
	Reference     string
	NextSteps     []string
	ImportantInfo []string
	Links         []Link
}

// NewConfirmation builds the confirmation for res.
func NewConfirmation(res *Result) Confirmation {
	return Confirmation{
		Title:     "Application Submitted Successfully!",
		Reference: res.Reference,
		NextSteps: []string{
			"Application review (2-4 weeks)",
			"Fitness assessment invitation",
			"Interview scheduling",
			"Final acceptance notification",
		},
		ImportantInfo: []string{
			"Check your email regularly for updates",
			"Keep your contact details current",
			"Prepare for fitness assessment",
			"Application processing may take up to 8 weeks",
		},
		Links: []Link{
			{Label: "Return to Home", Href: "/"},
			{Label: "Track Application Status", Href: "/dashboard"},
		},
	}
}
