package domain

// OutboundEmail is a plain-text message handed to the email provider.
type OutboundEmail struct {
	From    string
	To      string
	Subject string
	Text    string
}

// EnrichmentQuery identifies a person at a company for contact lookup.
type EnrichmentQuery struct {
	Company string
	Name    *string
	Title   *string
}

// EnrichedContact is what a contact provider returned.
type EnrichedContact struct {
	Email       *string
	LinkedInURL *string
}

// CRMPerson is the person record pushed to the CRM.
type CRMPerson struct {
	Name        string
	Email       *string
	LinkedInURL *string
	Title       *string
}

// CRMNote is a markdown note attached to a CRM person.
type CRMNote struct {
	Title    string
	Markdown string
}
