package models

// FAQItem is one question/answer pair of the generated FAQ schema.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GeneratedContent is the single canonical record produced by the content
// generator. Exactly one current instance is live per campaign session;
// regeneration replaces it.
type GeneratedContent struct {
	H1              string    `json:"h1"`
	MetaTitle       string    `json:"meta_title"`
	MetaDescription string    `json:"meta_description"`
	BodyHTML        string    `json:"body_html"`
	FAQSchema       []FAQItem `json:"faq_schema"`
	LSIUsed         []string  `json:"lsi_used"`
}

// Title returns the display title, preferring H1 over the meta title.
func (c *GeneratedContent) Title() string {
	if c.H1 != "" {
		return c.H1
	}
	if c.MetaTitle != "" {
		return c.MetaTitle
	}
	return "untitled"
}

// InjectionResult reports the outcome of one write attempt against one site.
type InjectionResult struct {
	SiteID string `json:"site_id"`
	Table  string `json:"table"`
	Status string `json:"status"` // "success" or "error"
	PostID int64  `json:"post_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Injection result statuses.
const (
	InjectionSuccess = "success"
	InjectionError   = "error"
)
