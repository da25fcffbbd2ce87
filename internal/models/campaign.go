package models

import "time"

// Search intents supported by the identity step.
const (
	IntentInformational = "Informational"
	IntentTransactional = "Transactional"
	IntentCommercial    = "Commercial Investigation"
	IntentNavigational  = "Navigational"
)

// Content types supported by the identity step.
const (
	ContentTypeBlogPost   = "Standard Blog Post"
	ContentTypePillarPage = "Pillar Page"
	ContentTypeListicle   = "Listicle"
	ContentTypeCaseStudy  = "Case Study"
	ContentTypeNewsUpdate = "News Update"
)

// PersonaCustom marks a persona that requires free-form persona text.
const PersonaCustom = "Custom"

// CoreIdentity carries the campaign's identity parameters.
type CoreIdentity struct {
	CampaignName   string `json:"campaign_name"`
	PrimaryKeyword string `json:"primary_keyword"`
	TargetAudience string `json:"target_audience"`
	Intent         string `json:"intent"`
	ContentType    string `json:"content_type"`
}

// SEOTechnical carries the SEO step parameters.
type SEOTechnical struct {
	SecondaryKeywords []string `json:"secondary_keywords"` // 2-5 required
	InternalLinks     []string `json:"internal_links"`
	ExternalLinks     []string `json:"external_links"`
	DownloadLink      string   `json:"download_link"`
	FeaturedImageURLs []string `json:"featured_image_urls"` // 1-5 required, ordered
	SlugStrategy      string   `json:"slug_strategy"`
}

// Personalization carries tone/style/persona parameters.
type Personalization struct {
	Persona             string `json:"persona"`
	CustomPersona       string `json:"custom_persona"` // Required when Persona is Custom
	Tone                string `json:"tone"`
	Style               string `json:"style"`
	PointOfView         string `json:"point_of_view"`
	EmojiUsage          string `json:"emoji_usage"` // Yes, No, Minimal
	HumanizationLevel   int    `json:"humanization_level"` // 0-100
	NegativeConstraints string `json:"negative_constraints"`
}

// Structure carries formatting parameters.
type Structure struct {
	WordCountRange [2]int   `json:"word_count_range"` // [min, max]
	HeaderOptions  []string `json:"header_options"`   // FAQ, Key Takeaways, Pros/Cons
	CallToAction   string   `json:"call_to_action"`
}

// Distribution carries publish-time parameters.
type Distribution struct {
	PostStatus  string     `json:"post_status"` // Publish, Draft, Schedule
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Category    string     `json:"category,omitempty"`
}

// CampaignSpec is the canonical content specification accumulated by the
// campaign wizard.
type CampaignSpec struct {
	Identity        CoreIdentity    `json:"identity"`
	SEO             SEOTechnical    `json:"seo"`
	Personalization Personalization `json:"personalization"`
	Structure       Structure       `json:"structure"`
	Distribution    Distribution    `json:"distribution"`
	TargetSiteIDs   []string        `json:"target_site_ids"`
}
