// Package normalizer builds destination-agnostic post payloads. Destination
// schemas disagree on field spelling, so every canonical field is emitted
// under all of its known aliases; the destination writer intersects the
// result against whatever columns the table actually has.
package normalizer

import (
	"encoding/json"
	"time"

	"github.com/blogforge/distributor/internal/models"
)

// aliases maps each canonical field to every column spelling seen in the
// wild. Order within a group does not matter; all spellings carry the same
// value.
var aliases = map[string][]string{
	"title":           {"title"},
	"body":            {"content"},
	"status":          {"status", "post_status"},
	"seo_title":       {"seo_title", "meta_title"},
	"seo_description": {"seo_description", "meta_description"},
	"slug":            {"slug", "seo_slug"},
	"featured_image":  {"featured_image", "featuredImage"},
	"featured_images": {"featured_images", "featuredImages", "images"},
	"download":        {"download_link", "downloadLink", "download_url", "downloadUrl", "file_url", "fileUrl"},
	"faq":             {"faq_schema"},
	"keywords":        {"lsi_keywords"},
	"category":        {"category"},
	"scheduled_at":    {"scheduled_at"},
}

// Input bundles everything that feeds a destination payload.
type Input struct {
	Content     *models.GeneratedContent
	Status      string
	ScheduledAt *time.Time
	Category    string
	Download    string
	Keywords    []string
	SlugSource  string
}

// BuildPayload flattens the input into an alias-flooded map ready for a
// schema-mapped insert.
func BuildPayload(in Input) map[string]any {
	payload := make(map[string]any)

	set := func(field string, value any) {
		for _, key := range aliases[field] {
			payload[key] = value
		}
	}

	content := in.Content
	if content == nil {
		content = &models.GeneratedContent{}
	}

	set("title", content.Title())
	set("body", content.BodyHTML)
	set("seo_title", content.MetaTitle)
	set("seo_description", content.MetaDescription)

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	set("status", status)

	slugSource := in.SlugSource
	if slugSource == "" {
		slugSource = content.Title()
	}
	set("slug", Slugify(slugSource))

	if len(content.FAQSchema) > 0 {
		if data, err := json.Marshal(content.FAQSchema); err == nil {
			set("faq", string(data))
		}
	}
	if len(content.LSIUsed) > 0 {
		set("keywords", joinKeywords(content.LSIUsed))
	} else if len(in.Keywords) > 0 {
		set("keywords", joinKeywords(in.Keywords))
	}
	if in.Download != "" {
		set("download", in.Download)
	}
	if in.Category != "" {
		set("category", in.Category)
	}
	if in.ScheduledAt != nil {
		set("scheduled_at", in.ScheduledAt.UTC())
	}

	return payload
}

// ApplyImages adds the featured image aliases for a rewritten image list.
// The first image doubles as the single featured image.
func ApplyImages(payload map[string]any, urls []string) {
	if len(urls) == 0 {
		return
	}
	for _, key := range aliases["featured_image"] {
		payload[key] = urls[0]
	}
	if data, err := json.Marshal(urls); err == nil {
		for _, key := range aliases["featured_images"] {
			payload[key] = string(data)
		}
	}
}

func joinKeywords(keywords []string) string {
	data, err := json.Marshal(keywords)
	if err != nil {
		return ""
	}
	return string(data)
}
