package normalizer

import (
	"strings"
	"testing"
	"time"

	"github.com/blogforge/distributor/internal/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple", title: "Hello World", want: "hello-world"},
		{name: "punctuation collapses", title: "Top 10: Best CRMs! (2026)", want: "top-10-best-crms-2026"},
		{name: "trailing punctuation trimmed", title: "Best MT5 EAs 2024!!", want: "best-mt5-eas-2024"},
		{name: "leading and trailing junk", title: "  --Hello--  ", want: "hello"},
		{name: "unicode stripped", title: "café au lait", want: "caf-au-lait"},
		{name: "empty", title: "", want: ""},
		{name: "truncated to limit", title: strings.Repeat("a", 150), want: strings.Repeat("a", 100)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Slugify(tc.title)
			if got != tc.want {
				t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
			}
			if again := Slugify(got); again != got {
				t.Errorf("Slugify not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestBuildPayload_FloodsAliases(t *testing.T) {
	payload := BuildPayload(Input{
		Content: &models.GeneratedContent{
			H1:              "Ten CRM Tips",
			MetaTitle:       "Ten CRM Tips | Acme",
			MetaDescription: "The best tips.",
			BodyHTML:        "<p>body</p>",
		},
		Status:   models.StatusPublished,
		Download: "https://cdn.example.com/guide.pdf",
	})

	for _, kv := range []struct{ key, want string }{
		{"title", "Ten CRM Tips"},
		{"content", "<p>body</p>"},
		{"status", "published"},
		{"post_status", "published"},
		{"seo_title", "Ten CRM Tips | Acme"},
		{"meta_title", "Ten CRM Tips | Acme"},
		{"seo_description", "The best tips."},
		{"meta_description", "The best tips."},
		{"slug", "ten-crm-tips"},
		{"seo_slug", "ten-crm-tips"},
		{"download_link", "https://cdn.example.com/guide.pdf"},
		{"downloadUrl", "https://cdn.example.com/guide.pdf"},
		{"file_url", "https://cdn.example.com/guide.pdf"},
	} {
		got, ok := payload[kv.key]
		if !ok {
			t.Errorf("missing key %q", kv.key)
			continue
		}
		if got != kv.want {
			t.Errorf("payload[%q] = %v, want %q", kv.key, got, kv.want)
		}
	}
}

func TestBuildPayload_Defaults(t *testing.T) {
	payload := BuildPayload(Input{Content: &models.GeneratedContent{MetaTitle: "Only Meta"}})

	if payload["title"] != "Only Meta" {
		t.Errorf("title fell back wrong: %v", payload["title"])
	}
	if payload["status"] != models.StatusDraft {
		t.Errorf("expected draft default, got %v", payload["status"])
	}
	if _, ok := payload["scheduled_at"]; ok {
		t.Error("scheduled_at should be absent when not set")
	}
	if _, ok := payload["download_link"]; ok {
		t.Error("download aliases should be absent when no download link")
	}
}

func TestBuildPayload_ScheduledAt(t *testing.T) {
	at := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	payload := BuildPayload(Input{
		Content:     &models.GeneratedContent{H1: "Later"},
		Status:      models.StatusScheduled,
		ScheduledAt: &at,
	})
	got, ok := payload["scheduled_at"].(time.Time)
	if !ok || !got.Equal(at) {
		t.Errorf("scheduled_at = %v, want %v", payload["scheduled_at"], at)
	}
}

func TestApplyImages(t *testing.T) {
	payload := map[string]any{}
	ApplyImages(payload, []string{"https://img/a.webp", "https://img/b.webp"})

	if payload["featured_image"] != "https://img/a.webp" {
		t.Errorf("featured_image = %v", payload["featured_image"])
	}
	list, _ := payload["featured_images"].(string)
	if !strings.Contains(list, "b.webp") {
		t.Errorf("featured_images missing second url: %q", list)
	}
	if payload["images"] != payload["featured_images"] {
		t.Error("images alias should mirror featured_images")
	}
}
