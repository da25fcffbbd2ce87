package models

import "time"

// Post statuses. A post always starts as draft during editing sessions; the
// final status is chosen at publish time.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// ValidStatus reports whether s is a known post status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusScheduled:
		return true
	}
	return false
}

// Post is a content row in a destination's table, identified by the
// destination-local id. Only the columns the lifecycle manager touches are
// modeled; the rest of the row shape is site-specific.
type Post struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Status      string         `json:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"` // Set only while status is scheduled
	Fields      map[string]any `json:"fields,omitempty"`       // Full row as stored by the site
}

// ScheduledPost is a row due for (or awaiting) automatic publication.
type ScheduledPost struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	SiteID      string    `json:"site_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Bulk actions applicable to a set of posts.
const (
	BulkPublish = "publish"
	BulkDraft   = "draft"
	BulkDelete  = "delete"
)
