package models

import (
	"strings"
	"time"
)

// StorageCredentials holds a site's own S3-compatible bucket configuration.
// Sites without custom credentials share the default bucket.
type StorageCredentials struct {
	Endpoint  string `db:"storage_endpoint"   json:"endpoint"`
	AccessKey string `db:"storage_access_key" json:"access_key"`
	SecretKey string `db:"storage_secret_key" json:"secret_key"`
	Bucket    string `db:"storage_bucket"     json:"bucket"`
	PublicURL string `db:"storage_public_url" json:"public_url"` // Base URL assets are served from
	UseSSL    bool   `db:"storage_use_ssl"    json:"use_ssl"`
}

// Configured reports whether the site declared its own bucket.
func (c *StorageCredentials) Configured() bool {
	return c != nil && c.Endpoint != "" && c.Bucket != ""
}

// Site represents a destination content repository: a database, a content
// table, and optionally its own object-storage bucket.
type Site struct {
	ID          string              `db:"id"           json:"id"`
	DisplayName string              `db:"display_name" json:"display_name"`
	DSN         string              `db:"dsn"          json:"dsn"` // Postgres connection string
	TargetTable string              `db:"target_table" json:"target_table"` // May be empty or wrong; discovery fills it in
	Storage     *StorageCredentials `db:"-"            json:"storage,omitempty"`
	CreatedAt   time.Time           `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"   json:"updated_at"`
}

// SiteCreateRequest is the payload for registering a site.
type SiteCreateRequest struct {
	ID          string              `binding:"required,min=1,max=255" json:"id"`
	DisplayName string              `binding:"required,min=1,max=255" json:"display_name"`
	DSN         string              `binding:"required"               json:"dsn"`
	TargetTable string              `json:"target_table"`
	Storage     *StorageCredentials `json:"storage"`
}

// SiteUpdateRequest is the payload for updating a site. Nil fields are left
// unchanged.
type SiteUpdateRequest struct {
	DisplayName *string             `binding:"omitempty,min=1,max=255" json:"display_name"`
	DSN         *string             `json:"dsn"`
	TargetTable *string             `json:"target_table"`
	Storage     *StorageCredentials `json:"storage"`
}

// Validate validates the site update request.
func (r *SiteUpdateRequest) Validate() error {
	if r.DisplayName == nil && r.DSN == nil && r.TargetTable == nil && r.Storage == nil {
		return ErrNoFieldsToUpdate
	}
	return nil
}

// NormalizeTableName maps the legacy "Blog"/"blog" table names onto "blogs".
// Older site rows were saved before the rename and still carry the singular
// form.
func NormalizeTableName(name string) string {
	trimmed := strings.TrimSpace(name)
	switch strings.ToLower(trimmed) {
	case "blog", "blogs":
		return "blogs"
	}
	return trimmed
}
