package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a selectable content category. Categories only populate the
// distribution step's selection field; they are not part of the injection
// algorithm.
type Category struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Slug        string    `db:"slug"        json:"slug"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// CategoryCreateRequest is the payload for creating a category.
type CategoryCreateRequest struct {
	Name        string `binding:"required,min=1,max=255" json:"name"`
	Slug        string `binding:"required,min=1,max=255" json:"slug"`
	Description string `json:"description"`
}

// CategoryUpdateRequest is the payload for updating a category.
type CategoryUpdateRequest struct {
	Name        *string `binding:"omitempty,min=1,max=255" json:"name"`
	Slug        *string `binding:"omitempty,min=1,max=255" json:"slug"`
	Description *string `json:"description"`
}

// Validate validates the category update request.
func (r *CategoryUpdateRequest) Validate() error {
	if r.Name == nil && r.Slug == nil && r.Description == nil {
		return ErrNoFieldsToUpdate
	}
	return nil
}
