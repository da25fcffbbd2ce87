package models

import "errors"

// Common errors shared across packages.
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists (e.g., duplicate site id)
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrNoFieldsToUpdate is returned when no fields are provided for an update
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrNoTargetSites is returned when an injection batch selects zero sites
	ErrNoTargetSites = errors.New("no target sites selected")

	// ErrTableMissing is returned when a destination's content table does not exist
	ErrTableMissing = errors.New("destination table missing")

	// ErrScheduleInPast is returned when a schedule timestamp is not in the future
	ErrScheduleInPast = errors.New("scheduled time must be in the future")

	// ErrInvalidStatus is returned for an unknown post status value
	ErrInvalidStatus = errors.New("invalid post status")

	// ErrInvalidBulkAction is returned for an unknown bulk action
	ErrInvalidBulkAction = errors.New("invalid bulk action")
)
