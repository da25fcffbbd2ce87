// Package api exposes the distribution engine over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogforge/distributor/internal/campaign"
	"github.com/blogforge/distributor/internal/generator"
	"github.com/blogforge/distributor/internal/models"
)

// respondError maps domain errors onto HTTP statuses with a uniform body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, campaign.ErrStepNotReached):
		status = http.StatusConflict
	case errors.Is(err, models.ErrNoFieldsToUpdate),
		errors.Is(err, models.ErrNoTargetSites),
		errors.Is(err, models.ErrScheduleInPast),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidBulkAction),
		errors.Is(err, models.ErrTableMissing),
		errors.Is(err, campaign.ErrStepIncomplete),
		errors.Is(err, campaign.ErrUnknownStep),
		errors.Is(err, campaign.ErrNoContent):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, generator.ErrGenerationFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
