package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogforge/distributor/internal/campaign"
	"github.com/blogforge/distributor/internal/models"
)

// CreateCampaign starts a new wizard session.
func (h *Handlers) CreateCampaign(c *gin.Context) {
	c.JSON(http.StatusCreated, h.campaigns.Create())
}

// GetCampaign returns the session state.
func (h *Handlers) GetCampaign(c *gin.Context) {
	session, err := h.campaigns.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeleteCampaign discards a session.
func (h *Handlers) DeleteCampaign(c *gin.Context) {
	h.campaigns.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// UpdateCampaignSpec saves a partial spec without validating, so operators
// can leave a step incomplete and come back later.
func (h *Handlers) UpdateCampaignSpec(c *gin.Context) {
	var patch models.CampaignSpec
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.campaigns.UpdateSpec(c.Param("id"), func(spec *models.CampaignSpec) {
		*spec = patch
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AdvanceCampaign validates the current step and moves forward, running
// generation or injection when the wizard crosses those steps.
func (h *Handlers) AdvanceCampaign(c *gin.Context) {
	session, err := h.campaigns.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type jumpRequest struct {
	Step int `json:"step"`
}

// JumpCampaign moves back to any previously reached step.
func (h *Handlers) JumpCampaign(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	session, err := h.campaigns.JumpTo(c.Param("id"), campaign.Step(req.Step))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// RegenerateCampaign discards the current content and generates again from
// the same spec.
func (h *Handlers) RegenerateCampaign(c *gin.Context) {
	session, err := h.campaigns.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// EditCampaignContent applies manual edits to the generated content.
func (h *Handlers) EditCampaignContent(c *gin.Context) {
	var patch campaign.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}
	session, err := h.campaigns.EditContent(c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
