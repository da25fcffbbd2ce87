package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blogforge/distributor/internal/models"
)

// CreateSite registers a new destination site.
func (h *Handlers) CreateSite(c *gin.Context) {
	var req models.SiteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	site, err := h.sites.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

// ListSites returns every registered site.
func (h *Handlers) ListSites(c *gin.Context) {
	sites, err := h.sites.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites, "count": len(sites)})
}

// GetSite returns one site by id.
func (h *Handlers) GetSite(c *gin.Context) {
	site, err := h.sites.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// UpdateSite updates a site's registration. A DSN change drops the cached
// destination connection so the next use reconnects.
func (h *Handlers) UpdateSite(c *gin.Context) {
	var req models.SiteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	id := c.Param("id")
	site, err := h.sites.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.DSN != nil {
		h.pool.Evict(id)
		h.discovery.Invalidate(c.Request.Context(), id)
	}
	c.JSON(http.StatusOK, site)
}

// DeleteSite removes a site registration.
func (h *Handlers) DeleteSite(c *gin.Context) {
	id := c.Param("id")
	if err := h.sites.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.pool.Evict(id)
	h.discovery.Invalidate(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

/// ListCandidateTables returns the site's scan: ranked candidates, the best
// match, and the full table enumeration for manual override.
func (h *Handlers) ListCandidateTables(c *gin.Context) {
	scan, err := h.discovery.Candidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

// RescanTables forces a fresh schema scan, replacing the cached result.
func (h *Handlers) RescanTables(c *gin.Context) {
	scan, err := h.discovery.Rescan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

type adoptTableRequest struct {
	Table string `json:"table" binding:"required"`
}

// AdoptTable sets the site's default content table.
func (h *Handlers) AdoptTable(c *gin.Context) {
	var req adoptTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.sites.AdoptTable(c.Request.Context(), c.Param("id"), req.Table); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": models.NormalizeTableName(req.Table)})
}

// SiteStats returns post counts by status for one site.
func (h *Handlers) SiteStats(c *gin.Context) {
	counts, err := h.lifecycle.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// RecentPosts lists the newest posts on a site.
func (h *Handlers) RecentPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	posts, err := h.lifecycle.RecentPosts(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}
