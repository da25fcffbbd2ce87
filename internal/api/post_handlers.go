package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogforge/distributor/internal/models"
)

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("postID"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return 0, false
	}
	return id, true
}

// GetPost returns the full stored row of one post.
func (h *Handlers) GetPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.lifecycle.GetPost(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// OpenPostForEdit loads a post for editing, forcing it back to draft when
// it is live or scheduled. The response flags the conversion so the UI can
// warn the operator.
func (h *Handlers) OpenPostForEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, converted, err := h.lifecycle.OpenForEdit(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "converted_to_draft": converted})
}

// UpdatePost applies edited fields to a post.
func (h *Handlers) UpdatePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.lifecycle.UpdatePost(c.Request.Context(), c.Param("id"), id, fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetPostStatus flips a post's status.
func (h *Handlers) SetPostStatus(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.lifecycle.SetStatus(c.Request.Context(), c.Param("id"), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

type scheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// SchedulePost queues a post for automatic publication.
func (h *Handlers) SchedulePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.lifecycle.Schedule(c.Request.Context(), c.Param("id"), id, req.ScheduledAt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       models.StatusScheduled,
		"scheduled_at": req.ScheduledAt.UTC(),
	})
}

// UnschedulePost reverts a scheduled post to draft.
func (h *Handlers) UnschedulePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.Unschedule(c.Request.Context(), c.Param("id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusDraft})
}

// DeletePost removes a post row from the destination.
func (h *Handlers) DeletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.lifecycle.Delete(c.Request.Context(), c.Param("id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkRequest struct {
	Action  string  `json:"action" binding:"required"`
	PostIDs []int64 `json:"post_ids" binding:"required,min=1"`
}

// BulkPostAction applies one action to many posts.
func (h *Handlers) BulkPostAction(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	affected, err := h.lifecycle.Bulk(c.Request.Context(), c.Param("id"), req.Action, req.PostIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": req.Action, "affected": affected})
}

// ListScheduledPosts lists posts awaiting automatic publication.
func (h *Handlers) ListScheduledPosts(c *gin.Context) {
	posts, err := h.lifecycle.ListScheduled(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}
