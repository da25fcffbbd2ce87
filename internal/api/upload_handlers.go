package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogforge/distributor/internal/assets"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

const maxUploadBytes = 20 << 20

// UploadImages replicates one or more image files into the default store
// and the stores of the named sites. Replication is best effort on two
// levels: per store, and per file. A failing file never blocks the rest of
// the batch; its failure is collected and reported alongside the uploads
// that did land. The request as a whole fails only when every file failed.
func (h *Handlers) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	siteIDs := form.Value["site_ids"]
	if len(siteIDs) == 1 && strings.Contains(siteIDs[0], ",") {
		siteIDs = strings.Split(siteIDs[0], ",")
	}
	sites := make([]*models.Site, 0, len(siteIDs))
	for _, id := range siteIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		site, err := h.sites.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		sites = append(sites, site)
	}

	sessionID := c.PostForm("session_id")
	mapping := make(assets.Mapping)
	uploads := make([]*assets.Upload, 0, len(files))
	var failures []string

	for _, header := range files {
		if header.Size > maxUploadBytes {
			failures = append(failures, fmt.Sprintf("%s: file too large", header.Filename))
			continue
		}
		file, err := header.Open()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", header.Filename, err))
			continue
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		file.Close()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", header.Filename, err))
			continue
		}

		contentType := header.Header.Get("Content-Type")
		upload, err := h.replicator.Replicate(c.Request.Context(), sites, header.Filename, contentType, data)
		if err != nil {
			h.metrics.Uploads.WithLabelValues("error").Inc()
			failures = append(failures, fmt.Sprintf("%s: %v", header.Filename, err))
			continue
		}
		h.metrics.Uploads.WithLabelValues("success").Inc()
		uploads = append(uploads, upload)

		if upload.PrimaryURL != "" {
			mapping.Merge(assets.NewMapping(upload.PrimaryURL, upload))
		}
	}

	if len(uploads) == 0 && len(failures) > 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": strings.Join(failures, "; ")})
		return
	}

	if sessionID != "" {
		if err := h.campaigns.AttachAssets(sessionID, mapping); err != nil {
			h.logger.Warn("Could not attach uploads to session",
				logger.String("session_id", sessionID),
				logger.Error(err),
			)
		}
	}

	resp := gin.H{"uploads": uploads}
	if len(failures) > 0 {
		resp["errors"] = strings.Join(failures, "; ")
	}
	c.JSON(http.StatusOK, resp)
}
