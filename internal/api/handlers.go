package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/blogforge/distributor/internal/assets"
	"github.com/blogforge/distributor/internal/campaign"
	"github.com/blogforge/distributor/internal/database"
	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/discovery"
	"github.com/blogforge/distributor/internal/lifecycle"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/metrics"
	"github.com/blogforge/distributor/internal/models"
)

// Replicator copies uploaded files into the default store and each target
// site's store.
type Replicator interface {
	Replicate(ctx context.Context, sites []*models.Site, filename, contentType string, data []byte) (*assets.Upload, error)
}

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	sites      *database.SiteRepository
	categories *database.CategoryRepository
	discovery  *discovery.Service
	campaigns  *campaign.Manager
	lifecycle  *lifecycle.Manager
	replicator Replicator
	pool       *destination.Pool
	cache      *redis.Client
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// Deps carries everything the handlers need.
type Deps struct {
	Sites      *database.SiteRepository
	Categories *database.CategoryRepository
	Discovery  *discovery.Service
	Campaigns  *campaign.Manager
	Lifecycle  *lifecycle.Manager
	Replicator Replicator
	Pool       *destination.Pool
	Cache      *redis.Client
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		sites:      d.Sites,
		categories: d.Categories,
		discovery:  d.Discovery,
		campaigns:  d.Campaigns,
		lifecycle:  d.Lifecycle,
		replicator: d.Replicator,
		pool:       d.Pool,
		cache:      d.Cache,
		metrics:    d.Metrics,
		logger:     d.Logger,
	}
}

// Health reports liveness of the registry database and the cache.
func (h *Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	checks := gin.H{"database": "ok", "cache": "ok"}

	if err := h.sites.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx).Err(); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}
