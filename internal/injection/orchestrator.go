// Package injection fans a finished campaign out to every selected
// destination site and reports one result per site.
package injection

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/blogforge/distributor/internal/assets"
	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/discovery"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/metrics"
	"github.com/blogforge/distributor/internal/models"
	"github.com/blogforge/distributor/internal/normalizer"
)

const defaultTable = "blogs"

// Request is one injection batch: the campaign brief, its generated
// content, and the replicated asset mapping.
type Request struct {
	Spec        *models.CampaignSpec
	Content     *models.GeneratedContent
	Status      string
	ScheduledAt *time.Time
	Assets      assets.Mapping
	// TableOverrides forces a table per site id, bypassing the site's
	// configured default and discovery.
	TableOverrides map[string]string
}

// Injector runs injection batches.
type Injector interface {
	Inject(ctx context.Context, req Request) ([]models.InjectionResult, error)
}

// Orchestrator is the concrete Injector. Site writes run concurrently; a
// shared rate limiter keeps the engine polite toward destination databases.
type Orchestrator struct {
	sites     destination.SiteProvider
	pool      destination.Connector
	writer    *destination.Writer
	discovery *discovery.Service
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    logger.Logger
}

// NewOrchestrator creates an injection orchestrator.
func NewOrchestrator(
	sites destination.SiteProvider,
	pool destination.Connector,
	writer *destination.Writer,
	disc *discovery.Service,
	limiter *rate.Limiter,
	m *metrics.Metrics,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		sites:     sites,
		pool:      pool,
		writer:    writer,
		discovery: disc,
		limiter:   limiter,
		metrics:   m,
		tracer:    otel.Tracer("injection"),
		logger:    log,
	}
}

// Inject writes the campaign into every target site. Per-site failures are
// reported in the results, never by the returned error; the batch itself
// only fails when no sites are selected. Results come back sorted by site
// id so repeated runs compare cleanly.
func (o *Orchestrator) Inject(ctx context.Context, req Request) ([]models.InjectionResult, error) {
	if req.Spec == nil || len(req.Spec.TargetSiteIDs) == 0 {
		return nil, models.ErrNoTargetSites
	}
	if req.Content == nil {
		return nil, errors.New("injection requires generated content")
	}

	ctx, span := o.tracer.Start(ctx, "injection.Inject",
		trace.WithAttributes(attribute.Int("sites", len(req.Spec.TargetSiteIDs))))
	defer span.End()

	base := normalizer.BuildPayload(normalizer.Input{
		Content:     req.Content,
		Status:      req.Status,
		ScheduledAt: req.ScheduledAt,
		Category:    req.Spec.Distribution.Category,
		Download:    req.Spec.SEO.DownloadLink,
		Keywords:    req.Spec.SEO.SecondaryKeywords,
	})

	results := make([]models.InjectionResult, len(req.Spec.TargetSiteIDs))
	var wg sync.WaitGroup
	for i, siteID := range req.Spec.TargetSiteIDs {
		wg.Add(1)
		go func(i int, siteID string) {
			defer wg.Done()
			results[i] = o.injectOne(ctx, req, base, siteID)
		}(i, siteID)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].SiteID < results[j].SiteID })

	succeeded := 0
	for _, r := range results {
		if r.Status == models.InjectionSuccess {
			succeeded++
		}
	}
	o.logger.Info("Injection batch finished",
		logger.String("title", req.Content.Title()),
		logger.Int("sites", len(results)),
		logger.Int("succeeded", succeeded),
	)
	return results, nil
}

func (o *Orchestrator) injectOne(ctx context.Context, req Request, base map[string]any, siteID string) models.InjectionResult {
	ctx, span := o.tracer.Start(ctx, "injection.site",
		trace.WithAttributes(attribute.String("site_id", siteID)))
	defer span.End()

	result := models.InjectionResult{SiteID: siteID}
	fail := func(table string, err error) models.InjectionResult {
		result.Table = table
		result.Status = models.InjectionError
		result.Error = err.Error()
		o.metrics.Injections.WithLabelValues(siteID, models.InjectionError).Inc()
		o.logger.Error("Injection failed",
			logger.String("site_id", siteID),
			logger.String("table", table),
			logger.Error(err),
		)
		return result
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return fail("", err)
	}

	site, err := o.sites.GetByID(ctx, siteID)
	if err != nil {
		return fail("", err)
	}
	table := o.resolveTable(ctx, req, site)
	result.Table = table

	db, err := o.pool.Get(ctx, siteID)
	if err != nil {
		return fail(table, err)
	}

	payload := make(map[string]any, len(base))
	for k, v := range base {
		payload[k] = v
	}
	body := req.Assets.RewriteBody(siteID, req.Content.BodyHTML)
	payload["content"] = body
	normalizer.ApplyImages(payload, req.Assets.RewriteList(siteID, req.Spec.SEO.FeaturedImageURLs))

	id, err := o.writer.Insert(ctx, db, table, payload)
	if err != nil {
		return fail(table, err)
	}

	result.Status = models.InjectionSuccess
	result.PostID = id
	o.metrics.Injections.WithLabelValues(siteID, models.InjectionSuccess).Inc()
	return result
}

// resolveTable picks the destination table: explicit override, then the
// site's configured default, then the best discovery candidate, then
// "blogs". The writer recovers casing and plural mismatches downstream.
func (o *Orchestrator) resolveTable(ctx context.Context, req Request, site *models.Site) string {
	if table, ok := req.TableOverrides[site.ID]; ok && table != "" {
		return models.NormalizeTableName(table)
	}
	if site.TargetTable != "" {
		return site.TargetTable
	}
	if o.discovery != nil {
		if scan, err := o.discovery.Candidates(ctx, site.ID); err == nil && scan.BestMatch != "" {
			return scan.BestMatch
		}
	}
	return defaultTable
}
