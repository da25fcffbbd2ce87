// Package discovery scans destination databases for tables that look like
// content tables, so operators do not have to know each site's schema by
// heart. Results are heuristic and cached in Redis.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/logger"
)

// cacheTTL bounds how stale a cached scan may get. Destination schemas
// change rarely; thirty minutes keeps repeat wizard runs cheap.
const cacheTTL = 30 * time.Minute

const maxCandidates = 5

// contentKeywords mark a table name as content-bearing.
var contentKeywords = []string{"blog", "post", "article", "content", "news", "entry", "story", "page"}

// ignoreKeywords mark a table as infrastructure, never content.
var ignoreKeywords = []string{"tag", "category", "comment", "user", "session", "migration", "log", "setting", "seo", "meta"}

// Candidate is one table that plausibly stores posts.
type Candidate struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ScanResult is the outcome of one schema scan: the ranked candidates, the
// top-ranked table, and the full enumeration so operators can override the
// guess with any table the schema actually has.
type ScanResult struct {
	Candidates []Candidate `json:"candidates"`
	BestMatch  string      `json:"best_match,omitempty"`
	AllTables  []string    `json:"all_tables"`
}

// Service scans destination schemas and caches the results.
type Service struct {
	pool   destination.Connector
	writer *destination.Writer
	cache  *redis.Client
	logger logger.Logger
}

// NewService creates a discovery service.
func NewService(pool destination.Connector, writer *destination.Writer, cache *redis.Client, log logger.Logger) *Service {
	return &Service{pool: pool, writer: writer, cache: cache, logger: log}
}

// Candidates returns the cached scan for the site, scanning on a miss.
func (s *Service) Candidates(ctx context.Context, siteID string) (*ScanResult, error) {
	key := cacheKey(siteID)
	if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var cached ScanResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("Discarding corrupt discovery cache entry", logger.String("site_id", siteID))
	}
	return s.Rescan(ctx, siteID)
}

// Rescan scans the destination schema and replaces the cached result.
func (s *Service) Rescan(ctx context.Context, siteID string) (*ScanResult, error) {
	db, err := s.pool.Get(ctx, siteID)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	var tables []string
	if err := db.SelectContext(ctx, &tables, query); err != nil {
		return nil, fmt.Errorf("list tables for site %s: %w", siteID, err)
	}

	matched := selectContentTables(tables)
	candidates := make([]Candidate, 0, len(matched))
	for _, name := range matched {
		cols, err := s.writer.Columns(ctx, db, name)
		if err != nil {
			s.logger.Warn("Skipping table that failed introspection",
				logger.String("site_id", siteID),
				logger.String("table", name),
				logger.Error(err),
			)
			continue
		}
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		candidates = append(candidates, Candidate{Name: name, Columns: names})
	}

	result := &ScanResult{Candidates: candidates, AllTables: tables}
	if len(candidates) > 0 {
		result.BestMatch = candidates[0].Name
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, cacheKey(siteID), data, cacheTTL).Err(); err != nil {
			s.logger.Warn("Failed to cache discovery result",
				logger.String("site_id", siteID),
				logger.Error(err),
			)
		}
	}

	s.logger.Info("Scanned destination schema",
		logger.String("site_id", siteID),
		logger.Int("tables", len(tables)),
		logger.Int("candidates", len(candidates)),
		logger.String("best_match", result.BestMatch),
	)
	return result, nil
}

// Invalidate drops the cached scan for a site.
func (s *Service) Invalidate(ctx context.Context, siteID string) {
	if err := s.cache.Del(ctx, cacheKey(siteID)).Err(); err != nil {
		s.logger.Warn("Failed to invalidate discovery cache",
			logger.String("site_id", siteID),
			logger.Error(err),
		)
	}
}

func cacheKey(siteID string) string {
	return "discovery:tables:" + siteID
}

// selectContentTables filters and ranks table names, best first, capped at
// maxCandidates. Tables matching an ignore keyword never qualify; tables
// matching a content keyword always do; short unmatched names survive as a
// fallback for schemas with terse naming.
func selectContentTables(tables []string) []string {
	type ranked struct {
		name string
		rank int
	}

	var picked []ranked
	for _, name := range tables {
		lower := strings.ToLower(name)
		if containsAny(lower, ignoreKeywords) {
			continue
		}
		if containsAny(lower, contentKeywords) || len(lower) < 20 {
			picked = append(picked, ranked{name: name, rank: rankTable(lower)})
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].rank != picked[j].rank {
			return picked[i].rank < picked[j].rank
		}
		return picked[i].name < picked[j].name
	})

	if len(picked) > maxCandidates {
		picked = picked[:maxCandidates]
	}
	names := make([]string, len(picked))
	for i, p := range picked {
		names[i] = p.name
	}
	return names
}

func rankTable(lower string) int {
	switch {
	case lower == "blogs" || lower == "blog":
		return 0
	case lower == "posts" || lower == "post":
		return 1
	case strings.Contains(lower, "blog"):
		return 2
	case strings.Contains(lower, "post"):
		return 3
	default:
		return 10
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
