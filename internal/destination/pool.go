// Package destination manages connections to destination site databases and
// performs schema-mapped writes against their content tables.
package destination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

const (
	// siteMaxOpenConns caps connections per destination database. Destination
	// databases are owned by third parties; stay light on them.
	siteMaxOpenConns = 5
	siteMaxIdleConns = 2
	siteConnLifetime = 5 * time.Minute
	sitePingTimeout  = 5 * time.Second
)

// SiteProvider supplies destination registry lookups.
type SiteProvider interface {
	GetByID(ctx context.Context, id string) (*models.Site, error)
	List(ctx context.Context) ([]*models.Site, error)
}

// Connector resolves a live connection for a site.
type Connector interface {
	Get(ctx context.Context, siteID string) (*sqlx.DB, error)
}

// Pool lazily opens and caches one *sqlx.DB per destination site.
type Pool struct {
	sites  SiteProvider
	logger logger.Logger

	mu    sync.Mutex
	conns map[string]*sqlx.DB
}

// NewPool creates a destination connection pool.
func NewPool(sites SiteProvider, log logger.Logger) *Pool {
	return &Pool{
		sites:  sites,
		logger: log,
		conns:  make(map[string]*sqlx.DB),
	}
}

// Get returns a live connection for the site, opening one on first use.
func (p *Pool) Get(ctx context.Context, siteID string) (*sqlx.DB, error) {
	p.mu.Lock()
	if db, ok := p.conns[siteID]; ok {
		p.mu.Unlock()
		return db, nil
	}
	p.mu.Unlock()

	site, err := p.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("look up site %s: %w", siteID, err)
	}

	db, err := sqlx.Open("postgres", site.DSN)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", siteID, err)
	}
	db.SetMaxOpenConns(siteMaxOpenConns)
	db.SetMaxIdleConns(siteMaxIdleConns)
	db.SetConnMaxLifetime(siteConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, sitePingTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("ping destination %s: %w", siteID, pingErr)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have connected while we were pinging.
	if existing, ok := p.conns[siteID]; ok {
		db.Close()
		return existing, nil
	}
	p.conns[siteID] = db

	p.logger.Info("Connected to destination database",
		logger.String("site_id", siteID),
		logger.String("display_name", site.DisplayName),
	)
	return db, nil
}

// Evict drops a cached connection, forcing a reconnect on next use. Called
// when a site's DSN changes.
func (p *Pool) Evict(siteID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if db, ok := p.conns[siteID]; ok {
		db.Close()
		delete(p.conns, siteID)
	}
}

// Close closes every cached destination connection.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, db := range p.conns {
		if err := db.Close(); err != nil {
			p.logger.Warn("Failed to close destination connection",
				logger.String("site_id", id),
				logger.Error(err),
			)
		}
		delete(p.conns, id)
	}
}
