package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/blogforge/distributor/internal/models"
)

const uniqueViolation = "23505"

// siteRow is the flattened sites table shape. Storage credentials are
// nullable as a group; Endpoint being non-null marks them present.
type siteRow struct {
	ID               string         `db:"id"`
	DisplayName      string         `db:"display_name"`
	DSN              string         `db:"dsn"`
	TargetTable      string         `db:"target_table"`
	StorageEndpoint  sql.NullString `db:"storage_endpoint"`
	StorageAccessKey sql.NullString `db:"storage_access_key"`
	StorageSecretKey sql.NullString `db:"storage_secret_key"`
	StorageBucket    sql.NullString `db:"storage_bucket"`
	StoragePublicURL sql.NullString `db:"storage_public_url"`
	StorageUseSSL    sql.NullBool   `db:"storage_use_ssl"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *siteRow) toSite() *models.Site {
	site := &models.Site{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		DSN:         r.DSN,
		TargetTable: r.TargetTable,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.StorageEndpoint.Valid && r.StorageEndpoint.String != "" {
		site.Storage = &models.StorageCredentials{
			Endpoint:  r.StorageEndpoint.String,
			AccessKey: r.StorageAccessKey.String,
			SecretKey: r.StorageSecretKey.String,
			Bucket:    r.StorageBucket.String,
			PublicURL: r.StoragePublicURL.String,
			UseSSL:    r.StorageUseSSL.Bool,
		}
	}
	return site
}

const siteColumns = `id, display_name, dsn, target_table,
	storage_endpoint, storage_access_key, storage_secret_key,
	storage_bucket, storage_public_url, storage_use_ssl,
	created_at, updated_at`

// SiteRepository provides CRUD operations for the destination registry.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository creates a new site repository.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Ping verifies database connectivity.
func (r *SiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create registers a new destination site.
func (r *SiteRepository) Create(ctx context.Context, req *models.SiteCreateRequest) (*models.Site, error) {
	now := time.Now()
	row := siteRow{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		DSN:         req.DSN,
		TargetTable: models.NormalizeTableName(req.TargetTable),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyStorage(&row, req.Storage)

	query := `
		INSERT INTO sites (` + siteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.DisplayName, row.DSN, row.TargetTable,
		row.StorageEndpoint, row.StorageAccessKey, row.StorageSecretKey,
		row.StorageBucket, row.StoragePublicURL, row.StorageUseSSL,
		row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, models.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	return row.toSite(), nil
}

// GetByID retrieves a site by id.
func (r *SiteRepository) GetByID(ctx context.Context, id string) (*models.Site, error) {
	row := siteRow{}
	query := `SELECT ` + siteColumns + ` FROM sites WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	return row.toSite(), nil
}

// List retrieves all registered sites ordered by display name.
func (r *SiteRepository) List(ctx context.Context) ([]*models.Site, error) {
	rows := []siteRow{}
	query := `SELECT ` + siteColumns + ` FROM sites ORDER BY display_name`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	sites := make([]*models.Site, 0, len(rows))
	for i := range rows {
		sites = append(sites, rows[i].toSite())
	}
	return sites, nil
}

// Update applies the non-nil fields of req to the site.
func (r *SiteRepository) Update(ctx context.Context, id string, req *models.SiteUpdateRequest) (*models.Site, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	site, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		site.DisplayName = *req.DisplayName
	}
	if req.DSN != nil {
		site.DSN = *req.DSN
	}
	if req.TargetTable != nil {
		site.TargetTable = models.NormalizeTableName(*req.TargetTable)
	}
	if req.Storage != nil {
		site.Storage = req.Storage
	}
	site.UpdatedAt = time.Now()

	row := siteRow{
		ID:          site.ID,
		DisplayName: site.DisplayName,
		DSN:         site.DSN,
		TargetTable: site.TargetTable,
		UpdatedAt:   site.UpdatedAt,
	}
	applyStorage(&row, site.Storage)

	query := `
		UPDATE sites
		SET display_name = $2, dsn = $3, target_table = $4,
			storage_endpoint = $5, storage_access_key = $6, storage_secret_key = $7,
			storage_bucket = $8, storage_public_url = $9, storage_use_ssl = $10,
			updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		row.ID, row.DisplayName, row.DSN, row.TargetTable,
		row.StorageEndpoint, row.StorageAccessKey, row.StorageSecretKey,
		row.StorageBucket, row.StoragePublicURL, row.StorageUseSSL,
		row.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update site: %w", err)
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		return nil, models.ErrNotFound
	}

	return site, nil
}

// AdoptTable stores a discovered table name as the site's default. Called
// when discovery resolves a table and the operator has not overridden it.
func (r *SiteRepository) AdoptTable(ctx context.Context, id, table string) error {
	query := `UPDATE sites SET target_table = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, models.NormalizeTableName(table), time.Now())
	if err != nil {
		return fmt.Errorf("failed to adopt table: %w", err)
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a site from the registry.
func (r *SiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func applyStorage(row *siteRow, creds *models.StorageCredentials) {
	if creds == nil || creds.Endpoint == "" {
		return
	}
	row.StorageEndpoint = sql.NullString{String: creds.Endpoint, Valid: true}
	row.StorageAccessKey = sql.NullString{String: creds.AccessKey, Valid: true}
	row.StorageSecretKey = sql.NullString{String: creds.SecretKey, Valid: true}
	row.StorageBucket = sql.NullString{String: creds.Bucket, Valid: true}
	row.StoragePublicURL = sql.NullString{String: creds.PublicURL, Valid: true}
	row.StorageUseSSL = sql.NullBool{Bool: creds.UseSSL, Valid: true}
}
