// Package lifecycle manages posts after injection: status flips,
// scheduling, edits, bulk actions, and the publish-due sweep the scheduler
// runs.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/metrics"
	"github.com/blogforge/distributor/internal/models"
)

const defaultTable = "blogs"

// Manager runs lifecycle operations against destination content tables.
type Manager struct {
	sites   destination.SiteProvider
	pool    destination.Connector
	writer  *destination.Writer
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewManager creates a lifecycle manager.
func NewManager(sites destination.SiteProvider, pool destination.Connector, writer *destination.Writer, m *metrics.Metrics, log logger.Logger) *Manager {
	return &Manager{sites: sites, pool: pool, writer: writer, metrics: m, logger: log}
}

// connect resolves the site's connection and actual content table.
func (m *Manager) connect(ctx context.Context, siteID string) (*sqlx.DB, string, error) {
	site, err := m.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, "", err
	}
	db, err := m.pool.Get(ctx, siteID)
	if err != nil {
		return nil, "", err
	}
	table := site.TargetTable
	if table == "" {
		table = defaultTable
	}
	actual, err := m.writer.ResolveTable(ctx, db, table)
	if err != nil {
		return nil, "", err
	}
	return db, actual, nil
}

// GetPost loads the full row for one post.
func (m *Manager) GetPost(ctx context.Context, siteID string, postID int64) (*models.Post, error) {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return getPost(ctx, db, table, postID)
}

// RecentPosts lists the newest posts for a site, most recent first.
func (m *Manager) RecentPosts(ctx context.Context, siteID string, limit int) ([]models.Post, error) {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return recentPosts(ctx, db, table, limit)
}

// SetStatus updates one post's status. Leaving the scheduled status clears
// the scheduled timestamp so stale timestamps never trigger a publish.
func (m *Manager) SetStatus(ctx context.Context, siteID string, postID int64, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return err
	}
	return setStatus(ctx, db, table, postID, status)
}

// Schedule marks a post for automatic publication at a future time.
func (m *Manager) Schedule(ctx context.Context, siteID string, postID int64, at time.Time) error {
	if !at.After(time.Now()) {
		return models.ErrScheduleInPast
	}
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return err
	}
	return schedule(ctx, db, table, postID, at.UTC())
}

// Unschedule reverts a scheduled post to draft. Posts in any other status
// are left alone and reported as not found.
func (m *Manager) Unschedule(ctx context.Context, siteID string, postID int64) error {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return err
	}
	return unschedule(ctx, db, table, postID)
}

// OpenForEdit prepares a post for editing. Published and scheduled posts
// are forced back to draft first; the returned flag tells the caller the
// conversion happened so the operator can be warned.
func (m *Manager) OpenForEdit(ctx context.Context, siteID string, postID int64) (*models.Post, bool, error) {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return nil, false, err
	}
	post, err := getPost(ctx, db, table, postID)
	if err != nil {
		return nil, false, err
	}
	if post.Status == models.StatusDraft {
		return post, false, nil
	}
	if err := setStatus(ctx, db, table, postID, models.StatusDraft); err != nil {
		return nil, false, err
	}
	post.Status = models.StatusDraft
	post.ScheduledAt = nil
	return post, true, nil
}

// UpdatePost applies edited fields to a post through the schema-mapped
// writer.
func (m *Manager) UpdatePost(ctx context.Context, siteID string, postID int64, fields map[string]any) error {
	site, err := m.sites.GetByID(ctx, siteID)
	if err != nil {
		return err
	}
	db, err := m.pool.Get(ctx, siteID)
	if err != nil {
		return err
	}
	table := site.TargetTable
	if table == "" {
		table = defaultTable
	}
	return m.writer.Update(ctx, db, table, postID, fields)
}

// Delete removes a post row.
func (m *Manager) Delete(ctx context.Context, siteID string, postID int64) error {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return err
	}
	return deletePost(ctx, db, table, postID)
}

// Bulk applies one action to many posts and returns how many rows changed.
func (m *Manager) Bulk(ctx context.Context, siteID, action string, postIDs []int64) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return 0, err
	}
	return bulk(ctx, db, table, action, postIDs)
}

// ListScheduled lists posts awaiting automatic publication, soonest first.
func (m *Manager) ListScheduled(ctx context.Context, siteID string) ([]models.ScheduledPost, error) {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return listScheduled(ctx, db, table, siteID)
}

// PublishDue flips every scheduled post whose time has come to published.
// Idempotent: a post already flipped matches nothing on the next sweep.
func (m *Manager) PublishDue(ctx context.Context, siteID string) (int64, error) {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return 0, err
	}
	count, err := publishDue(ctx, db, table)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		m.metrics.ScheduledPublishes.Add(float64(count))
		m.logger.Info("Published due posts",
			logger.String("site_id", siteID),
			logger.Int64("count", count),
		)
	}
	return count, nil
}

// Stats counts a site's posts by status.
func (m *Manager) Stats(ctx context.Context, siteID string) (map[string]int64, error) {
	db, table, err := m.connect(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return stats(ctx, db, table)
}

func getPost(ctx context.Context, db *sqlx.DB, table string, id int64) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT * FROM "%s" WHERE id = $1`, table)
	rows, err := db.QueryxContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get post %d: %w", id, err)
		}
		return nil, models.ErrNotFound
	}
	fields := make(map[string]any)
	if err := rows.MapScan(fields); err != nil {
		return nil, fmt.Errorf("scan post %d: %w", id, err)
	}
	return postFromRow(id, fields), nil
}

func recentPosts(ctx context.Context, db *sqlx.DB, table string, limit int) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT * FROM "%s" ORDER BY id DESC LIMIT $1`, table)
	rows, err := db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		fields := make(map[string]any)
		if err := rows.MapScan(fields); err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		id, _ := asInt64(fields["id"])
		posts = append(posts, *postFromRow(id, fields))
	}
	return posts, rows.Err()
}

func setStatus(ctx context.Context, db *sqlx.DB, table string, id int64, status string) error {
	query := fmt.Sprintf(`UPDATE "%s" SET status = $1, scheduled_at = NULL WHERE id = $2`, table)
	if status == models.StatusScheduled {
		query = fmt.Sprintf(`UPDATE "%s" SET status = $1 WHERE id = $2`, table)
	}
	return execOne(ctx, db, query, status, id)
}

func schedule(ctx context.Context, db *sqlx.DB, table string, id int64, at time.Time) error {
	query := fmt.Sprintf(`UPDATE "%s" SET status = $1, scheduled_at = $2 WHERE id = $3`, table)
	return execOne(ctx, db, query, models.StatusScheduled, at, id)
}

func unschedule(ctx context.Context, db *sqlx.DB, table string, id int64) error {
	query := fmt.Sprintf(
		`UPDATE "%s" SET status = $1, scheduled_at = NULL WHERE id = $2 AND status = $3`, table)
	return execOne(ctx, db, query, models.StatusDraft, id, models.StatusScheduled)
}

func deletePost(ctx context.Context, db *sqlx.DB, table string, id int64) error {
	query := fmt.Sprintf(`DELETE FROM "%s" WHERE id = $1`, table)
	return execOne(ctx, db, query, id)
}

func bulk(ctx context.Context, db *sqlx.DB, table, action string, ids []int64) (int64, error) {
	var query string
	args := []any{pq.Array(ids)}
	switch action {
	case models.BulkPublish:
		query = fmt.Sprintf(`UPDATE "%s" SET status = $2, scheduled_at = NULL WHERE id = ANY($1)`, table)
		args = append(args, models.StatusPublished)
	case models.BulkDraft:
		query = fmt.Sprintf(`UPDATE "%s" SET status = $2, scheduled_at = NULL WHERE id = ANY($1)`, table)
		args = append(args, models.StatusDraft)
	case models.BulkDelete:
		query = fmt.Sprintf(`DELETE FROM "%s" WHERE id = ANY($1)`, table)
	default:
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidBulkAction, action)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk %s: %w", action, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return affected, nil
}

func listScheduled(ctx context.Context, db *sqlx.DB, table, siteID string) ([]models.ScheduledPost, error) {
	query := fmt.Sprintf(
		`SELECT id, title, scheduled_at FROM "%s" WHERE status = $1 ORDER BY scheduled_at ASC`, table)

	rows, err := db.QueryContext(ctx, query, models.StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("list scheduled posts: %w", err)
	}
	defer rows.Close()

	var posts []models.ScheduledPost
	for rows.Next() {
		var p models.ScheduledPost
		if err := rows.Scan(&p.ID, &p.Title, &p.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scan scheduled post: %w", err)
		}
		p.SiteID = siteID
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func publishDue(ctx context.Context, db *sqlx.DB, table string) (int64, error) {
	query := fmt.Sprintf(
		`UPDATE "%s" SET status = $1, scheduled_at = NULL
		 WHERE status = $2 AND scheduled_at <= NOW()`, table)

	result, err := db.ExecContext(ctx, query, models.StatusPublished, models.StatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("publish due posts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return affected, nil
}

func stats(ctx context.Context, db *sqlx.DB, table string) (map[string]int64, error) {
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM "%s" GROUP BY status`, table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func execOne(ctx context.Context, db *sqlx.DB, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// postFromRow lifts the generic row map into a Post, tolerating the column
// spelling differences destination schemas have.
func postFromRow(id int64, fields map[string]any) *models.Post {
	post := &models.Post{ID: id, Fields: fields}
	if title, ok := fields["title"].(string); ok {
		post.Title = title
	}
	for _, key := range []string{"status", "post_status"} {
		if status, ok := fields[key].(string); ok {
			post.Status = status
			break
		}
	}
	if at, ok := fields["scheduled_at"].(time.Time); ok {
		post.ScheduledAt = &at
	}
	if raw, ok := fields["title"].([]byte); ok {
		post.Title = string(raw)
	}
	return post
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
