package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/metrics"
	"github.com/blogforge/distributor/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestSetStatus_ClearsScheduleTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "blogs" SET status = \$1, scheduled_at = NULL WHERE id = \$2`).
		WithArgs(models.StatusPublished, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := setStatus(context.Background(), db, "blogs", 5, models.StatusPublished); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "blogs"`).
		WithArgs(models.StatusDraft, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := setStatus(context.Background(), db, "blogs", 99, models.StatusDraft)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnschedule_OnlyTouchesScheduledPosts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "blogs" SET status = \$1, scheduled_at = NULL WHERE id = \$2 AND status = \$3`).
		WithArgs(models.StatusDraft, int64(7), models.StatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := unschedule(context.Background(), db, "blogs", 7)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("draft post must not be unschedulable, got %v", err)
	}
}

func TestBulk(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		pattern string
		args    int
		want    int64
		wantErr error
	}{
		{name: "publish", action: models.BulkPublish, pattern: `UPDATE "blogs" SET status = \$2, scheduled_at = NULL WHERE id = ANY\(\$1\)`, args: 2, want: 3},
		{name: "draft", action: models.BulkDraft, pattern: `UPDATE "blogs" SET status = \$2, scheduled_at = NULL WHERE id = ANY\(\$1\)`, args: 2, want: 3},
		{name: "delete", action: models.BulkDelete, pattern: `DELETE FROM "blogs" WHERE id = ANY\(\$1\)`, args: 1, want: 3},
		{name: "unknown", action: "archive", wantErr: models.ErrInvalidBulkAction},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			if tc.wantErr == nil {
				expect := mock.ExpectExec(tc.pattern)
				if tc.args == 2 {
					expect.WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg())
				} else {
					expect.WithArgs(sqlmock.AnyArg())
				}
				expect.WillReturnResult(sqlmock.NewResult(0, tc.want))
			}

			got, err := bulk(context.Background(), db, "blogs", tc.action, []int64{1, 2, 3})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("affected = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPublishDue(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "blogs" SET status = \$1, scheduled_at = NULL\s+WHERE status = \$2 AND scheduled_at <= NOW\(\)`).
		WithArgs(models.StatusPublished, models.StatusScheduled).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := publishDue(context.Background(), db, "blogs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestListScheduled(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, title, scheduled_at FROM "blogs" WHERE status = \$1`).
		WithArgs(models.StatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "scheduled_at"}).
			AddRow(int64(4), "Queued Post", at))

	posts, err := listScheduled(context.Background(), db, "blogs", "site-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 || posts[0].SiteID != "site-1" || !posts[0].ScheduledAt.Equal(at) {
		t.Errorf("got %+v", posts)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "blogs" WHERE id = \$1`).
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	_, err := getPost(context.Background(), db, "blogs", 123)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM "blogs" GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("published", int64(10)).
			AddRow("draft", int64(3)))

	got, err := stats(context.Background(), db, "blogs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["published"] != 10 || got["draft"] != 3 {
		t.Errorf("got %v", got)
	}
}

type stubSites struct{ site *models.Site }

func (s *stubSites) GetByID(_ context.Context, _ string) (*models.Site, error) {
	return s.site, nil
}

func (s *stubSites) List(_ context.Context) ([]*models.Site, error) {
	return []*models.Site{s.site}, nil
}

type stubConnector struct{ db *sqlx.DB }

func (c *stubConnector) Get(_ context.Context, _ string) (*sqlx.DB, error) {
	return c.db, nil
}

func newTestManager(db *sqlx.DB) *Manager {
	return NewManager(
		&stubSites{site: &models.Site{ID: "site-1", TargetTable: "blogs"}},
		&stubConnector{db: db},
		destination.NewWriter(logger.NewNopLogger()),
		metrics.New(prometheus.NewRegistry()),
		logger.NewNopLogger(),
	)
}

func expectBlogsTable(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM information_schema.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("blogs"))
}

func TestOpenForEdit_ConvertsPublishedToDraft(t *testing.T) {
	db, mock := newMockDB(t)
	expectBlogsTable(mock)
	mock.ExpectQuery(`SELECT \* FROM "blogs" WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).
			AddRow(int64(5), "Hello", models.StatusPublished))
	mock.ExpectExec(`UPDATE "blogs" SET status = \$1, scheduled_at = NULL WHERE id = \$2`).
		WithArgs(models.StatusDraft, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := newTestManager(db)
	post, converted, err := m.OpenForEdit(context.Background(), "site-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !converted {
		t.Error("published post must be converted to draft before editing")
	}
	if post.Status != models.StatusDraft {
		t.Errorf("status = %q, want draft", post.Status)
	}
	if post.ScheduledAt != nil {
		t.Error("conversion must drop the schedule timestamp")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOpenForEdit_DraftIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	expectBlogsTable(mock)
	mock.ExpectQuery(`SELECT \* FROM "blogs" WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).
			AddRow(int64(8), "Still a draft", models.StatusDraft))

	m := newTestManager(db)
	post, converted, err := m.OpenForEdit(context.Background(), "site-1", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if converted {
		t.Error("draft post must open without a status change")
	}
	if post.Status != models.StatusDraft {
		t.Errorf("status = %q, want draft", post.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
