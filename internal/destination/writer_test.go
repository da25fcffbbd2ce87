package destination

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/blogforge/distributor/internal/logger"
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

func expectTables(mock sqlmock.Sqlmock, names ...string) {
	rows := sqlmock.NewRows([]string{"table_name"})
	for _, n := range names {
		rows.AddRow(n)
	}
	mock.ExpectQuery("FROM information_schema.tables").WillReturnRows(rows)
}

func expectColumns(mock sqlmock.Sqlmock, cols ...[3]string) {
	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"})
	for _, c := range cols {
		rows.AddRow(c[0], c[1], c[2])
	}
	mock.ExpectQuery("FROM information_schema.columns").WillReturnRows(rows)
}

func TestResolveTable(t *testing.T) {
	tests := []struct {
		name    string
		tables  []string
		lookup  string
		want    string
		wantErr error
	}{
		{name: "exact match", tables: []string{"blogs", "users"}, lookup: "blogs", want: "blogs"},
		{name: "case insensitive", tables: []string{"Blogs"}, lookup: "blogs", want: "Blogs"},
		{name: "singular finds plural", tables: []string{"posts"}, lookup: "post", want: "posts"},
		{name: "plural finds singular", tables: []string{"article"}, lookup: "articles", want: "article"},
		{name: "missing", tables: []string{"users"}, lookup: "blogs", wantErr: models.ErrTableMissing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			expectTables(mock, tc.tables...)

			w := NewWriter(logger.NewNopLogger())
			got, err := w.ResolveTable(context.Background(), db, tc.lookup)

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
				t.Errorf("resolved %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWriter_Insert_MapsAliasesToColumns(t *testing.T) {
	db, mock := newMockDB(t)
	expectTables(mock, "blogs")
	expectColumns(mock,
		[3]string{"id", "bigint", "NO"},
		[3]string{"title", "text", "NO"},
		[3]string{"content", "text", "YES"},
		[3]string{"meta_title", "text", "YES"},
		[3]string{"created_at", "timestamp without time zone", "NO"},
	)
	mock.ExpectQuery(`INSERT INTO "blogs"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	payload := map[string]any{
		"title":      "Hello",
		"content":    "<p>Body</p>",
		"meta_title": "Hello SEO",
		"seo_title":  "Hello SEO",
		"slug":       "hello", // no slug column, must be dropped
	}

	w := NewWriter(logger.NewNopLogger())
	id, err := w.Insert(context.Background(), db, "blogs", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected id 42, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWriter_Insert_TableMissing(t *testing.T) {
	db, mock := newMockDB(t)
	expectTables(mock, "users")

	w := NewWriter(logger.NewNopLogger())
	_, err := w.Insert(context.Background(), db, "blogs", map[string]any{"title": "x"})
	if !errors.Is(err, models.ErrTableMissing) {
		t.Fatalf("expected ErrTableMissing, got %v", err)
	}
}

func TestWriter_Update_NoMatchingFields(t *testing.T) {
	db, mock := newMockDB(t)
	expectTables(mock, "blogs")
	expectColumns(mock,
		[3]string{"id", "bigint", "NO"},
		[3]string{"title", "text", "NO"},
	)

	w := NewWriter(logger.NewNopLogger())
	err := w.Update(context.Background(), db, "blogs", 7, map[string]any{"nonexistent": "x"})
	if !errors.Is(err, models.ErrNoFieldsToUpdate) {
		t.Fatalf("expected ErrNoFieldsToUpdate, got %v", err)
	}
}
