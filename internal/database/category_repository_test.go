package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogforge/distributor/internal/models"
)

func newCategoryRepo(t *testing.T) (*CategoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCategoryRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCategoryRepository_Create(t *testing.T) {
	repo, mock := newCategoryRepo(t)
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(sqlmock.AnyArg(), "Guides", "guides", "How-to content", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	category, err := repo.Create(context.Background(), &models.CategoryCreateRequest{
		Name:        "Guides",
		Slug:        "guides",
		Description: "How-to content",
	})
	require.NoError(t, err)
	assert.Equal(t, "Guides", category.Name)
	assert.NotEqual(t, uuid.Nil, category.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newCategoryRepo(t)
	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), &models.CategoryCreateRequest{
		Name: "Guides",
		Slug: "guides",
	})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestCategoryRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newCategoryRepo(t)
	id := uuid.New()
	mock.ExpectQuery("SELECT id, name, slug, description").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "description", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCategoryRepository_Update_NoFields(t *testing.T) {
	repo, _ := newCategoryRepo(t)
	_, err := repo.Update(context.Background(), uuid.New(), &models.CategoryUpdateRequest{})
	assert.ErrorIs(t, err, models.ErrNoFieldsToUpdate)
}

func TestCategoryRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newCategoryRepo(t)
	id := uuid.New()
	mock.ExpectExec("DELETE FROM categories").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), models.ErrNotFound)
}
