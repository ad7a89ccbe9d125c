package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"bookblog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	review := &models.Review{PostID: 1, Name: "Ann", Rating: 4, Text: "Good", Status: models.ReviewStatusPending}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), review))
	assert.Equal(t, uint(3), review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE post_id = $1 AND status = $2 ORDER BY created_at DESC, id DESC`)).
		WithArgs(1, "approved").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "name", "rating", "status"}).
			AddRow(2, 1, "Bo", 5, "approved"))

	reviews, err := repo.ListByPost(context.Background(), 1, models.ReviewStatusApproved)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, models.ReviewStatusApproved, reviews[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_SetStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reviews" SET "status"=$1 WHERE id = $2`)).
		WithArgs("rejected", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.SetStatus(context.Background(), 5, models.ReviewStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_StatusFilteringSQLite(t *testing.T) {
	db := setupSQLiteDB(t)
	posts := NewPostRepository(db)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Emma", Author: "Austen", Body: "..."}
	require.NoError(t, posts.Create(ctx, post))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	statuses := []models.ReviewStatus{
		models.ReviewStatusPending,
		models.ReviewStatusApproved,
		models.ReviewStatusApproved,
		models.ReviewStatusRejected,
	}
	for i, st := range statuses {
		r := &models.Review{PostID: post.ID, Name: "r", Rating: 3, Status: st, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, r))
	}

	approved, err := repo.ListByPost(ctx, post.ID, models.ReviewStatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.True(t, approved[0].CreatedAt.After(approved[1].CreatedAt))

	pending, err := repo.ListByStatus(ctx, models.ReviewStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Post)
	assert.Equal(t, "Emma", pending[0].Post.Title)

	n, err := repo.SetStatus(ctx, pending[0].ID, models.ReviewStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.SetStatus(ctx, 9999, models.ReviewStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	approved, err = repo.ListByPost(ctx, post.ID, models.ReviewStatusApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 3)
}
