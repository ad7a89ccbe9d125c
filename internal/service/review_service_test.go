package service

import (
	"context"
	"testing"

	"bookblog/internal/middleware"
	"bookblog/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_SubmitIsPending(t *testing.T) {
	db, repos := setupTestDB(t)
	posts := NewPostService(repos.posts, repos.reviews)
	svc := NewReviewService(repos.posts, repos.reviews)
	ctx := context.Background()

	post, err := posts.CreatePost(ctx, CreatePostInput{Title: "Dune"})
	require.NoError(t, err)

	before := testutil.ToFloat64(middleware.ReviewsSubmitted)
	review, err := svc.Submit(ctx, SubmitReviewInput{PostID: post.ID, Name: "Ann", Rating: "4", Text: "Good"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPending, review.Status)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, before+1, testutil.ToFloat64(middleware.ReviewsSubmitted))

	var stored models.Review
	require.NoError(t, db.First(&stored, review.ID).Error)
	assert.Equal(t, models.ReviewStatusPending, stored.Status)

	// Pending reviews stay off the public page.
	detail, err := posts.GetDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Reviews)
}

func TestReviewService_SubmitClampsRating(t *testing.T) {
	_, repos := setupTestDB(t)
	svc := NewReviewService(repos.posts, repos.reviews)
	ctx := context.Background()

	post := &models.Post{Title: "Dune"}
	require.NoError(t, repos.posts.Create(ctx, post))

	tests := []struct {
		raw  string
		want int
	}{
		{"9", 5},
		{"0", 1},
		{"-2", 1},
		{"", 5},
		{"abc", 5},
		{"3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			review, err := svc.Submit(ctx, SubmitReviewInput{PostID: post.ID, Name: "n", Rating: tt.raw})
			require.NoError(t, err)
			assert.Equal(t, tt.want, review.Rating)
		})
	}
}

func TestReviewService_SubmitMissingPost(t *testing.T) {
	db, repos := setupTestDB(t)
	svc := NewReviewService(repos.posts, repos.reviews)

	_, err := svc.Submit(context.Background(), SubmitReviewInput{PostID: 99, Name: "Ann", Rating: "3"})
	assert.True(t, models.IsNotFound(err))

	var count int64
	require.NoError(t, db.Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReviewService_Moderate(t *testing.T) {
	db, repos := setupTestDB(t)
	posts := NewPostService(repos.posts, repos.reviews)
	svc := NewReviewService(repos.posts, repos.reviews)
	ctx := context.Background()

	post, err := posts.CreatePost(ctx, CreatePostInput{Title: "Dune"})
	require.NoError(t, err)

	tests := []struct {
		action string
		want   models.ReviewStatus
	}{
		{"approve", models.ReviewStatusApproved},
		{"reject", models.ReviewStatusRejected},
		{"xyz", models.ReviewStatusRejected},
		{"APPROVE", models.ReviewStatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			review, err := svc.Submit(ctx, SubmitReviewInput{PostID: post.ID, Name: "n", Rating: "3"})
			require.NoError(t, err)

			status, err := svc.Moderate(ctx, review.ID, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)

			var stored models.Review
			require.NoError(t, db.First(&stored, review.ID).Error)
			assert.Equal(t, tt.want, stored.Status)
		})
	}

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReviewService_ModerateOverwritesTerminalStatus(t *testing.T) {
	db, repos := setupTestDB(t)
	svc := NewReviewService(repos.posts, repos.reviews)
	ctx := context.Background()

	post := &models.Post{Title: "Dune"}
	require.NoError(t, repos.posts.Create(ctx, post))
	review, err := svc.Submit(ctx, SubmitReviewInput{PostID: post.ID, Name: "n", Rating: "3"})
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, review.ID, "reject")
	require.NoError(t, err)
	_, err = svc.Moderate(ctx, review.ID, "approve")
	require.NoError(t, err)

	var stored models.Review
	require.NoError(t, db.First(&stored, review.ID).Error)
	assert.Equal(t, models.ReviewStatusApproved, stored.Status)
}

func TestReviewService_ModerateMissingReview(t *testing.T) {
	_, repos := setupTestDB(t)
	svc := NewReviewService(repos.posts, repos.reviews)

	status, err := svc.Moderate(context.Background(), 1234, "approve")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, status)
}

func TestReviewService_PendingIncludesPost(t *testing.T) {
	_, repos := setupTestDB(t)
	svc := NewReviewService(repos.posts, repos.reviews)
	ctx := context.Background()

	post := &models.Post{Title: "Dune"}
	require.NoError(t, repos.posts.Create(ctx, post))
	_, err := svc.Submit(ctx, SubmitReviewInput{PostID: post.ID, Name: "Ann", Rating: "2"})
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Post)
	assert.Equal(t, "Dune", pending[0].Post.Title)
}
