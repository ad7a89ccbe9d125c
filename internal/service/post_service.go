// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"

	"bookblog/internal/models"
	"bookblog/internal/observability"
	"bookblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// RecentPostsLimit is the number of posts on the public front page.
const RecentPostsLimit = 20

type PostService struct {
	postRepo   repository.PostRepository
	reviewRepo repository.ReviewRepository
}

type CreatePostInput struct {
	Title  string
	Author string
	Body   string
}

// PostDetail is a post with the reviews readers may see.
type PostDetail struct {
	Post    *models.Post
	Reviews []models.Review
}

func NewPostService(postRepo repository.PostRepository, reviewRepo repository.ReviewRepository) *PostService {
	return &PostService{postRepo: postRepo, reviewRepo: reviewRepo}
}

// ListRecent returns the newest posts for the front page.
func (s *PostService) ListRecent(ctx context.Context) ([]models.Post, error) {
	return s.postRepo.ListRecent(ctx, RecentPostsLimit)
}

// ListAll returns every post, newest first.
func (s *PostService) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.postRepo.ListRecent(ctx, 0)
}

// GetDetail returns the post and its approved reviews, newest first.
func (s *PostService) GetDetail(ctx context.Context, postID uint) (_ *PostDetail, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.GetDetail",
		attribute.Int64("blog.post_id", int64(postID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByPost(ctx, post.ID, models.ReviewStatusApproved)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("blog.review_count", len(reviews)))
	return &PostDetail{Post: post, Reviews: reviews}, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	post := &models.Post{
		Title:  in.Title,
		Author: in.Author,
		Body:   in.Body,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}
