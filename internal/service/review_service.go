package service

import (
	"context"
	"log/slog"

	"bookblog/internal/middleware"
	"bookblog/internal/models"
	"bookblog/internal/observability"
	"bookblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type ReviewService struct {
	postRepo   repository.PostRepository
	reviewRepo repository.ReviewRepository
}

type SubmitReviewInput struct {
	PostID uint
	Name   string
	// Rating is the raw form value; it is parsed and clamped.
	Rating string
	Text   string
}

func NewReviewService(postRepo repository.PostRepository, reviewRepo repository.ReviewRepository) *ReviewService {
	return &ReviewService{postRepo: postRepo, reviewRepo: reviewRepo}
}

// Submit stores a pending review for an existing post.
func (s *ReviewService) Submit(ctx context.Context, in SubmitReviewInput) (_ *models.Review, err error) {
	ctx, span := observability.StartSpan(ctx, "ReviewService.Submit",
		attribute.Int64("blog.post_id", int64(in.PostID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err = s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	review := &models.Review{
		PostID: in.PostID,
		Name:   in.Name,
		Rating: models.ParseRating(in.Rating),
		Text:   in.Text,
		Status: models.ReviewStatusPending,
	}
	if err = s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("blog.review_id", int64(review.ID)))

	middleware.ReviewsSubmitted.Inc()
	return review, nil
}

// Pending returns reviews awaiting moderation, newest first.
func (s *ReviewService) Pending(ctx context.Context) ([]models.Review, error) {
	return s.reviewRepo.ListByStatus(ctx, models.ReviewStatusPending)
}

// Moderate sets the status of a review from an action token: "approve"
// approves, anything else rejects. Terminal reviews are overwritten and a
// missing review is ignored.
func (s *ReviewService) Moderate(ctx context.Context, reviewID uint, action string) (_ models.ReviewStatus, err error) {
	ctx, span := observability.StartSpan(ctx, "ReviewService.Moderate",
		attribute.Int64("blog.review_id", int64(reviewID)),
		attribute.String("blog.action", action),
	)
	defer func() { observability.EndSpan(span, err) }()

	status, known := models.StatusForAction(action)
	span.SetAttributes(attribute.String("blog.status", string(status)))
	if !known {
		middleware.Logger.WarnContext(ctx, "unrecognised moderation action treated as reject",
			slog.String("action", action),
			slog.Uint64("review_id", uint64(reviewID)),
		)
	}

	n, err := s.reviewRepo.SetStatus(ctx, reviewID, status)
	span.SetAttributes(attribute.Int64("db.rows_affected", n))
	if err != nil {
		return "", err
	}
	if n == 0 {
		middleware.Logger.WarnContext(ctx, "moderation target not found",
			slog.Uint64("review_id", uint64(reviewID)),
		)
		return status, nil
	}

	middleware.ReviewsModerated.WithLabelValues(string(status)).Inc()
	return status, nil
}
