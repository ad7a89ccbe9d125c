package repository

import (
	"context"

	"bookblog/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByPost(ctx context.Context, postID uint, status models.ReviewStatus) ([]models.Review, error)
	ListByStatus(ctx context.Context, status models.ReviewStatus) ([]models.Review, error)
	// SetStatus overwrites the status of one review and reports how many rows matched.
	SetStatus(ctx context.Context, id uint, status models.ReviewStatus) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) ListByPost(ctx context.Context, postID uint, status models.ReviewStatus) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, string(status)).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// ListByStatus returns reviews in the given state, newest first, with their post attached.
func (r *reviewRepository) ListByStatus(ctx context.Context, status models.ReviewStatus) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.WithContext(ctx).
		Preload("Post").
		Where("status = ?", string(status)).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) SetStatus(ctx context.Context, id uint, status models.ReviewStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
