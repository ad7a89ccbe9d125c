// Package seed creates demo and fixture data for development databases.
// These helpers are not used by the running server.
package seed

import (
	"context"
	"fmt"
	"time"

	"bookblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options tune generated data.
type Options struct {
	// Seed makes output reproducible; 0 picks a random seed.
	Seed int64
	// MaxDays bounds how far back created_at is spread.
	MaxDays int
	// BatchSize is the insert batch size.
	BatchSize int
}

// Factory builds posts and reviews and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	now   time.Time
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(opts.Seed), now: time.Now()}
}

// BuildPost returns an unsaved post with fake content.
func (f *Factory) BuildPost(overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:     f.faker.Sentence(4),
		Author:    f.faker.Name(),
		Body:      f.faker.Paragraph(3, 4, 12, "\n\n"),
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// BuildReview returns an unsaved review of post. Statuses are mixed so the
// dashboard and the public pages both have something to show.
func (f *Factory) BuildReview(post *models.Post, overrides ...func(*models.Review)) *models.Review {
	review := &models.Review{
		PostID: post.ID,
		Name:   f.faker.FirstName(),
		Rating: f.faker.Number(models.MinRating, models.MaxRating),
		Text:   f.faker.Sentence(f.faker.Number(6, 20)),
		Status: models.ReviewStatus(f.faker.RandomString([]string{
			string(models.ReviewStatusPending),
			string(models.ReviewStatusApproved),
			string(models.ReviewStatusApproved),
			string(models.ReviewStatusRejected),
		})),
	}
	// Reviews never predate their post.
	if !post.CreatedAt.IsZero() {
		if minutes := int(f.now.Sub(post.CreatedAt) / time.Minute); minutes > 0 {
			review.CreatedAt = post.CreatedAt.Add(time.Duration(f.faker.Number(0, minutes)) * time.Minute)
		}
	}
	for _, override := range overrides {
		override(review)
	}
	return review
}

// DemoResult counts the rows written by Demo.
type DemoResult struct {
	Posts   int
	Reviews int
}

// Demo inserts posts posts and reviews reviews per post in one transaction.
func (f *Factory) Demo(ctx context.Context, posts, reviewsPerPost int) (DemoResult, error) {
	if posts < 0 || reviewsPerPost < 0 {
		return DemoResult{}, fmt.Errorf("counts must not be negative")
	}

	var res DemoResult
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		built := make([]*models.Post, 0, posts)
		for i := 0; i < posts; i++ {
			built = append(built, f.BuildPost())
		}
		if len(built) > 0 {
			if err := tx.CreateInBatches(built, f.opts.BatchSize).Error; err != nil {
				return fmt.Errorf("create posts: %w", err)
			}
		}

		reviews := make([]*models.Review, 0, posts*reviewsPerPost)
		for _, p := range built {
			for j := 0; j < reviewsPerPost; j++ {
				reviews = append(reviews, f.BuildReview(p))
			}
		}
		if len(reviews) > 0 {
			if err := tx.CreateInBatches(reviews, f.opts.BatchSize).Error; err != nil {
				return fmt.Errorf("create reviews: %w", err)
			}
		}

		res = DemoResult{Posts: len(built), Reviews: len(reviews)}
		return nil
	})
	return res, err
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}
