package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bookblog/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is the YAML document accepted by Import.
//
//	posts:
//	  - title: Dune
//	    author: Frank Herbert
//	    body: ...
//	    reviews:
//	      - name: Ann
//	        rating: 5
//	        status: approved
type Fixtures struct {
	Posts []FixturePost `yaml:"posts"`
}

type FixturePost struct {
	Title     string          `yaml:"title"`
	Author    string          `yaml:"author"`
	Body      string          `yaml:"body"`
	CreatedAt time.Time       `yaml:"created_at"`
	Reviews   []FixtureReview `yaml:"reviews"`
}

type FixtureReview struct {
	Name   string `yaml:"name"`
	Rating int    `yaml:"rating"`
	Text   string `yaml:"text"`
	Status string `yaml:"status"`
}

// LoadFixtures decodes and validates a fixtures document. Missing ratings
// default to 5 and out-of-range ratings are clamped; a missing status means
// pending.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	for i := range fx.Posts {
		p := &fx.Posts[i]
		if p.Title == "" {
			return nil, fmt.Errorf("post %d: title is required", i+1)
		}
		for j := range p.Reviews {
			rv := &p.Reviews[j]
			if rv.Rating == 0 {
				rv.Rating = models.DefaultRating
			}
			rv.Rating = models.ClampRating(rv.Rating)
			if rv.Status == "" {
				rv.Status = string(models.ReviewStatusPending)
			}
			if !models.ReviewStatus(rv.Status).Valid() {
				return nil, fmt.Errorf("post %d review %d: unknown status %q", i+1, j+1, rv.Status)
			}
		}
	}
	return &fx, nil
}

// Import writes fixtures in a single transaction.
func Import(ctx context.Context, db *gorm.DB, fx *Fixtures) (DemoResult, error) {
	var res DemoResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fp := range fx.Posts {
			post := &models.Post{
				Title:     fp.Title,
				Author:    fp.Author,
				Body:      fp.Body,
				CreatedAt: fp.CreatedAt,
			}
			if err := tx.Create(post).Error; err != nil {
				return fmt.Errorf("create post %q: %w", fp.Title, err)
			}
			res.Posts++

			for _, fr := range fp.Reviews {
				review := &models.Review{
					PostID: post.ID,
					Name:   fr.Name,
					Rating: fr.Rating,
					Text:   fr.Text,
					Status: models.ReviewStatus(fr.Status),
				}
				if err := tx.Create(review).Error; err != nil {
					return fmt.Errorf("create review for %q: %w", fp.Title, err)
				}
				res.Reviews++
			}
		}
		return nil
	})
	return res, err
}
