package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"bookblog/internal/database"
	"bookblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestFactory_BuildPost(t *testing.T) {
	f := NewFactory(nil, Options{Seed: 42, MaxDays: 10})

	post := f.BuildPost(func(p *models.Post) { p.Author = "Le Guin" })
	assert.NotEmpty(t, post.Title)
	assert.NotEmpty(t, post.Body)
	assert.Equal(t, "Le Guin", post.Author)
	assert.False(t, post.CreatedAt.After(time.Now()))
	assert.True(t, post.CreatedAt.After(time.Now().Add(-11*24*time.Hour)))
}

func TestFactory_BuildReview(t *testing.T) {
	f := NewFactory(nil, Options{Seed: 7})
	post := f.BuildPost()
	post.ID = 3

	for i := 0; i < 50; i++ {
		r := f.BuildReview(post)
		assert.Equal(t, uint(3), r.PostID)
		assert.GreaterOrEqual(t, r.Rating, models.MinRating)
		assert.LessOrEqual(t, r.Rating, models.MaxRating)
		assert.True(t, r.Status.Valid())
		assert.False(t, r.CreatedAt.Before(post.CreatedAt))
	}
}

func TestFactory_Demo(t *testing.T) {
	db := setupTestDB(t)
	f := NewFactory(db, Options{Seed: 1, BatchSize: 4})

	res, err := f.Demo(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, DemoResult{Posts: 5, Reviews: 15}, res)

	var posts, reviews int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	assert.Equal(t, int64(5), posts)
	assert.Equal(t, int64(15), reviews)

	_, err = f.Demo(context.Background(), -1, 0)
	assert.Error(t, err)
}

const fixturesYAML = `
posts:
  - title: Dune
    author: Frank Herbert
    body: Arrakis.
    created_at: 2024-03-01T10:00:00Z
    reviews:
      - name: Ann
        rating: 9
        text: Loved it
        status: approved
      - name: Bo
        text: Pending one
  - title: Emma
    author: Jane Austen
`

func TestLoadFixtures(t *testing.T) {
	fx, err := LoadFixtures(strings.NewReader(fixturesYAML))
	require.NoError(t, err)
	require.Len(t, fx.Posts, 2)

	dune := fx.Posts[0]
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), dune.CreatedAt.UTC())
	require.Len(t, dune.Reviews, 2)
	assert.Equal(t, 5, dune.Reviews[0].Rating)
	assert.Equal(t, "approved", dune.Reviews[0].Status)
	assert.Equal(t, 5, dune.Reviews[1].Rating)
	assert.Equal(t, "pending", dune.Reviews[1].Status)
}

func TestLoadFixtures_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing title", "posts:\n  - author: x\n"},
		{"bad status", "posts:\n  - title: x\n    reviews:\n      - name: a\n        status: hidden\n"},
		{"unknown field", "posts:\n  - title: x\n    colour: red\n"},
		{"not yaml", "posts: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFixtures(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFixtures_Empty(t *testing.T) {
	fx, err := LoadFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Posts)
}

func TestImport(t *testing.T) {
	db := setupTestDB(t)
	fx, err := LoadFixtures(strings.NewReader(fixturesYAML))
	require.NoError(t, err)

	res, err := Import(context.Background(), db, fx)
	require.NoError(t, err)
	assert.Equal(t, DemoResult{Posts: 2, Reviews: 2}, res)

	var dune models.Post
	require.NoError(t, db.Where("title = ?", "Dune").First(&dune).Error)
	assert.Equal(t, 2024, dune.CreatedAt.Year())

	var approved []models.Review
	require.NoError(t, db.Where("post_id = ? AND status = ?", dune.ID, "approved").Find(&approved).Error)
	require.Len(t, approved, 1)
	assert.Equal(t, "Ann", approved[0].Name)
	assert.Equal(t, 5, approved[0].Rating)
}
