package service

import (
	"testing"

	"bookblog/internal/cache"
	"bookblog/internal/database"
	"bookblog/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testRepos struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	reviews repository.ReviewRepository
}

func setupTestDB(t *testing.T) (*gorm.DB, testRepos) {
	t.Helper()
	cache.SetClient(nil)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	return db, testRepos{
		users:   repository.NewUserRepository(db),
		posts:   repository.NewPostRepository(db),
		reviews: repository.NewReviewRepository(db),
	}
}
