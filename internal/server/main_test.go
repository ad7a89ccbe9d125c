package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bookblog/internal/cache"
	"bookblog/internal/config"
	"bookblog/internal/database"
	"bookblog/internal/models"
	"bookblog/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin123"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             "4100",
		Env:              "test",
		DBDriver:         "sqlite",
		DBPath:           ":memory:",
		DBConnectTimeout: time.Second,
		SessionSecret:    "test-secret",
		SessionTTL:       time.Hour,
		AdminEmail:       testAdminEmail,
		AdminPassword:    testAdminPassword,
	}
}

// setupTestServer returns a server over a migrated in-memory database seeded
// with one admin.
func setupTestServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Email: testAdminEmail, PasswordHash: string(hash), IsAdmin: true}).Error)

	srv, err := NewServer(testConfig(), database.NewStoreWithDB(db), nil)
	require.NoError(t, err)
	return srv.App(), db
}

func doRequest(t *testing.T, app *fiber.App, method, path string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// loginAdmin logs in with the seeded admin and returns the session cookie.
func loginAdmin(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/admin/login", url.Values{
		"email":    {testAdminEmail},
		"password": {testAdminPassword},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}
