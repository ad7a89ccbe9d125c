package session

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	// CookieName is the session cookie set on admin login.
	CookieName = "bookblog_session"
	userIDKey  = "userId"
)

// Config controls session lifetime and storage.
type Config struct {
	// TTL is the idle lifetime of a session; each saved request extends it.
	TTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// Storage holds session data. Nil uses Fiber's in-memory storage.
	Storage fiber.Storage
}

// Manager reads and writes the authenticated admin on a request's session.
type Manager struct {
	store *session.Store
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		store: session.New(session.Config{
			Expiration:     cfg.TTL,
			Storage:        cfg.Storage,
			KeyLookup:      "cookie:" + CookieName,
			CookieSecure:   cfg.Secure,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			KeyGenerator:   uuid.NewString,
		}),
	}
}

// UserID returns the authenticated user on the request's session, if any.
func (m *Manager) UserID(c *fiber.Ctx) (uint, bool, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, false, fmt.Errorf("load session: %w", err)
	}
	raw, ok := sess.Get(userIDKey).(string)
	if !ok || raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return uint(id), true, nil
}

// Login marks the request's session as authenticated for userID. The session
// id is regenerated so a pre-login id cannot be reused.
func (m *Manager) Login(c *fiber.Ctx, userID uint) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}
	sess.Set(userIDKey, strconv.FormatUint(uint64(userID), 10))
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout destroys the request's session and expires its cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// CookieKey derives the cookie encryption key from the configured secret.
// The result is a base64-encoded 32-byte key as expected by encryptcookie.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
