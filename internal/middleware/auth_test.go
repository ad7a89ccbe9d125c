package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	userID uint
	ok     bool
	err    error
}

func (f fakeSessions) UserID(*fiber.Ctx) (uint, bool, error) {
	return f.userID, f.ok, f.err
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		name           string
		sessions       fakeSessions
		expectedStatus int
		expectRan      bool
	}{
		{"Authenticated", fakeSessions{userID: 7, ok: true}, http.StatusOK, true},
		{"No Session", fakeSessions{}, http.StatusFound, false},
		{"Broken Session", fakeSessions{err: errors.New("storage down")}, http.StatusFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			app := fiber.New()
			app.Post("/admin/post", AdminRequired(tt.sessions), func(c *fiber.Ctx) error {
				ran = true
				assert.Equal(t, tt.sessions.userID, c.Locals("userID"))
				assert.Equal(t, tt.sessions.userID, c.UserContext().Value(UserIDKey))
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/admin/post", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectRan, ran)
			if !tt.expectRan {
				assert.Equal(t, LoginPath, resp.Header.Get("Location"))
			}
		})
	}
}
