package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
)

const testSecret = "rahasia-test"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(authWithSecret(zap.NewNop(), func() string { return testSecret }))
	app.Get("/api/a/finance/ping",
		OnlyRoles(constants.RoleErrorFinance("keuangan"), constants.FinanceRoles...),
		func(c *fiber.Ctx) error { return c.SendString("ok") },
	)
	app.Post("/api/webhooks/midtrans", func(c *fiber.Ctx) error { return c.SendString("hook") })
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp()
	valid := jwt.MapClaims{
		"id":   uuid.NewString(),
		"role": constants.RoleTreasurer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", "GET", "/api/a/finance/ping", "", fiber.StatusUnauthorized},
		{"treasurer allowed", "GET", "/api/a/finance/ping", signToken(t, valid), fiber.StatusOK},
		{"teacher forbidden", "GET", "/api/a/finance/ping", signToken(t, jwt.MapClaims{
			"id": uuid.NewString(), "role": constants.RoleTeacher, "exp": time.Now().Add(time.Hour).Unix(),
		}), fiber.StatusForbidden},
		{"expired", "GET", "/api/a/finance/ping", signToken(t, jwt.MapClaims{
			"id": uuid.NewString(), "role": constants.RoleAdmin, "exp": time.Now().Add(-time.Hour).Unix(),
		}), fiber.StatusUnauthorized},
		{"webhook skips auth", "POST", "/api/webhooks/midtrans", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
