package helper

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorID(t *testing.T) {
	admin := uuid.New()

	tests := []struct {
		name    string
		local   any
		want    int
		wantMsg string
	}{
		{"string id from token", admin.String(), fiber.StatusOK, admin.String()},
		{"uuid id", admin, fiber.StatusOK, admin.String()},
		{"not logged in", nil, fiber.StatusUnauthorized, msgActorMissing},
		{"blank id", "  ", fiber.StatusUnauthorized, msgActorMissing},
		{"garbage id", "bukan-uuid", fiber.StatusUnauthorized, msgActorInvalid},
		{"nil uuid string", uuid.Nil.String(), fiber.StatusUnauthorized, msgActorInvalid},
		{"wrong type", 42, fiber.StatusUnauthorized, msgActorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/who", func(c *fiber.Ctx) error {
				if tt.local != nil {
					c.Locals("user_id", tt.local)
				}
				id, err := ActorID(c)
				if err != nil {
					return FromError(c, err)
				}
				return c.SendString(id.String())
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/who", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.wantMsg)
		})
	}
}
