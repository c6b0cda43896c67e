package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	msgActorMissing = "Unauthorized: token admin keuangan tidak ada"
	msgActorInvalid = "Unauthorized: token admin keuangan tidak valid"
)

// ActorID mengambil id admin keuangan yang disimpan auth middleware di Locals("user_id").
// Semua kegagalan dianggap 401: token tanpa id yang sah tidak boleh mengubah data keuangan.
func ActorID(c *fiber.Ctx) (uuid.UUID, error) {
	var raw string
	switch v := c.Locals("user_id").(type) {
	case nil:
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, msgActorMissing)
	case uuid.UUID:
		if v == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, msgActorMissing)
		}
		return v, nil
	case string:
		raw = strings.TrimSpace(v)
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, msgActorInvalid)
	}
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, msgActorMissing)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, msgActorInvalid)
	}
	return id, nil
}

// ActorName untuk jejak audit; kosong kalau token tidak membawa user_name.
func ActorName(c *fiber.Ctx) string {
	s, _ := c.Locals("user_name").(string)
	return strings.TrimSpace(s)
}
