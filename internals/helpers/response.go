package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validator bersama, aman dipakai concurrent
var Validate = validator.New()

// BindAndValidate: parse body JSON lalu jalankan tag `validate`.
// Kalau gagal, response sudah ditulis dan ok=false.
func BindAndValidate(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, JsonError(c, fiber.StatusBadRequest, "Body tidak valid: "+err.Error())
	}
	if err := Validate.Struct(out); err != nil {
		return false, ValidationError(c, err)
	}
	return true, nil
}

// ✅ Khusus error validasi (validator.v10)
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, "Invalid input")
	}

	fields := make(map[string][]string, len(ve))
	for _, fieldErr := range ve {
		key := strings.ToLower(fieldErr.Field())
		fields[key] = append(fields[key], fieldErr.Tag())
	}
	return JsonValidationError(c, fields)
}
