// Package handlers exposes the HTTP surface. Every response uses the
// {success, message, ...} envelope; business errors are translated to HTTP
// status codes via the apperrors taxonomy.
package handlers

import (
	"log"

	"permata/internal/apperrors"
	"permata/internal/services"

	"github.com/gofiber/fiber/v2"
)

// principalFrom builds the authenticated principal from the locals set by
// the auth middleware.
func principalFrom(c *fiber.Ctx) services.Principal {
	id, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	return services.Principal{ID: id, Role: role}
}

// fail writes the error envelope with the status mapped from the error
// type. Unclassified errors are logged and masked with a generic message.
func fail(c *fiber.Ctx, err error) error {
	code := apperrors.StatusCode(err)
	message := err.Error()
	if code == fiber.StatusInternalServerError {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		message = "Server error"
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
