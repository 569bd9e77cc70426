package handlers

import (
	"fmt"

	"permata/internal/middleware"
	"permata/internal/models"
	"permata/internal/repositories"
	"permata/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GemHandler handles HTTP requests for the gem catalog.
type GemHandler struct {
	service  *services.CatalogService
	validate *validator.Validate
}

// NewGemHandler creates a new GemHandler.
func NewGemHandler(service *services.CatalogService) *GemHandler {
	return &GemHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the gem routes. Browsing is public; listing
// management requires an authenticated seller (or admin for moderation).
func (h *GemHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	gemRoutes := router.Group("/gems")
	gemRoutes.Get("/", h.HandleListGems)
	gemRoutes.Get("/my-gems", auth, middleware.RoleRequired(models.RoleSeller), h.HandleMyGems)
	gemRoutes.Get("/:id", h.HandleGetGem)
	gemRoutes.Post("/", auth, middleware.RoleRequired(models.RoleSeller), h.HandleCreateGem)
	gemRoutes.Put("/:id", auth, middleware.RoleRequired(models.RoleSeller, models.RoleAdmin), h.HandleUpdateGem)
	gemRoutes.Delete("/:id", auth, middleware.RoleRequired(models.RoleSeller, models.RoleAdmin), h.HandleDeleteGem)
}

// HandleListGems lists gems, optionally filtered by category, seller, or
// availability.
func (h *GemHandler) HandleListGems(c *fiber.Ctx) error {
	filter := repositories.GemFilter{
		Category:      c.Query("category"),
		SellerID:      c.Query("seller"),
		OnlyAvailable: c.QueryBool("available"),
	}
	gems, err := h.service.GetAllGems(filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(gems),
		"gems":    gems,
	})
}

// HandleMyGems lists the authenticated seller's own listings.
func (h *GemHandler) HandleMyGems(c *fiber.Ctx) error {
	p := principalFrom(c)
	gems, err := h.service.GetGemsBySeller(p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(gems),
		"gems":    gems,
	})
}

// HandleGetGem retrieves a single gem by its ID.
func (h *GemHandler) HandleGetGem(c *fiber.Ctx) error {
	gem, err := h.service.GetGemByID(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"gem":     gem,
	})
}

// HandleCreateGem creates a new listing owned by the authenticated seller.
func (h *GemHandler) HandleCreateGem(c *fiber.Ctx) error {
	var gem models.Gem
	if err := c.BodyParser(&gem); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(gem); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	p := principalFrom(c)
	if err := h.service.CreateGem(p.ID, &gem); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Gem created successfully",
		"gem":     gem,
	})
}

// HandleUpdateGem applies a partial update to a listing.
func (h *GemHandler) HandleUpdateGem(c *fiber.Ctx) error {
	var patch models.GemPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	p := principalFrom(c)
	gem, err := h.service.UpdateGem(c.Params("id"), p.ID, p.IsAdmin(), patch)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Gem updated successfully",
		"gem":     gem,
	})
}

// HandleDeleteGem deletes a listing.
func (h *GemHandler) HandleDeleteGem(c *fiber.Ctx) error {
	p := principalFrom(c)
	if err := h.service.DeleteGem(c.Params("id"), p.ID, p.IsAdmin()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Gem deleted successfully",
	})
}
