package handlers

import (
	"permata/internal/middleware"
	"permata/internal/models"
	"permata/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the buyer's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes. All cart routes are buyer-only.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth, middleware.RoleRequired(models.RoleBuyer))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/", h.HandleAddItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Put("/:itemId", h.HandleUpdateItem)
	cartRoutes.Delete("/:itemId", h.HandleRemoveItem)
}

// AddCartItemRequest is the request body for adding a gem to the cart.
type AddCartItemRequest struct {
	GemID    string `json:"gem_id"`
	Quantity int    `json:"quantity"`
}

// HandleAddItem adds a gem to the buyer's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	p := principalFrom(c)
	if _, err := h.service.AddItem(p.ID, req.GemID, req.Quantity); err != nil {
		return fail(c, err)
	}

	cart, err := h.service.GetCart(p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item added to cart",
		"cart":    cart,
	})
}

// HandleGetCart returns the buyer's cart with totals.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	p := principalFrom(c)
	cart, err := h.service.GetCart(p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"cart":    cart,
	})
}

// UpdateCartItemRequest is the request body for changing a line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateItem changes the quantity of a cart line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	p := principalFrom(c)
	if err := h.service.UpdateQuantity(p.ID, c.Params("itemId"), req.Quantity); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart item updated",
	})
}

// HandleRemoveItem removes one line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	p := principalFrom(c)
	if err := h.service.RemoveItem(p.ID, c.Params("itemId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item removed from cart",
	})
}

// HandleClearCart empties the buyer's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	p := principalFrom(c)
	if err := h.service.Clear(p.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart cleared",
	})
}
