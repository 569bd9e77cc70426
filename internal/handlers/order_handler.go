package handlers

import (
	"fmt"

	"permata/internal/middleware"
	"permata/internal/models"
	"permata/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", middleware.RoleRequired(models.RoleBuyer), h.HandleCreateOrder)
	orderRoutes.Get("/my-orders", middleware.RoleRequired(models.RoleBuyer), h.HandleMyOrders)
	orderRoutes.Get("/seller/orders", middleware.RoleRequired(models.RoleSeller), h.HandleSellerOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Put("/:id/cancel", middleware.RoleRequired(models.RoleBuyer, models.RoleAdmin), h.HandleCancelOrder)
	orderRoutes.Put("/:id/status", middleware.RoleRequired(models.RoleSeller, models.RoleAdmin), h.HandleUpdateStatus)
}

// HandleCreateOrder places an order from the supplied line items, typically
// mirroring the buyer's cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
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
	order, err := h.service.PlaceOrder(p.ID, req)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed successfully",
		"order": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"total_price":  order.TotalPrice,
			"status":       order.Status,
			"created_at":   order.CreatedAt,
		},
	})
}

// HandleMyOrders lists the buyer's orders, newest first.
func (h *OrderHandler) HandleMyOrders(c *fiber.Ctx) error {
	p := principalFrom(c)
	orders, count, err := h.service.ListBuyerOrders(
		p.ID,
		c.Query("status"),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 10),
	)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   count,
		"orders":  orders,
	})
}

// HandleSellerOrders lists orders containing the seller's line items.
func (h *OrderHandler) HandleSellerOrders(c *fiber.Ctx) error {
	p := principalFrom(c)
	orders, err := h.service.ListSellerOrders(p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

// HandleGetOrder retrieves a single order for its buyer, a seller with a
// line item in it, or an admin.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.Params("id"), principalFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// CancelOrderRequest carries an optional cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// HandleCancelOrder cancels an order and restores its stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	var req CancelOrderRequest
	// The body is optional; ignore parse errors for an empty body.
	_ = c.BodyParser(&req)

	if err := h.service.CancelOrder(c.Params("id"), principalFrom(c), req.Reason); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order cancelled successfully",
	})
}

// UpdateStatusRequest is the request body for advancing an order's status.
type UpdateStatusRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	TrackingNumber string `json:"tracking_number"`
}

// HandleUpdateStatus moves an order to a new status.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Valid status is required",
		})
	}

	order, err := h.service.UpdateStatus(c.Params("id"), principalFrom(c), req.Status, req.TrackingNumber)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Order %s status updated successfully to %s", order.OrderNumber, order.Status),
		"order": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
		},
	})
}
