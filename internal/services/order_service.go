package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"permata/internal/apperrors"
	"permata/internal/models"
	"permata/internal/repositories"
	"permata/pkg/rabbitmq"

	"github.com/google/uuid"
)

// Tolerated relative drift between the price the client submits (the price
// the buyer saw) and the current listing price. Larger drift fails the
// checkout so a stale or forged price cannot be committed.
const priceTolerance = 0.01

// Principal is the authenticated identity every order operation trusts for
// ownership and role checks.
type Principal struct {
	ID   string
	Role string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// OrderLine is one requested line of a checkout, typically mirroring a
// cart line. Price is the unit price the buyer agreed to.
type OrderLine struct {
	GemID    string  `json:"gem_id" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// PlaceOrderRequest carries everything needed to convert line items into a
// persisted order.
type PlaceOrderRequest struct {
	Items           []OrderLine            `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   string                 `json:"payment_method" validate:"required,oneof=COD Online"`
}

// BuyerOrder is the buyer-facing projection of an order, annotated with the
// expected delivery window of its first item.
type BuyerOrder struct {
	models.Order
	DeliveryDays     int       `json:"delivery_days"`
	ExpectedDelivery time.Time `json:"expected_delivery"`
}

// SellerBuyerInfo identifies the buyer on a seller's view of an order.
type SellerBuyerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SellerOrder is the seller-facing projection of an order: line items are
// filtered down to the seller's own items and the subtotal covers only
// those, so one seller never sees another seller's lines.
type SellerOrder struct {
	OrderID         string                 `json:"order_id"`
	OrderNumber     string                 `json:"order_number"`
	Buyer           SellerBuyerInfo        `json:"buyer"`
	Items           []models.OrderItem     `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	Status          string                 `json:"status"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time              `json:"created_at"`
}

// OrderService owns the order lifecycle and the inventory consistency
// protocol: decrement-on-create, restore-on-cancel, and the status state
// machine.
type OrderService struct {
	orderRepo repositories.OrderRepository
	gemRepo   repositories.GemRepository
	cartRepo  repositories.CartRepository
	userRepo  repositories.UserRepository
	mqClient  *rabbitmq.Client
}

// NewOrderService creates a new OrderService. mqClient may be nil; event
// publication is then skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	gemRepo repositories.GemRepository,
	cartRepo repositories.CartRepository,
	userRepo repositories.UserRepository,
	mqClient *rabbitmq.Client,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		gemRepo:   gemRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		mqClient:  mqClient,
	}
}

// PlaceOrder converts the requested line items into a persisted order.
//
// For each line the gem is validated and its stock atomically decremented;
// if any later step fails, every decrement already applied is rolled back,
// so the checkout either fully succeeds or leaves stock untouched. The
// order snapshots unit prices and seller references at creation time and is
// never re-derived from the catalog afterwards.
func (s *OrderService) PlaceOrder(userID string, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, &apperrors.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodOnline {
		return nil, &apperrors.ValidationError{Field: "payment_method", Message: "valid payment method required"}
	}

	type decrement struct {
		gemID    string
		quantity int
	}
	var applied []decrement

	rollback := func() {
		for _, d := range applied {
			if _, err := s.gemRepo.AdjustStock(d.gemID, d.quantity); err != nil {
				log.Printf("Failed to restore stock for gem %s during checkout rollback: %v", d.gemID, err)
			}
		}
	}

	var (
		orderItems []models.OrderItem
		totalPrice float64
	)
	for _, line := range req.Items {
		if line.Quantity < 1 {
			rollback()
			return nil, &apperrors.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
		}

		gem, err := s.gemRepo.GetByID(line.GemID)
		if err != nil {
			rollback()
			return nil, err
		}
		if !gem.Availability || gem.Stock < line.Quantity {
			rollback()
			return nil, &apperrors.UnavailableError{GemName: gem.Name}
		}
		if gem.ContactForPrice || gem.Price == nil {
			rollback()
			return nil, &apperrors.ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("%s is contact-for-price and cannot be ordered directly", gem.Name),
			}
		}
		if math.Abs(line.Price-*gem.Price) > *gem.Price*priceTolerance {
			rollback()
			return nil, &apperrors.ValidationError{
				Field:   "price",
				Message: fmt.Sprintf("price for %s has changed, please refresh your cart", gem.Name),
			}
		}

		if _, err := s.gemRepo.AdjustStock(gem.ID, -line.Quantity); err != nil {
			rollback()
			return nil, err
		}
		applied = append(applied, decrement{gemID: gem.ID, quantity: line.Quantity})

		orderItems = append(orderItems, models.OrderItem{
			ID:       uuid.New().String(),
			GemID:    gem.ID,
			GemName:  gem.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
			SellerID: gem.SellerID,
		})
		totalPrice += line.Price * float64(line.Quantity)
	}

	year := time.Now().Year()
	seq, err := s.orderRepo.NextSequence(year)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     fmt.Sprintf("ORD-%d-%03d", year, seq),
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		TotalPrice:      totalPrice,
		Status:          models.OrderStatusPending,
	}
	if err := s.orderRepo.Create(order); err != nil {
		rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// The order stands even if the cart cannot be cleared.
	if err := s.cartRepo.Clear(userID); err != nil {
		log.Printf("Warning: failed to clear cart for user %s after order %s: %v", userID, order.OrderNumber, err)
	}

	s.publishEvent("order.created", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      order.UserID,
		"status":      order.Status,
		"total":       order.TotalPrice,
	})

	return order, nil
}

// GetOrder retrieves a single order if the principal is its buyer, a seller
// with a line item in it, or an admin.
func (s *OrderService) GetOrder(orderID string, p Principal) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != p.ID && !s.sellerOnOrder(order, p.ID) && !p.IsAdmin() {
		return nil, &apperrors.AuthorizationError{Message: "not authorized to view this order"}
	}
	return order, nil
}

// ListBuyerOrders returns the buyer's orders newest first, optionally
// filtered by status, with an expected delivery date derived from the first
// item's gem.
func (s *OrderService) ListBuyerOrders(userID, status string, page, limit int) ([]BuyerOrder, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	orders, count, err := s.orderRepo.GetByUser(userID, status, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]BuyerOrder, 0, len(orders))
	for _, order := range orders {
		deliveryDays := 7
		if len(order.Items) > 0 {
			if gem, err := s.gemRepo.GetByID(order.Items[0].GemID); err == nil {
				deliveryDays = gem.DeliveryDays
			}
		}
		views = append(views, BuyerOrder{
			Order:            order,
			DeliveryDays:     deliveryDays,
			ExpectedDelivery: order.CreatedAt.AddDate(0, 0, deliveryDays),
		})
	}
	return views, count, nil
}

// ListSellerOrders returns every order containing the seller's line items,
// projected down to only those items and their subtotal.
func (s *OrderService) ListSellerOrders(sellerID string) ([]SellerOrder, error) {
	orders, err := s.orderRepo.GetBySeller(sellerID)
	if err != nil {
		return nil, err
	}

	views := make([]SellerOrder, 0, len(orders))
	for _, order := range orders {
		var (
			items    []models.OrderItem
			subtotal float64
		)
		for _, item := range order.Items {
			if item.SellerID == sellerID {
				items = append(items, item)
				subtotal += item.Price * float64(item.Quantity)
			}
		}
		if len(items) == 0 {
			continue
		}

		buyer := SellerBuyerInfo{ID: order.UserID, Phone: order.ShippingAddress.Phone}
		if user, err := s.userRepo.GetByID(order.UserID); err == nil {
			buyer.Name = user.Username
			buyer.Email = user.Email
			if user.Phone != "" {
				buyer.Phone = user.Phone
			}
		}

		views = append(views, SellerOrder{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Buyer:           buyer,
			Items:           items,
			Subtotal:        subtotal,
			Status:          order.Status,
			ShippingAddress: order.ShippingAddress,
			CreatedAt:       order.CreatedAt,
		})
	}
	return views, nil
}

// CancelOrder cancels an order on behalf of its buyer (or an admin) and
// restores stock for every line item. Orders already shipped, delivered,
// or cancelled cannot be cancelled. Restoration of a line whose gem has
// been deleted is skipped rather than failing the cancellation.
func (s *OrderService) CancelOrder(orderID string, p Principal, reason string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order.UserID != p.ID && !p.IsAdmin() {
		return &apperrors.AuthorizationError{Message: "not authorized to cancel this order"}
	}

	switch order.Status {
	case models.OrderStatusShipped, models.OrderStatusDelivered:
		return &apperrors.InvalidStateError{Message: "cannot cancel an order that has been shipped or delivered"}
	case models.OrderStatusCancelled:
		return &apperrors.InvalidStateError{Message: "order is already cancelled"}
	}

	for _, item := range order.Items {
		if _, err := s.gemRepo.AdjustStock(item.GemID, item.Quantity); err != nil {
			var notFound *apperrors.NotFoundError
			if errors.As(err, &notFound) {
				// Gem deleted since purchase; nothing to restore.
				continue
			}
			return fmt.Errorf("failed to restore stock for gem %s: %w", item.GemID, err)
		}
	}

	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelReason = reason
	order.CancelledAt = &now
	if err := s.orderRepo.Update(order); err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	s.publishEvent("order.cancelled", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      order.UserID,
		"reason":      reason,
	})
	return nil
}

// UpdateStatus moves an order to a new status on behalf of a seller with a
// line item in the order, or an admin. Moving to shipped requires a
// tracking number. Skipping intermediate states is allowed.
func (s *OrderService) UpdateStatus(orderID string, p Principal, status, trackingNumber string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, &apperrors.ValidationError{Field: "status", Message: fmt.Sprintf("invalid order status: %s", status)}
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !s.sellerOnOrder(order, p.ID) {
		return nil, &apperrors.AuthorizationError{Message: "not authorized to update this order"}
	}
	if status == models.OrderStatusShipped && trackingNumber == "" {
		return nil, &apperrors.ValidationError{
			Field:   "tracking_number",
			Message: "tracking number is required when marking an order shipped",
		}
	}

	order.Status = status
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	s.publishEvent("order.status_updated", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
	})
	return order, nil
}

// sellerOnOrder reports whether the seller owns at least one line item.
func (s *OrderService) sellerOnOrder(order *models.Order, sellerID string) bool {
	for _, item := range order.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (s *OrderService) publishEvent(eventType string, payload map[string]interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishOrderEvent(eventType, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
