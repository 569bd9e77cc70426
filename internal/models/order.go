package models

import (
	"time"

	"gorm.io/gorm"
)

// Order lifecycle. Forward flow is pending → processing → shipped →
// delivered; cancelled is reachable from pending or processing only.
// Cancelled and delivered are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods. There is no gateway behind either; the label rides along
// with the order.
const (
	PaymentMethodCOD    = "COD"
	PaymentMethodOnline = "Online"
)

// Payment states.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// ValidOrderStatus reports whether s is one of the five order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is embedded into the order at creation and never changes
// afterwards.
type ShippingAddress struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Pincode      string `json:"pincode" validate:"required"`
	Country      string `json:"country" validate:"required"`
}

// OrderItem is one line of an order: a point-in-time snapshot of what was
// bought, at what price, and from which seller. The seller reference is
// copied from the gem at checkout so seller-scoped queries need no join.
type OrderItem struct {
	ID       string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID  string  `json:"order_id" gorm:"type:varchar(36);index"`
	GemID    string  `json:"gem_id" gorm:"type:varchar(36)"`
	GemName  string  `json:"gem_name"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
	Price    float64 `json:"price" validate:"gte=0"` // Price at the time of purchase
	SellerID string  `json:"seller_id" gorm:"type:varchar(36);index"`
}

// Order is the persisted record of a purchase. Items, totals, and the
// shipping address are immutable after creation; only status, payment
// status, and shipping metadata may change.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string          `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	UserID          string          `json:"user_id" gorm:"type:varchar(36);index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   string          `json:"payment_method" gorm:"type:varchar(20)" validate:"required,oneof=COD Online"`
	PaymentStatus   string          `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`
	TotalPrice      float64         `json:"total_price" validate:"gte=0"`
	Status          string          `json:"status" gorm:"type:varchar(20);default:'pending'"`
	TrackingNumber  string          `json:"tracking_number,omitempty" gorm:"type:varchar(100)"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	gorm.Model                      // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// OrderCounter backs order-number generation: one row per year, atomically
// incremented so concurrent checkouts never mint the same sequence.
type OrderCounter struct {
	Year int   `gorm:"primaryKey"`
	Seq  int64 `gorm:"not null;default:0"`
}
