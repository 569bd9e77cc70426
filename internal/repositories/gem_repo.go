package repositories

import (
	"permata/internal/models"
)

// GemFilter narrows catalog listing queries.
type GemFilter struct {
	Category      string
	SellerID      string
	OnlyAvailable bool
}

// GemRepository defines the interface for gem listing data access.
//
// AdjustStock is the single mutation the inventory protocol relies on: it
// must apply the delta atomically (no read-modify-write) and fail with
// apperrors.InsufficientStockError when a negative delta would drive stock
// below zero. Availability is recomputed from the resulting stock in the
// same operation.
type GemRepository interface {
	GetAll(filter GemFilter) ([]models.Gem, error)
	GetByID(id string) (*models.Gem, error)
	Create(gem *models.Gem) error
	Update(gem *models.Gem) error
	AdjustStock(id string, delta int) (*models.Gem, error)
	Delete(id string) error
	DeleteBySeller(sellerID string) error
}
