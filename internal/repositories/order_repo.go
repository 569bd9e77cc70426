package repositories

import "permata/internal/models"

// OrderRepository defines the interface for order data access.
//
// NextSequence returns a strictly increasing, collision-free sequence
// number for the given year, safe under concurrent checkout.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByUser(userID, status string, offset, limit int) ([]models.Order, int64, error)
	GetBySeller(sellerID string) ([]models.Order, error)
	Update(order *models.Order) error
	NextSequence(year int) (int64, error)
}
