package repositories

import "permata/internal/models"

// CartRepository defines the interface for cart item data access.
type CartRepository interface {
	GetByUser(userID string) ([]models.CartItem, error)
	GetItem(userID, itemID string) (*models.CartItem, error)
	FindByUserAndGem(userID, gemID string) (*models.CartItem, error)
	Create(item *models.CartItem) error
	Update(item *models.CartItem) error
	Delete(userID, itemID string) error
	Clear(userID string) error
}
