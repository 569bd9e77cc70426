package models

import "gorm.io/gorm"

// CartItem is one line of a buyer's cart. Price is snapshotted from the gem
// at add time; the cart never reserves stock, it is revalidated at checkout.
// The service keeps the (user, gem) pair unique: adding a gem already in the
// cart merges quantities instead of duplicating the row.
type CartItem struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string  `json:"user_id" gorm:"type:varchar(36);index:idx_cart_user_gem" validate:"required"`
	GemID      string  `json:"gem_id" gorm:"type:varchar(36);index:idx_cart_user_gem" validate:"required"`
	Quantity   int     `json:"quantity" validate:"required,gte=1"`
	Price      float64 `json:"price" validate:"gte=0"` // Price at the time the item was added
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
