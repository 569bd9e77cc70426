package services

import (
	"permata/internal/apperrors"
	"permata/internal/models"
	"permata/internal/repositories"

	"github.com/google/uuid"
)

// CartSummary is the buyer-facing view of a cart.
type CartSummary struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice float64           `json:"total_price"`
}

// CartService handles business logic for the buyer's cart. The cart never
// reserves or mutates gem stock; stock is only touched at checkout.
type CartService struct {
	cartRepo repositories.CartRepository
	gemRepo  repositories.GemRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, gemRepo repositories.GemRepository) *CartService {
	return &CartService{
		cartRepo: cartRepo,
		gemRepo:  gemRepo,
	}
}

// AddItem adds a gem to the buyer's cart, snapshotting its current price.
// Adding a gem already in the cart merges quantities instead of creating a
// second line.
func (s *CartService) AddItem(userID, gemID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, &apperrors.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}

	gem, err := s.gemRepo.GetByID(gemID)
	if err != nil {
		return nil, err
	}
	if !gem.Availability || gem.Stock < quantity {
		return nil, &apperrors.UnavailableError{GemName: gem.Name}
	}
	if gem.ContactForPrice || gem.Price == nil {
		return nil, &apperrors.ValidationError{
			Field:   "gem_id",
			Message: "contact-for-price gems cannot be added to the cart",
		}
	}

	existing, err := s.cartRepo.FindByUserAndGem(userID, gemID)
	if err == nil {
		existing.Quantity += quantity
		if err := s.cartRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &models.CartItem{
		ID:       uuid.New().String(),
		UserID:   userID,
		GemID:    gemID,
		Quantity: quantity,
		Price:    *gem.Price,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetCart returns the buyer's cart with totals.
func (s *CartService) GetCart(userID string) (*CartSummary, error) {
	items, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{Items: items}
	for _, item := range items {
		summary.TotalItems += item.Quantity
		summary.TotalPrice += item.Price * float64(item.Quantity)
	}
	return summary, nil
}

// UpdateQuantity sets a cart line to a new quantity after revalidating the
// gem's current stock.
func (s *CartService) UpdateQuantity(userID, itemID string, quantity int) error {
	if quantity < 1 {
		return &apperrors.ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}

	item, err := s.cartRepo.GetItem(userID, itemID)
	if err != nil {
		return err
	}

	gem, err := s.gemRepo.GetByID(item.GemID)
	if err != nil {
		return err
	}
	if !gem.Availability || gem.Stock < quantity {
		return &apperrors.UnavailableError{GemName: gem.Name}
	}

	item.Quantity = quantity
	return s.cartRepo.Update(item)
}

// RemoveItem removes one line from the buyer's cart.
func (s *CartService) RemoveItem(userID, itemID string) error {
	return s.cartRepo.Delete(userID, itemID)
}

// Clear empties the buyer's cart.
func (s *CartService) Clear(userID string) error {
	return s.cartRepo.Clear(userID)
}
