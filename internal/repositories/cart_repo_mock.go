package repositories

import (
	"sort"
	"sync"

	"permata/internal/apperrors"
	"permata/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	items map[string]models.CartItem
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		items: make(map[string]models.CartItem),
	}
}

// GetByUser returns the user's cart items, oldest first.
func (r *MockCartRepository) GetByUser(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	itemList := make([]models.CartItem, 0)
	for _, item := range r.items {
		if item.UserID == userID {
			itemList = append(itemList, item)
		}
	}
	sort.Slice(itemList, func(i, j int) bool {
		return itemList[i].CreatedAt.Before(itemList[j].CreatedAt)
	})
	return itemList, nil
}

// GetItem returns a cart item owned by the user.
func (r *MockCartRepository) GetItem(userID, itemID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return nil, &apperrors.NotFoundError{Resource: "cart item", ID: itemID}
	}
	return &item, nil
}

// FindByUserAndGem returns the cart line for a (user, gem) pair if present.
func (r *MockCartRepository) FindByUserAndGem(userID, gemID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.UserID == userID && item.GemID == gemID {
			return &item, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "cart item", ID: gemID}
}

// Create adds a new cart item.
func (r *MockCartRepository) Create(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.ID] = *item
	return nil
}

// Update modifies an existing cart item.
func (r *MockCartRepository) Update(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[item.ID]
	if !ok {
		return &apperrors.NotFoundError{Resource: "cart item", ID: item.ID}
	}
	r.items[item.ID] = *item
	return nil
}

// Delete removes a cart item owned by the user.
func (r *MockCartRepository) Delete(userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return &apperrors.NotFoundError{Resource: "cart item", ID: itemID}
	}
	delete(r.items, itemID)
	return nil
}

// Clear removes all cart items belonging to the user.
func (r *MockCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}
