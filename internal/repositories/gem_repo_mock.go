package repositories

import (
	"sort"
	"sync"

	"permata/internal/apperrors"
	"permata/internal/models"

	"github.com/google/uuid"
)

// MockGemRepository is an in-memory implementation of GemRepository. The
// mutex makes AdjustStock atomic, so it honors the same no-oversell
// guarantee as the GORM implementation.
type MockGemRepository struct {
	gems map[string]models.Gem
	mu   sync.RWMutex
}

// NewMockGemRepository creates a new instance of MockGemRepository.
func NewMockGemRepository() *MockGemRepository {
	return &MockGemRepository{
		gems: make(map[string]models.Gem),
	}
}

// GetAll returns gems matching the filter, newest first.
func (r *MockGemRepository) GetAll(filter GemFilter) ([]models.Gem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gemList := make([]models.Gem, 0, len(r.gems))
	for _, g := range r.gems {
		if filter.Category != "" && g.Category != filter.Category {
			continue
		}
		if filter.SellerID != "" && g.SellerID != filter.SellerID {
			continue
		}
		if filter.OnlyAvailable && !g.Availability {
			continue
		}
		gemList = append(gemList, g)
	}
	sort.Slice(gemList, func(i, j int) bool {
		return gemList[i].CreatedAt.After(gemList[j].CreatedAt)
	})
	return gemList, nil
}

// GetByID returns a gem by its ID.
func (r *MockGemRepository) GetByID(id string) (*models.Gem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gem, ok := r.gems[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "gem", ID: id}
	}
	return &gem, nil
}

// Create adds a new gem.
func (r *MockGemRepository) Create(gem *models.Gem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gem.ID == "" {
		gem.ID = uuid.New().String()
	}
	r.gems[gem.ID] = *gem
	return nil
}

// Update modifies an existing gem.
func (r *MockGemRepository) Update(gem *models.Gem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.gems[gem.ID]
	if !ok {
		return &apperrors.NotFoundError{Resource: "gem", ID: gem.ID}
	}
	r.gems[gem.ID] = *gem
	return nil
}

// AdjustStock applies delta to the gem's stock under the lock, recomputing
// availability from the result.
func (r *MockGemRepository) AdjustStock(id string, delta int) (*models.Gem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gem, ok := r.gems[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "gem", ID: id}
	}
	if gem.Stock+delta < 0 {
		return nil, &apperrors.InsufficientStockError{
			GemName:   gem.Name,
			Requested: -delta,
			Available: gem.Stock,
		}
	}
	gem.Stock += delta
	gem.Availability = gem.Stock > 0
	r.gems[id] = gem
	return &gem, nil
}

// Delete removes a gem by its ID.
func (r *MockGemRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.gems[id]
	if !ok {
		return &apperrors.NotFoundError{Resource: "gem", ID: id}
	}
	delete(r.gems, id)
	return nil
}

// DeleteBySeller removes every gem owned by the seller.
func (r *MockGemRepository) DeleteBySeller(sellerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, g := range r.gems {
		if g.SellerID == sellerID {
			delete(r.gems, id)
		}
	}
	return nil
}
