package repositories

import (
	"errors"
	"fmt"

	"permata/internal/apperrors"
	"permata/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMGemRepository is a GORM implementation of GemRepository.
type GORMGemRepository struct {
	db *gorm.DB
}

// NewGORMGemRepository creates a new instance of GORMGemRepository.
func NewGORMGemRepository(db *gorm.DB) *GORMGemRepository {
	return &GORMGemRepository{
		db: db,
	}
}

// GetAll retrieves gems matching the filter, newest first.
func (r *GORMGemRepository) GetAll(filter GemFilter) ([]models.Gem, error) {
	query := r.db.Order("created_at DESC")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.OnlyAvailable {
		query = query.Where("availability = ?", true)
	}

	var gems []models.Gem
	if err := query.Find(&gems).Error; err != nil {
		return nil, fmt.Errorf("failed to get gems: %w", err)
	}
	return gems, nil
}

// GetByID retrieves a single gem by its ID from the database.
func (r *GORMGemRepository) GetByID(id string) (*models.Gem, error) {
	var gem models.Gem
	if err := r.db.First(&gem, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "gem", ID: id}
		}
		return nil, fmt.Errorf("failed to get gem by ID %s: %w", id, err)
	}
	return &gem, nil
}

// Create creates a new gem in the database.
func (r *GORMGemRepository) Create(gem *models.Gem) error {
	if gem.ID == "" {
		gem.ID = uuid.New().String()
	}
	if err := r.db.Create(gem).Error; err != nil {
		return fmt.Errorf("failed to create gem: %w", err)
	}
	return nil
}

// Update updates an existing gem in the database.
func (r *GORMGemRepository) Update(gem *models.Gem) error {
	res := r.db.Save(gem) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update gem: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperrors.NotFoundError{Resource: "gem", ID: gem.ID}
	}
	return nil
}

// AdjustStock applies delta to the gem's stock in a single conditional
// UPDATE, so concurrent checkouts on the same gem cannot lose updates or
// oversell. Availability is recomputed from the resulting stock in the
// same statement.
func (r *GORMGemRepository) AdjustStock(id string, delta int) (*models.Gem, error) {
	res := r.db.Model(&models.Gem{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"stock":        gorm.Expr("stock + ?", delta),
			"availability": gorm.Expr("stock + ? > 0", delta),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to adjust stock for gem %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the gem is gone or the decrement would underflow.
		gem, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		return nil, &apperrors.InsufficientStockError{
			GemName:   gem.Name,
			Requested: -delta,
			Available: gem.Stock,
		}
	}
	return r.GetByID(id)
}

// Delete deletes a gem by its ID from the database.
func (r *GORMGemRepository) Delete(id string) error {
	res := r.db.Delete(&models.Gem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete gem: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperrors.NotFoundError{Resource: "gem", ID: id}
	}
	return nil
}

// DeleteBySeller removes every listing owned by the seller. Used when a
// seller account is removed.
func (r *GORMGemRepository) DeleteBySeller(sellerID string) error {
	if err := r.db.Delete(&models.Gem{}, "seller_id = ?", sellerID).Error; err != nil {
		return fmt.Errorf("failed to delete gems for seller %s: %w", sellerID, err)
	}
	return nil
}
