package repositories

import (
	"errors"
	"fmt"

	"permata/internal/apperrors"
	"permata/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order together with its line items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves the buyer's orders newest first, optionally filtered
// by status, along with the total matching count for pagination.
func (r *GORMOrderRepository) GetByUser(userID, status string, offset, limit int) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders for user %s: %w", userID, err)
	}

	var orders []models.Order
	if err := query.Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, count, nil
}

// GetBySeller retrieves every order containing at least one line item owned
// by the seller, newest first. Line items are returned unfiltered; the
// service layer projects them down to the seller's own items.
func (r *GORMOrderRepository) GetBySeller(sellerID string) ([]models.Order, error) {
	sub := r.db.Model(&models.OrderItem{}).Select("order_id").Where("seller_id = ?", sellerID)

	var orders []models.Order
	if err := r.db.Preload("Items").Where("id IN (?)", sub).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for seller %s: %w", sellerID, err)
	}
	return orders, nil
}

// Update persists changes to an order's mutable fields. Line items are
// never rewritten.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	res := r.db.Omit("Items").Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperrors.NotFoundError{Resource: "order", ID: order.ID}
	}
	return nil
}

// NextSequence atomically increments and returns the order sequence for the
// year. The insert-or-ignore plus in-place increment keeps concurrent
// checkouts from ever minting the same number.
func (r *GORMOrderRepository) NextSequence(year int) (int64, error) {
	var seq int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.OrderCounter{Year: year, Seq: 0}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderCounter{}).Where("year = ?", year).
			Update("seq", gorm.Expr("seq + 1")).Error; err != nil {
			return err
		}
		var counter models.OrderCounter
		if err := tx.First(&counter, "year = ?", year).Error; err != nil {
			return err
		}
		seq = counter.Seq
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to advance order sequence for %d: %w", year, err)
	}
	return seq, nil
}
