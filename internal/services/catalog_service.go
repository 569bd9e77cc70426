package services

import (
	"permata/internal/apperrors"
	"permata/internal/models"
	"permata/internal/repositories"
)

// CatalogService handles business logic for gem listings. It owns the
// price/contact-for-price exclusivity invariant and the availability
// recompute on stock changes.
type CatalogService struct {
	repo repositories.GemRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.GemRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// GetAllGems retrieves gems matching the filter.
func (s *CatalogService) GetAllGems(filter repositories.GemFilter) ([]models.Gem, error) {
	return s.repo.GetAll(filter)
}

// GetGemByID retrieves a single gem by its ID.
func (s *CatalogService) GetGemByID(id string) (*models.Gem, error) {
	return s.repo.GetByID(id)
}

// GetGemsBySeller retrieves all listings owned by the seller.
func (s *CatalogService) GetGemsBySeller(sellerID string) ([]models.Gem, error) {
	return s.repo.GetAll(repositories.GemFilter{SellerID: sellerID})
}

// CreateGem creates a new listing for the seller. Availability is derived
// from stock; a contact-for-price listing has its price forced to null.
func (s *CatalogService) CreateGem(sellerID string, gem *models.Gem) error {
	gem.SellerID = sellerID

	if gem.ContactForPrice {
		gem.Price = nil
	} else if gem.Price == nil || *gem.Price <= 0 {
		return &apperrors.ValidationError{
			Field:   "price",
			Message: "price is required and must be > 0 when contact_for_price is false",
		}
	}
	if gem.Stock < 0 {
		return &apperrors.ValidationError{Field: "stock", Message: "stock cannot be negative"}
	}

	gem.Availability = gem.Stock > 0
	return s.repo.Create(gem)
}

// UpdateGem applies a partial update to a listing on behalf of the seller
// (or an admin). Any patch touching price or contact_for_price re-validates
// their exclusivity; any patch touching stock recomputes availability.
func (s *CatalogService) UpdateGem(id, requesterID string, isAdmin bool, patch models.GemPatch) (*models.Gem, error) {
	gem, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if gem.SellerID != requesterID && !isAdmin {
		return nil, &apperrors.AuthorizationError{Message: "not authorized to update this gem"}
	}

	applyGemPatch(gem, patch)

	if patch.ContactForPrice != nil {
		if *patch.ContactForPrice {
			gem.ContactForPrice = true
			gem.Price = nil
		} else {
			gem.ContactForPrice = false
			if patch.Price != nil {
				gem.Price = patch.Price
			}
			if gem.Price == nil || *gem.Price <= 0 {
				return nil, &apperrors.ValidationError{
					Field:   "price",
					Message: "price is required and must be > 0 when contact_for_price is false",
				}
			}
		}
	} else if patch.Price != nil {
		if gem.ContactForPrice {
			return nil, &apperrors.ValidationError{
				Field:   "price",
				Message: "price cannot be set while contact_for_price is true",
			}
		}
		if *patch.Price <= 0 {
			return nil, &apperrors.ValidationError{Field: "price", Message: "price must be > 0"}
		}
		gem.Price = patch.Price
	}

	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, &apperrors.ValidationError{Field: "stock", Message: "stock cannot be negative"}
		}
		gem.Stock = *patch.Stock
		gem.Availability = gem.Stock > 0
	}

	if err := s.repo.Update(gem); err != nil {
		return nil, err
	}
	return gem, nil
}

// applyGemPatch copies the descriptive (non-invariant-bearing) fields of
// the patch onto the gem.
func applyGemPatch(gem *models.Gem, patch models.GemPatch) {
	if patch.Name != nil {
		gem.Name = *patch.Name
	}
	if patch.HindiName != nil {
		gem.HindiName = *patch.HindiName
	}
	if patch.Planet != nil {
		gem.Planet = *patch.Planet
	}
	if patch.Color != nil {
		gem.Color = *patch.Color
	}
	if patch.Description != nil {
		gem.Description = *patch.Description
	}
	if patch.Category != nil {
		gem.Category = *patch.Category
	}
	if patch.SizeWeight != nil {
		gem.SizeWeight = *patch.SizeWeight
	}
	if patch.SizeUnit != nil {
		gem.SizeUnit = *patch.SizeUnit
	}
	if patch.Certification != nil {
		gem.Certification = *patch.Certification
	}
	if patch.Origin != nil {
		gem.Origin = *patch.Origin
	}
	if patch.DeliveryDays != nil {
		gem.DeliveryDays = *patch.DeliveryDays
	}
	if patch.HeroImage != nil {
		gem.HeroImage = *patch.HeroImage
	}
}

// AdjustStock atomically applies a stock delta and returns the updated gem.
func (s *CatalogService) AdjustStock(id string, delta int) (*models.Gem, error) {
	return s.repo.AdjustStock(id, delta)
}

// DeleteGem deletes a listing owned by the requester (or any listing for an
// admin).
func (s *CatalogService) DeleteGem(id, requesterID string, isAdmin bool) error {
	gem, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if gem.SellerID != requesterID && !isAdmin {
		return &apperrors.AuthorizationError{Message: "not authorized to delete this gem"}
	}
	return s.repo.Delete(id)
}

// DeleteAllForSeller removes every listing owned by the seller.
func (s *CatalogService) DeleteAllForSeller(sellerID string) error {
	return s.repo.DeleteBySeller(sellerID)
}
