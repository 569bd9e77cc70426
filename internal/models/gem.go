package models

import "gorm.io/gorm"

// Units a gem's size/weight may be expressed in.
const (
	SizeUnitCarat = "carat"
	SizeUnitGram  = "gram"
	SizeUnitOunce = "ounce"
	SizeUnitRatti = "ratti"
)

// Gem represents a sellable gemstone listing. Price is a pointer because a
// listing may be offered as "contact for price": exactly one of
// {Price set and > 0} or {ContactForPrice true, Price nil} holds at all
// times. Availability is derived from stock and must never be set by hand;
// the catalog service recomputes it on every stock mutation.
type Gem struct {
	ID              string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name            string   `json:"name" validate:"required,min=2,max=255"`
	HindiName       string   `json:"hindi_name" validate:"required,max=255"`
	Planet          string   `json:"planet" validate:"required,max=100"`
	Color           string   `json:"color" validate:"required,max=100"`
	Description     string   `json:"description" validate:"required"`
	Category        string   `json:"category" validate:"required,max=100"`
	Price           *float64 `json:"price" validate:"omitempty,gt=0"`
	ContactForPrice bool     `json:"contact_for_price"`
	Stock           int      `json:"stock" validate:"gte=0"`
	Availability    bool     `json:"availability"`
	SizeWeight      float64  `json:"size_weight" validate:"required,gt=0"`
	SizeUnit        string   `json:"size_unit" validate:"required,oneof=carat gram ounce ratti"`
	Certification   string   `json:"certification" validate:"required,max=255"`
	Origin          string   `json:"origin" validate:"required,max=255"`
	DeliveryDays    int      `json:"delivery_days" validate:"required,gte=1"`
	HeroImage       string   `json:"hero_image" validate:"required"`
	SellerID        string   `json:"seller_id" gorm:"type:varchar(36);index" validate:"omitempty,uuid"`
	gorm.Model               // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// GemPatch carries a partial update to a listing. Nil fields are left
// untouched. Clearing the price is never requested directly: setting
// ContactForPrice true forces it to null.
type GemPatch struct {
	Name            *string   `json:"name"`
	HindiName       *string   `json:"hindi_name"`
	Planet          *string   `json:"planet"`
	Color           *string   `json:"color"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	Price           *float64  `json:"price"`
	ContactForPrice *bool     `json:"contact_for_price"`
	Stock           *int      `json:"stock"`
	SizeWeight      *float64  `json:"size_weight"`
	SizeUnit        *string   `json:"size_unit"`
	Certification   *string   `json:"certification"`
	Origin          *string   `json:"origin"`
	DeliveryDays    *int      `json:"delivery_days"`
	HeroImage       *string   `json:"hero_image"`
}
