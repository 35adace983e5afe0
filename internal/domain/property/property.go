// Package property defines the listing domain model, its lifecycle state
// machine, and the read-time visibility projection.
package property

import (
	"fmt"
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
)

// Category is the market segment of a listing.
type Category string

const (
	CategoryForSale    Category = "for-sale"
	CategoryForRent    Category = "for-rent"
	CategoryOffices    Category = "offices"
	CategoryOfficeRent Category = "office-rent"
	CategoryLand       Category = "land"
)

// ValidCategories is the set of all valid listing categories.
var ValidCategories = map[Category]bool{
	CategoryForSale:    true,
	CategoryForRent:    true,
	CategoryOffices:    true,
	CategoryOfficeRent: true,
	CategoryLand:       true,
}

// Type is the physical kind of property being listed.
type Type string

const (
	TypeApartment Type = "apartment"
	TypeHouse     Type = "house"
	TypeVilla     Type = "villa"
	TypePenthouse Type = "penthouse"
	TypeOffice    Type = "office"
	TypeLand      Type = "land"
	TypeCommercial Type = "commercial"
)

// ValidTypes is the set of all valid property types.
var ValidTypes = map[Type]bool{
	TypeApartment:  true,
	TypeHouse:      true,
	TypeVilla:      true,
	TypePenthouse:  true,
	TypeOffice:     true,
	TypeLand:       true,
	TypeCommercial: true,
}

// Address locates the listed property.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country"`
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Image is one entry of a listing's ordered gallery. PublicID references
// the media store object for deletion.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
	Caption  string `json:"caption,omitempty"`
	IsMain   bool   `json:"is_main"`
}

// ContactDetails carries the owner's contact channel. IsRestricted marks
// the listing as agent-mediated: contact fields are withheld from ordinary
// authenticated viewers.
type ContactDetails struct {
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	IsRestricted bool   `json:"is_restricted"`
}

// Property is one real-estate listing.
type Property struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Address         Address        `json:"address"`
	Location        *GeoPoint      `json:"location,omitempty"`
	Price           float64        `json:"price"`
	Currency        string         `json:"currency"`
	Category        Category       `json:"category"`
	Type            Type           `json:"type"`
	Size            float64        `json:"size,omitempty"`
	Bedrooms        int            `json:"bedrooms,omitempty"`
	Bathrooms       int            `json:"bathrooms,omitempty"`
	Amenities       []string       `json:"amenities,omitempty"`
	Images          []Image        `json:"images,omitempty"`
	Status          Status         `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	IsFeatured      bool           `json:"is_featured"`
	IsPremium       bool           `json:"is_premium"`
	IsGoldCard      bool           `json:"is_gold_card"`
	ContactDetails  ContactDetails `json:"contact_details"`
	OwnerID         string         `json:"owner_id"`
	AgentID         string         `json:"agent_id,omitempty"`
	AgencyID        string         `json:"agency_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ValidateImages enforces the main-image invariant: when any image exists,
// exactly one carries IsMain.
func ValidateImages(images []Image) error {
	if len(images) == 0 {
		return nil
	}
	main := 0
	for _, img := range images {
		if img.URL == "" {
			return fmt.Errorf("%w: image url is required", domain.ErrValidation)
		}
		if img.IsMain {
			main++
		}
	}
	if main != 1 {
		return fmt.Errorf("%w: exactly one image must be marked as main, got %d", domain.ErrValidation, main)
	}
	return nil
}

// CreateRequest is the input for submitting a new listing. Any requested
// status is ignored: new listings always enter review as pending.
type CreateRequest struct {
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Address        Address        `json:"address"`
	Location       *GeoPoint      `json:"location,omitempty"`
	Price          float64        `json:"price"`
	Currency       string         `json:"currency"`
	Category       Category       `json:"category"`
	Type           Type           `json:"type"`
	Size           float64        `json:"size,omitempty"`
	Bedrooms       int            `json:"bedrooms,omitempty"`
	Bathrooms      int            `json:"bathrooms,omitempty"`
	Amenities      []string       `json:"amenities,omitempty"`
	Images         []Image        `json:"images,omitempty"`
	IsFeatured     bool           `json:"is_featured"`
	IsPremium      bool           `json:"is_premium"`
	IsGoldCard     bool           `json:"is_gold_card"`
	ContactDetails ContactDetails `json:"contact_details"`
	AgentID        string         `json:"agent_id,omitempty"`
}

// Validate checks the CreateRequest fields.
func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(r.Title) > 255 {
		return fmt.Errorf("%w: title exceeds 255 characters", domain.ErrValidation)
	}
	if r.Address.City == "" {
		return fmt.Errorf("%w: address city is required", domain.ErrValidation)
	}
	if r.Address.Country == "" {
		return fmt.Errorf("%w: address country is required", domain.ErrValidation)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", domain.ErrValidation)
	}
	if r.Currency == "" {
		return fmt.Errorf("%w: currency is required", domain.ErrValidation)
	}
	if !ValidCategories[r.Category] {
		return fmt.Errorf("%w: invalid category %q", domain.ErrValidation, r.Category)
	}
	if !ValidTypes[r.Type] {
		return fmt.Errorf("%w: invalid type %q", domain.ErrValidation, r.Type)
	}
	if err := ValidateImages(r.Images); err != nil {
		return err
	}
	return nil
}

// UpdateRequest is the patch input for an existing listing. Nil pointers
// leave the corresponding field untouched.
type UpdateRequest struct {
	Title          *string         `json:"title,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Address        *Address        `json:"address,omitempty"`
	Location       *GeoPoint       `json:"location,omitempty"`
	Price          *float64        `json:"price,omitempty"`
	Currency       *string         `json:"currency,omitempty"`
	Category       *Category       `json:"category,omitempty"`
	Type           *Type           `json:"type,omitempty"`
	Size           *float64        `json:"size,omitempty"`
	Bedrooms       *int            `json:"bedrooms,omitempty"`
	Bathrooms      *int            `json:"bathrooms,omitempty"`
	Amenities      []string        `json:"amenities,omitempty"`
	Images         []Image         `json:"images,omitempty"`
	Status         *Status         `json:"status,omitempty"`
	IsFeatured     *bool           `json:"is_featured,omitempty"`
	IsPremium      *bool           `json:"is_premium,omitempty"`
	ContactDetails *ContactDetails `json:"contact_details,omitempty"`
}

// Validate checks the UpdateRequest fields.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
	}
	if r.Title != nil && len(*r.Title) > 255 {
		return fmt.Errorf("%w: title exceeds 255 characters", domain.ErrValidation)
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", domain.ErrValidation)
	}
	if r.Category != nil && !ValidCategories[*r.Category] {
		return fmt.Errorf("%w: invalid category %q", domain.ErrValidation, *r.Category)
	}
	if r.Type != nil && !ValidTypes[*r.Type] {
		return fmt.Errorf("%w: invalid type %q", domain.ErrValidation, *r.Type)
	}
	if r.Images != nil {
		if err := ValidateImages(r.Images); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the patch onto p, excluding status. Status changes go
// through the state machine (ApplyOwnerStatus / ApplyAdminStatus).
func (r *UpdateRequest) Apply(p *Property) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.Location != nil {
		p.Location = r.Location
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Currency != nil {
		p.Currency = *r.Currency
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Type != nil {
		p.Type = *r.Type
	}
	if r.Size != nil {
		p.Size = *r.Size
	}
	if r.Bedrooms != nil {
		p.Bedrooms = *r.Bedrooms
	}
	if r.Bathrooms != nil {
		p.Bathrooms = *r.Bathrooms
	}
	if r.Amenities != nil {
		p.Amenities = r.Amenities
	}
	if r.Images != nil {
		p.Images = r.Images
	}
	if r.IsPremium != nil {
		p.IsPremium = *r.IsPremium
	}
	if r.ContactDetails != nil {
		p.ContactDetails = *r.ContactDetails
	}
}
