package domain

import "github.com/shopspring/decimal"

// Store is a physical shop listed by the catalog backend.
type Store struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Address      string      `json:"address,omitempty" yaml:"address,omitempty"`
	Location     *Coordinate `json:"location,omitempty" yaml:"location,omitempty"`
	ContactInfo  string      `json:"contact_info,omitempty" yaml:"contact_info,omitempty"`
	OpeningHours string      `json:"opening_hours,omitempty" yaml:"opening_hours,omitempty"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
	ImageLink    string      `json:"image_link,omitempty" yaml:"image_link,omitempty"`
}

// Product is an item sold by exactly one store.
type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	ImageLink   string          `json:"image_link,omitempty" yaml:"image_link,omitempty"`
	StoreID     string          `json:"store_id" yaml:"store_id"`
}

// ProductChanges is a partial product update. Nil fields are left unchanged.
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageLink   *string
	StoreID     *string
}

// IsEmpty reports whether no field is set.
func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Price == nil && c.ImageLink == nil && c.StoreID == nil
}

// JoinedListing pairs a product with its owning store.
type JoinedListing struct {
	Store   Store
	Product Product
}
