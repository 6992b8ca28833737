// Package domain holds the catalog entities the business hooks observe
package domain

import (
	"reflect"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
)

// Product is a sellable catalog item
type Product struct {
	entity.BaseEntity
	Name                string  `db:"name"`
	Sku                 string  `db:"sku"`
	Price               float64 `db:"price"`
	Published           bool    `db:"published"`
	Deleted             bool    `db:"deleted"`
	HasDiscountsApplied bool    `db:"has_discounts_applied"`
}

// IsDeleted reports whether the product is soft deleted
func (p *Product) IsDeleted() bool {
	return p.Deleted
}

// Category groups products in the storefront menu
type Category struct {
	entity.BaseEntity
	Name      string `db:"name"`
	Slug      string `db:"slug"`
	ParentID  int64  `db:"parent_id"`
	Published bool   `db:"published"`
	Deleted   bool   `db:"deleted"`
}

// IsDeleted reports whether the category is soft deleted
func (c *Category) IsDeleted() bool {
	return c.Deleted
}

// Manufacturer is a product brand
type Manufacturer struct {
	entity.BaseEntity
	Name      string `db:"name"`
	Published bool   `db:"published"`
}

// Discount applies to a single product while active
type Discount struct {
	entity.BaseEntity
	Name      string  `db:"name"`
	ProductID int64   `db:"product_id"`
	Percent   float64 `db:"percent"`
	Active    bool    `db:"active"`
}

// Setting is a key/value store configuration entry
type Setting struct {
	entity.BaseEntity
	Name    string `db:"name"`
	Value   string `db:"value"`
	StoreID int64  `db:"store_id"`
}

// MenuItem is a custom link in a storefront menu
type MenuItem struct {
	entity.BaseEntity
	MenuID int64  `db:"menu_id"`
	Title  string `db:"title"`
	URL    string `db:"url"`
}

// Types returns the entity types of this package
func Types() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf((**Product)(nil)).Elem(),
		reflect.TypeOf((**Category)(nil)).Elem(),
		reflect.TypeOf((**Manufacturer)(nil)).Elem(),
		reflect.TypeOf((**Discount)(nil)).Elem(),
		reflect.TypeOf((**Setting)(nil)).Elem(),
		reflect.TypeOf((**MenuItem)(nil)).Elem(),
	}
}
