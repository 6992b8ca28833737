// Package catalog keeps derived catalog data in sync with product and
// category writes
package catalog

import (
	"github.com/smartstore/Smartstore-sub032/internal/cache"
)

const area = "catalog"

// ProductKey is the cache key of a product's rendered data
func ProductKey(id int64) string {
	return cache.EntityKey(area, "product", id)
}

// ProductListingPattern matches every cached product listing
var ProductListingPattern = cache.Pattern(area, "listing")
