// internal/domain/cart/entity.go
package cart

import "github.com/elegant-store/storefront/internal/domain/catalog"

// StorageKey is the durable storage key holding the serialized cart
const StorageKey = "elegant_store_cart_v1"

// Line is a catalog product with the quantity selected
type Line struct {
	catalog.Product
	Qty int `json:"qty"`
}

// Value is the line's price times its quantity
func (l Line) Value() float64 {
	return l.PriceValue() * float64(l.Qty)
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int     `json:"item_count"`     // Number of distinct products
	TotalQuantity int     `json:"total_quantity"` // Sum of all quantities
	SubTotal      float64 `json:"sub_total"`      // Rounded to cents
}
