// internal/domain/catalog/entity.go
package catalog

import (
	"strconv"
	"strings"
)

// Product is an immutable catalog entry. Price is kept as the decimal
// string the catalog was authored with.
type Product struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Price string `json:"price" yaml:"price"`
	Image string `json:"image,omitempty" yaml:"image"`
	Desc  string `json:"desc,omitempty" yaml:"desc"`
}

// PriceValue returns the numeric price
func (p Product) PriceValue() float64 {
	return ParsePrice(p.Price)
}

// ParsePrice keeps only digits and dots before parsing, so "AED 1,250.50"
// reads as 1250.5. Anything unparseable is 0.
func ParsePrice(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}
