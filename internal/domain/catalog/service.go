// internal/domain/catalog/service.go
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog is the read-only product listing
type Catalog struct {
	products []Product
	byID     map[int]Product
}

type catalogFile struct {
	Products []Product `yaml:"products"`
}

// Load reads a YAML catalog from path, or the built-in one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		products: make([]Product, 0, len(file.Products)),
		byID:     make(map[int]Product, len(file.Products)),
	}

	for i, p := range file.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product #%d: id must be positive", i+1)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product %d: name is required", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %d: duplicate id", p.ID)
		}
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}

	return c, nil
}

// List returns the products in catalog order
func (c *Catalog) List() []Product {
	return append([]Product(nil), c.products...)
}

// Get returns the product with the given id
func (c *Catalog) Get(id int) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Search filters products whose name contains query, case-insensitively
func (c *Catalog) Search(query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.List()
	}

	var matches []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			matches = append(matches, p)
		}
	}
	return matches
}
