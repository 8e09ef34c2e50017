package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	products := c.List()
	require.Len(t, products, 8)
	assert.Equal(t, 1, products[0].ID)

	figs, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Fresh Yellow Figs", figs.Name)
	assert.Equal(t, 60.0, figs.PriceValue())

	_, ok = c.Get(99)
	assert.False(t, ok)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - id: 10
    name: Honey
    price: "45.50"
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	honey, ok := c.Get(10)
	require.True(t, ok)
	assert.Equal(t, 45.5, honey.PriceValue())
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := map[string]string{
		"duplicate id":  "products:\n  - {id: 1, name: a, price: '1'}\n  - {id: 1, name: b, price: '2'}\n",
		"missing name":  "products:\n  - {id: 1, price: '1'}\n",
		"non-positive":  "products:\n  - {id: 0, name: a, price: '1'}\n",
		"not yaml list": "products: 12\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestSearch(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Len(t, c.Search("dates"), 4)
	assert.Len(t, c.Search("  FIGS "), 2)
	assert.Len(t, c.Search(""), 8)
	assert.Empty(t, c.Search("durian"))
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 100.0, ParsePrice("100"))
	assert.Equal(t, 12.5, ParsePrice("12.50"))
	assert.Equal(t, 1250.5, ParsePrice("AED 1,250.50"))
	assert.Equal(t, 0.0, ParsePrice(""))
	assert.Equal(t, 0.0, ParsePrice("1.2.3"))
	assert.Equal(t, 0.0, ParsePrice("free"))
}
