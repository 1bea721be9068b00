package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Equities, 20)
	assert.Len(t, c.Crypto, 15)
	assert.Equal(t, "GOLD", c.Commodity.Symbol)
	assert.Equal(t, 30000.0, c.Commodity.Price)
	assert.Len(t, c.Careers, 5)
	assert.Equal(t, 50.0, c.FoodCost)

	tech, ok := byID(c.Careers, "TECH", func(t TrackDef) string { return t.ID })
	require.True(t, ok)
	require.Len(t, tech.Levels, 4)
	for _, track := range c.Careers {
		assert.Zero(t, track.Levels[0].Requires, "career %s entry level", track.ID)
	}
	assert.Equal(t, "Junior Developer", tech.Levels[1].Title)
	assert.Equal(t, 10, tech.Levels[1].Requires.WorkDays)
	assert.Equal(t, 40.0, tech.Levels[1].Requires.Knowledge)

	condo, ok := byID(c.Housing, "CONDO", tierID)
	require.True(t, ok)
	assert.Equal(t, 280.0, condo.DailyCost)

	_, ok = byID(c.Vehicles, "SPACESHIP", tierID)
	assert.False(t, ok)
}

func tierID(t TierDef) string { return t.ID }

func byID[T any](items []T, id string, key func(T) string) (T, bool) {
	for _, it := range items {
		if key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestValidateRejectsBadCatalogs(t *testing.T) {
	base := func() *Catalog {
		c, err := Parse(defaultYAML)
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Catalog)
	}{
		{"duplicate symbol across classes", func(c *Catalog) { c.Crypto[0].Symbol = c.Equities[0].Symbol }},
		{"zero price", func(c *Catalog) { c.Equities[3].Price = 0 }},
		{"volatility out of range", func(c *Catalog) { c.Crypto[2].Volatility = 1.5 }},
		{"commodity outside bounds", func(c *Catalog) { c.Commodity.Price = c.Commodity.Ceiling + 1 }},
		{"track without levels", func(c *Catalog) { c.Careers[0].Levels = nil }},
		{"duplicate track", func(c *Catalog) { c.Careers[1].ID = c.Careers[0].ID }},
		{"duplicate housing", func(c *Catalog) { c.Housing[1].ID = c.Housing[0].ID }},
		{"negative food", func(c *Catalog) { c.FoodCost = -1 }},
		{"entry level with requirements", func(c *Catalog) { c.Careers[2].Levels[0].Requires.Knowledge = 20 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	body := `
equities:
  - {symbol: ACME, name: Acme, sector: tech, price: 10, volatility: 0.1}
crypto:
  - {symbol: COIN, name: Coin, sector: major, price: 2, volatility: 0.3}
commodity: {symbol: GOLD, name: Gold, price: 100, volatility: 0.01, floor: 50, ceiling: 200}
careers:
  - id: ONLY
    name: Only
    levels:
      - {title: Starter, salary: 10}
food_cost: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Equities, 1)
	assert.Equal(t, "ACME", c.Equities[0].Symbol)
	assert.Empty(t, c.Housing)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	def, err := Load("  ")
	require.NoError(t, err)
	assert.Len(t, def.Equities, 20)
}
