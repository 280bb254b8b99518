package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() SearchConfig {
	return SearchConfig{
		TargetBusiness: "Joe's Pizza",
		SearchTerm:     "pizza",
		GridSize:       13,
		RadiusMiles:    5,
		CenterLat:      36.17,
		CenterLng:      -86.78,
	}
}

func TestSearchConfig_Validate(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*SearchConfig)
		errMsg string
	}{
		{"missing term", func(c *SearchConfig) { c.SearchTerm = "" }, "search_term"},
		{"zero grid size", func(c *SearchConfig) { c.GridSize = 0 }, "grid_size"},
		{"grid size over cap", func(c *SearchConfig) { c.GridSize = 26 }, "maximum"},
		{"zero radius", func(c *SearchConfig) { c.RadiusMiles = 0 }, "radius_miles"},
		{"latitude out of range", func(c *SearchConfig) { c.CenterLat = 91 }, "center_lat"},
		{"longitude out of range", func(c *SearchConfig) { c.CenterLng = -200 }, "center_lng"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSearchConfig_ValidateWithoutTarget(t *testing.T) {
	// Market exploration runs have no target business.
	cfg := validConfig()
	cfg.TargetBusiness = ""
	assert.NoError(t, cfg.Validate())
}

func TestSearchConfig_Mode(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, ModeTargeted, cfg.Mode())

	cfg.TargetBusiness = ""
	assert.Equal(t, ModeAllBusinesses, cfg.Mode())
}

func TestSearchConfig_ClampRadius(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 5.0, cfg.ClampRadius())

	cfg.RadiusMiles = 100
	assert.Equal(t, MaxRadiusMiles, cfg.ClampRadius())
}

func TestSearchConfig_LocationString(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "36.17,-86.78", cfg.LocationString())

	cfg.CenterLat, cfg.CenterLng = 0, 0
	cfg.City, cfg.State = "Nashville", "TN"
	assert.Equal(t, "Nashville, TN", cfg.LocationString())
}
