package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// MaxRadiusMiles caps the search radius before grid generation. This is a
// cost bound against runaway provider usage, not a constraint of the math.
const MaxRadiusMiles = 30.0

// MaxGridSize bounds the lattice dimension a single run may request.
const MaxGridSize = 25

// SearchMode distinguishes targeted runs from open market exploration.
type SearchMode string

const (
	ModeTargeted      SearchMode = "targeted"
	ModeAllBusinesses SearchMode = "all_businesses"
)

// SearchConfig is the input contract for one grid search run. Field names
// match the provider's expected config document.
type SearchConfig struct {
	TargetBusiness string  `json:"target_business,omitempty"`
	TargetPlaceID  string  `json:"target_place_id,omitempty"`
	Location       string  `json:"location"`
	SearchTerm     string  `json:"search_term"`
	GridSize       int     `json:"grid_size"`
	RadiusMiles    float64 `json:"radius_miles"`
	CenterLat      float64 `json:"center_lat"`
	CenterLng      float64 `json:"center_lng"`
	City           string  `json:"city,omitempty"`
	State          string  `json:"state,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
	Silent         bool    `json:"silent,omitempty"`
	Headless       bool    `json:"headless,omitempty"`
}

// Mode reports whether the run tracks a specific business.
func (c *SearchConfig) Mode() SearchMode {
	if c.TargetBusiness != "" {
		return ModeTargeted
	}
	return ModeAllBusinesses
}

// Validate checks the configuration before any provider work is attempted.
func (c *SearchConfig) Validate() error {
	if c.SearchTerm == "" {
		return eris.New("config: search_term is required")
	}
	if c.GridSize <= 0 {
		return eris.Errorf("config: grid_size must be positive, got %d", c.GridSize)
	}
	if c.GridSize > MaxGridSize {
		return eris.Errorf("config: grid_size %d exceeds maximum %d", c.GridSize, MaxGridSize)
	}
	if c.RadiusMiles <= 0 {
		return eris.Errorf("config: radius_miles must be positive, got %g", c.RadiusMiles)
	}
	if c.CenterLat < -90 || c.CenterLat > 90 {
		return eris.Errorf("config: center_lat %g out of range [-90, 90]", c.CenterLat)
	}
	if c.CenterLng < -180 || c.CenterLng > 180 {
		return eris.Errorf("config: center_lng %g out of range [-180, 180]", c.CenterLng)
	}
	return nil
}

// ClampRadius returns the radius bounded by MaxRadiusMiles.
func (c *SearchConfig) ClampRadius() float64 {
	if c.RadiusMiles > MaxRadiusMiles {
		return MaxRadiusMiles
	}
	return c.RadiusMiles
}

// LocationString renders the provider location field: coordinates when
// available, otherwise "city, state".
func (c *SearchConfig) LocationString() string {
	if c.CenterLat != 0 || c.CenterLng != 0 {
		return fmt.Sprintf("%g,%g", c.CenterLat, c.CenterLng)
	}
	return fmt.Sprintf("%s, %s", c.City, c.State)
}
