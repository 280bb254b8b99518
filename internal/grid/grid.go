// Package grid generates the square lattice of sample coordinates for a
// grid search run and converts between radius, spacing, and map zoom.
package grid

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/rankgrid/internal/model"
)

// MilesPerDegreeLat is the approximate north-south extent of one degree of
// latitude. Longitude degrees shrink by cos(latitude).
const MilesPerDegreeLat = 69.0

// maxCenterLat bounds the center latitude; beyond it the longitude
// correction factor degenerates and step sizes blow up.
const maxCenterLat = 85.0

func milesPerDegreeLng(lat float64) float64 {
	return math.Cos(lat*math.Pi/180) * MilesPerDegreeLat
}

// Generate returns gridSize x gridSize points covering the bounding box of
// radiusMiles around the center. Row 0 is the northernmost row and column 0
// the westernmost column; points are emitted row-major so that
// GridPoint.GridIndex(gridSize) walks the slice in order.
func Generate(centerLat, centerLng, radiusMiles float64, gridSize int) ([]model.GridPoint, error) {
	if gridSize <= 0 {
		return nil, eris.Errorf("grid: grid size must be positive, got %d", gridSize)
	}
	if radiusMiles <= 0 {
		return nil, eris.Errorf("grid: radius must be positive, got %g miles", radiusMiles)
	}
	if math.Abs(centerLat) > maxCenterLat {
		return nil, eris.Errorf("grid: center latitude %g out of range [-%g, %g]", centerLat, maxCenterLat, maxCenterLat)
	}
	if centerLng < -180 || centerLng > 180 {
		return nil, eris.Errorf("grid: center longitude %g out of range [-180, 180]", centerLng)
	}

	mpdLng := milesPerDegreeLng(centerLat)

	denom := float64(gridSize - 1)
	if denom < 1 {
		denom = 1
	}
	stepLat := (radiusMiles * 2) / denom / MilesPerDegreeLat
	stepLng := (radiusMiles * 2) / denom / mpdLng

	startLat := centerLat + radiusMiles/MilesPerDegreeLat
	startLng := centerLng - radiusMiles/mpdLng

	points := make([]model.GridPoint, 0, gridSize*gridSize)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			points = append(points, model.GridPoint{
				Lat: round6(startLat - float64(row)*stepLat),
				Lng: round6(startLng + float64(col)*stepLng),
				Row: row,
				Col: col,
			})
		}
	}
	return points, nil
}

// Bounds returns the lattice bounding box (lng/lat order) for the given
// center and radius.
func Bounds(centerLat, centerLng, radiusMiles float64) *geom.Bounds {
	dLat := radiusMiles / MilesPerDegreeLat
	dLng := radiusMiles / milesPerDegreeLng(centerLat)
	return geom.NewBounds(geom.XY).Set(
		centerLng-dLng, centerLat-dLat,
		centerLng+dLng, centerLat+dLat,
	)
}

// Spacing returns the distance in miles between adjacent grid points.
func Spacing(radiusMiles float64, gridSize int) float64 {
	denom := float64(gridSize - 1)
	if denom < 1 {
		denom = 1
	}
	return round2(radiusMiles * 2 / denom)
}

// SpacingToRadius converts point spacing back to the half-span radius.
func SpacingToRadius(spacingMiles float64, gridSize int) float64 {
	denom := float64(gridSize - 1)
	if denom < 1 {
		denom = 1
	}
	return spacingMiles * denom / 2
}

// CoverageArea returns the covered square area in square miles.
func CoverageArea(radiusMiles float64) float64 {
	side := radiusMiles * 2
	return math.Round(side * side)
}

// ZoomLevel picks a map zoom that fits the given radius.
func ZoomLevel(radiusMiles float64) int {
	switch {
	case radiusMiles <= 2:
		return 14
	case radiusMiles <= 3:
		return 13
	case radiusMiles <= 5:
		return 12
	case radiusMiles <= 7:
		return 11
	case radiusMiles <= 10:
		return 10
	default:
		return 9
	}
}

// MilesToMeters converts miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * 1609.34
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
