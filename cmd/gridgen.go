package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/rankgrid/internal/grid"
	"github.com/sells-group/rankgrid/internal/model"
)

var (
	gridLat    float64
	gridLng    float64
	gridSize   int
	gridRadius float64
)

type gridPreview struct {
	Points       []model.GridPoint `json:"points"`
	RadiusMiles  float64           `json:"radius_miles"`
	Spacing      float64           `json:"spacing_miles"`
	CoverageArea float64           `json:"coverage_area_sq_miles"`
	ZoomLevel    int               `json:"zoom_level"`
	North        float64           `json:"north"`
	South        float64           `json:"south"`
	East         float64           `json:"east"`
	West         float64           `json:"west"`
}

// buildGridPreview applies the same radius cap as a real run before
// generating the lattice.
func buildGridPreview(lat, lng, radius float64, size int) (*gridPreview, error) {
	cfg := model.SearchConfig{RadiusMiles: radius}
	radius = cfg.ClampRadius()

	points, err := grid.Generate(lat, lng, radius, size)
	if err != nil {
		return nil, err
	}

	out := &gridPreview{
		Points:       points,
		RadiusMiles:  radius,
		Spacing:      grid.Spacing(radius, size),
		CoverageArea: grid.CoverageArea(radius),
		ZoomLevel:    grid.ZoomLevel(radius),
	}
	if bounds := grid.Bounds(lat, lng, radius); bounds != nil {
		out.West = bounds.Min(0)
		out.South = bounds.Min(1)
		out.East = bounds.Max(0)
		out.North = bounds.Max(1)
	}
	return out, nil
}

var gridGenCmd = &cobra.Command{
	Use:   "grid-gen",
	Short: "Preview the lattice for a center, radius, and grid size",
	RunE: func(cmd *cobra.Command, args []string) error {
		size := gridSize
		if size == 0 {
			size = cfg.Search.DefaultGridSize
		}
		radius := gridRadius
		if radius == 0 {
			radius = cfg.Search.DefaultRadiusMiles
		}

		out, err := buildGridPreview(gridLat, gridLng, radius, size)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	gridGenCmd.Flags().Float64Var(&gridLat, "lat", 0, "grid center latitude")
	gridGenCmd.Flags().Float64Var(&gridLng, "lng", 0, "grid center longitude")
	gridGenCmd.Flags().IntVar(&gridSize, "grid-size", 0, "lattice dimension N for an NxN grid (default from config)")
	gridGenCmd.Flags().Float64Var(&gridRadius, "radius", 0, "coverage radius in miles, capped at 30 (default from config)")
	rootCmd.AddCommand(gridGenCmd)
}
