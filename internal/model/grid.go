package model

// NotFoundRank is the reserved rank meaning a business was absent from the
// results at a grid point. Downstream consumers key on the exact value.
const NotFoundRank = 999

// GridPoint is one sampled coordinate in the search lattice. Row 0 is the
// northernmost row, column 0 the westernmost column.
type GridPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Row int     `json:"grid_row"`
	Col int     `json:"grid_col"`
}

// GridIndex returns the flat index of the point for a grid with the given
// number of columns. The same formula is used by providers when reporting
// target appearances, so it must always use the configured dimension.
func (p GridPoint) GridIndex(cols int) int {
	return p.Row*cols + p.Col
}

// BusinessObservation is a single ranked listing seen at one grid point.
type BusinessObservation struct {
	Name         string  `json:"name"`
	PlaceID      string  `json:"place_id,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	Reviews      int     `json:"reviews,omitempty"`
	Address      string  `json:"address,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	BusinessType string  `json:"business_type,omitempty"`
	Lat          float64 `json:"lat,omitempty"`
	Lng          float64 `json:"lng,omitempty"`
	Rank         int     `json:"rank"`
}

// RawPointResult is the provider's outcome for a single grid point.
type RawPointResult struct {
	Point   GridPoint             `json:"point"`
	Success bool                  `json:"success"`
	Results []BusinessObservation `json:"results"`
	Error   string                `json:"error,omitempty"`
}

// TargetObservations is the provider's authoritative record of where the
// tracked business appeared. Appearances holds flat grid indices; Ranks is
// parallel to it. When present it takes precedence over name matching.
type TargetObservations struct {
	Name        string   `json:"name"`
	PlaceID     string   `json:"place_id,omitempty"`
	Appearances []int    `json:"appearances"`
	Ranks       []int    `json:"ranks"`
	Rating      *float64 `json:"rating,omitempty"`
	Reviews     *int     `json:"reviews,omitempty"`
}

// RankAt returns the rank recorded for the given flat grid index, or
// (NotFoundRank, false) when the target was not seen there.
func (t *TargetObservations) RankAt(gridIndex int) (int, bool) {
	for i, idx := range t.Appearances {
		if idx == gridIndex && i < len(t.Ranks) {
			return t.Ranks[i], true
		}
	}
	return NotFoundRank, false
}
