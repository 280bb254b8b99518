package aggregate

import (
	"math"
	"sort"

	"github.com/sells-group/rankgrid/internal/model"
)

// registry accumulates competitor sightings across grid points. Businesses
// are keyed by place ID when the provider supplied one, falling back to the
// exact listing name; name identity is weaker (formatting drift splits
// records) but is all some providers give us.
type registry struct {
	entries map[string]*competitorEntry
	midRow  float64
	midCol  float64
}

type competitorEntry struct {
	rec       model.CompetitorRecord
	totalRank int
}

func newRegistry(gridRows, gridCols int) *registry {
	return &registry{
		entries: make(map[string]*competitorEntry),
		midRow:  float64(gridRows-1) / 2,
		midCol:  float64(gridCols-1) / 2,
	}
}

// observe records one sighting of a business at a grid point. The first
// sighting seeds the record; later ones accumulate rank statistics and fill
// only fields that are still empty, never overwriting populated data.
func (r *registry) observe(p model.GridPoint, b model.BusinessObservation) {
	key := b.PlaceID
	if key == "" {
		key = b.Name
	}

	e, ok := r.entries[key]
	if !ok {
		e = &competitorEntry{
			rec: model.CompetitorRecord{
				Name:      b.Name,
				PlaceID:   b.PlaceID,
				Rating:    b.Rating,
				Reviews:   b.Reviews,
				Address:   b.Address,
				Phone:     b.Phone,
				Lat:       b.Lat,
				Lng:       b.Lng,
				BestRank:  b.Rank,
				WorstRank: b.Rank,
			},
		}
		r.entries[key] = e
	} else {
		if e.rec.Rating == 0 && b.Rating != 0 {
			e.rec.Rating = b.Rating
		}
		if e.rec.Reviews == 0 && b.Reviews != 0 {
			e.rec.Reviews = b.Reviews
		}
		if e.rec.Address == "" && b.Address != "" {
			e.rec.Address = b.Address
		}
		if e.rec.Phone == "" && b.Phone != "" {
			e.rec.Phone = b.Phone
		}
		if e.rec.Lat == 0 && b.Lat != 0 {
			e.rec.Lat = b.Lat
			e.rec.Lng = b.Lng
		}
		if b.Rank < e.rec.BestRank {
			e.rec.BestRank = b.Rank
		}
		if b.Rank > e.rec.WorstRank {
			e.rec.WorstRank = b.Rank
		}
	}

	e.rec.Appearances++
	e.totalRank += b.Rank

	if b.Rank == 1 {
		e.rec.FirstPlaceCount++
	}
	if b.Rank <= 3 {
		e.rec.Top3Count++
	}
	if b.Rank <= 10 {
		e.rec.Top10Count++
	}

	row, col := float64(p.Row), float64(p.Col)
	if row < r.midRow {
		e.rec.NorthAppearances++
	}
	if row > r.midRow {
		e.rec.SouthAppearances++
	}
	if col > r.midCol {
		e.rec.EastAppearances++
	}
	if col < r.midCol {
		e.rec.WestAppearances++
	}
	if math.Abs(row-r.midRow) <= 1 && math.Abs(col-r.midCol) <= 1 {
		e.rec.CenterAppearances++
	}
}

// finalize derives average rank and coverage, then returns the top-k
// competitors by appearances (ties broken by lower average rank, then name)
// along with the total number of unique businesses seen.
func (r *registry) finalize(totalPoints, k int) ([]model.CompetitorRecord, int) {
	recs := make([]model.CompetitorRecord, 0, len(r.entries))
	for _, e := range r.entries {
		rec := e.rec
		rec.AvgRank = round1(float64(e.totalRank) / float64(rec.Appearances))
		rec.Coverage = round1(float64(rec.Appearances) / float64(totalPoints) * 100)
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Appearances != recs[j].Appearances {
			return recs[i].Appearances > recs[j].Appearances
		}
		if recs[i].AvgRank != recs[j].AvgRank {
			return recs[i].AvgRank < recs[j].AvgRank
		}
		return recs[i].Name < recs[j].Name
	})

	unique := len(recs)
	if len(recs) > k {
		recs = recs[:k]
	}
	return recs, unique
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
