package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
)

// gridResults builds a fully successful size x size run where every point
// returns the given listings.
func gridResults(size int, listings []model.BusinessObservation) []model.RawPointResult {
	if listings == nil {
		listings = []model.BusinessObservation{}
	}
	raw := make([]model.RawPointResult, 0, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			raw = append(raw, model.RawPointResult{
				Point:   model.GridPoint{Lat: 36.0 + float64(row)*0.01, Lng: -86.0 + float64(col)*0.01, Row: row, Col: col},
				Success: true,
				Results: listings,
			})
		}
	}
	return raw
}

func TestAggregate_TargetObservations(t *testing.T) {
	// Target seen at 3 of 9 points with ranks 2, 1, 3.
	res, err := Aggregate(Params{
		RawResults: gridResults(3, []model.BusinessObservation{
			{Name: "Maria's Pizza", PlaceID: "m1", Rank: 1},
		}),
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		TargetObs: &model.TargetObservations{
			Name:        "Joe's Pizza",
			Appearances: []int{0, 4, 8},
			Ranks:       []int{2, 1, 3},
		},
		GridRows: 3,
		GridCols: 3,
	})
	require.NoError(t, err)

	target := res.TargetBusiness
	require.NotNil(t, target)
	assert.Equal(t, 3, target.PointsFound)
	assert.Equal(t, 9, target.TotalPoints)
	assert.Equal(t, 33.3, target.Coverage)
	assert.Equal(t, 2.0, target.AvgRank)
	assert.Equal(t, 1, target.BestRank)
	assert.Equal(t, 3, target.WorstRank)

	// Per-point ranks follow the flat-index appearances.
	require.Len(t, res.GridPoints, 9)
	assert.Equal(t, 2, res.GridPoints[0].TargetRank)
	assert.Equal(t, model.NotFoundRank, res.GridPoints[1].TargetRank)
	assert.Equal(t, 1, res.GridPoints[4].TargetRank)
	assert.Equal(t, 3, res.GridPoints[8].TargetRank)

	assert.Equal(t, 100.0, res.Summary.SuccessRate)
}

func TestAggregate_EmptyInput(t *testing.T) {
	res, err := Aggregate(Params{
		SearchTerm: "pizza",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)

	assert.Empty(t, res.GridPoints)
	assert.Empty(t, res.Competitors)
	assert.Nil(t, res.TargetBusiness)
	assert.Equal(t, 0.0, res.Summary.SuccessRate)
	assert.Equal(t, 0, res.Summary.TotalUniqueBusinesses)
}

func TestAggregate_InvalidDimensions(t *testing.T) {
	_, err := Aggregate(Params{GridRows: 0, GridCols: 3})
	assert.Error(t, err)

	_, err = Aggregate(Params{GridRows: 3, GridCols: -1})
	assert.Error(t, err)
}

func TestAggregate_SkipsMalformedAndOutOfRange(t *testing.T) {
	raw := gridResults(3, []model.BusinessObservation{{Name: "Maria's Pizza", Rank: 1}})
	// Success without a results list and a point outside the grid both
	// get dropped without failing the run.
	raw = append(raw,
		model.RawPointResult{Point: model.GridPoint{Row: 0, Col: 0}, Success: true, Results: nil},
		model.RawPointResult{Point: model.GridPoint{Row: 5, Col: 0}, Success: true, Results: []model.BusinessObservation{}},
	)

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)
	assert.Len(t, res.GridPoints, 9)
	assert.Equal(t, 100.0, res.Summary.SuccessRate)
}

func TestAggregate_FailedPointsReduceSuccessRate(t *testing.T) {
	raw := gridResults(3, []model.BusinessObservation{{Name: "Maria's Pizza", Rank: 1}})
	raw[0].Success = false
	raw[0].Results = nil
	raw[0].Error = "timeout"

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)

	assert.Len(t, res.GridPoints, 8)
	// The denominator stays the full configured lattice.
	assert.Equal(t, 88.9, res.Summary.SuccessRate)
}

func TestAggregate_NameFallback(t *testing.T) {
	raw := gridResults(2, []model.BusinessObservation{
		{Name: "Maria's Pizza", Rank: 1},
		{Name: "Joe's Pizza & Pasta", Rank: 2},
	})

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		GridRows:   2,
		GridCols:   2,
	})
	require.NoError(t, err)

	for _, gp := range res.GridPoints {
		assert.Equal(t, 2, gp.TargetRank)
	}
	require.NotNil(t, res.TargetBusiness)
	assert.Equal(t, 4, res.TargetBusiness.PointsFound)
	assert.Equal(t, 100.0, res.TargetBusiness.Coverage)
	assert.Equal(t, 2.0, res.TargetBusiness.AvgRank)
}

func TestAggregate_TargetNeverFound(t *testing.T) {
	// Every point succeeded but the target matched nowhere: the summary
	// still exists, with zero coverage and all ranks at the sentinel.
	res, err := Aggregate(Params{
		RawResults: gridResults(3, []model.BusinessObservation{
			{Name: "Maria's Pizza", PlaceID: "m1", Rank: 1},
		}),
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)

	target := res.TargetBusiness
	require.NotNil(t, target)
	assert.Equal(t, 0, target.PointsFound)
	assert.Equal(t, 9, target.TotalPoints)
	assert.Equal(t, 0.0, target.Coverage)
	assert.Equal(t, float64(model.NotFoundRank), target.AvgRank)
	assert.Equal(t, model.NotFoundRank, target.BestRank)
	assert.Equal(t, model.NotFoundRank, target.WorstRank)
	assert.Nil(t, target.Rating)
	assert.Nil(t, target.Reviews)

	for _, gp := range res.GridPoints {
		assert.Equal(t, model.NotFoundRank, gp.TargetRank)
	}
}

func TestAggregate_ObservationsBeatNameMatching(t *testing.T) {
	// When the provider supplies target observations, listings that would
	// name-match are ignored for ranking.
	raw := gridResults(2, []model.BusinessObservation{
		{Name: "Joe's Pizza", Rank: 1},
	})

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		TargetObs: &model.TargetObservations{
			Name:        "Joe's Pizza",
			Appearances: []int{0},
			Ranks:       []int{7},
		},
		GridRows: 2,
		GridCols: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, res.GridPoints[0].TargetRank)
	assert.Equal(t, model.NotFoundRank, res.GridPoints[1].TargetRank)
	assert.Equal(t, 1, res.TargetBusiness.PointsFound)
}

func TestAggregate_TargetRatingFromListings(t *testing.T) {
	raw := gridResults(2, []model.BusinessObservation{
		{Name: "Joe's Pizza", Rank: 1, Rating: 4.7, Reviews: 210},
	})

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		GridRows:   2,
		GridCols:   2,
	})
	require.NoError(t, err)

	require.NotNil(t, res.TargetBusiness.Rating)
	assert.Equal(t, 4.7, *res.TargetBusiness.Rating)
	require.NotNil(t, res.TargetBusiness.Reviews)
	assert.Equal(t, 210, *res.TargetBusiness.Reviews)
}

func TestAggregate_CompetitorLeaderboard(t *testing.T) {
	raw := gridResults(3, []model.BusinessObservation{
		{Name: "Maria's Pizza", PlaceID: "m1", Rank: 1, Rating: 4.8},
		{Name: "Sal's Slices", PlaceID: "s1", Rank: 2, Rating: 4.2},
	})
	// Sal's misses one point.
	raw[8].Results = []model.BusinessObservation{
		{Name: "Maria's Pizza", PlaceID: "m1", Rank: 1, Rating: 4.8},
	}

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)

	require.Len(t, res.Competitors, 2)
	assert.Equal(t, "Maria's Pizza", res.Competitors[0].Name)
	assert.Equal(t, 9, res.Competitors[0].Appearances)
	assert.Equal(t, 100.0, res.Competitors[0].Coverage)
	assert.Equal(t, 8, res.Competitors[1].Appearances)
	assert.Equal(t, 88.9, res.Competitors[1].Coverage)
	assert.Equal(t, 2, res.Summary.TotalUniqueBusinesses)
}

func TestAggregate_TopCompetitorsPerPointCapped(t *testing.T) {
	listings := make([]model.BusinessObservation, 25)
	for i := range listings {
		listings[i] = model.BusinessObservation{Name: "Biz", PlaceID: "p", Rank: i + 1}
	}

	res, err := Aggregate(Params{
		RawResults: gridResults(1, listings),
		SearchTerm: "pizza",
		GridRows:   1,
		GridCols:   1,
	})
	require.NoError(t, err)

	require.Len(t, res.GridPoints, 1)
	assert.Len(t, res.GridPoints[0].TopCompetitors, 20)
	assert.Equal(t, 25, res.GridPoints[0].TotalResults)
}

func TestAggregate_CenterFallback(t *testing.T) {
	res, err := Aggregate(Params{
		RawResults: gridResults(3, nil),
		SearchTerm: "pizza",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)

	// With no configured center the mean of the successful points is used.
	assert.InDelta(t, 36.01, res.Location.CenterLat, 1e-6)
	assert.InDelta(t, -85.99, res.Location.CenterLng, 1e-6)
}

func TestAggregate_ConfiguredCenterKept(t *testing.T) {
	res, err := Aggregate(Params{
		RawResults: gridResults(3, nil),
		SearchTerm: "pizza",
		CenterLat:  36.17,
		CenterLng:  -86.78,
		City:       "Nashville",
		State:      "TN",
		GridRows:   3,
		GridCols:   3,
	})
	require.NoError(t, err)

	assert.Equal(t, 36.17, res.Location.CenterLat)
	assert.Equal(t, -86.78, res.Location.CenterLng)
	assert.Equal(t, "Nashville", res.Location.City)
	assert.Equal(t, "TN", res.Location.State)
}

func TestAggregate_Idempotent(t *testing.T) {
	params := Params{
		RawResults: gridResults(3, []model.BusinessObservation{
			{Name: "Maria's Pizza", PlaceID: "m1", Rank: 1},
			{Name: "Sal's Slices", PlaceID: "s1", Rank: 2},
		}),
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		TargetObs: &model.TargetObservations{
			Appearances: []int{0, 4},
			Ranks:       []int{3, 5},
		},
		GridRows: 3,
		GridCols: 3,
	}

	first, err := Aggregate(params)
	require.NoError(t, err)
	second, err := Aggregate(params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregate_WiderGridKeepsFlatIndexConsistent(t *testing.T) {
	// A 2x3 grid: point (1, 2) has flat index 5 only when the real column
	// count is used.
	raw := []model.RawPointResult{
		{Point: model.GridPoint{Row: 0, Col: 0}, Success: true, Results: []model.BusinessObservation{}},
		{Point: model.GridPoint{Row: 1, Col: 2}, Success: true, Results: []model.BusinessObservation{}},
	}

	res, err := Aggregate(Params{
		RawResults: raw,
		SearchTerm: "pizza",
		TargetName: "Joe's Pizza",
		TargetObs: &model.TargetObservations{
			Appearances: []int{5},
			Ranks:       []int{4},
		},
		GridRows: 2,
		GridCols: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, model.NotFoundRank, res.GridPoints[0].TargetRank)
	assert.Equal(t, 4, res.GridPoints[1].TargetRank)
}

func TestAggregate_ExecutionTimePassthrough(t *testing.T) {
	res, err := Aggregate(Params{
		RawResults:    gridResults(2, nil),
		SearchTerm:    "pizza",
		GridRows:      2,
		GridCols:      2,
		ExecutionTime: 42.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 42.5, res.Summary.ExecutionTime)
}
