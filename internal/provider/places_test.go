package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/pkg/places"
)

type stubPlaces struct {
	fn func(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error)
}

func (s *stubPlaces) NearbySearch(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error) {
	return s.fn(ctx, query, lat, lng)
}

func testPoints(size int) []model.GridPoint {
	points := make([]model.GridPoint, 0, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			points = append(points, model.GridPoint{
				Lat: 36.0 + float64(row)*0.01,
				Lng: -86.0 + float64(col)*0.01,
				Row: row, Col: col,
			})
		}
	}
	return points
}

func TestHTTPSearch_AllPointsSucceed(t *testing.T) {
	client := &stubPlaces{fn: func(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error) {
		return []places.Listing{
			{Name: "Maria's Pizza", PlaceID: "m1", Rating: 4.8},
			{Name: "Sal's Slices", PlaceID: "s1", Rating: 4.2},
		}, nil
	}}

	p := NewHTTP(client, HTTPConfig{RatePerSecond: 1000})
	doc, err := p.Search(context.Background(), model.SearchConfig{SearchTerm: "pizza"}, testPoints(3))
	require.NoError(t, err)

	assert.Equal(t, 9, doc.Execution.Successful)
	require.Len(t, doc.RawResults, 9)
	for _, rp := range doc.RawResults {
		require.True(t, rp.Success)
		require.Len(t, rp.Results, 2)
		// Listing order becomes the rank.
		assert.Equal(t, 1, rp.Results[0].Rank)
		assert.Equal(t, 2, rp.Results[1].Rank)
	}
}

func TestHTTPSearch_PointFailureDoesNotAbort(t *testing.T) {
	client := &stubPlaces{fn: func(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error) {
		if lat == 36.0 && lng == -86.0 {
			return nil, fmt.Errorf("quota exceeded")
		}
		return []places.Listing{{Name: "Maria's Pizza"}}, nil
	}}

	p := NewHTTP(client, HTTPConfig{RatePerSecond: 1000})
	doc, err := p.Search(context.Background(), model.SearchConfig{SearchTerm: "pizza"}, testPoints(2))
	require.NoError(t, err)

	assert.Equal(t, 3, doc.Execution.Successful)

	var failed int
	for _, rp := range doc.RawResults {
		if !rp.Success {
			failed++
			assert.Contains(t, rp.Error, "quota exceeded")
		}
	}
	assert.Equal(t, 1, failed)
}

func TestHTTPSearch_ResultsPerPointCap(t *testing.T) {
	client := &stubPlaces{fn: func(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error) {
		listings := make([]places.Listing, 30)
		for i := range listings {
			listings[i] = places.Listing{Name: fmt.Sprintf("biz-%d", i)}
		}
		return listings, nil
	}}

	p := NewHTTP(client, HTTPConfig{RatePerSecond: 1000, ResultsPerPoint: 5})
	doc, err := p.Search(context.Background(), model.SearchConfig{SearchTerm: "pizza"}, testPoints(1))
	require.NoError(t, err)
	require.Len(t, doc.RawResults, 1)
	assert.Len(t, doc.RawResults[0].Results, 5)
}

func TestHTTPSearch_TimeoutReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	client := &stubPlaces{fn: func(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error) {
		calls++
		if calls == 2 {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []places.Listing{{Name: "Maria's Pizza"}}, nil
	}}

	// Concurrency 1 keeps the call order deterministic.
	p := NewHTTP(client, HTTPConfig{Concurrency: 1, RatePerSecond: 1000})
	doc, err := p.Search(ctx, model.SearchConfig{SearchTerm: "pizza"}, testPoints(2))
	require.NoError(t, err, "a timed-out run still returns the partial document")

	assert.Equal(t, 1, doc.Execution.Successful)
	assert.True(t, doc.RawResults[0].Success)
	assert.False(t, doc.RawResults[1].Success)
	// Points never dispatched keep their placeholder error.
	assert.Equal(t, "not attempted", doc.RawResults[3].Error)
}

func TestHTTPSearch_RespectsContextBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	client := &stubPlaces{fn: func(ctx context.Context, query string, lat, lng float64) ([]places.Listing, error) {
		return nil, errors.New("should not be called")
	}}

	p := NewHTTP(client, HTTPConfig{RatePerSecond: 1000})
	doc, err := p.Search(ctx, model.SearchConfig{SearchTerm: "pizza"}, testPoints(2))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Execution.Successful)
}
