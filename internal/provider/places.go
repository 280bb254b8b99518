package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/pkg/places"
)

// HTTPConfig tunes the per-point fan-out of the HTTP provider.
type HTTPConfig struct {
	// Concurrency bounds in-flight searches; defaults to 8.
	Concurrency int
	// RatePerSecond throttles requests against the search API; defaults to 5.
	RatePerSecond float64
	// ResultsPerPoint caps how many listings are kept per point; defaults to 20.
	ResultsPerPoint int
}

// HTTP searches every grid point through a places API, one query per point.
// It produces no authoritative target observations, so targeted runs fall
// back to name matching in the aggregator.
type HTTP struct {
	client places.Client
	cfg    HTTPConfig
}

// NewHTTP creates an HTTP provider over the given places client.
func NewHTTP(client places.Client, cfg HTTPConfig) *HTTP {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.ResultsPerPoint <= 0 {
		cfg.ResultsPerPoint = 20
	}
	return &HTTP{client: client, cfg: cfg}
}

// Search fans one query out per point under a shared rate limit. Individual
// point failures become Success=false entries; a timeout returns whatever
// completed so the aggregator can work with partial coverage.
func (h *HTTP) Search(ctx context.Context, cfg model.SearchConfig, points []model.GridPoint) (*Document, error) {
	log := zap.L().With(
		zap.String("component", "provider.http"),
		zap.String("session", cfg.SessionID),
	)

	results := make([]model.RawPointResult, len(points))
	for i, pt := range points {
		results[i] = model.RawPointResult{Point: pt, Error: "not attempted"}
	}

	limiter := rate.NewLimiter(rate.Limit(h.cfg.RatePerSecond), 1)
	var successful atomic.Int64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)

	for i, pt := range points {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			listings, err := h.client.NearbySearch(gctx, cfg.SearchTerm, pt.Lat, pt.Lng)
			if err != nil {
				log.Warn("point search failed",
					zap.Int("row", pt.Row),
					zap.Int("col", pt.Col),
					zap.Error(err),
				)
				results[i] = model.RawPointResult{Point: pt, Error: err.Error()}
				return nil
			}

			if len(listings) > h.cfg.ResultsPerPoint {
				listings = listings[:h.cfg.ResultsPerPoint]
			}
			obs := make([]model.BusinessObservation, 0, len(listings))
			for rank, l := range listings {
				obs = append(obs, model.BusinessObservation{
					Name:    l.Name,
					PlaceID: l.PlaceID,
					Rating:  l.Rating,
					Reviews: l.Reviews,
					Address: l.Address,
					Phone:   l.Phone,
					Lat:     l.Lat,
					Lng:     l.Lng,
					Rank:    rank + 1,
				})
			}

			results[i] = model.RawPointResult{Point: pt, Success: true, Results: obs}
			successful.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Ran out of time: hand back the points that did complete.
		log.Warn("search cut short, returning partial results",
			zap.Int64("successful", successful.Load()),
			zap.Int("points", len(points)),
		)
	}

	return &Document{
		SearchParams: SearchParams{
			SearchTerm: cfg.SearchTerm,
			City:       cfg.City,
			State:      cfg.State,
		},
		Config: cfg,
		Execution: Execution{
			Successful:      int(successful.Load()),
			DurationSeconds: time.Since(start).Seconds(),
		},
		RawResults: results,
	}, nil
}
