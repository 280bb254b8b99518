// Package search orchestrates one grid search run: validate the config,
// generate the lattice, dispatch the provider under a timeout, aggregate
// whatever completed, and hand the run to the background saver.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/aggregate"
	"github.com/sells-group/rankgrid/internal/grid"
	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/provider"
	"github.com/sells-group/rankgrid/internal/store"
)

// Engine runs grid searches end to end.
type Engine struct {
	provider provider.Provider
	saver    *store.AsyncSaver
	timeout  time.Duration
}

// NewEngine creates an engine. The saver may be nil for runs that should
// not be persisted; timeout bounds the provider call and defaults to 3
// minutes.
func NewEngine(p provider.Provider, saver *store.AsyncSaver, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Engine{provider: p, saver: saver, timeout: timeout}
}

// RunResult pairs the aggregation with the raw provider document for
// callers that want to keep or re-process it.
type RunResult struct {
	SessionID string
	Result    *model.GridSearchResult
	Raw       *provider.Document
	Elapsed   time.Duration
}

// Run executes one grid search. The aggregation is returned synchronously;
// persistence happens in the background and its failures never surface
// here. A provider timeout still yields an aggregation over the points
// that completed.
func (e *Engine) Run(ctx context.Context, cfg model.SearchConfig) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.RadiusMiles = cfg.ClampRadius()
	if cfg.SessionID == "" {
		cfg.SessionID = "grid_" + uuid.NewString()
	}

	log := zap.L().With(
		zap.String("component", "search.engine"),
		zap.String("session", cfg.SessionID),
	)

	points, err := grid.Generate(cfg.CenterLat, cfg.CenterLng, cfg.RadiusMiles, cfg.GridSize)
	if err != nil {
		return nil, err
	}

	log.Info("starting grid search",
		zap.String("search_term", cfg.SearchTerm),
		zap.String("target", cfg.TargetBusiness),
		zap.Int("grid_size", cfg.GridSize),
		zap.Float64("radius_miles", cfg.RadiusMiles),
	)

	searchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	doc, err := e.provider.Search(searchCtx, cfg, points)
	elapsed := time.Since(start)
	if err != nil {
		return nil, eris.Wrap(err, "engine: provider search")
	}

	executionTime := doc.Execution.DurationSeconds
	if executionTime == 0 {
		executionTime = elapsed.Seconds()
	}

	rows, cols := gridDims(cfg.GridSize, doc.RawResults)

	result, err := aggregate.Aggregate(aggregate.Params{
		RawResults:    doc.RawResults,
		SearchTerm:    cfg.SearchTerm,
		TargetName:    cfg.TargetBusiness,
		TargetObs:     doc.TargetBusiness,
		GridRows:      rows,
		GridCols:      cols,
		CenterLat:     cfg.CenterLat,
		CenterLng:     cfg.CenterLng,
		City:          cfg.City,
		State:         cfg.State,
		ExecutionTime: executionTime,
	})
	if err != nil {
		return nil, err
	}

	log.Info("grid search complete",
		zap.Duration("elapsed", elapsed),
		zap.Float64("success_rate", result.Summary.SuccessRate),
		zap.Int("unique_businesses", result.Summary.TotalUniqueBusinesses),
	)

	if e.saver != nil {
		now := time.Now().UTC()
		e.saver.Save(&model.GridSearch{
			SessionID:   cfg.SessionID,
			Config:      cfg,
			Mode:        cfg.Mode(),
			Result:      result,
			RawResults:  doc.RawResults,
			CreatedAt:   now,
			CompletedAt: now,
		})
	}

	return &RunResult{
		SessionID: cfg.SessionID,
		Result:    result,
		Raw:       doc,
		Elapsed:   elapsed,
	}, nil
}

// gridDims trusts the configured size but widens to whatever the provider
// actually returned, so a provider that ran a bigger lattice than asked
// still aggregates cleanly.
func gridDims(gridSize int, raw []model.RawPointResult) (rows, cols int) {
	rows, cols = gridSize, gridSize
	for _, rp := range raw {
		if rp.Point.Row+1 > rows {
			rows = rp.Point.Row + 1
		}
		if rp.Point.Col+1 > cols {
			cols = rp.Point.Col + 1
		}
	}
	return rows, cols
}
