// Package provider defines the external search provider contract and its
// two implementations: a scraper subprocess that executes the whole grid in
// one shot, and an HTTP provider that fans one places query out per point.
package provider

import (
	"context"

	"github.com/sells-group/rankgrid/internal/model"
)

// Provider executes one search per grid point and returns the collected
// results document. Implementations must tolerate per-point failure: a
// point that could not be searched is reported with Success=false, never by
// aborting the run.
type Provider interface {
	Search(ctx context.Context, cfg model.SearchConfig, points []model.GridPoint) (*Document, error)
}

// SearchParams echoes back what was searched, for display and storage.
type SearchParams struct {
	SearchTerm string `json:"search_term"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

// Execution reports provider-side run statistics.
type Execution struct {
	Successful      int     `json:"successful"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Document is the provider output for one run: per-point raw results plus
// optional authoritative target-business observations.
type Document struct {
	SearchParams   SearchParams              `json:"search_params"`
	Config         model.SearchConfig        `json:"config"`
	Execution      Execution                 `json:"execution"`
	TargetBusiness *model.TargetObservations `json:"target_business,omitempty"`
	RawResults     []model.RawPointResult    `json:"raw_results"`
}
