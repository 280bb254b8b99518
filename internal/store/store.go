// Package store persists completed grid search runs for later retrieval.
// Postgres backs shared deployments; SQLite backs local single-user runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rankgrid/internal/model"
)

// ErrNotFound reports that no stored search matches the requested ID.
var ErrNotFound = eris.New("search not found")

// SearchFilter specifies criteria for listing stored searches.
type SearchFilter struct {
	City   string           `json:"city,omitempty"`
	State  string           `json:"state,omitempty"`
	Mode   model.SearchMode `json:"mode,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for grid search runs.
type Store interface {
	// SaveSearch stores a completed run and returns its assigned ID.
	SaveSearch(ctx context.Context, search *model.GridSearch) (string, error)

	// GetSearch retrieves a run with its full aggregated result.
	GetSearch(ctx context.Context, id string) (*model.GridSearch, error)

	// ListSearches returns stored runs, newest first.
	ListSearches(ctx context.Context, filter SearchFilter) ([]model.GridSearch, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
