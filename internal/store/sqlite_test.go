package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteSaveAndGet(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	id, err := st.SaveSearch(ctx, sampleSearch())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := st.GetSearch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "grid_abc", got.SessionID)
	assert.Equal(t, model.ModeTargeted, got.Mode)
	require.NotNil(t, got.Result)
	assert.Equal(t, "pizza", got.Result.SearchTerm)
	assert.Len(t, got.Result.GridPoints, 2)
	assert.Equal(t, "Joe's Pizza", got.Config.TargetBusiness)
}

func TestSQLiteGetSearch_NotFound(t *testing.T) {
	st := newTestSQLite(t)

	_, err := st.GetSearch(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteSaveSearch_NoResult(t *testing.T) {
	st := newTestSQLite(t)

	_, err := st.SaveSearch(context.Background(), &model.GridSearch{SessionID: "grid_abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no result")
}

func TestSQLiteListSearches(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	targeted := sampleSearch()
	_, err := st.SaveSearch(ctx, targeted)
	require.NoError(t, err)

	market := sampleSearch()
	market.SessionID = "grid_def"
	market.Mode = model.ModeAllBusinesses
	market.Result.Location.City = "Memphis"
	_, err = st.SaveSearch(ctx, market)
	require.NoError(t, err)

	all, err := st.ListSearches(ctx, SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nashville, err := st.ListSearches(ctx, SearchFilter{City: "Nashville"})
	require.NoError(t, err)
	require.Len(t, nashville, 1)
	assert.Equal(t, "grid_abc", nashville[0].SessionID)

	markets, err := st.ListSearches(ctx, SearchFilter{Mode: model.ModeAllBusinesses})
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "grid_def", markets[0].SessionID)

	limited, err := st.ListSearches(ctx, SearchFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
