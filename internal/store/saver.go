package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
)

// AsyncSaver persists runs in the background so callers can return the
// aggregation without waiting on the database. Storage failures are logged
// and never reach the caller.
type AsyncSaver struct {
	store   Store
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncSaver wraps a store for fire-and-forget saves.
func NewAsyncSaver(s Store, timeout time.Duration) *AsyncSaver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncSaver{store: s, timeout: timeout}
}

// Save queues the search for persistence and returns immediately. The save
// runs on a detached context so a caller's timeout does not cancel it.
func (a *AsyncSaver) Save(search *model.GridSearch) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		log := zap.L().With(
			zap.String("component", "store.saver"),
			zap.String("session", search.SessionID),
		)

		id, err := a.store.SaveSearch(ctx, search)
		if err != nil {
			log.Error("background save failed", zap.Error(err))
			return
		}
		log.Info("search saved", zap.String("search_id", id))
	}()
}

// Wait blocks until all queued saves have finished. Called on shutdown and
// by tests.
func (a *AsyncSaver) Wait() {
	a.wg.Wait()
}
