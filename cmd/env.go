package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rankgrid/internal/provider"
	"github.com/sells-group/rankgrid/internal/resilience"
	"github.com/sells-group/rankgrid/internal/search"
	"github.com/sells-group/rankgrid/internal/store"
	"github.com/sells-group/rankgrid/pkg/places"
)

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initProvider builds the configured search provider.
func initProvider() (provider.Provider, error) {
	if err := cfg.Validate("provider"); err != nil {
		return nil, err
	}

	switch cfg.Provider.Kind {
	case "subprocess":
		retry := resilience.DefaultRetryConfig()
		if cfg.Provider.Retries > 0 {
			retry.MaxAttempts = cfg.Provider.Retries
		}
		return provider.NewSubprocess(provider.SubprocessConfig{
			ScriptPath: cfg.Provider.ScriptPath,
			PythonBin:  cfg.Provider.PythonBin,
			TempDir:    cfg.Provider.TempDir,
			Timeout:    time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
			Retry:      retry,
		}), nil
	case "http":
		var opts []places.Option
		if cfg.Places.BaseURL != "" {
			opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
		}
		client := places.NewClient(cfg.Places.Key, opts...)
		return provider.NewHTTP(client, provider.HTTPConfig{
			Concurrency:   cfg.Places.Concurrency,
			RatePerSecond: cfg.Places.RatePerSecond,
		}), nil
	default:
		return nil, eris.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// initEngine wires the provider, store, and saver into a search engine.
// With persist false the store is never opened and runs are not saved.
// The returned cleanup closes the store after pending saves drain.
func initEngine(ctx context.Context, persist bool) (*search.Engine, store.Store, func(), error) {
	p, err := initProvider()
	if err != nil {
		return nil, nil, nil, err
	}

	timeout := time.Duration(cfg.Provider.TimeoutSecs) * time.Second
	if !persist {
		return search.NewEngine(p, nil, timeout), nil, func() {}, nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, nil, eris.Wrap(err, "migrate store")
	}

	saver := store.NewAsyncSaver(st, time.Duration(cfg.Search.SaveTimeoutSecs)*time.Second)
	engine := search.NewEngine(p, saver, timeout)

	cleanup := func() {
		saver.Wait()
		st.Close()
	}
	return engine, st, cleanup, nil
}
