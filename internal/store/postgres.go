package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rankgrid/internal/db"
	"github.com/sells-group/rankgrid/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS grid_searches (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	search_term TEXT NOT NULL,
	center_lat DOUBLE PRECISION NOT NULL,
	center_lng DOUBLE PRECISION NOT NULL,
	search_radius_miles DOUBLE PRECISION NOT NULL,
	grid_rows INTEGER NOT NULL,
	grid_cols INTEGER NOT NULL,
	search_mode TEXT NOT NULL,
	initiated_by_place_id TEXT,
	initiated_by_name TEXT,
	city TEXT,
	state TEXT,
	total_unique_businesses INTEGER NOT NULL DEFAULT 0,
	success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	execution_time_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	result JSONB NOT NULL,
	raw_config JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS grid_competitors (
	id UUID PRIMARY KEY,
	search_id UUID NOT NULL REFERENCES grid_searches(id) ON DELETE CASCADE,
	place_id TEXT,
	name TEXT NOT NULL,
	rating DOUBLE PRECISION,
	reviews INTEGER,
	address TEXT,
	phone TEXT,
	business_lat DOUBLE PRECISION,
	business_lng DOUBLE PRECISION,
	appearances INTEGER NOT NULL,
	coverage_percent DOUBLE PRECISION NOT NULL,
	avg_rank DOUBLE PRECISION NOT NULL,
	best_rank INTEGER NOT NULL,
	worst_rank INTEGER NOT NULL,
	top_3_count INTEGER NOT NULL DEFAULT 0,
	top_10_count INTEGER NOT NULL DEFAULT 0,
	first_place_count INTEGER NOT NULL DEFAULT 0,
	north_appearances INTEGER NOT NULL DEFAULT 0,
	south_appearances INTEGER NOT NULL DEFAULT 0,
	east_appearances INTEGER NOT NULL DEFAULT 0,
	west_appearances INTEGER NOT NULL DEFAULT 0,
	center_appearances INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS grid_cells (
	id UUID PRIMARY KEY,
	search_id UUID NOT NULL REFERENCES grid_searches(id) ON DELETE CASCADE,
	grid_row INTEGER NOT NULL,
	grid_col INTEGER NOT NULL,
	grid_index INTEGER NOT NULL,
	lat DOUBLE PRECISION NOT NULL,
	lng DOUBLE PRECISION NOT NULL,
	target_rank INTEGER NOT NULL,
	total_results INTEGER NOT NULL,
	top_competitors JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_grid_searches_session ON grid_searches(session_id);
CREATE INDEX IF NOT EXISTS idx_grid_searches_city_state ON grid_searches(city, state);
CREATE INDEX IF NOT EXISTS idx_grid_competitors_search ON grid_competitors(search_id);
CREATE INDEX IF NOT EXISTS idx_grid_cells_search ON grid_cells(search_id);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var competitorColumns = []string{
	"id", "search_id", "place_id", "name", "rating", "reviews",
	"address", "phone", "business_lat", "business_lng",
	"appearances", "coverage_percent", "avg_rank", "best_rank", "worst_rank",
	"top_3_count", "top_10_count", "first_place_count",
	"north_appearances", "south_appearances", "east_appearances",
	"west_appearances", "center_appearances",
}

var cellColumns = []string{
	"id", "search_id", "grid_row", "grid_col", "grid_index",
	"lat", "lng", "target_rank", "total_results", "top_competitors",
}

// SaveSearch stores the run header row, then bulk-loads competitors and
// per-point cells via COPY.
func (s *PostgresStore) SaveSearch(ctx context.Context, search *model.GridSearch) (string, error) {
	if search.Result == nil {
		return "", eris.New("postgres: search has no result")
	}

	id := search.ID
	if id == "" {
		id = uuid.New().String()
	}

	resultJSON, err := json.Marshal(search.Result)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal result")
	}
	configJSON, err := json.Marshal(search.Config)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal config")
	}

	res := search.Result
	_, err = s.pool.Exec(ctx, `
		INSERT INTO grid_searches (
			id, session_id, search_term, center_lat, center_lng,
			search_radius_miles, grid_rows, grid_cols, search_mode,
			initiated_by_place_id, initiated_by_name, city, state,
			total_unique_businesses, success_rate, execution_time_seconds,
			result, raw_config, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		id, search.SessionID, res.SearchTerm,
		res.Location.CenterLat, res.Location.CenterLng,
		search.Config.RadiusMiles, res.Summary.GridRows, res.Summary.GridCols,
		string(search.Mode),
		nullIfEmpty(search.Config.TargetPlaceID), nullIfEmpty(search.Config.TargetBusiness),
		nullIfEmpty(res.Location.City), nullIfEmpty(res.Location.State),
		res.Summary.TotalUniqueBusinesses, res.Summary.SuccessRate, res.Summary.ExecutionTime,
		resultJSON, configJSON, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert search")
	}

	compRows := make([][]any, 0, len(res.Competitors))
	for _, c := range res.Competitors {
		compRows = append(compRows, []any{
			uuid.New().String(), id, nullIfEmpty(c.PlaceID), c.Name, c.Rating, c.Reviews,
			nullIfEmpty(c.Address), nullIfEmpty(c.Phone), c.Lat, c.Lng,
			c.Appearances, c.Coverage, c.AvgRank, c.BestRank, c.WorstRank,
			c.Top3Count, c.Top10Count, c.FirstPlaceCount,
			c.NorthAppearances, c.SouthAppearances, c.EastAppearances,
			c.WestAppearances, c.CenterAppearances,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "grid_competitors", competitorColumns, compRows); err != nil {
		return "", err
	}

	cols := res.Summary.GridCols
	cellRows := make([][]any, 0, len(res.GridPoints))
	for _, gp := range res.GridPoints {
		topJSON, err := json.Marshal(gp.TopCompetitors)
		if err != nil {
			return "", eris.Wrap(err, "postgres: marshal top competitors")
		}
		cellRows = append(cellRows, []any{
			uuid.New().String(), id, gp.GridRow, gp.GridCol, gp.GridRow*cols + gp.GridCol,
			gp.Lat, gp.Lng, gp.TargetRank, gp.TotalResults, topJSON,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "grid_cells", cellColumns, cellRows); err != nil {
		return "", err
	}

	return id, nil
}

// GetSearch retrieves a run with its full aggregated result.
func (s *PostgresStore) GetSearch(ctx context.Context, id string) (*model.GridSearch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, search_mode, result, raw_config, created_at
		FROM grid_searches WHERE id = $1`, id)

	search, err := scanSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: search %s", id)
		}
		return nil, eris.Wrap(err, "postgres: get search")
	}
	return search, nil
}

// ListSearches returns stored runs matching the filter, newest first.
func (s *PostgresStore) ListSearches(ctx context.Context, filter SearchFilter) ([]model.GridSearch, error) {
	sql := `
		SELECT id, session_id, search_mode, result, raw_config, created_at
		FROM grid_searches WHERE 1=1`
	args := []any{}
	i := 1
	if filter.City != "" {
		sql += " AND city = $" + itoa(i)
		args = append(args, filter.City)
		i++
	}
	if filter.State != "" {
		sql += " AND state = $" + itoa(i)
		args = append(args, filter.State)
		i++
	}
	if filter.Mode != "" {
		sql += " AND search_mode = $" + itoa(i)
		args = append(args, string(filter.Mode))
		i++
	}
	sql += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	sql += " LIMIT $" + itoa(i)
	args = append(args, limit)
	i++
	if filter.Offset > 0 {
		sql += " OFFSET $" + itoa(i)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list searches")
	}
	defer rows.Close()

	var searches []model.GridSearch
	for rows.Next() {
		search, err := scanSearch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan search row")
		}
		searches = append(searches, *search)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate search rows")
	}
	return searches, nil
}

func scanSearch(row pgx.Row) (*model.GridSearch, error) {
	var (
		search     model.GridSearch
		mode       string
		resultJSON []byte
		configJSON []byte
	)
	if err := row.Scan(&search.ID, &search.SessionID, &mode, &resultJSON, &configJSON, &search.CreatedAt); err != nil {
		return nil, err
	}
	search.Mode = model.SearchMode(mode)
	if err := json.Unmarshal(resultJSON, &search.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	if err := json.Unmarshal(configJSON, &search.Config); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal config")
	}
	return &search, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
