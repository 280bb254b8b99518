package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rankgrid/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local runs
// without a Postgres instance. The full result document is stored as JSON
// alongside queryable summary columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS grid_searches (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	search_term TEXT NOT NULL,
	search_mode TEXT NOT NULL,
	city        TEXT,
	state       TEXT,
	result      TEXT NOT NULL,
	raw_config  TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_grid_searches_session ON grid_searches(session_id);
CREATE INDEX IF NOT EXISTS idx_grid_searches_city_state ON grid_searches(city, state);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSearch(ctx context.Context, search *model.GridSearch) (string, error) {
	if search.Result == nil {
		return "", eris.New("sqlite: search has no result")
	}

	id := search.ID
	if id == "" {
		id = uuid.New().String()
	}

	resultJSON, err := json.Marshal(search.Result)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal result")
	}
	configJSON, err := json.Marshal(search.Config)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal config")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grid_searches (id, session_id, search_term, search_mode, city, state, result, raw_config, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, search.SessionID, search.Result.SearchTerm, string(search.Mode),
		search.Result.Location.City, search.Result.Location.State,
		string(resultJSON), string(configJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert search")
	}
	return id, nil
}

func (s *SQLiteStore) GetSearch(ctx context.Context, id string) (*model.GridSearch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, search_mode, result, raw_config, created_at
		FROM grid_searches WHERE id = ?`, id)

	search, err := scanSQLiteSearch(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: search %s", id)
		}
		return nil, eris.Wrap(err, "sqlite: get search")
	}
	return search, nil
}

func (s *SQLiteStore) ListSearches(ctx context.Context, filter SearchFilter) ([]model.GridSearch, error) {
	query := `
		SELECT id, session_id, search_mode, result, raw_config, created_at
		FROM grid_searches WHERE 1=1`
	args := []any{}
	if filter.City != "" {
		query += " AND city = ?"
		args = append(args, filter.City)
	}
	if filter.State != "" {
		query += " AND state = ?"
		args = append(args, filter.State)
	}
	if filter.Mode != "" {
		query += " AND search_mode = ?"
		args = append(args, string(filter.Mode))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list searches")
	}
	defer rows.Close()

	var searches []model.GridSearch
	for rows.Next() {
		search, err := scanSQLiteSearch(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search row")
		}
		searches = append(searches, *search)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate search rows")
	}
	return searches, nil
}

func scanSQLiteSearch(scan func(...any) error) (*model.GridSearch, error) {
	var (
		search     model.GridSearch
		mode       string
		resultJSON string
		configJSON string
	)
	if err := scan(&search.ID, &search.SessionID, &mode, &resultJSON, &configJSON, &search.CreatedAt); err != nil {
		return nil, err
	}
	search.Mode = model.SearchMode(mode)
	if err := json.Unmarshal([]byte(resultJSON), &search.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	if err := json.Unmarshal([]byte(configJSON), &search.Config); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal config")
	}
	return &search, nil
}
