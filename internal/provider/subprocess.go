package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/resilience"
)

// SubprocessConfig configures the scraper subprocess provider.
type SubprocessConfig struct {
	// ScriptPath is the grid search scraper script to execute.
	ScriptPath string
	// PythonBin is the interpreter; defaults to "python3".
	PythonBin string
	// TempDir holds per-session config files; defaults to os.TempDir().
	TempDir string
	// Timeout bounds one grid run end to end; defaults to 3 minutes.
	Timeout time.Duration
	// Retry controls transient-failure retries of the whole run.
	Retry resilience.RetryConfig
}

// Subprocess runs the external grid search scraper as a child process. The
// scraper receives a JSON config file, derives the same lattice from
// grid_size and radius_miles, and emits the results document on stdout.
type Subprocess struct {
	cfg SubprocessConfig
}

// NewSubprocess creates a subprocess provider.
func NewSubprocess(cfg SubprocessConfig) *Subprocess {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	return &Subprocess{cfg: cfg}
}

// Search executes one full grid run. The points argument is unused: the
// scraper regenerates the lattice from the config, using the same formula
// as internal/grid, so the two always agree.
func (s *Subprocess) Search(ctx context.Context, cfg model.SearchConfig, _ []model.GridPoint) (*Document, error) {
	if s.cfg.ScriptPath == "" {
		return nil, eris.New("provider: scraper script path not configured")
	}

	log := zap.L().With(
		zap.String("component", "provider.subprocess"),
		zap.String("session", cfg.SessionID),
	)

	configPath, err := s.writeConfig(cfg)
	if err != nil {
		return nil, err
	}
	defer os.Remove(configPath)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	stdout, err := resilience.DoVal(ctx, s.cfg.Retry, func(ctx context.Context) ([]byte, error) {
		return s.execute(ctx, configPath)
	})
	if err != nil {
		return nil, err
	}
	log.Info("scraper run complete", zap.Duration("elapsed", time.Since(start)))

	payload, err := extractTrailingJSON(stdout)
	if err != nil {
		return nil, err
	}

	payload, err = s.followResultsFile(payload)
	if err != nil {
		return nil, err
	}

	return ParseDocument(payload)
}

func (s *Subprocess) writeConfig(cfg model.SearchConfig) (string, error) {
	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return "", eris.Wrap(err, "provider: create temp dir")
	}

	cfg.Location = cfg.LocationString()
	cfg.Silent = true
	cfg.Headless = true

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "provider: marshal config")
	}

	path := filepath.Join(s.cfg.TempDir, cfg.SessionID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrap(err, "provider: write config file")
	}
	return path, nil
}

func (s *Subprocess) execute(ctx context.Context, configPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.cfg.PythonBin, s.cfg.ScriptPath, "--config", configPath, "--headless", "--silent")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "provider: scraper timed out")
		}
		// Scraper crashes are usually browser/session flakes worth one retry.
		return nil, resilience.NewTransientError(
			eris.Wrapf(err, "provider: scraper failed: %s", truncate(stderr.String(), 500)), 0)
	}
	return stdout.Bytes(), nil
}

// followResultsFile handles the scraper's file indirection: a small success
// envelope pointing at the real results on disk.
func (s *Subprocess) followResultsFile(payload []byte) ([]byte, error) {
	var envelope struct {
		Success     bool            `json:"success"`
		ResultsFile string          `json:"results_file"`
		RawResults  json.RawMessage `json:"raw_results"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return payload, nil
	}
	if !envelope.Success || envelope.ResultsFile == "" || len(envelope.RawResults) > 0 {
		return payload, nil
	}

	data, err := os.ReadFile(envelope.ResultsFile)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read results file %s", envelope.ResultsFile)
	}
	return data, nil
}

// extractTrailingJSON finds the last balanced JSON object in scraper output,
// tolerating log lines printed before it. Brace counting is naive about
// braces inside string values; the scrapers do not emit any.
func extractTrailingJSON(out []byte) ([]byte, error) {
	end := bytes.LastIndexByte(out, '}')
	if end < 0 {
		return nil, eris.New("provider: no JSON object in scraper output")
	}

	depth := 0
	for i := end; i >= 0; i-- {
		switch out[i] {
		case '}':
			depth++
		case '{':
			depth--
		}
		if depth == 0 {
			return out[i : end+1], nil
		}
	}
	return nil, eris.New("provider: unbalanced JSON in scraper output")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
