package provider

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
)

// rawDocument mirrors Document but defers raw_results decoding so that a
// single malformed entry can be skipped without losing the run.
type rawDocument struct {
	SearchParams   SearchParams              `json:"search_params"`
	Config         model.SearchConfig        `json:"config"`
	Execution      Execution                 `json:"execution"`
	TargetBusiness *model.TargetObservations `json:"target_business"`
	RawResults     []json.RawMessage         `json:"raw_results"`
}

// rawPointEntry detects missing fields that the typed model would silently
// zero-fill.
type rawPointEntry struct {
	Point   *model.GridPoint            `json:"point"`
	Success bool                        `json:"success"`
	Results []model.BusinessObservation `json:"results"`
	Error   string                      `json:"error"`
}

// ParseDocument decodes and normalizes a provider results document. This is
// the ingestion boundary: entries missing their point, or successful entries
// missing their results list, are dropped with a log line rather than
// propagated into aggregation. Only a document that cannot be decoded at
// all is an error.
func ParseDocument(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "provider: decode results document")
	}

	log := zap.L().With(zap.String("component", "provider.ingest"))

	doc := &Document{
		SearchParams:   raw.SearchParams,
		Config:         raw.Config,
		Execution:      raw.Execution,
		TargetBusiness: raw.TargetBusiness,
		RawResults:     make([]model.RawPointResult, 0, len(raw.RawResults)),
	}

	if raw.TargetBusiness != nil && len(raw.TargetBusiness.Appearances) != len(raw.TargetBusiness.Ranks) {
		log.Warn("target observations have mismatched appearance/rank lengths, dropping",
			zap.Int("appearances", len(raw.TargetBusiness.Appearances)),
			zap.Int("ranks", len(raw.TargetBusiness.Ranks)),
		)
		doc.TargetBusiness = nil
	}

	dropped := 0
	for i, msg := range raw.RawResults {
		var entry rawPointEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			log.Warn("dropping undecodable point result", zap.Int("index", i), zap.Error(err))
			dropped++
			continue
		}
		if entry.Point == nil {
			log.Warn("dropping point result without point", zap.Int("index", i))
			dropped++
			continue
		}
		if entry.Success && entry.Results == nil {
			log.Warn("dropping successful point result without results", zap.Int("index", i))
			dropped++
			continue
		}
		doc.RawResults = append(doc.RawResults, model.RawPointResult{
			Point:   *entry.Point,
			Success: entry.Success,
			Results: entry.Results,
			Error:   entry.Error,
		})
	}

	if dropped > 0 {
		log.Warn("dropped malformed point results",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(doc.RawResults)),
		)
	}

	return doc, nil
}
