package model

import "time"

// TopCompetitor is one entry in a grid point's per-point leaderboard.
type TopCompetitor struct {
	Name    string  `json:"name"`
	Rank    int     `json:"rank"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}

// AggregatedGridPoint is the per-point output of a run. TargetRank holds
// NotFoundRank when the tracked business did not appear at the point.
type AggregatedGridPoint struct {
	Lat            float64         `json:"lat"`
	Lng            float64         `json:"lng"`
	GridRow        int             `json:"gridRow"`
	GridCol        int             `json:"gridCol"`
	TargetRank     int             `json:"targetRank"`
	TotalResults   int             `json:"totalResults"`
	TopCompetitors []TopCompetitor `json:"topCompetitors"`
}

// CompetitorRecord is a business deduplicated across every grid point of a
// run. Coverage and AvgRank are derived from Appearances and the rank sum,
// both reported to one decimal place.
type CompetitorRecord struct {
	Name    string  `json:"name"`
	PlaceID string  `json:"place_id,omitempty"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
	Address string  `json:"address,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`

	Appearances int     `json:"appearances"`
	AvgRank     float64 `json:"avgRank"`
	BestRank    int     `json:"bestRank"`
	WorstRank   int     `json:"worstRank"`
	Coverage    float64 `json:"coverage"`

	Top3Count       int `json:"top3Count"`
	Top10Count      int `json:"top10Count"`
	FirstPlaceCount int `json:"firstPlaceCount"`

	NorthAppearances  int `json:"northAppearances"`
	SouthAppearances  int `json:"southAppearances"`
	EastAppearances   int `json:"eastAppearances"`
	WestAppearances   int `json:"westAppearances"`
	CenterAppearances int `json:"centerAppearances"`
}

// TargetSummary describes the tracked business's overall visibility.
type TargetSummary struct {
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Rating      *float64 `json:"rating"`
	Reviews     *int     `json:"reviews"`
	Coverage    float64  `json:"coverage"`
	PointsFound int      `json:"pointsFound"`
	TotalPoints int      `json:"totalPoints"`
	AvgRank     float64  `json:"avgRank"`
	BestRank    int      `json:"bestRank"`
	WorstRank   int      `json:"worstRank"`
}

// Summary holds run-level statistics. SuccessRate is a percentage of all
// configured grid points, reported to one decimal place; provider failures
// lower it rather than shrinking coverage denominators.
type Summary struct {
	TotalUniqueBusinesses int     `json:"totalUniqueBusinesses"`
	SuccessRate           float64 `json:"successRate"`
	ExecutionTime         float64 `json:"executionTime"`
	GridRows              int     `json:"gridRows"`
	GridCols              int     `json:"gridCols"`
}

// Location identifies where the run was centered.
type Location struct {
	City      string  `json:"city"`
	State     string  `json:"state"`
	CenterLat float64 `json:"centerLat"`
	CenterLng float64 `json:"centerLng"`
}

// GridSearchResult is the stable output contract consumed by presentation
// and persistence. Field names and the NotFoundRank sentinel are fixed.
type GridSearchResult struct {
	GridPoints     []AggregatedGridPoint `json:"gridPoints"`
	SearchTerm     string                `json:"searchTerm"`
	TargetBusiness *TargetSummary        `json:"targetBusiness"`
	Competitors    []CompetitorRecord    `json:"competitors"`
	Summary        Summary               `json:"summary"`
	Location       Location              `json:"location"`
}

// GridSearch is a completed run as stored and listed by the persistence
// layer.
type GridSearch struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Config      SearchConfig      `json:"config"`
	Mode        SearchMode        `json:"mode"`
	Result      *GridSearchResult `json:"result,omitempty"`
	RawResults  []RawPointResult  `json:"raw_results,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt time.Time         `json:"completed_at"`
}
