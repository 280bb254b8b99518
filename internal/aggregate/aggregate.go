// Package aggregate merges per-point provider results into the run output:
// per-point target visibility, a deduplicated competitor leaderboard, target
// summary statistics, and run-level coverage metrics. Aggregation is a pure
// single pass over the input; it never fails on partial or degraded data.
package aggregate

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
)

const (
	// topCompetitorsPerPoint bounds the per-point leaderboard slice.
	topCompetitorsPerPoint = 20
	// topCompetitorsOverall bounds the cross-point competitor list.
	topCompetitorsOverall = 20
)

// Params carries one run's raw results plus the configuration context the
// provider executed under.
type Params struct {
	RawResults []model.RawPointResult

	SearchTerm string
	TargetName string
	// TargetObs, when present, is authoritative for target ranks; the
	// name-matching fallback is used only without it.
	TargetObs *model.TargetObservations

	GridRows int
	GridCols int

	CenterLat float64
	CenterLng float64
	City      string
	State     string

	// ExecutionTime is the caller-measured provider duration in seconds,
	// passed through to the summary untouched.
	ExecutionTime float64
}

// Aggregate computes the full run output from however many point results
// completed. Failed points contribute nothing; coverage and success-rate
// denominators are always the full configured lattice (GridRows*GridCols)
// so that provider failures degrade successRate without inflating coverage.
// An empty or fully failed input yields a well-formed empty result.
func Aggregate(p Params) (*model.GridSearchResult, error) {
	if p.GridRows <= 0 || p.GridCols <= 0 {
		return nil, eris.Errorf("aggregate: invalid grid dimensions %dx%d", p.GridRows, p.GridCols)
	}
	totalPoints := p.GridRows * p.GridCols
	log := zap.L().With(zap.String("component", "aggregate"))

	useObs := p.TargetObs != nil && len(p.TargetObs.Appearances) > 0

	gridPoints := make([]model.AggregatedGridPoint, 0, len(p.RawResults))
	reg := newRegistry(p.GridRows, p.GridCols)

	var (
		successful     int
		sumLat, sumLng float64
		targetRating   *float64
		targetReviews  *int
	)

	for i, rp := range p.RawResults {
		if rp.Success && rp.Results == nil {
			log.Warn("skipping malformed point result", zap.Int("index", i))
			continue
		}
		if rp.Point.Row < 0 || rp.Point.Row >= p.GridRows || rp.Point.Col < 0 || rp.Point.Col >= p.GridCols {
			log.Warn("skipping point outside configured grid",
				zap.Int("row", rp.Point.Row),
				zap.Int("col", rp.Point.Col),
			)
			continue
		}
		if !rp.Success {
			continue
		}
		successful++
		sumLat += rp.Point.Lat
		sumLng += rp.Point.Lng

		// The flat index must use the configured dimension; providers report
		// target appearances against the same formula.
		gridIndex := rp.Point.GridIndex(p.GridCols)

		targetRank := model.NotFoundRank
		if useObs {
			if rank, ok := p.TargetObs.RankAt(gridIndex); ok {
				targetRank = rank
			}
		} else if p.TargetName != "" {
			for _, b := range rp.Results {
				if NameMatches(p.TargetName, b.Name) {
					targetRank = b.Rank
					break
				}
			}
		}

		if p.TargetName != "" && (targetRating == nil || targetReviews == nil) {
			for _, b := range rp.Results {
				if !NameMatches(p.TargetName, b.Name) {
					continue
				}
				if targetRating == nil && b.Rating != 0 {
					rating := b.Rating
					targetRating = &rating
				}
				if targetReviews == nil && b.Reviews != 0 {
					reviews := b.Reviews
					targetReviews = &reviews
				}
				break
			}
		}

		top := make([]model.TopCompetitor, 0, min(len(rp.Results), topCompetitorsPerPoint))
		for _, b := range rp.Results[:min(len(rp.Results), topCompetitorsPerPoint)] {
			top = append(top, model.TopCompetitor{
				Name:    b.Name,
				Rank:    b.Rank,
				Rating:  b.Rating,
				Reviews: b.Reviews,
			})
		}

		gridPoints = append(gridPoints, model.AggregatedGridPoint{
			Lat:            rp.Point.Lat,
			Lng:            rp.Point.Lng,
			GridRow:        rp.Point.Row,
			GridCol:        rp.Point.Col,
			TargetRank:     targetRank,
			TotalResults:   len(rp.Results),
			TopCompetitors: top,
		})

		for _, b := range rp.Results {
			reg.observe(rp.Point, b)
		}
	}

	competitors, unique := reg.finalize(totalPoints, topCompetitorsOverall)

	centerLat, centerLng := p.CenterLat, p.CenterLng
	if centerLat == 0 && centerLng == 0 && successful > 0 {
		centerLat = round6(sumLat / float64(successful))
		centerLng = round6(sumLng / float64(successful))
	}

	var target *model.TargetSummary
	if successful > 0 && (useObs || p.TargetName != "") {
		target = targetSummary(p, gridPoints, totalPoints, centerLat, centerLng, targetRating, targetReviews)
	}

	return &model.GridSearchResult{
		GridPoints:     gridPoints,
		SearchTerm:     p.SearchTerm,
		TargetBusiness: target,
		Competitors:    competitors,
		Summary: model.Summary{
			TotalUniqueBusinesses: unique,
			SuccessRate:           round1(float64(successful) / float64(totalPoints) * 100),
			ExecutionTime:         p.ExecutionTime,
			GridRows:              p.GridRows,
			GridCols:              p.GridCols,
		},
		Location: model.Location{
			City:      p.City,
			State:     p.State,
			CenterLat: centerLat,
			CenterLng: centerLng,
		},
	}, nil
}

func targetSummary(p Params, gridPoints []model.AggregatedGridPoint, totalPoints int, centerLat, centerLng float64, rating *float64, reviews *int) *model.TargetSummary {
	name := p.TargetName
	obs := p.TargetObs
	if name == "" && obs != nil {
		name = obs.Name
	}

	s := &model.TargetSummary{
		Name:        name,
		Lat:         centerLat,
		Lng:         centerLng,
		Rating:      rating,
		Reviews:     reviews,
		TotalPoints: totalPoints,
		AvgRank:     model.NotFoundRank,
		BestRank:    model.NotFoundRank,
		WorstRank:   model.NotFoundRank,
	}

	var ranks []int
	if obs != nil && len(obs.Appearances) > 0 {
		s.PointsFound = len(obs.Appearances)
		ranks = obs.Ranks
		if obs.Rating != nil {
			s.Rating = obs.Rating
		}
		if obs.Reviews != nil {
			s.Reviews = obs.Reviews
		}
	} else {
		for _, gp := range gridPoints {
			if gp.TargetRank < model.NotFoundRank {
				s.PointsFound++
				ranks = append(ranks, gp.TargetRank)
			}
		}
	}

	s.Coverage = round1(float64(s.PointsFound) / float64(totalPoints) * 100)

	if len(ranks) > 0 {
		sum := 0
		best, worst := ranks[0], ranks[0]
		for _, r := range ranks {
			sum += r
			if r < best {
				best = r
			}
			if r > worst {
				worst = r
			}
		}
		s.AvgRank = round1(float64(sum) / float64(len(ranks)))
		s.BestRank = best
		s.WorstRank = worst
	}

	return s
}
