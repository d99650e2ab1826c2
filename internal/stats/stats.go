// Package stats computes the dashboard aggregation over a scoped set of
// feedback records. The computation is a pure function of its input slice, so
// snapshot consistency is inherited from the caller: fetch the scoped record
// set once, then derive every statistic from that one slice.
//
// Grouped outputs are sorted slices rather than maps so that presentation
// order is deterministic (JSON objects and Go maps give no ordering
// guarantee).
package stats

import (
	"sort"

	"github.com/tbourn/go-feedback-backend/internal/domain"
	"github.com/tbourn/go-feedback-backend/internal/filter"
)

// RecentLimit is the number of records shown in the dashboard's recent list.
const RecentLimit = 5

// PositionCount is the number of records for one distinct position value.
type PositionCount struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
}

// InterviewerRating is the mean overall rating across one interviewer's
// records.
type InterviewerRating struct {
	Interviewer   string  `json:"interviewer"`
	AverageRating float64 `json:"average_rating"`
}

// Summary is the dashboard aggregation payload. All fields are derived from
// the same snapshot of the record set.
type Summary struct {
	// TotalCount is the size of the scoped record set.
	TotalCount int `json:"total_count"`
	// AverageRating is the mean of each record's per-record average rating;
	// zero when the set is empty (explicit policy, not an error).
	AverageRating float64 `json:"average_rating"`
	// RecommendationCount counts records with Recommend == true.
	RecommendationCount int `json:"recommendation_count"`
	// RecentRecords holds the top records by the listing order
	// (SubmittedAt desc, ID desc), capped at RecentLimit.
	RecentRecords []domain.FeedbackRecord `json:"recent_records"`
	// PositionStats maps distinct positions to record counts, sorted by
	// count descending then position ascending.
	PositionStats []PositionCount `json:"position_stats"`
	// InterviewerRatings maps distinct interviewers to their mean overall
	// rating, sorted alphabetically by interviewer name.
	InterviewerRatings []InterviewerRating `json:"interviewer_ratings"`
}

// Compute derives the full dashboard summary from one snapshot of records.
func Compute(records []domain.FeedbackRecord) Summary {
	s := Summary{
		TotalCount:         len(records),
		RecentRecords:      filter.Recent(records, RecentLimit),
		PositionStats:      []PositionCount{},
		InterviewerRatings: []InterviewerRating{},
	}

	var ratingSum float64
	byPosition := make(map[string]int)
	overallSum := make(map[string]int)
	overallN := make(map[string]int)

	for _, r := range records {
		ratingSum += r.AverageRating()
		if r.Recommend {
			s.RecommendationCount++
		}
		byPosition[r.Position]++
		overallSum[r.InterviewerName] += r.Overall
		overallN[r.InterviewerName]++
	}

	if len(records) > 0 {
		s.AverageRating = ratingSum / float64(len(records))
	}

	for pos, n := range byPosition {
		s.PositionStats = append(s.PositionStats, PositionCount{Position: pos, Count: n})
	}
	sort.Slice(s.PositionStats, func(i, j int) bool {
		a, b := s.PositionStats[i], s.PositionStats[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Position < b.Position
	})

	for name, n := range overallN {
		s.InterviewerRatings = append(s.InterviewerRatings, InterviewerRating{
			Interviewer:   name,
			AverageRating: float64(overallSum[name]) / float64(n),
		})
	}
	sort.Slice(s.InterviewerRatings, func(i, j int) bool {
		return s.InterviewerRatings[i].Interviewer < s.InterviewerRatings[j].Interviewer
	})

	return s
}
