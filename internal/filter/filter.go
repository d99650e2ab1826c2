// Package filter provides a simple, deterministic, pure-function predicate
// engine over feedback records. It is intentionally small and side-effect
// free, but engineered with production-grade ergonomics:
//
//   - No logging and no persistence access (callers pass an already-scoped
//     slice of records)
//   - Optional predicates combined with logical AND; an absent predicate
//     imposes no constraint
//   - Deterministic result ordering independent of storage order:
//     SubmittedAt descending, ID descending for ties
//   - Substring matching is case-sensitive by default; Unicode case folding
//     is available as a functional option (golang.org/x/text)
//
// Access scoping happens before filtering; this package never widens the
// record set it is given.
package filter

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-feedback-backend/internal/domain"
)

// Predicates is the optional filter set for a listing request. Zero-valued
// fields are treated as absent. All present predicates must match (AND).
type Predicates struct {
	// Search matches records whose CandidateName OR CandidateEmail contains
	// the text as a substring.
	Search string
	// Position matches records whose Position contains the text.
	Position string
	// Interviewer matches records whose InterviewerName contains the text.
	Interviewer string
	// From / To bound InterviewDate inclusively; either side may be open.
	From *time.Time
	To   *time.Time
}

// Empty reports whether no predicate is set.
func (p Predicates) Empty() bool {
	return p.Search == "" && p.Position == "" && p.Interviewer == "" &&
		p.From == nil && p.To == nil
}

// ----------------------------------------------------------------------------
// Options

// Option customises matching behavior.
type Option func(*config)

type config struct {
	foldCase bool
}

// WithCaseFolding makes substring matching case-insensitive using Unicode
// simple case folding. The default is case-sensitive matching, preserving the
// behavior of the original portal.
func WithCaseFolding(enabled bool) Option {
	return func(c *config) { c.foldCase = enabled }
}

// ----------------------------------------------------------------------------
// Engine

// Apply returns the subsequence of records matching every present predicate,
// ordered by SubmittedAt descending with ID descending as the tiebreak. The
// input slice is never mutated; the result is a fresh slice.
func Apply(records []domain.FeedbackRecord, p Predicates, opts ...Option) []domain.FeedbackRecord {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	contains := newMatcher(cfg.foldCase)

	out := make([]domain.FeedbackRecord, 0, len(records))
	for _, r := range records {
		if p.Search != "" &&
			!contains(r.CandidateName, p.Search) &&
			!contains(r.CandidateEmail, p.Search) {
			continue
		}
		if p.Position != "" && !contains(r.Position, p.Position) {
			continue
		}
		if p.Interviewer != "" && !contains(r.InterviewerName, p.Interviewer) {
			continue
		}
		if p.From != nil && dateOf(r.InterviewDate).Before(dateOf(*p.From)) {
			continue
		}
		if p.To != nil && dateOf(r.InterviewDate).After(dateOf(*p.To)) {
			continue
		}
		out = append(out, r)
	}

	Sort(out)
	return out
}

// Sort orders records in place by the listing contract: SubmittedAt
// descending, ID descending for identical timestamps.
func Sort(records []domain.FeedbackRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		return a.ID > b.ID
	})
}

// Recent returns the first n records of rs after applying the listing order.
// The input slice is not mutated.
func Recent(rs []domain.FeedbackRecord, n int) []domain.FeedbackRecord {
	out := make([]domain.FeedbackRecord, len(rs))
	copy(out, rs)
	Sort(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// newMatcher returns the substring predicate for the configured case mode.
func newMatcher(fold bool) func(haystack, needle string) bool {
	if !fold {
		return strings.Contains
	}
	folder := cases.Fold()
	return func(haystack, needle string) bool {
		return strings.Contains(folder.String(haystack), folder.String(needle))
	}
}

// dateOf truncates t to its calendar date in t's location. Interview dates
// carry no meaningful time component; bounds compare whole days inclusively.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
