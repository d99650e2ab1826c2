// Package services – FeedbackService
//
// This file implements the FeedbackService, which owns the lifecycle of
// feedback records: validated submission, scoped retrieval and listing, and
// authorized deletion. Every operation takes the caller identity explicitly;
// the access scope is resolved first and applied before any filtering, so
// filter parameters never operate outside the caller's scope.
//
// Service-level errors (ErrUnauthenticated, ErrForbidden, ErrRecordNotFound,
// ErrStoreUnavailable, *ValidationError) are returned for predictable cases
// so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-backend/internal/access"
	"github.com/tbourn/go-feedback-backend/internal/domain"
	"github.com/tbourn/go-feedback-backend/internal/filter"
	"github.com/tbourn/go-feedback-backend/internal/repo"
)

// FeedbackRepo defines the repository contract required by FeedbackService.
// Implementations are responsible for persistence of feedback records.
type FeedbackRepo interface {
	// CreateFeedback persists a validated record, assigning id and
	// submission timestamp.
	CreateFeedback(ctx context.Context, db *gorm.DB, rec domain.FeedbackRecord) (*domain.FeedbackRecord, error)

	// GetFeedback fetches a record by id within scope, or repo.ErrNotFound.
	GetFeedback(ctx context.Context, db *gorm.DB, id string, scope access.Scope) (*domain.FeedbackRecord, error)

	// DeleteFeedback removes a record by id; idempotent.
	DeleteFeedback(ctx context.Context, db *gorm.DB, id string) error

	// ListFeedback returns all records within scope, unordered.
	ListFeedback(ctx context.Context, db *gorm.DB, scope access.Scope) ([]domain.FeedbackRecord, error)
}

// FeedbackService provides record-level operations over the store handle
// passed at construction. It is safe for concurrent use; no state is shared
// across calls beyond the database.
type FeedbackService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the record repository used by this service.
	Repo FeedbackRepo

	// FoldCase switches substring filtering to Unicode case-insensitive
	// matching. Off by default, preserving the portal's original
	// case-sensitive behavior.
	FoldCase bool
}

// Submit validates in against the model constraints and persists a new
// record owned by the caller. On success the persisted record (with its
// store-assigned id and submission timestamp) is returned.
//
// Failure modes:
//   - ErrUnauthenticated when no identity is presented.
//   - *ValidationError listing every violated constraint; nothing persisted.
//   - ErrStoreUnavailable on store failure. The write is never retried here:
//     a blind retry could record a candidate's submission twice.
func (s *FeedbackService) Submit(ctx context.Context, ident access.Identity, in SubmitFeedbackInput) (*domain.FeedbackRecord, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if verr := ValidateSubmission(in); verr != nil {
		return nil, verr
	}

	owner := ident.UserID
	rec := domain.FeedbackRecord{
		CandidateName:   in.CandidateName,
		CandidateEmail:  in.CandidateEmail,
		Position:        in.Position,
		InterviewDate:   in.InterviewDate.UTC(),
		InterviewerName: in.InterviewerName,
		Overall:         in.Overall,
		Communication:   in.Communication,
		Technical:       in.Technical,
		Process:         in.Process,
		Comments:        in.Comments,
		Recommend:       in.Recommend,
		Suggestions:     in.Suggestions,
		OwnerUserID:     &owner,
	}

	created, err := s.Repo.CreateFeedback(ctx, s.DB, rec)
	if err != nil {
		return nil, s.storeErr(ctx, err)
	}
	return created, nil
}

// Get returns the record with the given id if it lies within the caller's
// scope. Unknown ids and out-of-scope ids are both ErrRecordNotFound.
func (s *FeedbackService) Get(ctx context.Context, ident access.Identity, id string) (*domain.FeedbackRecord, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	scope := access.Resolve(ident)

	rec, err := s.Repo.GetFeedback(ctx, s.DB, id, scope)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Read-only: one transparent retry before surfacing unavailability.
		rec, err = s.Repo.GetFeedback(ctx, s.DB, id, scope)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrRecordNotFound
			}
			return nil, s.storeErr(ctx, err)
		}
	}
	return rec, nil
}

// Delete removes a record by id. Only HR/Admin may delete; candidates cannot
// remove records, not even their own. The operation is idempotent: deleting
// an unknown id succeeds.
func (s *FeedbackService) Delete(ctx context.Context, ident access.Identity, id string) error {
	if !ident.Authenticated() {
		return ErrUnauthenticated
	}
	if !access.CanDelete(ident) {
		return ErrForbidden
	}
	if err := s.Repo.DeleteFeedback(ctx, s.DB, id); err != nil {
		return s.storeErr(ctx, err)
	}
	return nil
}

// List returns the caller's scoped records narrowed by the optional predicate
// set, in the listing order (submitted_at desc, id desc). A candidate's
// predicates apply only to their own records.
func (s *FeedbackService) List(ctx context.Context, ident access.Identity, preds filter.Predicates) ([]domain.FeedbackRecord, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	recs, err := s.listScoped(ctx, access.Resolve(ident))
	if err != nil {
		return nil, err
	}
	return filter.Apply(recs, preds, filter.WithCaseFolding(s.FoldCase)), nil
}

// ListPage is List plus in-memory pagination; it returns the requested page
// and the total matching count. Defaults are applied for invalid page sizes.
func (s *FeedbackService) ListPage(ctx context.Context, ident access.Identity, preds filter.Predicates, page, pageSize int) ([]domain.FeedbackRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	matched, err := s.List(ctx, ident, preds)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.FeedbackRecord{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// ListOwn returns the caller's own records in the listing order. Only
// candidates use this surface; staff list through List.
func (s *FeedbackService) ListOwn(ctx context.Context, ident access.Identity) ([]domain.FeedbackRecord, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !ident.Has(access.RoleCandidate) {
		return nil, ErrForbidden
	}
	recs, err := s.listScoped(ctx, access.ScopeOwner(ident.UserID))
	if err != nil {
		return nil, err
	}
	filter.Sort(recs)
	return recs, nil
}

// listScoped fetches the scoped record set, retrying the read once before
// reporting the store unavailable. Cancellation is surfaced as the context
// error, never as a partial result.
func (s *FeedbackService) listScoped(ctx context.Context, scope access.Scope) ([]domain.FeedbackRecord, error) {
	recs, err := s.Repo.ListFeedback(ctx, s.DB, scope)
	if err == nil {
		return recs, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	recs, err = s.Repo.ListFeedback(ctx, s.DB, scope)
	if err != nil {
		return nil, s.storeErr(ctx, err)
	}
	return recs, nil
}

// storeErr distinguishes caller cancellation from store unavailability.
func (s *FeedbackService) storeErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
