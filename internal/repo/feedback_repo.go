// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// FeedbackRecord model, the Record Store of the portal.
//
// The repository follows a "thin" approach: it performs persistence and scope
// narrowing, leaving validation, filtering, and aggregation to higher layers.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a record is missing, or exists but is outside the caller's scope,
//     functions return ErrNotFound. The two cases are deliberately
//     indistinguishable so an out-of-scope caller cannot probe for the
//     existence of other candidates' records.
//   - DeleteFeedback is idempotent: deleting an unknown id is a successful
//     no-op.
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated; the service layer translates it to its
//     availability taxonomy.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-backend/internal/access"
	"github.com/tbourn/go-feedback-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist or is out of
// the caller's scope. It aliases gorm.ErrRecordNotFound for convenience and
// consistency across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// scoped narrows a query to the given access scope. An empty scope yields a
// query that matches no rows, so callers never branch on scope kind.
func scoped(q *gorm.DB, scope access.Scope) *gorm.DB {
	switch {
	case scope.All():
		return q
	case scope.Empty():
		return q.Where("1 = 0")
	default:
		owner, _ := scope.OwnerID()
		return q.Where("owner_user_id = ?", owner)
	}
}

// CreateFeedback persists a validated record. The store assigns ID (UUID) and
// SubmittedAt (UTC now); both are immutable afterwards. The insert is a single
// statement, so concurrent readers observe either the whole record or nothing.
//
// On success the persisted record, including its assigned fields, is returned.
func CreateFeedback(ctx context.Context, db *gorm.DB, rec domain.FeedbackRecord) (*domain.FeedbackRecord, error) {
	rec.ID = uuid.NewString()
	rec.SubmittedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetFeedback fetches a single record by id within scope. Missing and
// out-of-scope ids both return ErrNotFound.
func GetFeedback(ctx context.Context, db *gorm.DB, id string, scope access.Scope) (*domain.FeedbackRecord, error) {
	var rec domain.FeedbackRecord
	err := scoped(db.WithContext(ctx), scope).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteFeedback removes a record by id. The delete is idempotent: removing a
// nonexistent id succeeds without error. A concurrent GetFeedback observes
// either the intact record or ErrNotFound, never a partial row.
func DeleteFeedback(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.FeedbackRecord{}).Error
}

// ListFeedback returns every record within scope. No ordering is guaranteed;
// callers needing the listing contract apply the filter package. The single
// SELECT makes the result a consistent snapshot, which the dashboard relies
// on for its statistics.
func ListFeedback(ctx context.Context, db *gorm.DB, scope access.Scope) ([]domain.FeedbackRecord, error) {
	var out []domain.FeedbackRecord
	err := scoped(db.WithContext(ctx), scope).Find(&out).Error
	return out, err
}

// CountFeedback returns the number of records within scope.
func CountFeedback(ctx context.Context, db *gorm.DB, scope access.Scope) (int64, error) {
	var total int64
	err := scoped(db.WithContext(ctx).Model(&domain.FeedbackRecord{}), scope).
		Count(&total).Error
	return total, err
}
