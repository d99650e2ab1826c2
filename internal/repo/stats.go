// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-backend/internal/access"
	"github.com/tbourn/go-feedback-backend/internal/domain"
)

// FeedbackStats returns aggregate metadata for the scoped record set: the
// total number of rows and the maximum SubmittedAt timestamp among them.
// Records are immutable, so (count, latest submission) fully identifies a
// listing's content and is cheap to turn into a weak ETag.
//
// Return values:
//   - count:          total records within scope
//   - maxSubmittedAt: pointer to the greatest SubmittedAt, or nil if no rows
//   - err:            database error, if any
func FeedbackStats(ctx context.Context, db *gorm.DB, scope access.Scope) (count int64, maxSubmittedAt *time.Time, err error) {
	q := scoped(db.WithContext(ctx).Model(&domain.FeedbackRecord{}), scope)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest submitted_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		SubmittedAt time.Time
	}
	if err = q.Select("submitted_at").Order("submitted_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.SubmittedAt, nil
}
