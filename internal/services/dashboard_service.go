// Package services – DashboardService
//
// This file implements the DashboardService, which computes the HR summary
// dashboard. The aggregation is restricted to staff roles; candidates are
// denied. All statistics in a response are derived from one snapshot of the
// scoped record set (a single SELECT), so counts, means, group-bys, and the
// recent list can never disagree with each other.
//
// Observability: Summary is OpenTelemetry-instrumented; spans carry the
// caller id and the snapshot size.
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-feedback-backend/internal/access"
	"github.com/tbourn/go-feedback-backend/internal/repo"
	"github.com/tbourn/go-feedback-backend/internal/stats"
)

// DashboardService computes request-time aggregations for the HR dashboard.
// Nothing is persisted; every call reads a fresh snapshot.
type DashboardService struct {
	// DB is the database handle used for the snapshot read.
	DB *gorm.DB
}

// Summary computes the dashboard aggregation for a staff caller.
//
// Failure modes:
//   - ErrUnauthenticated when no identity is presented.
//   - ErrForbidden when the caller is not HR/Admin.
//   - ErrStoreUnavailable when the snapshot read fails twice (one transparent
//     retry is allowed for this read-only operation).
//   - The context error when the caller cancels mid-aggregation; a partial
//     summary is never returned.
func (s *DashboardService) Summary(ctx context.Context, ident access.Identity) (*stats.Summary, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !access.CanViewDashboard(ident) {
		return nil, ErrForbidden
	}

	tr := otel.Tracer("services/DashboardService")
	ctx, span := tr.Start(ctx, "Summary",
		trace.WithAttributes(attribute.String("user.id", ident.UserID)),
	)
	defer span.End()

	scope := access.Resolve(ident)
	recs, err := repo.ListFeedback(ctx, s.DB, scope)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		recs, err = repo.ListFeedback(ctx, s.DB, scope)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	span.SetAttributes(attribute.Int("feedback.snapshot_size", len(recs)))

	summary := stats.Compute(recs)
	return &summary, nil
}
