// Dashboard HTTP handler.
//
// This file exposes the HR summary endpoint:
//   - GET /dashboard  (aggregated statistics, staff only)
//
// The aggregation itself is computed in the stats package from one snapshot
// of the record set; this handler only resolves identity and maps errors.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feedback-backend/internal/http/middleware"
)

// GetDashboard godoc
// @ID          getDashboard
// @Summary     HR summary dashboard
// @Description Returns the aggregated view over all feedback records: total count, mean of the per-record average ratings, recommendation count, the five most recent records, per-position counts, and per-interviewer average overall ratings. All figures derive from one snapshot and are mutually consistent.
// @Tags        Dashboard
// @Produce     json
//
// @Param       X-User-ID     header  string  true  "Authenticated user ID (set by gateway)"  example(hr-001)
// @Param       X-User-Roles  header  string  true  "Comma-separated roles"                    example(hr)
//
// @Success     200  {object} stats.Summary
// @Failure     401  {object} handlers.ErrorResponse "Missing identity"
// @Failure     403  {object} handlers.ErrorResponse "Caller is not staff"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /dashboard [get]
func (h *Handlers) GetDashboard(c *gin.Context) {
	summary, err := h.dashSvc.Summary(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, summary)
}
