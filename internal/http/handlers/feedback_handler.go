// Feedback HTTP handlers.
//
// This file exposes REST endpoints for interview feedback records:
//   - POST   /feedback        (submit, Idempotency-Key aware)
//   - GET    /feedback        (list, filterable, paginated, ETag support)
//   - GET    /feedback/mine   (candidate self-service listing)
//   - GET    /feedback/{id}   (detail)
//   - DELETE /feedback/{id}   (staff-only removal, idempotent)
//
// Handlers are transport-thin: they resolve the caller identity, parse and
// validate wire input, call application services, and translate results into
// HTTP responses (including conditional responses). Access decisions live in
// the services/access layers; handlers never widen scope.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-backend/internal/access"
	"github.com/tbourn/go-feedback-backend/internal/domain"
	"github.com/tbourn/go-feedback-backend/internal/filter"
	"github.com/tbourn/go-feedback-backend/internal/http/middleware"
	"github.com/tbourn/go-feedback-backend/internal/repo"
	"github.com/tbourn/go-feedback-backend/internal/services"
	"github.com/tbourn/go-feedback-backend/internal/stats"
	"github.com/tbourn/go-feedback-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// FeedbackService defines feedback record operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type FeedbackService interface {
	// Submit validates and persists a new record owned by the caller.
	Submit(ctx context.Context, ident access.Identity, in services.SubmitFeedbackInput) (*domain.FeedbackRecord, error)
	// Get returns one record within the caller's scope.
	Get(ctx context.Context, ident access.Identity, id string) (*domain.FeedbackRecord, error)
	// Delete removes a record (staff only, idempotent).
	Delete(ctx context.Context, ident access.Identity, id string) error
	// ListPage returns a filtered page of scoped records and the total match count.
	ListPage(ctx context.Context, ident access.Identity, preds filter.Predicates, page, pageSize int) ([]domain.FeedbackRecord, int64, error)
	// ListOwn returns a candidate's own records.
	ListOwn(ctx context.Context, ident access.Identity) ([]domain.FeedbackRecord, error)
}

// DashboardService defines the HR dashboard aggregation consumed by GetDashboard.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DashboardService interface {
	// Summary computes the full dashboard aggregation for a staff caller.
	Summary(ctx context.Context, ident access.Identity) (*stats.Summary, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for feedback records and the dashboard.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	fbSvc   FeedbackService
	dashSvc DashboardService

	// idemTTL bounds how long a completed submission can be replayed via
	// Idempotency-Key. Zero disables replay persistence.
	idemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
// idemTTL controls the Idempotency-Key replay window for submissions.
func New(fbSvc FeedbackService, dashSvc DashboardService, idemTTL time.Duration) *Handlers {
	return &Handlers{fbSvc: fbSvc, dashSvc: dashSvc, idemTTL: idemTTL}
}

// db exposes the underlying GORM handle when the concrete service carries
// one. Used for best-effort side channels (ETag stats, idempotency records)
// that must not leak into the service contract.
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.fbSvc.(*services.FeedbackService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// SubmitFeedbackRequest is the JSON payload for submitting interview feedback.
//
// InterviewDate is a calendar date in YYYY-MM-DD form (RFC 3339 timestamps
// are also accepted). All other constraints are enforced by the service
// layer, which reports every violation at once.
type SubmitFeedbackRequest struct {
	CandidateName   string `json:"candidate_name" example:"Ada Lovelace"`
	CandidateEmail  string `json:"candidate_email" example:"ada@example.com"`
	Position        string `json:"position" example:"Backend Engineer"`
	InterviewDate   string `json:"interview_date" example:"2025-06-02"`
	InterviewerName string `json:"interviewer_name" example:"Grace Hopper"`
	Overall         int    `json:"overall_rating" example:"4"`
	Communication   int    `json:"communication_rating" example:"5"`
	Technical       int    `json:"technical_rating" example:"4"`
	Process         int    `json:"process_rating" example:"4"`
	Comments        string `json:"comments" example:"Clear and structured process."`
	Recommend       bool   `json:"recommend" example:"true"`
	Suggestions     string `json:"suggestions,omitempty" example:"Share the agenda beforehand."`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListFeedbackResponse wraps a page of feedback records and pagination
// information.
type ListFeedbackResponse struct {
	Feedback   []domain.FeedbackRecord `json:"feedback"`
	Pagination Pagination              `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// failService maps service-layer errors onto HTTP responses. Every handler
// funnels unexpected outcomes through here so the envelope stays uniform.
func failService(c *gin.Context, err error) {
	if verr, isVal := services.AsValidationError(err); isVal {
		failValidation(c, verr)
		return
	}
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthenticated, "authentication required")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "operation not permitted for role")
	case errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "feedback record not found")
	case errors.Is(err, services.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "record store unavailable")
	case errors.Is(err, context.Canceled):
		// 499: client closed request (nginx convention).
		fail(c, 499, ErrCodeCancelled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, ErrCodeCancelled, "request timed out")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// SubmitFeedback godoc
// @ID          submitFeedback
// @Summary     Submit interview feedback
// @Description Validates and persists a new feedback record owned by the caller. Supports safe retries via the Idempotency-Key header: a replayed key returns the originally created record instead of inserting twice.
// @Tags        Feedback
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "Authenticated user ID (set by gateway)"  example(user123)
// @Param       X-User-Roles     header  string  false "Comma-separated roles"                    example(candidate)
// @Param       Idempotency-Key  header  string  false "Client-chosen key for safe retries"
// @Param       body             body    handlers.SubmitFeedbackRequest  true  "Feedback payload"
//
// @Success     201  {object}  domain.FeedbackRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed JSON or date"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed (all violations listed)"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /feedback [post]
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	ident := middleware.IdentityFrom(c)

	// Replay path: a previously completed submission with the same key
	// returns the original record without touching the store again.
	if middleware.IsReplay(c) {
		if h.serveReplay(c, ident) {
			return
		}
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	in := services.SubmitFeedbackInput{
		CandidateName:   strings.TrimSpace(req.CandidateName),
		CandidateEmail:  strings.TrimSpace(req.CandidateEmail),
		Position:        strings.TrimSpace(req.Position),
		InterviewerName: strings.TrimSpace(req.InterviewerName),
		Overall:         req.Overall,
		Communication:   req.Communication,
		Technical:       req.Technical,
		Process:         req.Process,
		Comments:        req.Comments,
		Recommend:       req.Recommend,
		Suggestions:     req.Suggestions,
	}
	if req.InterviewDate != "" {
		t, err := parseDate(req.InterviewDate)
		if err != nil {
			failValidation(c, &services.ValidationError{Fields: map[string]string{
				"interview_date": "must be a date in YYYY-MM-DD format",
			}})
			return
		}
		in.InterviewDate = t
	}

	rec, err := h.fbSvc.Submit(ctx, ident, in)
	if err != nil {
		failService(c, err)
		return
	}

	// Best effort: remember the completed submission for replay detection.
	h.recordIdempotency(c, ident.UserID, rec.ID)

	ok(c, http.StatusCreated, rec)
}

// serveReplay answers a replayed submission from the stored idempotency
// record. Returns false when the replay cannot be served (the caller then
// proceeds with a normal submit).
func (h *Handlers) serveReplay(c *gin.Context, ident access.Identity) bool {
	db := h.db()
	key, hasKey := middleware.GetIdempotencyKey(c)
	if db == nil || !hasKey {
		return false
	}
	idem, err := repo.GetIdempotency(c.Request.Context(), db, ident.UserID, key, time.Now().UTC())
	if err != nil {
		return false
	}
	c.Header("Idempotency-Replayed", "true")
	if rec, err := h.fbSvc.Get(c.Request.Context(), ident, idem.RecordID); err == nil {
		ok(c, idem.Status, rec)
		return true
	}
	// Record deleted since; the id is still the truthful answer.
	ok(c, idem.Status, gin.H{"id": idem.RecordID})
	return true
}

// recordIdempotency persists the (user, key) → record mapping after a
// successful submission. Failures are logged, never surfaced: the submission
// itself already succeeded.
func (h *Handlers) recordIdempotency(c *gin.Context, userID, recordID string) {
	if h.idemTTL <= 0 {
		return
	}
	key, hasKey := middleware.GetIdempotencyKey(c)
	db := h.db()
	if !hasKey || db == nil {
		return
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), db, userID, key, recordID, http.StatusCreated, h.idemTTL)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}

// ListFeedback godoc
// @ID          listFeedback
// @Summary     List feedback records (filterable, paginated)
// @Description Returns a page of feedback records within the caller's scope, narrowed by the optional filter params. Ordering is submission time descending. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID      header  string  true  "Authenticated user ID (set by gateway)"  example(hr-001)
// @Param       X-User-Roles   header  string  false "Comma-separated roles"                    example(hr)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       q              query   string  false "Substring over candidate name or email"
// @Param       position       query   string  false "Substring over position"
// @Param       interviewer    query   string  false "Substring over interviewer name"
// @Param       from           query   string  false "Earliest interview date (inclusive, YYYY-MM-DD)"
// @Param       to             query   string  false "Latest interview date (inclusive, YYYY-MM-DD)"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListFeedbackResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad filter parameter"
// @Failure     401  {object} handlers.ErrorResponse "Missing identity"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /feedback [get]
func (h *Handlers) ListFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	ident := middleware.IdentityFrom(c)
	page, pageSize := clampPagination(c)

	preds, perr := parsePredicates(c)
	if perr != "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, perr)
		return
	}

	// ETag pre-check (best effort). Records are immutable, so scope row count
	// plus the newest submission timestamp identify the listing content.
	if db := h.db(); db != nil && ident.Authenticated() {
		count, maxTS, err := repo.FeedbackStats(ctx, db, access.Resolve(ident))
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"feedback:%s:%d:%d:%x"`, ident.UserID, count, ts, queryHash(c))
			c.Header("ETag", etag)
			c.Header("Cache-Control", "private, no-cache")
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.fbSvc.ListPage(ctx, ident, preds, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	ok(c, http.StatusOK, pageResponse(items, total, page, pageSize))
}

// parsePredicates builds the filter predicate set from query params. The
// second return value is a non-empty message when a date param is malformed.
func parsePredicates(c *gin.Context) (filter.Predicates, string) {
	preds := filter.Predicates{
		Search:      c.Query("q"),
		Position:    c.Query("position"),
		Interviewer: c.Query("interviewer"),
	}
	if s := c.Query("from"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return preds, "from must be a date in YYYY-MM-DD format"
		}
		preds.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return preds, "to must be a date in YYYY-MM-DD format"
		}
		preds.To = &t
	}
	return preds, ""
}

// queryHash folds the raw query string into the ETag so distinct filter/page
// combinations never share a validator.
func queryHash(c *gin.Context) uint32 {
	hsh := fnv.New32a()
	hsh.Write([]byte(c.Request.URL.RawQuery))
	return hsh.Sum32()
}

// pageResponse assembles the list envelope with pagination metadata.
func pageResponse(items []domain.FeedbackRecord, total int64, page, pageSize int) ListFeedbackResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return ListFeedbackResponse{
		Feedback: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
}

// GetFeedback godoc
// @ID          getFeedback
// @Summary     Get one feedback record
// @Description Returns the record with the given id if it lies within the caller's scope. Unknown and out-of-scope ids are indistinguishable 404s.
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID     header  string  true  "Authenticated user ID (set by gateway)"  example(hr-001)
// @Param       X-User-Roles  header  string  false "Comma-separated roles"                    example(hr)
// @Param       id            path    string  true  "Record ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.FeedbackRecord
// @Failure     400  {object} handlers.ErrorResponse "Malformed id"
// @Failure     401  {object} handlers.ErrorResponse "Missing identity"
// @Failure     404  {object} handlers.ErrorResponse "Not found or out of scope"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /feedback/{id} [get]
func (h *Handlers) GetFeedback(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be a UUID")
		return
	}

	rec, err := h.fbSvc.Get(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// DeleteFeedback godoc
// @ID          deleteFeedback
// @Summary     Delete a feedback record
// @Description Removes a record. Staff only; candidates cannot delete records, not even their own. Deleting an unknown id succeeds (idempotent).
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID     header  string  true  "Authenticated user ID (set by gateway)"  example(hr-001)
// @Param       X-User-Roles  header  string  true  "Comma-separated roles"                    example(hr)
// @Param       id            path    string  true  "Record ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Malformed id"
// @Failure     401  {object} handlers.ErrorResponse "Missing identity"
// @Failure     403  {object} handlers.ErrorResponse "Caller is not staff"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /feedback/{id} [delete]
func (h *Handlers) DeleteFeedback(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be a UUID")
		return
	}

	if err := h.fbSvc.Delete(c.Request.Context(), middleware.IdentityFrom(c), id); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListMyFeedback godoc
// @ID          listMyFeedback
// @Summary     List the caller's own feedback records
// @Description Candidate self-service surface: returns every record owned by the caller in submission order, newest first.
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID     header  string  true  "Authenticated user ID (set by gateway)"  example(cand-042)
// @Param       X-User-Roles  header  string  true  "Comma-separated roles"                    example(candidate)
//
// @Success     200  {array}  domain.FeedbackRecord
// @Failure     401  {object} handlers.ErrorResponse "Missing identity"
// @Failure     403  {object} handlers.ErrorResponse "Caller is not a candidate"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /feedback/mine [get]
func (h *Handlers) ListMyFeedback(c *gin.Context) {
	recs, err := h.fbSvc.ListOwn(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, recs)
}
