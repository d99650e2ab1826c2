package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestRedact(t *testing.T) {
	in := "candidate a.b+tag@example.com called from +1-555-123-4567 about 123e4567-e89b-12d3-a456-426614174000"
	out := Redact(in)
	if strings.Contains(out, "example.com") || strings.Contains(out, "555") ||
		strings.Contains(out, "123e4567") {
		t.Fatalf("identifiers survived: %q", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") ||
		!strings.Contains(out, "[REDACTED:phone]") ||
		!strings.Contains(out, "[REDACTED:id]") {
		t.Fatalf("markers missing: %q", out)
	}
	if Redact("") != "" {
		t.Fatal("empty input must pass through")
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// Simulate the upstream RequestID middleware.
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	// Roles are identity data, so the router masks them fully.
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{HeaderUserRoles}}))

	r.GET("/feedback/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Candidate PII in the search query string must be scrubbed, not logged.
	q := "q=ada.lovelace@example.com&phone=%2B1-555-123-4567&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/feedback/abc?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set(HeaderUserRoles, "hr,admin")
	req.Header.Set("X-Custom", "reach me at a@b.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("expected info log, got: %s", logs)
	}
	// The path label uses the route pattern, not the raw URL.
	if !strings.Contains(logs, `"path":"/feedback/:id"`) {
		t.Fatalf("expected route pattern path, got: %s", logs)
	}
	if !strings.Contains(logs, `"request_id":"rid-resp"`) {
		t.Fatalf("expected request_id from response header, got: %s", logs)
	}
	if !strings.Contains(logs, `[REDACTED:email]`) ||
		!strings.Contains(logs, `[REDACTED:phone]`) ||
		!strings.Contains(logs, `[REDACTED:id]`) {
		t.Fatalf("expected query redactions, got: %s", logs)
	}
	if !strings.Contains(logs, `"Authorization":"[REDACTED]"`) ||
		!strings.Contains(logs, `"Cookie":"[REDACTED]"`) {
		t.Fatalf("built-in headers must be masked: %s", logs)
	}
	if !strings.Contains(logs, `"`+HeaderUserRoles+`":"[REDACTED]"`) {
		t.Fatalf("%s must be masked: %s", HeaderUserRoles, logs)
	}
	if !strings.Contains(logs, `"X-Custom":"reach me at [REDACTED:email]"`) {
		t.Fatalf("expected redacted X-Custom header, got: %s", logs)
	}
	if strings.Contains(logs, "ada.lovelace") {
		t.Fatalf("candidate email leaked into logs: %s", logs)
	}
}

func TestRedactingLogger_LevelsAndRequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// No response X-Request-ID this time; the logger falls back to the
	// request header.
	r.Use(RedactingLogger(RedactOptions{}))

	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	reqWarn := httptest.NewRequest(http.MethodGet, "/warn", nil)
	reqWarn.Header.Set("X-Request-ID", "rid-warn")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/error", nil)
	reqErr.Header.Set("X-Request-ID", "rid-err")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, reqErr)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
}

func TestRedactingLogger_AttachesRequestScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/", func(c *gin.Context) {
		lg := LoggerFrom(c)
		lg.Info().Msg("from handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-scoped")
	r.ServeHTTP(w, req)

	logs := buf.String()
	if !strings.Contains(logs, `"from handler"`) || !strings.Contains(logs, `"request_id":"rid-scoped"`) {
		t.Fatalf("handler log missing request scope: %s", logs)
	}
}
