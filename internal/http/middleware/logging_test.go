package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		v, _ := c.Get(requestIDKey)
		seen = asString(v)
		c.Status(http.StatusOK)
	})

	// No incoming header: a fresh UUID is generated.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get(requestIDHeader)
	if rid == "" || rid != seen {
		t.Fatalf("generated id: header=%q context=%q", rid, seen)
	}
	if _, err := uuid.Parse(rid); err != nil {
		t.Fatalf("generated id is not a UUID: %q", rid)
	}

	// Incoming header is reused verbatim.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "rid-upstream")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "rid-upstream" || seen != "rid-upstream" {
		t.Fatalf("propagated id: header=%q context=%q", w.Header().Get(requestIDHeader), seen)
	}
}

func TestRecovery_PanicBecomesJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-panic")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-panic" {
		t.Fatalf("body = %v", body)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
}

func TestRecovery_PanicAfterWriteKeepsPartialResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))

	// The committed body must not be replaced with the JSON envelope.
	if !strings.Contains(w.Body.String(), "partial") {
		t.Fatalf("body = %q", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("JSON envelope written over committed response: %q", w.Body.String())
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if lg := LoggerFrom(c); lg == nil {
		t.Fatal("LoggerFrom returned nil")
	}
}

func TestAsString(t *testing.T) {
	if asString("x") != "x" || asString(nil) != "" || asString(42) != "" {
		t.Fatal("asString conversions wrong")
	}
}
