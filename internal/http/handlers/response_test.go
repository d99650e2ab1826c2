package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feedback-backend/internal/services"
)

func TestFail_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-123")
		fail(c, http.StatusNotFound, ErrCodeNotFound, "feedback record not found")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.RequestID != "rid-123" || resp.Code != ErrCodeNotFound ||
		resp.Message != "feedback record not found" {
		t.Fatalf("envelope = %+v", resp)
	}
	if resp.Fields != nil {
		t.Fatalf("fields should be omitted, got %v", resp.Fields)
	}
}

func TestFail_AbortsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false
	r.GET("/x",
		func(c *gin.Context) { Fail(c, http.StatusForbidden, ErrCodeForbidden, "forbidden") },
		func(c *gin.Context) { reached = true },
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
	if reached {
		t.Fatal("chain continued after Fail")
	}
}

func TestFailValidation_CarriesEveryField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	verr := &services.ValidationError{Fields: map[string]string{
		"comments":       "must be at least 10 characters",
		"overall_rating": "must be between 1 and 5",
	}}
	r.POST("/v", func(c *gin.Context) { failValidation(c, verr) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v", nil))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != ErrCodeValidationFailed {
		t.Fatalf("code = %q", resp.Code)
	}
	if len(resp.Fields) != 2 ||
		resp.Fields["comments"] == "" || resp.Fields["overall_rating"] == "" {
		t.Fatalf("fields = %v", resp.Fields)
	}
}

func TestNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/d", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/d", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body = %q", w.Body.String())
	}
}
