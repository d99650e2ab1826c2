package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func rateRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_AllowsWithinBurstThen429(t *testing.T) {
	rl := NewRateLimiter(0, 2, KeyByUserOrIP()) // no refill, burst of 2
	r := rateRouter(rl)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["code"] != ErrCodeRateLimited {
		t.Fatalf("code = %q", body["code"])
	}
}

func TestRateLimiter_BucketsArePerKey(t *testing.T) {
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	r := rateRouter(rl, Identity())

	send := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req.Header.Set(HeaderUserID, user)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := send("u1"); got != http.StatusOK {
		t.Fatalf("u1 first request: %d", got)
	}
	if got := send("u1"); got != http.StatusTooManyRequests {
		t.Fatalf("u1 second request: %d, want 429", got)
	}
	// A different user gets a fresh bucket.
	if got := send("u2"); got != http.StatusOK {
		t.Fatalf("u2 first request: %d", got)
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	markReplay := func(c *gin.Context) {
		c.Set(ctxKeyRateBypass, true)
		c.Next()
	}
	r := rateRouter(rl, markReplay)

	// With the bypass flag set, no tokens are consumed at all.
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d: status = %d", i+1, w.Code)
		}
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fn := KeyByUserOrIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:4711"
	if got := fn(c); got != "ip:203.0.113.7" {
		t.Fatalf("anonymous key = %q", got)
	}

	c.Set(ctxKeyUserID, "abc123")
	if got := fn(c); got != "user:abc123" {
		t.Fatalf("user key = %q", got)
	}
}

func TestIsRateBypass_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatal("bypass should default to false")
	}
}
