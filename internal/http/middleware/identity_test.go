package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feedback-backend/internal/access"
)

func serveIdentity(t *testing.T, userID, roles string) access.Identity {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got access.Identity
	r := gin.New()
	r.Use(Identity())
	r.GET("/", func(c *gin.Context) {
		got = IdentityFrom(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	if roles != "" {
		req.Header.Set(HeaderUserRoles, roles)
	}
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestIdentity_ResolvesHeaders(t *testing.T) {
	ident := serveIdentity(t, "u-123", "HR,candidate")
	if ident.UserID != "u-123" {
		t.Fatalf("UserID = %q", ident.UserID)
	}
	if !ident.Has(access.RoleHR) || !ident.Has(access.RoleCandidate) {
		t.Fatalf("roles = %v", ident.Roles)
	}
}

func TestIdentity_AbsentHeadersMeanAnonymous(t *testing.T) {
	ident := serveIdentity(t, "", "")
	if ident.Authenticated() {
		t.Fatalf("expected anonymous, got %+v", ident)
	}
}

func TestIdentity_WhitespaceIDIsAnonymous(t *testing.T) {
	ident := serveIdentity(t, "   ", "hr")
	if ident.Authenticated() {
		t.Fatalf("whitespace id should stay anonymous, got %+v", ident)
	}
}

func TestIdentity_RolesWithoutIDIgnored(t *testing.T) {
	// A role header with no user id must not grant anything.
	ident := serveIdentity(t, "", "hr,admin")
	if ident.Authenticated() || len(ident.Roles) != 0 {
		t.Fatalf("roles without id should be dropped, got %+v", ident)
	}
}

func TestIdentityFrom_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := IdentityFrom(c); got.Authenticated() {
		t.Fatalf("missing middleware should yield anonymous, got %+v", got)
	}
}
