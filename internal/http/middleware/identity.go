// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file injects the caller identity resolved by the upstream auth
// gateway. Authentication and session issuance are external collaborators:
// the gateway terminates the session and forwards the authenticated user id
// and role set as trusted headers. This service never reads identity from
// ambient state: the middleware materializes an access.Identity once per
// request and every operation receives it explicitly.
//
// Absent or blank headers yield access.Anonymous, which resolves to an empty
// record scope. There is no demo fallback: unauthenticated must stay
// representable so that scope and error semantics can be enforced.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feedback-backend/internal/access"
)

const (
	// HeaderUserID carries the authenticated user id set by the gateway.
	HeaderUserID = "X-User-ID"
	// HeaderUserRoles carries the caller's comma-separated role set.
	HeaderUserRoles = "X-User-Roles"

	// ctxKeyIdentity stashes the resolved access.Identity.
	ctxKeyIdentity = "identity"
	// ctxKeyUserID mirrors the user id as a plain string for logging and
	// rate-limit keying.
	ctxKeyUserID = "userID"
)

// Identity returns a middleware that resolves the caller identity from the
// gateway headers and stores it in the Gin context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := access.Anonymous
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			ident = access.Identity{
				UserID: uid,
				Roles:  access.ParseRoles(c.GetHeader(HeaderUserRoles)),
			}
			c.Set(ctxKeyUserID, uid)
		}
		c.Set(ctxKeyIdentity, ident)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Identity(). Requests that did
// not pass through the middleware are treated as anonymous.
func IdentityFrom(c *gin.Context) access.Identity {
	if v, ok := c.Get(ctxKeyIdentity); ok {
		if ident, ok := v.(access.Identity); ok {
			return ident
		}
	}
	return access.Anonymous
}
