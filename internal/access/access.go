// Package access implements role-based scoping for feedback records.
//
// The portal recognises three roles (HR, Admin, Candidate) plus the implicit
// unauthenticated caller. Scope resolution is a pure function from an
// identity to a Scope predicate; no virtual dispatch, no ambient state. The
// resolved scope is applied by the store *before* filtering and aggregation,
// so a candidate's search parameters can never leak the existence of other
// candidates' records.
//
// Rules:
//   - HR / Admin: full store. May list, view, delete any record and request
//     the dashboard aggregation.
//   - Candidate: only records whose owner_user_id equals the caller id. May
//     not delete and may not request the dashboard.
//   - Unauthenticated: empty scope for every record operation.
package access

import "strings"

// Role is a portal role as issued by the upstream auth gateway.
type Role string

const (
	RoleHR        Role = "hr"
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

// Identity is the authenticated caller: a user id plus a flat role set.
// A zero Identity represents an unauthenticated request. Identities are
// passed explicitly into every operation, never read from globals.
type Identity struct {
	UserID string
	Roles  []Role
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

// Authenticated reports whether the identity carries a user id.
func (id Identity) Authenticated() bool { return strings.TrimSpace(id.UserID) != "" }

// Has reports whether the identity carries the given role.
func (id Identity) Has(r Role) bool {
	for _, have := range id.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the identity is HR or Admin.
func (id Identity) IsStaff() bool {
	return id.Authenticated() && (id.Has(RoleHR) || id.Has(RoleAdmin))
}

// ParseRoles converts a comma-separated role list ("HR,Candidate") into a
// role set. Unknown tokens are dropped; matching is case-insensitive.
func ParseRoles(csv string) []Role {
	var out []Role
	for _, tok := range strings.Split(csv, ",") {
		switch Role(strings.ToLower(strings.TrimSpace(tok))) {
		case RoleHR:
			out = append(out, RoleHR)
		case RoleAdmin:
			out = append(out, RoleAdmin)
		case RoleCandidate:
			out = append(out, RoleCandidate)
		}
	}
	return out
}

// scopeKind enumerates the three possible record scopes.
type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeOwner
	scopeAll
)

// Scope is the subset of records a caller may see. It is resolved once per
// operation and translated into a query constraint by the repository.
type Scope struct {
	kind    scopeKind
	ownerID string
}

// ScopeAll covers the entire store (HR/Admin).
func ScopeAll() Scope { return Scope{kind: scopeAll} }

// ScopeOwner covers records owned by ownerID (Candidate).
func ScopeOwner(ownerID string) Scope { return Scope{kind: scopeOwner, ownerID: ownerID} }

// ScopeNone covers nothing (unauthenticated).
func ScopeNone() Scope { return Scope{} }

// All reports whether the scope covers the entire store.
func (s Scope) All() bool { return s.kind == scopeAll }

// Empty reports whether the scope covers no records at all.
func (s Scope) Empty() bool { return s.kind == scopeNone }

// OwnerID returns the owning user id for an owner-limited scope; ok is false
// for full and empty scopes.
func (s Scope) OwnerID() (string, bool) {
	if s.kind != scopeOwner {
		return "", false
	}
	return s.ownerID, true
}

// Resolve maps an identity's role set to its record scope. Staff roles win
// over Candidate when an account carries both.
func Resolve(id Identity) Scope {
	switch {
	case !id.Authenticated():
		return ScopeNone()
	case id.IsStaff():
		return ScopeAll()
	case id.Has(RoleCandidate):
		return ScopeOwner(id.UserID)
	default:
		// Authenticated but roleless accounts see nothing.
		return ScopeNone()
	}
}

// CanDelete reports whether the identity may delete records. Candidates may
// not delete, not even their own records.
func CanDelete(id Identity) bool { return id.IsStaff() }

// CanViewDashboard reports whether the identity may request the dashboard
// aggregation.
func CanViewDashboard(id Identity) bool { return id.IsStaff() }
