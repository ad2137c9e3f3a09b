package domain

// Role is a member's authority within the association
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Caller is the resolved identity of the member making a request
type Caller struct {
	MemberID int32 `json:"memberId"`
	Role     Role  `json:"role"`
}

// Scope is the capability resolved once per request and passed to every ledger
// operation. It decides which rows a caller can observe before any filter,
// pagination or aggregation runs.
type Scope struct {
	callerID int32
	admin    bool
}

// ScopeFor resolves the scope of a caller
func ScopeFor(c Caller) Scope {
	return Scope{callerID: c.MemberID, admin: c.Role == RoleAdmin}
}

// SystemScope is an unrestricted scope for trusted in-process callers
// (background workers, operator tooling)
func SystemScope() Scope {
	return Scope{admin: true}
}

// IsAdmin reports whether the scope is unrestricted
func (s Scope) IsAdmin() bool { return s.admin }

// CallerID returns the member id of the caller, 0 for the system scope
func (s Scope) CallerID() int32 { return s.callerID }

// ContributionOwner returns the member id every contribution row must belong to,
// or nil when the scope may see all members' contributions
func (s Scope) ContributionOwner() *int32 {
	if s.admin {
		return nil
	}
	id := s.callerID
	return &id
}

// CanSeeContribution reports whether a contribution is inside the scope
func (s Scope) CanSeeContribution(c *Contribution) bool {
	return s.admin || c.MemberID == s.callerID
}

// RequireAdmin rejects non-administrator scopes
func (s Scope) RequireAdmin() error {
	if !s.admin {
		return ErrAdminRequired
	}
	return nil
}
