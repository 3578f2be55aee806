// Package access decides whether a session may open a protected view.
package access

import "alcyxob/material-approval/internal/domain"

// Requirement sets used by the protected routes.
var (
	// AnyAuthenticated admits every logged-in role.
	AnyAuthenticated []domain.Role
	// Reviewers gates the approval and task views.
	Reviewers = []domain.Role{domain.RoleAdmin, domain.RoleApprover}
)

// IsAllowed denies a nil session, admits any session when required is
// empty, and otherwise requires the session's role to be listed.
func IsAllowed(session *domain.User, required []domain.Role) bool {
	if session == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if session.Role == r {
			return true
		}
	}
	return false
}
