package domain

import "fmt"

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleApprover Role = "approver"
	RoleUser     Role = "user"
)

// ParseRole converts a raw string into a known Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleApprover, RoleUser:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is the acting identity held by a session. It never carries a password.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsReviewer reports whether the user may approve, reject and publish materials.
func (u *User) IsReviewer() bool {
	return u.Role == RoleAdmin || u.Role == RoleApprover
}
