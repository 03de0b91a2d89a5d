package domain

import (
	"strings"
	"time"
)

// Role enumerates operator roles, each with its own visibility scope and
// permitted transitions.
type Role string

const (
	RoleDriver     Role = "DRIVER"
	RoleBranch     Role = "BRANCH"
	RoleSupervisor Role = "SUPERVISOR"
	RoleManager    Role = "MANAGER"
	RoleOwner      Role = "OWNER"
)

// ParseRole resolves a role label case-insensitively.
func ParseRole(label string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(label)))
	switch role {
	case RoleDriver, RoleBranch, RoleSupervisor, RoleManager, RoleOwner:
		return role, true
	}
	return "", false
}

// Account models an operator who logs into the dashboard.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	DisplayName  string
	Role         Role
	BranchCode   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Region returns the two-character region prefix of the account's branch.
func (a Account) Region() string {
	return Region(a.BranchCode)
}
