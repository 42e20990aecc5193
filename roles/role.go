package roles

import "strings"

// Role is an application role as stored on a profile row.
type Role string

const (
	SuperAdmin Role = "super_admin"
	Admin      Role = "admin"
	User       Role = "user"
)

// Parse normalizes s into a known [Role]. ok is false for unknown values.
func Parse(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case SuperAdmin:
		return SuperAdmin, true
	case Admin:
		return Admin, true
	case User:
		return User, true
	default:
		return Role(s), false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case SuperAdmin, Admin, User:
		return true
	default:
		return false
	}
}

// Rank orders roles by privilege; unknown roles rank below User.
func (r Role) Rank() int {
	switch r {
	case SuperAdmin:
		return 3
	case Admin:
		return 2
	case User:
		return 1
	default:
		return 0
	}
}

// In reports whether r is one of allowed.
func (r Role) In(allowed []Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
