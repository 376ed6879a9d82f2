package types

// Role is the permission level assigned to a user. Roles form a strict
// hierarchy: USER < MODERATOR < ADMIN.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// roleRank maps each role to its ordinal position in the hierarchy.
var roleRank = map[Role]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// ParseRole returns the Role for s, or RoleUser when s is empty or unknown.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s)
	default:
		return RoleUser
	}
}

// IsValid reports whether r is one of the three known roles.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// HasMinimumRole reports whether userRole is at least requiredRole in the
// hierarchy. Unknown roles rank below USER.
func HasMinimumRole(userRole, requiredRole Role) bool {
	return roleRank[userRole] >= roleRank[requiredRole]
}
