package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleUser, ParseRole("USER"))
	assert.Equal(t, RoleModerator, ParseRole("MODERATOR"))
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))

	// Unknown and empty inputs fall back to the lowest role.
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("SUPERUSER"))
	assert.Equal(t, RoleUser, ParseRole("admin"))
}

func TestHasMinimumRole(t *testing.T) {
	tests := []struct {
		name     string
		userRole Role
		required Role
		want     bool
	}{
		{"user meets user", RoleUser, RoleUser, true},
		{"user below moderator", RoleUser, RoleModerator, false},
		{"user below admin", RoleUser, RoleAdmin, false},
		{"moderator meets user", RoleModerator, RoleUser, true},
		{"moderator meets moderator", RoleModerator, RoleModerator, true},
		{"moderator below admin", RoleModerator, RoleAdmin, false},
		{"admin meets everything", RoleAdmin, RoleModerator, true},
		{"unknown role ranks below user", Role("GUEST"), RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMinimumRole(tt.userRole, tt.required))
		})
	}
}
