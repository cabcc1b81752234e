package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleLattice(t *testing.T) {
	assert.True(t, RoleOwner.CanView())
	assert.True(t, RoleOwner.CanEdit())
	assert.True(t, RoleOwner.CanManageAccess())

	assert.True(t, RoleCollaborator.CanView())
	assert.True(t, RoleCollaborator.CanEdit())
	assert.False(t, RoleCollaborator.CanManageAccess())

	assert.True(t, RoleViewer.CanView())
	assert.False(t, RoleViewer.CanEdit())
	assert.False(t, RoleViewer.CanManageAccess())

	assert.False(t, RoleNone.CanView())
	assert.False(t, RoleNone.CanEdit())
	assert.False(t, RoleNone.CanManageAccess())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("collaborator")
	assert.True(t, ok)
	assert.Equal(t, RoleCollaborator, role)

	_, ok = ParseRole("none")
	assert.False(t, ok)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}
