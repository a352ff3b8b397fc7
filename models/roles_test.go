package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleManager, RoleStaff, RoleCustomer} {
		assert.True(t, role.Valid(), "role %s should be valid", role)
	}
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role          Role
		manageCatalog bool
		manageOrders  bool
		viewAnalytics bool
	}{
		{RoleAdmin, true, true, true},
		{RoleManager, true, true, true},
		{RoleStaff, false, true, true},
		{RoleCustomer, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.manageCatalog, tt.role.CanManageCatalog())
			assert.Equal(t, tt.manageOrders, tt.role.CanManageOrders())
			assert.Equal(t, tt.viewAnalytics, tt.role.CanViewAnalytics())
		})
	}
}
