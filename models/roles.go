package models

// Role is the closed set of account roles. Authorization decisions go
// through the capability methods below rather than ad-hoc string checks
// in handlers.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// CanManageCatalog covers product and offer mutations.
func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanManageOrders covers reading all orders and changing order status.
func (r Role) CanManageOrders() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// CanViewAnalytics covers the sales and per-product reporting endpoints.
func (r Role) CanViewAnalytics() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}
