package model

// Role is the coarse user class stored on the profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Capability names a single thing a route may require.
type Capability string

const (
	CapPlaceOrder      Capability = "order:place"
	CapViewOwnOrders   Capability = "order:view_own"
	CapManageOrders    Capability = "order:manage"
	CapManageInventory Capability = "product:manage"
	CapViewDashboard   Capability = "dashboard:view"
)

var roleCapabilities = map[Role][]Capability{
	RoleUser: {
		CapPlaceOrder,
		CapViewOwnOrders,
	},
	RoleAdmin: {
		CapPlaceOrder,
		CapViewOwnOrders,
		CapManageOrders,
		CapManageInventory,
		CapViewDashboard,
	},
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capabilities returns what the role may do; unknown roles get nothing.
func (r Role) Capabilities() []Capability {
	return roleCapabilities[r]
}

// Can reports whether the role grants c.
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}
