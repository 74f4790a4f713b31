package rbac

// Role labels stored on user records. Keep these stable; clients send them verbatim.
const (
	RoleHouseOwner  = "House Owner"
	RoleHouseRenter = "House Renter"
)

func IsValidRole(role string) bool {
	return role == RoleHouseOwner || role == RoleHouseRenter
}

// Capability names a privilege derived from a role.
type Capability string

const (
	CapabilityOwner  Capability = "owner"
	CapabilityRenter Capability = "renter"
)

// Capabilities is the role-check response. The zero value grants nothing.
type Capabilities struct {
	Renter bool `json:"renter"`
	Owner  bool `json:"owner"`
}

func CapabilitiesFor(role string) Capabilities {
	return Capabilities{
		Renter: role == RoleHouseRenter,
		Owner:  role == RoleHouseOwner,
	}
}

func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case CapabilityOwner:
		return c.Owner
	case CapabilityRenter:
		return c.Renter
	default:
		return false
	}
}
