package domain

// Role is a capability granted to a caller. Operations name the roles they
// accept; a caller needs any one of them.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleTreasuryManager   Role = "treasury_manager"
	RoleInvestmentManager Role = "investment_manager"
	RoleGovernance        Role = "governance"
	RoleEmergency         Role = "emergency"
)

// ParseRole maps a wire string onto a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleTreasuryManager, RoleInvestmentManager, RoleGovernance, RoleEmergency:
		return Role(s), true
	}
	return "", false
}

// Caller carries the identity and role set of the actor behind an operation.
// It is an explicit parameter on every mutating call; the engine has no
// ambient identity.
type Caller struct {
	ID    string
	roles map[Role]struct{}
}

// NewCaller builds a caller holding the given roles.
func NewCaller(id string, roles ...Role) Caller {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return Caller{ID: id, roles: set}
}

// Has reports whether the caller holds at least one of the given roles.
func (c Caller) Has(roles ...Role) bool {
	for _, r := range roles {
		if _, ok := c.roles[r]; ok {
			return true
		}
	}
	return false
}

// Roles returns the caller's role set.
func (c Caller) Roles() []Role {
	out := make([]Role, 0, len(c.roles))
	for r := range c.roles {
		out = append(out, r)
	}
	return out
}
