package models

// Role is a closed set. Authorization only ever asks one question of a
// role: does it bypass explicit grants?
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleLector Role = "Lector"
)

// BypassesGrants reports whether the role sees every active catalog
// target without explicit grants.
func (r Role) BypassesGrants() bool {
	return r == RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleLector
}

func AllRoles() []Role {
	return []Role{RoleAdmin, RoleLector}
}
