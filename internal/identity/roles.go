package identity

// Role is the account role carried in the token. It is set at registration
// and never changes afterwards.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"    // full catalog visibility, manages managers
	RoleManager    Role = "ARTIST_MANAGER" // sees and acts on artists assigned to them
	RoleArtist     Role = "ARTIST"         // sees and acts on their own records only
)

// AllRoles returns every role accepted at registration.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleManager, RoleArtist}
}

// ValidRole returns true if r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleArtist:
		return true
	}
	return false
}
