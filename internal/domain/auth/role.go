package auth

// Role is carried in the "role" claim of access tokens issued by the
// identity provider.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// CanManageAttendance reports whether the role may import punches,
// reconcile and back-fill leave.
func (r Role) CanManageAttendance() bool {
	return r == RoleAdmin || r == RoleManager
}

// Claims is the subset of access token claims the service reads.
type Claims struct {
	Subject string
	Role    Role
}
