package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleAdmin    Role = "admin"    // HR/payroll administrator
	RoleManager  Role = "manager"  // Can approve attendance corrections
	RoleEmployee Role = "employee" // Regular employee
)

// Actor is the authenticated caller, always bound to one company.
type Actor struct {
	UserID     string
	EmployeeID string
	CompanyID  string
	Role       Role
}

// IsAdmin checks if the actor administers the company (owner or admin)
func (a Actor) IsAdmin() bool {
	return a.Role == RoleOwner || a.Role == RoleAdmin
}

// CanApprove checks if the actor can review attendance corrections
func (a Actor) CanApprove() bool {
	return HasPermission(a.Role, PermissionAttendanceApprove)
}

// Can checks a single permission for the actor's role
func (a Actor) Can(permission Permission) bool {
	return HasPermission(a.Role, permission)
}

// Validate rejects actors without a tenant scope.
func (a Actor) Validate() error {
	if a.CompanyID == "" {
		return ErrCompanyIDRequired
	}
	if a.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}
