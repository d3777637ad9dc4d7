package user

type Permission string

const (
	// Attendance
	PermissionAttendanceRecordOwn Permission = "attendance.record_own"
	PermissionAttendanceViewOwn   Permission = "attendance.view_own"
	PermissionAttendanceViewAll   Permission = "attendance.view_all"
	PermissionAttendanceManage    Permission = "attendance.manage"
	PermissionAttendanceApprove   Permission = "attendance.approve"

	// Settings
	PermissionSettingsManage Permission = "settings.manage"

	// Payroll
	PermissionPayrollViewOwn Permission = "payroll.view_own"
	PermissionPayrollManage  Permission = "payroll.manage"

	// Reports
	PermissionReportsView Permission = "reports.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionAttendanceRecordOwn,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionAttendanceApprove,
		PermissionSettingsManage,
		PermissionPayrollViewOwn,
		PermissionPayrollManage,
		PermissionReportsView,
	},
	RoleAdmin: {
		PermissionAttendanceRecordOwn,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionAttendanceApprove,
		PermissionSettingsManage,
		PermissionPayrollViewOwn,
		PermissionPayrollManage,
		PermissionReportsView,
	},
	RoleManager: {
		// Manager reviews team attendance but does not touch payroll
		PermissionAttendanceRecordOwn,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceApprove,
		PermissionPayrollViewOwn,
		PermissionReportsView,
	},
	RoleEmployee: {
		PermissionAttendanceRecordOwn,
		PermissionAttendanceViewOwn,
		PermissionPayrollViewOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
