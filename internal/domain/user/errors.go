package user

import "github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"

var (
	ErrCompanyIDRequired = apperr.New(apperr.KindForbidden, "COMPANY_REQUIRED", "company scope is required")
	ErrUserIDRequired    = apperr.New(apperr.KindForbidden, "USER_REQUIRED", "authenticated user is required")
	ErrEmployeeRequired  = apperr.New(apperr.KindForbidden, "EMPLOYEE_REQUIRED", "caller is not linked to an employee")
	ErrPermissionDenied  = apperr.New(apperr.KindForbidden, "PERMISSION_DENIED", "insufficient permissions")
	ErrInvalidToken      = apperr.New(apperr.KindForbidden, "INVALID_TOKEN", "invalid token")
)
