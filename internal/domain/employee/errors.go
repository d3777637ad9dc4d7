package employee

import "github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"

var (
	ErrEmployeeNotFound  = apperr.New(apperr.KindNotFound, "EMPLOYEE_NOT_FOUND", "employee not found")
	ErrEmployeeInactive  = apperr.New(apperr.KindPreconditionFailed, "EMPLOYEE_INACTIVE", "employee is not active")
	ErrNoActiveEmployees = apperr.New(apperr.KindNotFound, "NO_ACTIVE_EMPLOYEES", "no active employees found")
)
