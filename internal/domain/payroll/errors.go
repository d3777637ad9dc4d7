package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
)

var (
	ErrSalaryRecordNotFound = apperr.New(apperr.KindNotFound, "SALARY_NOT_FOUND", "salary record not found")
	ErrSalaryRecordExists   = apperr.New(apperr.KindConflict, "SALARY_EXISTS", "salary record already exists for this employee and period")
	ErrSalaryScopeExists    = apperr.New(apperr.KindConflict, "SALARY_PERIOD_EXISTS", "salaries for this period already exist, delete them first")
	ErrSalaryAlreadyLocked  = apperr.New(apperr.KindConflict, "SALARY_ALREADY_LOCKED", "salary record is already locked")
	ErrSalaryRecordLocked   = apperr.New(apperr.KindConflict, "SALARY_LOCKED", "salary record is locked or paid and cannot be modified")
	ErrSalaryNotPaid        = apperr.New(apperr.KindPreconditionFailed, "SALARY_NOT_PAID", "only paid salaries can be acknowledged")
	ErrAlreadyAcknowledged  = apperr.New(apperr.KindConflict, "SALARY_ALREADY_ACKNOWLEDGED", "salary has already been acknowledged")
	ErrNotSalaryOwner       = apperr.New(apperr.KindForbidden, "NOT_SALARY_OWNER", "salary record belongs to another employee")
	ErrInvalidPeriod        = apperr.New(apperr.KindValidation, "INVALID_PERIOD", "invalid payroll period")
)

// Period formats month/year for error messages.
func Period(month, year int) string {
	return fmt.Sprintf("%d/%d", month, year)
}
