package settings

import "github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"

var (
	ErrSettingsNotFound = apperr.New(apperr.KindNotFound, "SETTINGS_NOT_FOUND", "attendance settings not found")
	ErrDuplicateHoliday = apperr.New(apperr.KindValidation, "DUPLICATE_HOLIDAY", "holiday date listed more than once")
)
