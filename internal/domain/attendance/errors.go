package attendance

import (
	"errors"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
)

var (
	// Check-in / check-out preconditions
	ErrAlreadyCheckedIn  = apperr.New(apperr.KindPreconditionFailed, "ALREADY_CHECKED_IN", "already checked in today")
	ErrAlreadyCheckedOut = apperr.New(apperr.KindPreconditionFailed, "ALREADY_CHECKED_OUT", "already checked out today")
	ErrNoCheckIn         = apperr.New(apperr.KindPreconditionFailed, "NO_CHECK_IN", "no check-in found for today")
	ErrOnApprovedLeave   = apperr.New(apperr.KindPreconditionFailed, "ON_APPROVED_LEAVE", "employee is on approved leave today")
	ErrWeekend           = apperr.New(apperr.KindPreconditionFailed, "NON_WORKING_DAY_WEEKEND", "today is not a working day (weekend)")
	ErrHoliday           = apperr.New(apperr.KindPreconditionFailed, "NON_WORKING_DAY_HOLIDAY", "today is not a working day (holiday)")
	ErrOutsideGeofence   = apperr.New(apperr.KindPreconditionFailed, "OUTSIDE_GEOFENCE", "location is outside every office radius")

	ErrGeolocationRequired = apperr.New(apperr.KindValidation, "GEOLOCATION_REQUIRED", "geolocation is required for this company")

	ErrCheckOutBeforeCheckIn = apperr.New(apperr.KindValidation, "CHECK_OUT_BEFORE_CHECK_IN", "check-out must be after check-in")
	ErrAttendanceNotFound    = apperr.New(apperr.KindNotFound, "ATTENDANCE_NOT_FOUND", "attendance record not found")
	ErrAttendanceExists      = apperr.New(apperr.KindConflict, "ATTENDANCE_EXISTS", "attendance record already exists for this day")
)

// IsNonWorkingDay matches both the weekend and the holiday rejection.
func IsNonWorkingDay(err error) bool {
	return errors.Is(err, ErrWeekend) || errors.Is(err, ErrHoliday)
}
