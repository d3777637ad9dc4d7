package settings

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var holidayKinds = []string{string(HolidayPublic), string(HolidayCompany), string(HolidayOptional)}

// UpdateSettingsRequest is a partial update; nil fields keep their stored value.
type UpdateSettingsRequest struct {
	Timezone      *string        `json:"timezone,omitempty"`
	WorkingDays   []string       `json:"working_days,omitempty"`
	Holidays      *[]Holiday     `json:"holidays,omitempty"`
	Shift         *Shift         `json:"shift,omitempty"`
	AutoAbsent    *AutoAbsent    `json:"auto_absent,omitempty"`
	Notifications *Notifications `json:"notifications,omitempty"`
	Geofence      *Geofence      `json:"geofence,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Timezone != nil && !validator.IsValidTimezone(*r.Timezone) {
		errs = append(errs, validator.ValidationError{
			Field:   "timezone",
			Message: "timezone must be a valid IANA zone name",
		})
	}

	if r.WorkingDays != nil {
		if len(r.WorkingDays) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "working_days",
				Message: "at least one working day is required",
			})
		}
		for _, d := range r.WorkingDays {
			if !validator.IsInSlice(strings.ToLower(d), weekdayNames) {
				errs = append(errs, validator.ValidationError{
					Field:   "working_days",
					Message: fmt.Sprintf("invalid weekday %q", d),
				})
				break
			}
		}
	}

	if r.Holidays != nil {
		seen := make(map[string]bool)
		for i, h := range *r.Holidays {
			field := fmt.Sprintf("holidays[%d]", i)
			if _, ok := validator.IsValidDate(h.Date); !ok {
				errs = append(errs, validator.ValidationError{Field: field + ".date", Message: "date must be in YYYY-MM-DD format"})
			}
			if validator.IsEmpty(h.Name) {
				errs = append(errs, validator.ValidationError{Field: field + ".name", Message: "name is required"})
			}
			if h.Kind != "" && !validator.IsInSlice(string(h.Kind), holidayKinds) {
				errs = append(errs, validator.ValidationError{Field: field + ".kind", Message: "kind must be public, company or optional"})
			}
			if seen[h.Date] {
				errs = append(errs, validator.ValidationError{Field: field + ".date", Message: ErrDuplicateHoliday.Message})
			}
			seen[h.Date] = true
		}
	}

	if r.Shift != nil {
		start, startErr := ClockMinutes(r.Shift.StartTime)
		end, endErr := ClockMinutes(r.Shift.EndTime)
		if startErr != nil {
			errs = append(errs, validator.ValidationError{Field: "shift.start_time", Message: "start_time must be HH:MM"})
		}
		if endErr != nil {
			errs = append(errs, validator.ValidationError{Field: "shift.end_time", Message: "end_time must be HH:MM"})
		}
		if startErr == nil && endErr == nil && end <= start {
			errs = append(errs, validator.ValidationError{Field: "shift.end_time", Message: "end_time must be after start_time"})
		}
		if r.Shift.GraceMinutes < 0 || r.Shift.GraceMinutes > 240 {
			errs = append(errs, validator.ValidationError{Field: "shift.grace_minutes", Message: "grace_minutes must be between 0 and 240"})
		}
		if r.Shift.MinimumHours < 0 || r.Shift.MinimumHours > 24 {
			errs = append(errs, validator.ValidationError{Field: "shift.minimum_hours", Message: "minimum_hours must be between 0 and 24"})
		}
		if r.Shift.HalfDayHours < 0 || r.Shift.HalfDayHours > 24 {
			errs = append(errs, validator.ValidationError{Field: "shift.half_day_hours", Message: "half_day_hours must be between 0 and 24"})
		}
	}

	if r.AutoAbsent != nil && r.AutoAbsent.Enabled && !validator.IsValidClock(r.AutoAbsent.CutoffTime) {
		errs = append(errs, validator.ValidationError{Field: "auto_absent.cutoff_time", Message: "cutoff_time must be HH:MM"})
	}

	if r.Notifications != nil {
		n := r.Notifications
		for field, clock := range map[string]string{
			"notifications.check_in_reminder_time":  n.CheckInReminderTime,
			"notifications.check_out_reminder_time": n.CheckOutReminderTime,
			"notifications.daily_report_time":       n.DailyReportTime,
		} {
			if clock != "" && !validator.IsValidClock(clock) {
				errs = append(errs, validator.ValidationError{Field: field, Message: "must be HH:MM"})
			}
		}
		for _, email := range n.Recipients {
			if !validator.IsValidEmail(email) {
				errs = append(errs, validator.ValidationError{
					Field:   "notifications.recipients",
					Message: fmt.Sprintf("invalid email %q", email),
				})
				break
			}
		}
	}

	if r.Geofence != nil {
		if r.Geofence.Enforce && len(r.Geofence.Offices) == 0 {
			errs = append(errs, validator.ValidationError{Field: "geofence.offices", Message: "at least one office is required to enforce the geofence"})
		}
		for i, o := range r.Geofence.Offices {
			field := fmt.Sprintf("geofence.offices[%d]", i)
			if validator.IsEmpty(o.Name) {
				errs = append(errs, validator.ValidationError{Field: field + ".name", Message: "name is required"})
			}
			if o.Latitude < -90 || o.Latitude > 90 {
				errs = append(errs, validator.ValidationError{Field: field + ".latitude", Message: "latitude must be between -90 and 90"})
			}
			if o.Longitude < -180 || o.Longitude > 180 {
				errs = append(errs, validator.ValidationError{Field: field + ".longitude", Message: "longitude must be between -180 and 180"})
			}
			if o.RadiusMeters < 0 {
				errs = append(errs, validator.ValidationError{Field: field + ".radius_meters", Message: "radius_meters must not be negative"})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Apply copies the provided fields onto s.
func (r *UpdateSettingsRequest) Apply(s *TenantSettings) {
	if r.Timezone != nil {
		s.Timezone = *r.Timezone
	}
	if r.WorkingDays != nil {
		days := make([]string, len(r.WorkingDays))
		for i, d := range r.WorkingDays {
			days[i] = strings.ToLower(d)
		}
		s.WorkingDays = days
	}
	if r.Holidays != nil {
		holidays := make([]Holiday, len(*r.Holidays))
		for i, h := range *r.Holidays {
			if h.Kind == "" {
				h.Kind = HolidayPublic
			}
			holidays[i] = h
		}
		s.Holidays = holidays
	}
	if r.Shift != nil {
		s.Shift = *r.Shift
	}
	if r.AutoAbsent != nil {
		s.AutoAbsent = *r.AutoAbsent
	}
	if r.Notifications != nil {
		s.Notifications = *r.Notifications
	}
	if r.Geofence != nil {
		fence := *r.Geofence
		fence.Offices = make([]OfficeLocation, len(r.Geofence.Offices))
		for i, o := range r.Geofence.Offices {
			if o.RadiusMeters == 0 {
				o.RadiusMeters = DefaultOfficeRadius
			}
			fence.Offices[i] = o
		}
		s.Geofence = fence
	}
}
