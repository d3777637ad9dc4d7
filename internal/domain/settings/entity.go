package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/utils"
)

const (
	DefaultShiftStart      = "09:00"
	DefaultShiftEnd        = "18:00"
	DefaultGraceMinutes    = 15
	DefaultMinimumHours    = 8.0
	DefaultHalfDayHours    = 4.0
	DefaultAutoAbsentAt    = "10:00"
	DefaultCheckInRemindAt = "09:45"
	DefaultCheckOutAt      = "19:00"
	DefaultDailyReportAt   = "10:00"
	DefaultTimezone        = "UTC"
	DefaultOfficeRadius    = 100.0
)

// DefaultWorkingDays is Monday to Friday.
var DefaultWorkingDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

type HolidayKind string

const (
	HolidayPublic   HolidayKind = "public"
	HolidayCompany  HolidayKind = "company"
	HolidayOptional HolidayKind = "optional"
)

// Holiday dates are calendar days formatted as 2006-01-02 in the company's zone.
type Holiday struct {
	Date string      `json:"date" yaml:"date"`
	Name string      `json:"name" yaml:"name"`
	Kind HolidayKind `json:"kind" yaml:"kind"`
}

type Shift struct {
	StartTime    string  `json:"start_time" yaml:"start_time"`
	EndTime      string  `json:"end_time" yaml:"end_time"`
	GraceMinutes int     `json:"grace_minutes" yaml:"grace_minutes"`
	MinimumHours float64 `json:"minimum_hours" yaml:"minimum_hours"`
	HalfDayHours float64 `json:"half_day_hours" yaml:"half_day_hours"`
}

type AutoAbsent struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CutoffTime string `json:"cutoff_time" yaml:"cutoff_time"`
}

type Notifications struct {
	LateArrival          bool     `json:"late_arrival" yaml:"late_arrival"`
	AbsentAlert          bool     `json:"absent_alert" yaml:"absent_alert"`
	DailyReport          bool     `json:"daily_report" yaml:"daily_report"`
	CheckInReminder      bool     `json:"check_in_reminder" yaml:"check_in_reminder"`
	CheckOutReminder     bool     `json:"check_out_reminder" yaml:"check_out_reminder"`
	CheckInReminderTime  string   `json:"check_in_reminder_time" yaml:"check_in_reminder_time"`
	CheckOutReminderTime string   `json:"check_out_reminder_time" yaml:"check_out_reminder_time"`
	DailyReportTime      string   `json:"daily_report_time" yaml:"daily_report_time"`
	Recipients           []string `json:"recipients" yaml:"recipients"`
}

type OfficeLocation struct {
	Name         string  `json:"name" yaml:"name"`
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	RadiusMeters float64 `json:"radius_meters" yaml:"radius_meters"`
}

// Geofence marks punches taken near an office. Enforce rejects punches outside every office.
type Geofence struct {
	Enabled bool             `json:"enabled" yaml:"enabled"`
	Enforce bool             `json:"enforce" yaml:"enforce"`
	Offices []OfficeLocation `json:"offices" yaml:"offices"`
}

// Active reports whether punches should be checked against the offices.
func (g Geofence) Active() bool {
	return g.Enabled && len(g.Offices) > 0
}

// Within reports whether the point lies inside any office radius.
func (g Geofence) Within(lat, lon float64) bool {
	for _, o := range g.Offices {
		radius := o.RadiusMeters
		if radius <= 0 {
			radius = DefaultOfficeRadius
		}
		if utils.DistanceMeters(o.Latitude, o.Longitude, lat, lon) <= radius {
			return true
		}
	}
	return false
}

// TenantSettings is the per-company attendance configuration. Exactly one per company.
type TenantSettings struct {
	ID            string        `json:"id" yaml:"-"`
	CompanyID     string        `json:"company_id" yaml:"-"`
	Timezone      string        `json:"timezone" yaml:"timezone"`
	WorkingDays   []string      `json:"working_days" yaml:"working_days"`
	Holidays      []Holiday     `json:"holidays" yaml:"holidays"`
	Shift         Shift         `json:"shift" yaml:"shift"`
	AutoAbsent    AutoAbsent    `json:"auto_absent" yaml:"auto_absent"`
	Notifications Notifications `json:"notifications" yaml:"notifications"`
	Geofence      Geofence      `json:"geofence" yaml:"geofence"`
	UpdatedBy     *string       `json:"updated_by,omitempty" yaml:"-"`
	CreatedAt     time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time     `json:"updated_at" yaml:"-"`
}

// Location returns the company's zone, falling back to UTC for unknown names.
func (s *TenantSettings) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EffectiveShift fills missing shift values with the defaults.
func (s *TenantSettings) EffectiveShift() Shift {
	shift := Shift{}
	if s != nil {
		shift = s.Shift
	}
	if _, err := ClockMinutes(shift.StartTime); err != nil {
		// no usable shift configured at all
		shift.StartTime = DefaultShiftStart
		if shift.GraceMinutes == 0 {
			shift.GraceMinutes = DefaultGraceMinutes
		}
	}
	if _, err := ClockMinutes(shift.EndTime); err != nil {
		shift.EndTime = DefaultShiftEnd
	}
	if shift.GraceMinutes < 0 {
		shift.GraceMinutes = DefaultGraceMinutes
	}
	if shift.MinimumHours <= 0 {
		shift.MinimumHours = DefaultMinimumHours
	}
	if shift.HalfDayHours <= 0 {
		shift.HalfDayHours = DefaultHalfDayHours
	}
	return shift
}

// WorksOn reports whether the weekday is configured as a working day.
func (s *TenantSettings) WorksOn(day time.Weekday) bool {
	days := DefaultWorkingDays
	if s != nil && len(s.WorkingDays) > 0 {
		days = s.WorkingDays
	}
	name := strings.ToLower(day.String())
	for _, d := range days {
		if strings.ToLower(d) == name {
			return true
		}
	}
	return false
}

// HolidayOn returns the holiday for the calendar day, if any.
func (s *TenantSettings) HolidayOn(day time.Time) *Holiday {
	if s == nil {
		return nil
	}
	key := day.Format("2006-01-02")
	for i := range s.Holidays {
		if s.Holidays[i].Date == key {
			return &s.Holidays[i]
		}
	}
	return nil
}

// ClockMinutes parses "HH:MM" into minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	h, err := strconv.Atoi(clock[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	m, err := strconv.Atoi(clock[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	return h*60 + m, nil
}

// ClockOrDefault parses clock, returning the fallback's minutes when invalid.
func ClockOrDefault(clock, fallback string) int {
	if minutes, err := ClockMinutes(clock); err == nil {
		return minutes
	}
	minutes, _ := ClockMinutes(fallback)
	return minutes
}
