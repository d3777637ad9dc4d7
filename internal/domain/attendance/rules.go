package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
)

// StandardHours is the daily threshold above which hours count as overtime.
const StandardHours = 8.0

// DayKind tells working days apart from weekends and holidays.
type DayKind int

const (
	WorkingDay DayKind = iota
	Weekend
	Holiday
)

// NormalizeDate returns midnight of t's calendar day in loc.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayKey is the calendar-day key used for uniqueness. It ignores the zone of t.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MinutesSinceMidnight of t in loc.
func MinutesSinceMidnight(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// ClassifyLateness compares the check-in wall clock with shift start plus grace.
// minutesLate counts from the end of the grace window.
func ClassifyLateness(checkIn time.Time, shift settings.Shift, loc *time.Location) LateArrival {
	start := settings.ClockOrDefault(shift.StartTime, settings.DefaultShiftStart)
	threshold := start + shift.GraceMinutes
	actual := MinutesSinceMidnight(checkIn, loc)

	if actual > threshold {
		return LateArrival{IsLate: true, MinutesLate: actual - threshold}
	}
	return LateArrival{}
}

// ClassifyEarlyDeparture compares the check-out wall clock with the shift end.
func ClassifyEarlyDeparture(checkOut time.Time, shift settings.Shift, loc *time.Location) EarlyDeparture {
	end := settings.ClockOrDefault(shift.EndTime, settings.DefaultShiftEnd)
	actual := MinutesSinceMidnight(checkOut, loc)

	if actual < end {
		return EarlyDeparture{IsEarly: true, MinutesEarly: end - actual}
	}
	return EarlyDeparture{}
}

// ComputeHours returns worked and overtime hours rounded to 2 decimals.
// Both are zero when either timestamp is missing. Callers reject checkOut <= checkIn.
func ComputeHours(checkIn, checkOut time.Time) (hours, overtime float64) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0, 0
	}
	hours = round2(checkOut.Sub(checkIn).Hours())
	overtime = round2(math.Max(0, hours-StandardHours))
	return hours, overtime
}

// ClassifyDay tells whether date is a working day, a weekend or a configured holiday.
// Holidays win over weekends.
func ClassifyDay(date time.Time, s *settings.TenantSettings) (DayKind, *settings.Holiday) {
	if h := s.HolidayOn(date); h != nil {
		return Holiday, h
	}
	if !s.WorksOn(date.Weekday()) {
		return Weekend, nil
	}
	return WorkingDay, nil
}

// IsWorkingDay is true iff the weekday is configured and the date is not a holiday.
func IsWorkingDay(date time.Time, s *settings.TenantSettings) bool {
	kind, _ := ClassifyDay(date, s)
	return kind == WorkingDay
}

// StatusForCheckIn is late or present depending on the lateness result.
func StatusForCheckIn(late LateArrival) Status {
	if late.IsLate {
		return StatusLate
	}
	return StatusPresent
}

// Recalculate refreshes hours, overtime, lateness and early departure from the punches.
// Status is left to the caller.
func (r *Record) Recalculate(s *settings.TenantSettings) {
	loc := s.Location()
	shift := s.EffectiveShift()

	r.LateArrival = LateArrival{}
	r.EarlyDeparture = EarlyDeparture{}
	r.HoursWorked, r.OvertimeHours = 0, 0

	if r.HasCheckIn() {
		r.LateArrival = ClassifyLateness(r.CheckIn.Time, shift, loc)
	}
	if r.HasCheckOut() {
		r.EarlyDeparture = ClassifyEarlyDeparture(r.CheckOut.Time, shift, loc)
	}
	if r.HasCheckIn() && r.HasCheckOut() {
		r.HoursWorked, r.OvertimeHours = ComputeHours(r.CheckIn.Time, r.CheckOut.Time)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
