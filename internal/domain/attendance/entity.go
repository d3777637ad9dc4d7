package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half-day"
	StatusOnLeave Status = "on-leave"
	StatusHoliday Status = "holiday"
	StatusWeekend Status = "weekend"
)

// AllStatuses lists every record status.
func AllStatuses() []Status {
	return []Status{StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusOnLeave, StatusHoliday, StatusWeekend}
}

// IsAttended reports statuses counted as present in reports and payroll.
func (s Status) IsAttended() bool {
	return s == StatusPresent || s == StatusLate
}

type Method string

const (
	MethodWeb    Method = "web"
	MethodMobile Method = "mobile"
	MethodManual Method = "manual"
	MethodSystem Method = "system"
)

// Geolocation is informational; only the boolean geofence result is stored.
type Geolocation struct {
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Accuracy       *float64 `json:"accuracy,omitempty"`
	WithinGeofence *bool    `json:"within_geofence,omitempty"`
}

type Punch struct {
	Time        time.Time    `json:"time"`
	Method      Method       `json:"method"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
	Note        *string      `json:"note,omitempty"`
}

type LateArrival struct {
	IsLate      bool `json:"is_late"`
	MinutesLate int  `json:"minutes_late"`
}

type EarlyDeparture struct {
	IsEarly      bool `json:"is_early"`
	MinutesEarly int  `json:"minutes_early"`
}

// Record is one employee's attendance for one calendar day.
// (CompanyID, EmployeeID, Date) is unique.
type Record struct {
	ID             string
	CompanyID      string
	EmployeeID     string
	Date           time.Time // midnight of the calendar day in the company's zone
	CheckIn        *Punch
	CheckOut       *Punch
	HoursWorked    float64
	OvertimeHours  float64
	Status         Status
	LateArrival    LateArrival
	EarlyDeparture EarlyDeparture
	IsManualEntry  bool
	MarkedBy       *string
	AdminNotes     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// DTO / Join
	EmployeeName *string
}

func (r *Record) HasCheckIn() bool {
	return r.CheckIn != nil && !r.CheckIn.Time.IsZero()
}

func (r *Record) HasCheckOut() bool {
	return r.CheckOut != nil && !r.CheckOut.Time.IsZero()
}

// DayKey formats the calendar day the record belongs to.
func (r *Record) DayKey() string {
	return DayKey(r.Date)
}
