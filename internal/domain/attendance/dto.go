package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

var punchMethods = []string{string(MethodWeb), string(MethodMobile), string(MethodManual)}

type CheckInRequest struct {
	Method      Method       `json:"method"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
	Note        *string      `json:"note,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	return validatePunch(r.Method, r.Geolocation, r.Note)
}

type CheckOutRequest struct {
	Method      Method       `json:"method"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
	Note        *string      `json:"note,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	return validatePunch(r.Method, r.Geolocation, r.Note)
}

func validatePunch(method Method, geo *Geolocation, note *string) error {
	var errs validator.ValidationErrors

	if method != "" && !validator.IsInSlice(string(method), punchMethods) {
		errs = append(errs, validator.ValidationError{
			Field:   "method",
			Message: "method must be web, mobile or manual",
		})
	}

	if geo != nil {
		if geo.Latitude < -90 || geo.Latitude > 90 {
			errs = append(errs, validator.ValidationError{
				Field:   "geolocation.latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if geo.Longitude < -180 || geo.Longitude > 180 {
			errs = append(errs, validator.ValidationError{
				Field:   "geolocation.longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if note != nil && len(*note) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "note",
			Message: "note must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// ADMIN DTOs
// ========================================

type ManualEntryRequest struct {
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	CheckIn    *time.Time `json:"check_in,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	AdminNotes *string    `json:"admin_notes,omitempty"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if r.CheckOut != nil && r.CheckIn == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "check_in is required when check_out is given",
		})
	}

	if r.CheckIn != nil && r.CheckOut != nil && !r.CheckOut.After(*r.CheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out",
			Message: ErrCheckOutBeforeCheckIn.Message,
		})
	}

	if r.Status != nil && !isValidStatus(*r.Status) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "invalid status",
		})
	}

	if r.Status == nil && r.CheckIn == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status is required when no check_in is given",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateRecordRequest struct {
	CheckIn    *time.Time `json:"check_in,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	AdminNotes *string    `json:"admin_notes,omitempty"`
}

func (r *UpdateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CheckIn == nil && r.CheckOut == nil && r.Status == nil && r.AdminNotes == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "request",
			Message: "at least one field must be provided",
		})
	}

	if r.CheckIn != nil && r.CheckOut != nil && !r.CheckOut.After(*r.CheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out",
			Message: ErrCheckOutBeforeCheckIn.Message,
		})
	}

	if r.Status != nil && !isValidStatus(*r.Status) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "invalid status",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func isValidStatus(s Status) bool {
	for _, st := range AllStatuses() {
		if st == s {
			return true
		}
	}
	return false
}

// ========================================
// LIST / FILTER DTOs
// ========================================

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *Status `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	var start, end time.Time
	var startOK, endOK bool
	if f.StartDate != nil {
		if start, startOK = validator.IsValidDate(*f.StartDate); !startOK {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
		}
	}
	if f.EndDate != nil {
		if end, endOK = validator.IsValidDate(*f.EndDate); !endOK {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
		}
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}

	if f.Status != nil && !isValidStatus(*f.Status) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "invalid status"})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Offset is the row offset for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ========================================
// REPORT DTOs
// ========================================

type RangeStatsRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (r *RangeStatsRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
		} else if end.Sub(start) > 366*24*time.Hour {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "range must not exceed one year"})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EmployeeBrief struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
}

type LateArrivalEntry struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	CheckInTime  time.Time `json:"check_in_time"`
	MinutesLate  int       `json:"minutes_late"`
}

type DailyReport struct {
	Date           string             `json:"date"`
	TotalEmployees int                `json:"total_employees"`
	Present        int                `json:"present"`
	Absent         int                `json:"absent"`
	Late           int                `json:"late"`
	OnLeave        int                `json:"on_leave"`
	AverageHours   float64            `json:"average_hours"`
	Absentees      []EmployeeBrief    `json:"absentees"`
	LateArrivals   []LateArrivalEntry `json:"late_arrivals"`
}

type RangeStats struct {
	EmployeeID       string  `json:"employee_id"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	TotalDays        int     `json:"total_days"`
	Present          int     `json:"present"`
	Absent           int     `json:"absent"`
	Late             int     `json:"late"`
	HalfDays         int     `json:"half_days"`
	Leave            int     `json:"leave"`
	TotalHours       float64 `json:"total_hours"`
	AverageHours     float64 `json:"average_hours"`
	OnTimePercentage float64 `json:"on_time_percentage"`
}

// ========================================
// RESPONSE DTOs
// ========================================

type RecordResponse struct {
	ID             string         `json:"id"`
	EmployeeID     string         `json:"employee_id"`
	EmployeeName   *string        `json:"employee_name,omitempty"`
	Date           string         `json:"date"`
	CheckIn        *Punch         `json:"check_in,omitempty"`
	CheckOut       *Punch         `json:"check_out,omitempty"`
	HoursWorked    float64        `json:"hours_worked"`
	OvertimeHours  float64        `json:"overtime_hours"`
	Status         Status         `json:"status"`
	LateArrival    LateArrival    `json:"late_arrival"`
	EarlyDeparture EarlyDeparture `json:"early_departure"`
	IsManualEntry  bool           `json:"is_manual_entry"`
	MarkedBy       *string        `json:"marked_by,omitempty"`
	AdminNotes     *string        `json:"admin_notes,omitempty"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// ToRecordResponse maps a record to its API shape.
func ToRecordResponse(r *Record) RecordResponse {
	return RecordResponse{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		Date:           r.DayKey(),
		CheckIn:        r.CheckIn,
		CheckOut:       r.CheckOut,
		HoursWorked:    r.HoursWorked,
		OvertimeHours:  r.OvertimeHours,
		Status:         r.Status,
		LateArrival:    r.LateArrival,
		EarlyDeparture: r.EarlyDeparture,
		IsManualEntry:  r.IsManualEntry,
		MarkedBy:       r.MarkedBy,
		AdminNotes:     r.AdminNotes,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

// Describe names the employee and day for operator-facing error messages.
func Describe(employeeID string, date time.Time) string {
	return fmt.Sprintf("employee %s on %s", employeeID, DayKey(date))
}
