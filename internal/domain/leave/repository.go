package leave

import (
	"context"
	"time"
)

// Checker answers whether approved leave covers a calendar day.
// date is the calendar-day key in the company's time zone.
type Checker interface {
	HasApprovedLeave(ctx context.Context, companyID, employeeID string, date time.Time) (bool, error)
	// EmployeesOnLeave returns the ids of employees with approved leave covering date.
	EmployeesOnLeave(ctx context.Context, companyID string, date time.Time) (map[string]bool, error)
}
