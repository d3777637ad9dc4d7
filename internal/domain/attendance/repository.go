package attendance

import (
	"context"
	"time"
)

// AttendanceRepository - interface for attendance_records table
// All methods include companyID parameter to prevent cross-company data access.
type AttendanceRepository interface {
	// Create fails with ErrAttendanceExists when the (company, employee, day) key is taken.
	Create(ctx context.Context, r *Record) error
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, companyID, id string) error
	GetByID(ctx context.Context, companyID, id string) (*Record, error)
	GetByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*Record, error)
	ListByDate(ctx context.Context, companyID string, date time.Time) ([]Record, error)
	// ListByEmployeeRange returns records with start <= date <= end, ordered by date.
	ListByEmployeeRange(ctx context.Context, companyID, employeeID string, start, end time.Time) ([]Record, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]Record, int64, error)
}
