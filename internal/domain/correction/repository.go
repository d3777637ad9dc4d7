package correction

import (
	"context"
	"time"
)

// CorrectionRepository - interface for attendance_corrections table
// All methods include companyID parameter to prevent cross-company data access.
type CorrectionRepository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, companyID, id string) (*Request, error)
	// HasPending reports whether the employee already has a pending request for the day.
	HasPending(ctx context.Context, companyID, employeeID string, date time.Time) (bool, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]Request, int64, error)
	// Resolve moves a pending request to d.Status. It fails with ErrCorrectionAlreadyProcessed
	// when the request is no longer pending, so concurrent reviewers and cancellers race safely.
	Resolve(ctx context.Context, companyID, id string, d Decision) (*Request, error)
	SetAttendanceID(ctx context.Context, companyID, id, attendanceID string) error
}
