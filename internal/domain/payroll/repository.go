package payroll

import (
	"context"
	"time"
)

// SalaryRepository - interface for salary_records table
// All methods include companyID parameter to prevent cross-company data access.
type SalaryRepository interface {
	// Create fails with ErrSalaryRecordExists when (company, employee, month, year) is taken.
	Create(ctx context.Context, r *SalaryRecord) error
	// Update writes every mutable field, only while the stored row is still editable.
	Update(ctx context.Context, r *SalaryRecord) error
	// Lock fails with ErrSalaryAlreadyLocked when the row is locked already.
	Lock(ctx context.Context, companyID, id, lockedBy string, at time.Time) error
	// Acknowledge applies only to paid, unacknowledged rows.
	Acknowledge(ctx context.Context, companyID, id, by string, at time.Time) error
	// Delete removes the row only while it is editable.
	Delete(ctx context.Context, companyID, id string) error
	GetByID(ctx context.Context, companyID, id string) (*SalaryRecord, error)
	ExistsForPeriod(ctx context.Context, companyID string, month, year int) (bool, error)
	ListByEmployeeYear(ctx context.Context, companyID, employeeID string, year int) ([]SalaryRecord, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]SalaryRecord, int64, error)
	Statistics(ctx context.Context, companyID string, year int, month *int) (*Statistics, error)
}
