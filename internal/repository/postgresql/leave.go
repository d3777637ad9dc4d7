package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
)

type leaveCheckerImpl struct {
	db *database.DB
}

// NewLeaveChecker answers approved-leave lookups from leave_requests.
func NewLeaveChecker(db *database.DB) leave.Checker {
	return &leaveCheckerImpl{db: db}
}

// HasApprovedLeave implements leave.Checker.
func (l *leaveCheckerImpl) HasApprovedLeave(ctx context.Context, companyID, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT EXISTS(
			SELECT 1
			FROM leave_requests lr
			INNER JOIN employees e ON lr.employee_id = e.id
			WHERE e.company_id = $1 AND lr.employee_id = $2 AND lr.status = 'approved'
			  AND $3::date BETWEEN lr.start_date AND lr.end_date
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, companyID, employeeID, attendance.DayKey(date)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check approved leave: %w", err)
	}
	return exists, nil
}

// EmployeesOnLeave implements leave.Checker.
func (l *leaveCheckerImpl) EmployeesOnLeave(ctx context.Context, companyID string, date time.Time) (map[string]bool, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT DISTINCT lr.employee_id
		FROM leave_requests lr
		INNER JOIN employees e ON lr.employee_id = e.id
		WHERE e.company_id = $1 AND lr.status = 'approved'
		  AND $2::date BETWEEN lr.start_date AND lr.end_date
	`
	rows, err := q.Query(ctx, query, companyID, attendance.DayKey(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list employees on leave: %w", err)
	}
	defer rows.Close()

	onLeave := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee on leave: %w", err)
		}
		onLeave[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees on leave: %w", err)
	}
	return onLeave, nil
}
