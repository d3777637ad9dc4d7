package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

const attendanceColumns = `
	a.id, a.company_id, a.employee_id, a.date, a.check_in, a.check_out,
	a.hours_worked, a.overtime_hours, a.status,
	a.is_late, a.minutes_late, a.is_early, a.minutes_early,
	a.is_manual_entry, a.marked_by, a.admin_notes, a.created_at, a.updated_at,
	e.full_name AS employee_name`

const attendanceFrom = `
	FROM attendance_records a
	LEFT JOIN employees e ON e.id = a.employee_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttendance(row rowScanner) (attendance.Record, error) {
	var r attendance.Record
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.EmployeeID, &r.Date, &r.CheckIn, &r.CheckOut,
		&r.HoursWorked, &r.OvertimeHours, &r.Status,
		&r.LateArrival.IsLate, &r.LateArrival.MinutesLate, &r.EarlyDeparture.IsEarly, &r.EarlyDeparture.MinutesEarly,
		&r.IsManualEntry, &r.MarkedBy, &r.AdminNotes, &r.CreatedAt, &r.UpdatedAt,
		&r.EmployeeName,
	)
	return r, err
}

func collectAttendance(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	return records, nil
}

// Create implements attendance.AttendanceRepository. A taken (company, employee, date) key is
// reported as ErrAttendanceExists without aborting an enclosing transaction.
func (a *attendanceRepository) Create(ctx context.Context, r *attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			company_id, employee_id, date, check_in, check_out,
			hours_worked, overtime_hours, status,
			is_late, minutes_late, is_early, minutes_early,
			is_manual_entry, marked_by, admin_notes
		) VALUES (
			$1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (company_id, employee_id, date) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		r.CompanyID,
		r.EmployeeID,
		attendance.DayKey(r.Date),
		r.CheckIn,
		r.CheckOut,
		r.HoursWorked,
		r.OvertimeHours,
		r.Status,
		r.LateArrival.IsLate,
		r.LateArrival.MinutesLate,
		r.EarlyDeparture.IsEarly,
		r.EarlyDeparture.MinutesEarly,
		r.IsManualEntry,
		r.MarkedBy,
		r.AdminNotes,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrAttendanceExists
		}
		return fmt.Errorf("failed to create attendance: %w", err)
	}

	return nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, r *attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records SET
			check_in = $3,
			check_out = $4,
			hours_worked = $5,
			overtime_hours = $6,
			status = $7,
			is_late = $8,
			minutes_late = $9,
			is_early = $10,
			minutes_early = $11,
			is_manual_entry = $12,
			marked_by = $13,
			admin_notes = $14,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		r.ID,
		r.CompanyID,
		r.CheckIn,
		r.CheckOut,
		r.HoursWorked,
		r.OvertimeHours,
		r.Status,
		r.LateArrival.IsLate,
		r.LateArrival.MinutesLate,
		r.EarlyDeparture.IsEarly,
		r.EarlyDeparture.MinutesEarly,
		r.IsManualEntry,
		r.MarkedBy,
		r.AdminNotes,
	).Scan(&r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to update attendance: %w", err)
	}

	return nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, companyID, id string) error {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

func (a *attendanceRepository) getOne(ctx context.Context, where string, args ...interface{}) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	r, err := scanAttendance(q.QueryRow(ctx, "SELECT "+attendanceColumns+attendanceFrom+" WHERE "+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, attendance.ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &r, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, companyID, id string) (*attendance.Record, error) {
	return a.getOne(ctx, "a.id = $1 AND a.company_id = $2", id, companyID)
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*attendance.Record, error) {
	return a.getOne(ctx, "a.company_id = $1 AND a.employee_id = $2 AND a.date = $3::date",
		companyID, employeeID, attendance.DayKey(date))
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, companyID string, date time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	where := tenantWhere("a.company_id", companyID).and("a.date = $%d::date", attendance.DayKey(date))
	rows, err := q.Query(ctx, "SELECT "+attendanceColumns+attendanceFrom+" WHERE "+where.String()+" ORDER BY a.employee_id", where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date: %w", err)
	}
	return collectAttendance(rows)
}

// ListByEmployeeRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeRange(ctx context.Context, companyID, employeeID string, start, end time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	where := tenantWhere("a.company_id", companyID).
		and("a.employee_id = $%d", employeeID).
		and("a.date >= $%d::date", attendance.DayKey(start)).
		and("a.date <= $%d::date", attendance.DayKey(end))
	rows, err := q.Query(ctx, "SELECT "+attendanceColumns+attendanceFrom+" WHERE "+where.String()+" ORDER BY a.date", where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance range: %w", err)
	}
	return collectAttendance(rows)
}

func attendanceListWhere(companyID string, filter attendance.ListFilter) *whereBuilder {
	where := tenantWhere("a.company_id", companyID)
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where.and("a.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Status != nil && *filter.Status != "" {
		where.and("a.status = $%d", *filter.Status)
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		where.and("a.date >= $%d::date", *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		where.and("a.date <= $%d::date", *filter.EndDate)
	}
	return where
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, companyID string, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)
	where := attendanceListWhere(companyID, filter)

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_records a WHERE "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	suffix, args := where.paged(filter.Limit, filter.Offset())
	query := "SELECT " + attendanceColumns + attendanceFrom +
		" WHERE " + where.String() +
		" ORDER BY a.date DESC, a.employee_id " + suffix
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance: %w", err)
	}
	records, err := collectAttendance(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{
		db: db,
	}
}
