package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type correctionRepository struct {
	db *database.DB
}

const correctionColumns = `
	c.id, c.company_id, c.employee_id, c.attendance_id, c.request_type, c.requested_date,
	c.requested_check_in, c.requested_check_out, c.reason, c.attachments, c.status,
	c.reviewed_by, c.reviewed_at, c.comments, c.created_at, c.updated_at,
	e.full_name AS employee_name`

const correctionFrom = `
	FROM attendance_corrections c
	LEFT JOIN employees e ON e.id = c.employee_id`

// uniquePendingCorrection is the partial unique index on pending requests per employee and day.
const uniquePendingCorrection = "attendance_corrections_pending_key"

func scanCorrection(row rowScanner) (correction.Request, error) {
	var r correction.Request
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.EmployeeID, &r.AttendanceID, &r.RequestType, &r.RequestedDate,
		&r.RequestedCheckIn, &r.RequestedCheckOut, &r.Reason, &r.Attachments, &r.Status,
		&r.ReviewedBy, &r.ReviewedAt, &r.Comments, &r.CreatedAt, &r.UpdatedAt,
		&r.EmployeeName,
	)
	return r, err
}

// Create implements correction.CorrectionRepository.
func (c *correctionRepository) Create(ctx context.Context, r *correction.Request) error {
	q := GetQuerier(ctx, c.db)

	query := `
		INSERT INTO attendance_corrections (
			company_id, employee_id, attendance_id, request_type, requested_date,
			requested_check_in, requested_check_out, reason, attachments, status
		) VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	attachments := r.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	err := q.QueryRow(ctx, query,
		r.CompanyID,
		r.EmployeeID,
		r.AttendanceID,
		r.RequestType,
		attendance.DayKey(r.RequestedDate),
		r.RequestedCheckIn,
		r.RequestedCheckOut,
		r.Reason,
		attachments,
		r.Status,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, uniquePendingCorrection) {
			return correction.ErrPendingCorrectionExists
		}
		return fmt.Errorf("failed to create correction request: %w", err)
	}

	return nil
}

// GetByID implements correction.CorrectionRepository.
func (c *correctionRepository) GetByID(ctx context.Context, companyID, id string) (*correction.Request, error) {
	q := GetQuerier(ctx, c.db)

	r, err := scanCorrection(q.QueryRow(ctx,
		"SELECT "+correctionColumns+correctionFrom+" WHERE c.id = $1 AND c.company_id = $2", id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, correction.ErrCorrectionNotFound
		}
		return nil, fmt.Errorf("failed to get correction request: %w", err)
	}
	return &r, nil
}

// HasPending implements correction.CorrectionRepository.
func (c *correctionRepository) HasPending(ctx context.Context, companyID, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM attendance_corrections
			WHERE company_id = $1 AND employee_id = $2 AND requested_date = $3::date AND status = 'pending'
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, companyID, employeeID, attendance.DayKey(date)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending correction: %w", err)
	}
	return exists, nil
}

// List implements correction.CorrectionRepository.
func (c *correctionRepository) List(ctx context.Context, companyID string, filter correction.ListFilter) ([]correction.Request, int64, error) {
	q := GetQuerier(ctx, c.db)

	where := tenantWhere("c.company_id", companyID)
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where.and("c.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Status != nil && *filter.Status != "" {
		where.and("c.status = $%d", *filter.Status)
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendance_corrections c WHERE "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction requests: %w", err)
	}

	suffix, args := where.paged(filter.Limit, filter.Offset())
	rows, err := q.Query(ctx, "SELECT "+correctionColumns+correctionFrom+" WHERE "+where.String()+" ORDER BY c.created_at DESC "+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query correction requests: %w", err)
	}
	defer rows.Close()

	var requests []correction.Request
	for rows.Next() {
		r, err := scanCorrection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan correction request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate correction requests: %w", err)
	}

	return requests, total, nil
}

// Resolve implements correction.CorrectionRepository. The status guard in the UPDATE makes the
// first of a concurrent review and cancellation win.
func (c *correctionRepository) Resolve(ctx context.Context, companyID, id string, d correction.Decision) (*correction.Request, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		UPDATE attendance_corrections SET
			status = $3,
			reviewed_by = $4,
			reviewed_at = $5,
			comments = $6,
			updated_at = $5
		WHERE id = $1 AND company_id = $2 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, id, companyID, d.Status, d.ReviewedBy, d.ReviewedAt, d.Comments)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve correction request: %w", err)
	}

	current, err := c.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, correction.ErrCorrectionAlreadyProcessed
	}
	return current, nil
}

// SetAttendanceID implements correction.CorrectionRepository.
func (c *correctionRepository) SetAttendanceID(ctx context.Context, companyID, id, attendanceID string) error {
	q := GetQuerier(ctx, c.db)

	tag, err := q.Exec(ctx,
		`UPDATE attendance_corrections SET attendance_id = $3, updated_at = NOW() WHERE id = $1 AND company_id = $2`,
		id, companyID, attendanceID)
	if err != nil {
		return fmt.Errorf("failed to link correction request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return correction.ErrCorrectionNotFound
	}
	return nil
}

func NewCorrectionRepository(db *database.DB) correction.CorrectionRepository {
	return &correctionRepository{
		db: db,
	}
}
