package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) payroll.SalaryRepository {
	return &salaryRepository{db: db}
}

const salaryColumns = `
	s.id, s.company_id, s.employee_id, s.period_month, s.period_year, s.base_salary,
	s.allowances, s.bonuses, s.increment, s.deductions, s.attendance_details,
	s.total_allowances, s.total_bonuses, s.total_deductions, s.gross_salary, s.net_salary,
	s.payment_status, s.payment_date, s.payment_method, s.notes,
	s.is_locked, s.locked_at, s.locked_by,
	s.acknowledged, s.acknowledged_at, s.acknowledged_by,
	s.created_by, s.updated_by, s.created_at, s.updated_at,
	e.full_name AS employee_name`

const salaryFrom = `
	FROM salary_records s
	LEFT JOIN employees e ON e.id = s.employee_id`

// salaryJSON holds the JSONB columns of a salary record.
type salaryJSON struct {
	allowances, bonuses, increment, deductions, details []byte
}

func marshalSalaryJSON(rec *payroll.SalaryRecord) (salaryJSON, error) {
	var (
		out salaryJSON
		err error
	)
	allowances := rec.Allowances
	if allowances == nil {
		allowances = []payroll.LineItem{}
	}
	bonuses := rec.Bonuses
	if bonuses == nil {
		bonuses = []payroll.Bonus{}
	}
	deductions := rec.Deductions
	if deductions == nil {
		deductions = []payroll.LineItem{}
	}
	if out.allowances, err = json.Marshal(allowances); err != nil {
		return out, fmt.Errorf("failed to encode allowances: %w", err)
	}
	if out.bonuses, err = json.Marshal(bonuses); err != nil {
		return out, fmt.Errorf("failed to encode bonuses: %w", err)
	}
	if rec.Increment != nil {
		if out.increment, err = json.Marshal(rec.Increment); err != nil {
			return out, fmt.Errorf("failed to encode increment: %w", err)
		}
	}
	if out.deductions, err = json.Marshal(deductions); err != nil {
		return out, fmt.Errorf("failed to encode deductions: %w", err)
	}
	if out.details, err = json.Marshal(rec.AttendanceDetails); err != nil {
		return out, fmt.Errorf("failed to encode attendance details: %w", err)
	}
	return out, nil
}

func scanSalary(row rowScanner) (payroll.SalaryRecord, error) {
	var (
		rec payroll.SalaryRecord
		raw salaryJSON
	)
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.Month, &rec.Year, &rec.BaseSalary,
		&raw.allowances, &raw.bonuses, &raw.increment, &raw.deductions, &raw.details,
		&rec.TotalAllowances, &rec.TotalBonuses, &rec.TotalDeductions, &rec.GrossSalary, &rec.NetSalary,
		&rec.PaymentStatus, &rec.PaymentDate, &rec.PaymentMethod, &rec.Notes,
		&rec.IsLocked, &rec.LockedAt, &rec.LockedBy,
		&rec.Acknowledgment.Acknowledged, &rec.Acknowledgment.At, &rec.Acknowledgment.By,
		&rec.CreatedBy, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName,
	)
	if err != nil {
		return rec, err
	}

	if err := json.Unmarshal(raw.allowances, &rec.Allowances); err != nil {
		return rec, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if err := json.Unmarshal(raw.bonuses, &rec.Bonuses); err != nil {
		return rec, fmt.Errorf("failed to decode bonuses: %w", err)
	}
	if len(raw.increment) > 0 {
		rec.Increment = &payroll.Increment{}
		if err := json.Unmarshal(raw.increment, rec.Increment); err != nil {
			return rec, fmt.Errorf("failed to decode increment: %w", err)
		}
	}
	if err := json.Unmarshal(raw.deductions, &rec.Deductions); err != nil {
		return rec, fmt.Errorf("failed to decode deductions: %w", err)
	}
	if err := json.Unmarshal(raw.details, &rec.AttendanceDetails); err != nil {
		return rec, fmt.Errorf("failed to decode attendance details: %w", err)
	}
	return rec, nil
}

// Create implements payroll.SalaryRepository.
func (r *salaryRepository) Create(ctx context.Context, rec *payroll.SalaryRecord) error {
	q := GetQuerier(ctx, r.db)

	raw, err := marshalSalaryJSON(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO salary_records (
			company_id, employee_id, period_month, period_year, base_salary,
			allowances, bonuses, increment, deductions, attendance_details,
			total_allowances, total_bonuses, total_deductions, gross_salary, net_salary,
			payment_status, payment_date, payment_method, notes, created_by, updated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20
		)
		ON CONFLICT (company_id, employee_id, period_month, period_year) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		rec.CompanyID, rec.EmployeeID, rec.Month, rec.Year, rec.BaseSalary,
		raw.allowances, raw.bonuses, raw.increment, raw.deductions, raw.details,
		rec.TotalAllowances, rec.TotalBonuses, rec.TotalDeductions, rec.GrossSalary, rec.NetSalary,
		rec.PaymentStatus, rec.PaymentDate, rec.PaymentMethod, rec.Notes, rec.CreatedBy,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrSalaryRecordExists
		}
		return fmt.Errorf("failed to create salary record: %w", err)
	}

	return nil
}

// guardMiss explains why a guarded statement touched no row: the record is missing, or fails
// the guard with editErr.
func (r *salaryRepository) guardMiss(ctx context.Context, companyID, id string, editErr func(*payroll.SalaryRecord) error) error {
	current, err := r.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	return editErr(current)
}

func lockedErr(*payroll.SalaryRecord) error {
	return payroll.ErrSalaryRecordLocked
}

// Update implements payroll.SalaryRepository. The guard in the WHERE clause lets a concurrent
// lock or payment win over the edit.
func (r *salaryRepository) Update(ctx context.Context, rec *payroll.SalaryRecord) error {
	q := GetQuerier(ctx, r.db)

	raw, err := marshalSalaryJSON(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE salary_records SET
			base_salary = $3,
			allowances = $4,
			bonuses = $5,
			increment = $6,
			deductions = $7,
			attendance_details = $8,
			total_allowances = $9,
			total_bonuses = $10,
			total_deductions = $11,
			gross_salary = $12,
			net_salary = $13,
			payment_status = $14,
			payment_date = $15,
			payment_method = $16,
			notes = $17,
			updated_by = $18,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		  AND is_locked = false AND payment_status <> 'paid'
		RETURNING updated_at
	`

	err = q.QueryRow(ctx, query,
		rec.ID, rec.CompanyID, rec.BaseSalary,
		raw.allowances, raw.bonuses, raw.increment, raw.deductions, raw.details,
		rec.TotalAllowances, rec.TotalBonuses, rec.TotalDeductions, rec.GrossSalary, rec.NetSalary,
		rec.PaymentStatus, rec.PaymentDate, rec.PaymentMethod, rec.Notes, rec.UpdatedBy,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.guardMiss(ctx, rec.CompanyID, rec.ID, lockedErr)
		}
		return fmt.Errorf("failed to update salary record: %w", err)
	}

	return nil
}

// Lock implements payroll.SalaryRepository.
func (r *salaryRepository) Lock(ctx context.Context, companyID, id, lockedBy string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_records SET is_locked = true, locked_at = $3, locked_by = $4, updated_at = $3
		WHERE id = $1 AND company_id = $2 AND is_locked = false
	`, id, companyID, at, lockedBy)
	if err != nil {
		return fmt.Errorf("failed to lock salary record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardMiss(ctx, companyID, id, func(*payroll.SalaryRecord) error {
			return payroll.ErrSalaryAlreadyLocked
		})
	}
	return nil
}

// Acknowledge implements payroll.SalaryRepository.
func (r *salaryRepository) Acknowledge(ctx context.Context, companyID, id, by string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_records SET acknowledged = true, acknowledged_at = $3, acknowledged_by = $4, updated_at = $3
		WHERE id = $1 AND company_id = $2 AND payment_status = 'paid' AND acknowledged = false
	`, id, companyID, at, by)
	if err != nil {
		return fmt.Errorf("failed to acknowledge salary record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardMiss(ctx, companyID, id, func(current *payroll.SalaryRecord) error {
			if current.PaymentStatus != payroll.PaymentStatusPaid {
				return payroll.ErrSalaryNotPaid
			}
			return payroll.ErrAlreadyAcknowledged
		})
	}
	return nil
}

// Delete implements payroll.SalaryRepository.
func (r *salaryRepository) Delete(ctx context.Context, companyID, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM salary_records
		WHERE id = $1 AND company_id = $2 AND is_locked = false AND payment_status <> 'paid'
	`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete salary record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardMiss(ctx, companyID, id, lockedErr)
	}
	return nil
}

// GetByID implements payroll.SalaryRepository.
func (r *salaryRepository) GetByID(ctx context.Context, companyID, id string) (*payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanSalary(q.QueryRow(ctx, "SELECT "+salaryColumns+salaryFrom+" WHERE s.id = $1 AND s.company_id = $2", id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payroll.ErrSalaryRecordNotFound
		}
		return nil, fmt.Errorf("failed to get salary record: %w", err)
	}
	return &rec, nil
}

// ExistsForPeriod implements payroll.SalaryRepository.
func (r *salaryRepository) ExistsForPeriod(ctx context.Context, companyID string, month, year int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM salary_records WHERE company_id = $1 AND period_month = $2 AND period_year = $3)
	`, companyID, month, year).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check salary period: %w", err)
	}
	return exists, nil
}

func (r *salaryRepository) query(ctx context.Context, query string, args ...interface{}) ([]payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query salary records: %w", err)
	}
	defer rows.Close()

	var records []payroll.SalaryRecord
	for rows.Next() {
		rec, err := scanSalary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary records: %w", err)
	}
	return records, nil
}

// ListByEmployeeYear implements payroll.SalaryRepository.
func (r *salaryRepository) ListByEmployeeYear(ctx context.Context, companyID, employeeID string, year int) ([]payroll.SalaryRecord, error) {
	where := tenantWhere("s.company_id", companyID).
		and("s.employee_id = $%d", employeeID).
		and("s.period_year = $%d", year)
	return r.query(ctx, "SELECT "+salaryColumns+salaryFrom+" WHERE "+where.String()+" ORDER BY s.period_month", where.args...)
}

func salaryListWhere(companyID string, filter payroll.ListFilter) *whereBuilder {
	where := tenantWhere("s.company_id", companyID)
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where.and("s.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Month != nil {
		where.and("s.period_month = $%d", *filter.Month)
	}
	if filter.Year != nil {
		where.and("s.period_year = $%d", *filter.Year)
	}
	if filter.PaymentStatus != nil && *filter.PaymentStatus != "" {
		where.and("s.payment_status = $%d", *filter.PaymentStatus)
	}
	return where
}

// List implements payroll.SalaryRepository.
func (r *salaryRepository) List(ctx context.Context, companyID string, filter payroll.ListFilter) ([]payroll.SalaryRecord, int64, error) {
	q := GetQuerier(ctx, r.db)
	where := salaryListWhere(companyID, filter)

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM salary_records s WHERE "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary records: %w", err)
	}

	suffix, args := where.paged(filter.Limit, filter.Offset())
	records, err := r.query(ctx,
		"SELECT "+salaryColumns+salaryFrom+" WHERE "+where.String()+
			" ORDER BY s.period_year DESC, s.period_month DESC, s.employee_id "+suffix,
		args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Statistics implements payroll.SalaryRepository.
func (r *salaryRepository) Statistics(ctx context.Context, companyID string, year int, month *int) (*payroll.Statistics, error) {
	q := GetQuerier(ctx, r.db)

	where := tenantWhere("company_id", companyID).and("period_year = $%d", year)
	if month != nil {
		where.and("period_month = $%d", *month)
	}

	query := `
		SELECT payment_status,
			   COUNT(*),
			   COALESCE(SUM(gross_salary), 0),
			   COALESCE(SUM(net_salary), 0),
			   COALESCE(SUM(total_deductions), 0),
			   COUNT(*) FILTER (WHERE is_locked)
		FROM salary_records
		WHERE ` + where.String() + `
		GROUP BY payment_status
	`
	rows, err := q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary statistics: %w", err)
	}
	defer rows.Close()

	stats := &payroll.Statistics{
		Year:            year,
		Month:           month,
		ByStatus:        make(map[payroll.PaymentStatus]int),
		TotalGross:      decimal.Zero,
		TotalNet:        decimal.Zero,
		TotalDeductions: decimal.Zero,
	}
	for rows.Next() {
		var (
			status                 payroll.PaymentStatus
			count, locked          int
			gross, net, deductions decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &gross, &net, &deductions, &locked); err != nil {
			return nil, fmt.Errorf("failed to scan salary statistics: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalRecords += count
		stats.LockedCount += locked
		stats.TotalGross = stats.TotalGross.Add(gross)
		stats.TotalNet = stats.TotalNet.Add(net)
		stats.TotalDeductions = stats.TotalDeductions.Add(deductions)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate salary statistics: %w", err)
	}

	return stats, nil
}
