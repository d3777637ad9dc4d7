package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

// NewEmployeeDirectory reads the employees owned by the HR core. Attendance and payroll only
// ever read from it.
func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT e.id, e.company_id, e.user_id, e.employee_code, e.full_name,
		   COALESCE(u.email, ''), p.name, e.employment_status, COALESCE(e.base_salary, 0)
	FROM employees e
	LEFT JOIN users u ON u.id = e.user_id
	LEFT JOIN positions p ON p.id = e.position_id`

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.CompanyID, &emp.UserID, &emp.EmployeeCode, &emp.FullName,
		&emp.Email, &emp.PositionName, &emp.EmploymentStatus, &emp.BaseSalary,
	)
	return emp, err
}

// ListActive implements employee.Directory.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `
		WHERE e.company_id = $1 AND e.employment_status = $2 AND e.deleted_at IS NULL
		ORDER BY e.full_name
	`

	rows, err := q.Query(ctx, query, companyID, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// GetByID implements employee.Directory.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	emp, err := scanEmployee(q.QueryRow(ctx, employeeSelect+`
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
	`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &emp, nil
}

// GetBaseSalary implements employee.Directory.
func (e *employeeRepositoryImpl) GetBaseSalary(ctx context.Context, companyID, id string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, e.db)

	var base decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(base_salary, 0) FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID).Scan(&base)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, employee.ErrEmployeeNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get base salary: %w", err)
	}
	return base, nil
}
