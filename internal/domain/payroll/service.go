package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
)

type PayrollService interface {
	GenerateMonthly(ctx context.Context, actor user.Actor, req GenerateMonthlyRequest) (*GenerateMonthlyResult, error)
	CreateSalaryEntry(ctx context.Context, actor user.Actor, req CreateSalaryRequest) (*SalaryRecord, error)
	UpdateSalaryEntry(ctx context.Context, actor user.Actor, id string, req UpdateSalaryRequest) (*SalaryRecord, error)
	DeleteSalaryEntry(ctx context.Context, actor user.Actor, id string) error
	LockSalaryEntry(ctx context.Context, actor user.Actor, id string) (*SalaryRecord, error)
	AcknowledgeSalary(ctx context.Context, actor user.Actor, id string) (*SalaryRecord, error)
	GetSalary(ctx context.Context, actor user.Actor, id string) (*SalaryRecord, error)
	ListSalaries(ctx context.Context, actor user.Actor, filter ListFilter) ([]SalaryRecord, int64, error)
	GetSalarySummary(ctx context.Context, actor user.Actor, employeeID string, year int) (*SalarySummary, error)
	GetSalaryStatistics(ctx context.Context, actor user.Actor, year int, month *int) (*Statistics, error)
	ExportSalaries(ctx context.Context, actor user.Actor, filter ListFilter, format export.Format) ([]byte, error)
}
