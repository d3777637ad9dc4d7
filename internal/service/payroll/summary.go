package payroll

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const exportPageSize = 100

var exportHeaders = []string{
	"Period", "Employee ID", "Employee", "Base Salary", "Allowances", "Bonuses",
	"Deductions", "Gross Salary", "Net Salary", "Payment Status", "Locked",
}

// GetSalarySummary implements payroll.PayrollService. An empty employeeID means the caller.
func (s *PayrollServiceImpl) GetSalarySummary(ctx context.Context, actor user.Actor, employeeID string, year int) (*payroll.SalarySummary, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if employeeID == "" {
		return nil, user.ErrEmployeeRequired
	}
	if employeeID != actor.EmployeeID && !actor.Can(user.PermissionPayrollManage) {
		return nil, user.ErrPermissionDenied
	}
	if !validator.IsValidYear(year) {
		return nil, validator.ValidationErrors{{Field: "year", Message: "year must be between 2000 and 2100"}}
	}

	records, err := s.SalaryRepository.ListByEmployeeYear(ctx, actor.CompanyID, employeeID, year)
	if err != nil {
		return nil, apperr.Dependency(fmt.Sprintf("failed to load salaries of employee %s for %d", employeeID, year), err)
	}
	return Summarize(employeeID, year, records), nil
}

// Summarize totals a year of salary records. Highest and lowest are zero when there are none.
func Summarize(employeeID string, year int, records []payroll.SalaryRecord) *payroll.SalarySummary {
	summary := &payroll.SalarySummary{
		EmployeeID:      employeeID,
		Year:            year,
		MonthCount:      len(records),
		TotalGross:      decimal.Zero,
		TotalNet:        decimal.Zero,
		TotalAllowances: decimal.Zero,
		TotalBonuses:    decimal.Zero,
		TotalDeductions: decimal.Zero,
		AverageNet:      decimal.Zero,
		HighestNet:      decimal.Zero,
		LowestNet:       decimal.Zero,
		Months:          make([]payroll.MonthSummary, 0, len(records)),
	}

	for i, r := range records {
		summary.TotalGross = summary.TotalGross.Add(r.GrossSalary)
		summary.TotalNet = summary.TotalNet.Add(r.NetSalary)
		summary.TotalAllowances = summary.TotalAllowances.Add(r.TotalAllowances)
		summary.TotalBonuses = summary.TotalBonuses.Add(r.TotalBonuses)
		summary.TotalDeductions = summary.TotalDeductions.Add(r.TotalDeductions)

		if i == 0 || r.NetSalary.GreaterThan(summary.HighestNet) {
			summary.HighestNet = r.NetSalary
		}
		if i == 0 || r.NetSalary.LessThan(summary.LowestNet) {
			summary.LowestNet = r.NetSalary
		}

		summary.Months = append(summary.Months, payroll.MonthSummary{
			Month:         r.Month,
			GrossSalary:   r.GrossSalary,
			NetSalary:     r.NetSalary,
			PaymentStatus: r.PaymentStatus,
		})
	}

	if len(records) > 0 {
		summary.AverageNet = summary.TotalNet.Div(decimal.NewFromInt(int64(len(records)))).Round(2)
	}
	return summary
}

// GetSalaryStatistics implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSalaryStatistics(ctx context.Context, actor user.Actor, year int, month *int) (*payroll.Statistics, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	var errs validator.ValidationErrors
	if !validator.IsValidYear(year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be between 2000 and 2100"})
	}
	if month != nil && !validator.IsValidMonth(*month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	stats, err := s.SalaryRepository.Statistics(ctx, actor.CompanyID, year, month)
	if err != nil {
		return nil, apperr.Dependency("failed to compute salary statistics", err)
	}
	return stats, nil
}

// ExportSalaries implements payroll.PayrollService. Every record matching filter is rendered,
// the filter's paging is ignored.
func (s *PayrollServiceImpl) ExportSalaries(ctx context.Context, actor user.Actor, filter payroll.ListFilter, format export.Format) ([]byte, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	title := "Salaries"
	if filter.Month != nil && filter.Year != nil {
		title = "Salaries " + payroll.Period(*filter.Month, *filter.Year)
	}
	table := export.Table{Title: title, Headers: exportHeaders}

	filter.Page, filter.Limit = 1, exportPageSize
	for {
		records, total, err := s.ListSalaries(ctx, actor, filter)
		if err != nil {
			return nil, err
		}
		for i := range records {
			table.Rows = append(table.Rows, exportRow(&records[i]))
		}
		if int64(filter.Page*filter.Limit) >= total || len(records) == 0 {
			break
		}
		filter.Page++
	}

	out, err := s.renderer.Render(table, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render salary export: %w", err)
	}
	return out, nil
}

func exportRow(r *payroll.SalaryRecord) []string {
	name := ""
	if r.EmployeeName != nil {
		name = *r.EmployeeName
	}
	return []string{
		r.Period(),
		r.EmployeeID,
		name,
		r.BaseSalary.StringFixed(2),
		r.TotalAllowances.StringFixed(2),
		r.TotalBonuses.StringFixed(2),
		r.TotalDeductions.StringFixed(2),
		r.GrossSalary.StringFixed(2),
		r.NetSalary.StringFixed(2),
		string(r.PaymentStatus),
		strconv.FormatBool(r.IsLocked),
	}
}
