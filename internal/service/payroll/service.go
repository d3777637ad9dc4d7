package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/export"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/lock"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	payroll.SalaryRepository
	attendanceRepo attendance.AttendanceRepository
	employees      employee.Directory
	settings       settings.SettingsService
	notifier       notification.Notifier
	renderer       export.Renderer
	locker         lock.Locker
	now            func() time.Time
}

// generationLease bounds how long a crashed run can hold a period.
const generationLease = 10 * time.Minute

type Option func(*PayrollServiceImpl)

// WithLocker shares period claims across API instances. The default is in-process.
func WithLocker(l lock.Locker) Option {
	return func(s *PayrollServiceImpl) {
		s.locker = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PayrollServiceImpl) {
		s.now = now
	}
}

func NewPayrollService(
	repo payroll.SalaryRepository,
	attendanceRepo attendance.AttendanceRepository,
	employees employee.Directory,
	settingsService settings.SettingsService,
	notifier notification.Notifier,
	renderer export.Renderer,
	opts ...Option,
) payroll.PayrollService {
	s := &PayrollServiceImpl{
		SalaryRepository: repo,
		attendanceRepo:   attendanceRepo,
		employees:        employees,
		settings:         settingsService,
		notifier:         notifier,
		renderer:         renderer,
		locker:           lock.NewMemoryLocker(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireManager(actor user.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.Can(user.PermissionPayrollManage) {
		return user.ErrPermissionDenied
	}
	return nil
}

func describe(employeeID string, month, year int) string {
	return fmt.Sprintf("employee %s for %s", employeeID, payroll.Period(month, year))
}

// ========== GENERATION ==========

// GenerateMonthly implements payroll.PayrollService. A failure for one employee is recorded
// in the result and does not stop the run.
func (s *PayrollServiceImpl) GenerateMonthly(ctx context.Context, actor user.Actor, req payroll.GenerateMonthlyRequest) (*payroll.GenerateMonthlyResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period := payroll.Period(req.Month, req.Year)

	// one run per period: a concurrent caller loses the claim, a later one finds the records
	key := fmt.Sprintf("payroll:generate:%s:%s", actor.CompanyID, period)
	token, ok, err := s.locker.Acquire(ctx, key, generationLease)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperr.Dependency("failed to claim salary generation for "+period, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: generation already running: %w", period, payroll.ErrSalaryScopeExists)
	}
	defer s.locker.Release(context.WithoutCancel(ctx), key, token)

	exists, err := s.SalaryRepository.ExistsForPeriod(ctx, actor.CompanyID, req.Month, req.Year)
	if err != nil {
		return nil, apperr.Dependency("failed to check salaries for "+period, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", period, payroll.ErrSalaryScopeExists)
	}

	employees, err := s.employees.ListActive(ctx, actor.CompanyID)
	if err != nil {
		return nil, apperr.Dependency("failed to list active employees", err)
	}
	if len(employees) == 0 {
		return nil, employee.ErrNoActiveEmployees
	}

	cfg, err := s.settings.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	result := &payroll.GenerateMonthlyResult{
		Month:          req.Month,
		Year:           req.Year,
		TotalEmployees: len(employees),
	}

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			slog.Warn("salary generation interrupted",
				"company_id", actor.CompanyID,
				"period", period,
				"generated", result.SuccessCount,
			)
			return result, err
		}

		if err := s.generateFor(ctx, actor, cfg, emp, req.Month, req.Year); err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, payroll.GenerationError{
				EmployeeID:   emp.ID,
				EmployeeName: emp.FullName,
				Kind:         string(apperr.KindOf(err)),
				Message:      err.Error(),
			})
			slog.Warn("salary generation failed for employee",
				"company_id", actor.CompanyID,
				"employee_id", emp.ID,
				"period", period,
				"error", err,
			)
			continue
		}
		result.SuccessCount++
	}

	slog.Info("monthly salaries generated",
		"company_id", actor.CompanyID,
		"period", period,
		"success", result.SuccessCount,
		"failed", result.FailureCount,
	)

	s.notifyGenerated(ctx, cfg, result)
	return result, nil
}

func (s *PayrollServiceImpl) generateFor(ctx context.Context, actor user.Actor, cfg *settings.TenantSettings, emp employee.Employee, month, year int) error {
	who := describe(emp.ID, month, year)

	base, err := s.employees.GetBaseSalary(ctx, actor.CompanyID, emp.ID)
	if err != nil {
		return apperr.Dependency("failed to load base salary of "+who, err)
	}

	loc := cfg.Location()
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, -1)
	records, err := s.attendanceRepo.ListByEmployeeRange(ctx, actor.CompanyID, emp.ID, start, end)
	if err != nil {
		return apperr.Dependency("failed to load attendance of "+who, err)
	}

	details := SummarizeAttendance(records, month, year)

	record := &payroll.SalaryRecord{
		CompanyID:         actor.CompanyID,
		EmployeeID:        emp.ID,
		Month:             month,
		Year:              year,
		BaseSalary:        base,
		AttendanceDetails: details,
		PaymentStatus:     payroll.PaymentStatusPending,
		CreatedBy:         &actor.UserID,
		UpdatedBy:         &actor.UserID,
	}
	if details.AbsentDays > 0 {
		record.Deductions = append(record.Deductions, AbsentDeduction(base, details.AbsentDays, month, year))
	}
	record.RecomputeTotals()

	if err := s.SalaryRepository.Create(ctx, record); err != nil {
		if errors.Is(err, payroll.ErrSalaryRecordExists) {
			return fmt.Errorf("%s: %w", who, err)
		}
		return apperr.Dependency("failed to create salary of "+who, err)
	}
	return nil
}

// SummarizeAttendance derives the salary attendance block from one month of records.
// TotalWorkingDays is the calendar-day count of the month.
func SummarizeAttendance(records []attendance.Record, month, year int) payroll.AttendanceDetails {
	details := payroll.AttendanceDetails{
		TotalWorkingDays: payroll.DaysInMonth(month, year),
		OvertimeAmount:   decimal.Zero,
	}
	for _, r := range records {
		switch r.Status {
		case attendance.StatusPresent, attendance.StatusLate:
			details.PresentDays++
		case attendance.StatusAbsent:
			details.AbsentDays++
		case attendance.StatusHalfDay:
			details.HalfDays++
		}
		if r.LateArrival.IsLate {
			details.LateDays++
		}
		details.OvertimeHours += r.OvertimeHours
	}
	details.OvertimeHours = math.Round(details.OvertimeHours*100) / 100
	return details
}

// AbsentDeduction charges the per-day rate for each absent day.
func AbsentDeduction(base decimal.Decimal, absentDays, month, year int) payroll.LineItem {
	note := fmt.Sprintf("%d days absent", absentDays)
	return payroll.LineItem{
		Kind:   payroll.DeductionAbsent,
		Amount: payroll.PerDayRate(base, month, year).Mul(decimal.NewFromInt(int64(absentDays))).Round(2),
		Note:   &note,
	}
}

func (s *PayrollServiceImpl) notifyGenerated(ctx context.Context, cfg *settings.TenantSettings, result *payroll.GenerateMonthlyResult) {
	if s.notifier == nil {
		return
	}
	payload := map[string]any{
		"period":  payroll.Period(result.Month, result.Year),
		"success": result.SuccessCount,
		"failed":  result.FailureCount,
		"total":   result.TotalEmployees,
	}
	for _, email := range cfg.Notifications.Recipients {
		s.notifier.Notify(ctx, cfg.CompanyID, notification.Recipient{Email: email}, notification.EventPayrollGenerated, payload)
	}
}

// ========== ENTRIES ==========

// CreateSalaryEntry implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateSalaryEntry(ctx context.Context, actor user.Actor, req payroll.CreateSalaryRequest) (*payroll.SalaryRecord, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	who := describe(req.EmployeeID, req.Month, req.Year)

	emp, err := s.employees.GetByID(ctx, actor.CompanyID, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, fmt.Errorf("employee %s: %w", req.EmployeeID, err)
		}
		return nil, apperr.Dependency("failed to load employee "+req.EmployeeID, err)
	}

	record := &payroll.SalaryRecord{
		CompanyID:     actor.CompanyID,
		EmployeeID:    emp.ID,
		Month:         req.Month,
		Year:          req.Year,
		Allowances:    req.Allowances,
		Bonuses:       req.Bonuses,
		Deductions:    req.Deductions,
		PaymentStatus: payroll.PaymentStatusPending,
		PaymentDate:   req.PaymentDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		CreatedBy:     &actor.UserID,
		UpdatedBy:     &actor.UserID,
		EmployeeName:  &emp.FullName,
	}

	if req.BaseSalary != nil {
		record.BaseSalary = *req.BaseSalary
	} else {
		base, err := s.employees.GetBaseSalary(ctx, actor.CompanyID, emp.ID)
		if err != nil {
			return nil, apperr.Dependency("failed to load base salary of "+who, err)
		}
		record.BaseSalary = base
	}
	if req.AttendanceDetails != nil {
		record.AttendanceDetails = *req.AttendanceDetails
	}
	if req.PaymentStatus != nil {
		record.PaymentStatus = *req.PaymentStatus
	}
	if req.Increment != nil {
		applyIncrement(record, req.Increment, actor.UserID)
	}
	record.RecomputeTotals()

	if err := s.SalaryRepository.Create(ctx, record); err != nil {
		if errors.Is(err, payroll.ErrSalaryRecordExists) {
			return nil, fmt.Errorf("%s: %w", who, err)
		}
		return nil, apperr.Dependency("failed to create salary of "+who, err)
	}

	slog.Info("salary entry created", "company_id", actor.CompanyID, "employee_id", emp.ID, "salary_id", record.ID, "period", record.Period())
	return record, nil
}

// applyIncrement derives the increment and moves the base salary to the new salary.
func applyIncrement(record *payroll.SalaryRecord, in *payroll.IncrementInput, approvedBy string) {
	inc := &payroll.Increment{
		PreviousSalary: in.PreviousSalary,
		NewSalary:      in.NewSalary,
		EffectiveDate:  in.EffectiveDate,
		Reason:         in.Reason,
		ApprovedBy:     &approvedBy,
	}
	inc.Derive()
	record.Increment = inc
	record.BaseSalary = inc.NewSalary
}

func (s *PayrollServiceImpl) loadEditable(ctx context.Context, companyID, id string) (*payroll.SalaryRecord, error) {
	record, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !record.IsEditable() {
		return nil, fmt.Errorf("salary %s (%s): %w", id, record.Period(), payroll.ErrSalaryRecordLocked)
	}
	return record, nil
}

func (s *PayrollServiceImpl) load(ctx context.Context, companyID, id string) (*payroll.SalaryRecord, error) {
	record, err := s.SalaryRepository.GetByID(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, payroll.ErrSalaryRecordNotFound) {
			return nil, fmt.Errorf("salary %s: %w", id, err)
		}
		return nil, apperr.Dependency("failed to load salary "+id, err)
	}
	return record, nil
}

// mutationError keeps the domain sentinel visible when a concurrent lock wins.
func mutationError(action, id string, err error) error {
	if errors.Is(err, payroll.ErrSalaryRecordLocked) || errors.Is(err, payroll.ErrSalaryRecordNotFound) {
		return fmt.Errorf("salary %s: %w", id, err)
	}
	return apperr.Dependency("failed to "+action+" salary "+id, err)
}

// UpdateSalaryEntry implements payroll.PayrollService. Totals are recomputed from the lines.
func (s *PayrollServiceImpl) UpdateSalaryEntry(ctx context.Context, actor user.Actor, id string, req payroll.UpdateSalaryRequest) (*payroll.SalaryRecord, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record, err := s.loadEditable(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}

	if req.BaseSalary != nil {
		record.BaseSalary = *req.BaseSalary
	}
	if req.Allowances != nil {
		record.Allowances = *req.Allowances
	}
	if req.Bonuses != nil {
		record.Bonuses = *req.Bonuses
	}
	if req.Deductions != nil {
		record.Deductions = *req.Deductions
	}
	if req.AttendanceDetails != nil {
		record.AttendanceDetails = *req.AttendanceDetails
	}
	if req.PaymentStatus != nil {
		record.PaymentStatus = *req.PaymentStatus
	}
	if req.PaymentDate != nil {
		record.PaymentDate = req.PaymentDate
	}
	if req.PaymentMethod != nil {
		record.PaymentMethod = req.PaymentMethod
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}
	if req.Increment != nil {
		applyIncrement(record, req.Increment, actor.UserID)
	}
	record.UpdatedBy = &actor.UserID
	record.RecomputeTotals()

	if err := s.SalaryRepository.Update(ctx, record); err != nil {
		return nil, mutationError("update", id, err)
	}

	slog.Info("salary entry updated", "company_id", actor.CompanyID, "salary_id", id, "payment_status", record.PaymentStatus)
	return record, nil
}

// DeleteSalaryEntry implements payroll.PayrollService.
func (s *PayrollServiceImpl) DeleteSalaryEntry(ctx context.Context, actor user.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if _, err := s.loadEditable(ctx, actor.CompanyID, id); err != nil {
		return err
	}
	if err := s.SalaryRepository.Delete(ctx, actor.CompanyID, id); err != nil {
		return mutationError("delete", id, err)
	}

	slog.Info("salary entry deleted", "company_id", actor.CompanyID, "salary_id", id)
	return nil
}

// LockSalaryEntry implements payroll.PayrollService.
func (s *PayrollServiceImpl) LockSalaryEntry(ctx context.Context, actor user.Actor, id string) (*payroll.SalaryRecord, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	if err := s.SalaryRepository.Lock(ctx, actor.CompanyID, id, actor.UserID, s.now()); err != nil {
		if errors.Is(err, payroll.ErrSalaryAlreadyLocked) || errors.Is(err, payroll.ErrSalaryRecordNotFound) {
			return nil, fmt.Errorf("salary %s: %w", id, err)
		}
		return nil, apperr.Dependency("failed to lock salary "+id, err)
	}

	slog.Info("salary entry locked", "company_id", actor.CompanyID, "salary_id", id, "locked_by", actor.UserID)
	return s.load(ctx, actor.CompanyID, id)
}

// AcknowledgeSalary implements payroll.PayrollService. Only the paid employee may acknowledge, once.
func (s *PayrollServiceImpl) AcknowledgeSalary(ctx context.Context, actor user.Actor, id string) (*payroll.SalaryRecord, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	record, err := s.load(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if actor.EmployeeID == "" || record.EmployeeID != actor.EmployeeID {
		return nil, payroll.ErrNotSalaryOwner
	}
	if record.PaymentStatus != payroll.PaymentStatusPaid {
		return nil, fmt.Errorf("salary %s: %w", id, payroll.ErrSalaryNotPaid)
	}
	if record.Acknowledgment.Acknowledged {
		return nil, fmt.Errorf("salary %s: %w", id, payroll.ErrAlreadyAcknowledged)
	}

	if err := s.SalaryRepository.Acknowledge(ctx, actor.CompanyID, id, actor.UserID, s.now()); err != nil {
		if errors.Is(err, payroll.ErrSalaryNotPaid) || errors.Is(err, payroll.ErrAlreadyAcknowledged) {
			return nil, fmt.Errorf("salary %s: %w", id, err)
		}
		return nil, apperr.Dependency("failed to acknowledge salary "+id, err)
	}

	slog.Info("salary acknowledged", "company_id", actor.CompanyID, "salary_id", id, "employee_id", actor.EmployeeID)
	return s.load(ctx, actor.CompanyID, id)
}

// GetSalary implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSalary(ctx context.Context, actor user.Actor, id string) (*payroll.SalaryRecord, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	record, err := s.load(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if record.EmployeeID != actor.EmployeeID && !actor.Can(user.PermissionPayrollManage) {
		return nil, user.ErrPermissionDenied
	}
	return record, nil
}

// ListSalaries implements payroll.PayrollService. Without payroll.manage only the caller's
// own records are listed.
func (s *PayrollServiceImpl) ListSalaries(ctx context.Context, actor user.Actor, filter payroll.ListFilter) ([]payroll.SalaryRecord, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	if !actor.Can(user.PermissionPayrollManage) {
		if actor.EmployeeID == "" {
			return nil, 0, user.ErrEmployeeRequired
		}
		filter.EmployeeID = &actor.EmployeeID
	}

	records, total, err := s.SalaryRepository.List(ctx, actor.CompanyID, filter)
	if err != nil {
		return nil, 0, apperr.Dependency("failed to list salaries", err)
	}
	return records, total, nil
}
