package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// REQUEST DTOs
// ========================================

type IncrementInput struct {
	PreviousSalary decimal.Decimal `json:"previous_salary"`
	NewSalary      decimal.Decimal `json:"new_salary"`
	EffectiveDate  *time.Time      `json:"effective_date,omitempty"`
	Reason         *string         `json:"reason,omitempty"`
}

type CreateSalaryRequest struct {
	EmployeeID        string             `json:"employee_id"`
	Month             int                `json:"month"`
	Year              int                `json:"year"`
	BaseSalary        *decimal.Decimal   `json:"base_salary,omitempty"` // nil = employee's configured base salary
	Allowances        []LineItem         `json:"allowances,omitempty"`
	Bonuses           []Bonus            `json:"bonuses,omitempty"`
	Increment         *IncrementInput    `json:"increment,omitempty"`
	Deductions        []LineItem         `json:"deductions,omitempty"`
	AttendanceDetails *AttendanceDetails `json:"attendance_details,omitempty"`
	PaymentStatus     *PaymentStatus     `json:"payment_status,omitempty"`
	PaymentDate       *time.Time         `json:"payment_date,omitempty"`
	PaymentMethod     *string            `json:"payment_method,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
}

func (r *CreateSalaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	errs = append(errs, validatePeriod(r.Month, r.Year)...)
	if r.BaseSalary != nil && r.BaseSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "base_salary must not be negative"})
	}
	errs = append(errs, validateComponents(r.Allowances, r.Bonuses, r.Deductions, r.Increment, r.AttendanceDetails, r.PaymentStatus)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateSalaryRequest lists the fields an admin may change; nil keeps the stored value.
type UpdateSalaryRequest struct {
	BaseSalary        *decimal.Decimal   `json:"base_salary,omitempty"`
	Allowances        *[]LineItem        `json:"allowances,omitempty"`
	Bonuses           *[]Bonus           `json:"bonuses,omitempty"`
	Increment         *IncrementInput    `json:"increment,omitempty"`
	Deductions        *[]LineItem        `json:"deductions,omitempty"`
	AttendanceDetails *AttendanceDetails `json:"attendance_details,omitempty"`
	PaymentStatus     *PaymentStatus     `json:"payment_status,omitempty"`
	PaymentDate       *time.Time         `json:"payment_date,omitempty"`
	PaymentMethod     *string            `json:"payment_method,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
}

func (r *UpdateSalaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.BaseSalary == nil && r.Allowances == nil && r.Bonuses == nil && r.Increment == nil &&
		r.Deductions == nil && r.AttendanceDetails == nil && r.PaymentStatus == nil &&
		r.PaymentDate == nil && r.PaymentMethod == nil && r.Notes == nil {
		errs = append(errs, validator.ValidationError{Field: "request", Message: "at least one field must be provided"})
	}
	if r.BaseSalary != nil && r.BaseSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "base_salary must not be negative"})
	}

	var allowances, deductions []LineItem
	var bonuses []Bonus
	if r.Allowances != nil {
		allowances = *r.Allowances
	}
	if r.Bonuses != nil {
		bonuses = *r.Bonuses
	}
	if r.Deductions != nil {
		deductions = *r.Deductions
	}
	errs = append(errs, validateComponents(allowances, bonuses, deductions, r.Increment, r.AttendanceDetails, r.PaymentStatus)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type GenerateMonthlyRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *GenerateMonthlyRequest) Validate() error {
	if errs := validatePeriod(r.Month, r.Year); len(errs) > 0 {
		return errs
	}
	return nil
}

type ListFilter struct {
	EmployeeID    *string        `json:"employee_id,omitempty"`
	Month         *int           `json:"month,omitempty"`
	Year          *int           `json:"year,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 500 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 500"})
	}
	if f.Month != nil && !validator.IsValidMonth(*f.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be between 2000 and 2100"})
	}
	if f.PaymentStatus != nil && !isValidPaymentStatus(*f.PaymentStatus) {
		errs = append(errs, validator.ValidationError{Field: "payment_status", Message: "invalid payment_status"})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func validatePeriod(month, year int) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if !validator.IsValidYear(year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be between 2000 and 2100"})
	}
	return errs
}

func validateComponents(allowances []LineItem, bonuses []Bonus, deductions []LineItem, inc *IncrementInput, details *AttendanceDetails, status *PaymentStatus) validator.ValidationErrors {
	var errs validator.ValidationErrors

	checkLines := func(field string, lines []LineItem) {
		for i, l := range lines {
			if validator.IsEmpty(l.Kind) {
				errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("%s[%d].kind", field, i), Message: "kind is required"})
			}
			if l.Amount.IsNegative() {
				errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("%s[%d].amount", field, i), Message: "amount must not be negative"})
			}
		}
	}
	checkLines("allowances", allowances)
	checkLines("deductions", deductions)

	for i, b := range bonuses {
		if validator.IsEmpty(b.Kind) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("bonuses[%d].kind", i), Message: "kind is required"})
		}
		if b.Amount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("bonuses[%d].amount", i), Message: "amount must not be negative"})
		}
	}

	if inc != nil && (inc.PreviousSalary.IsNegative() || !inc.NewSalary.IsPositive()) {
		errs = append(errs, validator.ValidationError{Field: "increment", Message: "increment needs a non-negative previous_salary and a positive new_salary"})
	}

	if details != nil {
		if details.TotalWorkingDays < 0 || details.PresentDays < 0 || details.AbsentDays < 0 ||
			details.LateDays < 0 || details.HalfDays < 0 || details.OvertimeHours < 0 || details.OvertimeAmount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: "attendance_details", Message: "attendance_details values must not be negative"})
		}
	}

	if status != nil && !isValidPaymentStatus(*status) {
		errs = append(errs, validator.ValidationError{Field: "payment_status", Message: "invalid payment_status"})
	}

	return errs
}

func isValidPaymentStatus(s PaymentStatus) bool {
	for _, st := range AllPaymentStatuses() {
		if st == s {
			return true
		}
	}
	return false
}

// ========================================
// RESULT DTOs
// ========================================

type GenerationError struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
}

type GenerateMonthlyResult struct {
	Month          int               `json:"month"`
	Year           int               `json:"year"`
	SuccessCount   int               `json:"success_count"`
	FailureCount   int               `json:"failure_count"`
	TotalEmployees int               `json:"total_employees"`
	Errors         []GenerationError `json:"errors,omitempty"`
}

type MonthSummary struct {
	Month         int             `json:"month"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	NetSalary     decimal.Decimal `json:"net_salary"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

type SalarySummary struct {
	EmployeeID      string          `json:"employee_id"`
	Year            int             `json:"year"`
	MonthCount      int             `json:"month_count"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalNet        decimal.Decimal `json:"total_net"`
	TotalAllowances decimal.Decimal `json:"total_allowances"`
	TotalBonuses    decimal.Decimal `json:"total_bonuses"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	AverageNet      decimal.Decimal `json:"average_net"`
	HighestNet      decimal.Decimal `json:"highest_net"`
	LowestNet       decimal.Decimal `json:"lowest_net"`
	Months          []MonthSummary  `json:"months"`
}

type Statistics struct {
	Year            int                   `json:"year"`
	Month           *int                  `json:"month,omitempty"`
	TotalRecords    int                   `json:"total_records"`
	ByStatus        map[PaymentStatus]int `json:"by_status"`
	TotalGross      decimal.Decimal       `json:"total_gross"`
	TotalNet        decimal.Decimal       `json:"total_net"`
	TotalDeductions decimal.Decimal       `json:"total_deductions"`
	LockedCount     int                   `json:"locked_count"`
}

// ========================================
// RESPONSE DTOs
// ========================================

type SalaryResponse struct {
	ID                string            `json:"id"`
	EmployeeID        string            `json:"employee_id"`
	EmployeeName      *string           `json:"employee_name,omitempty"`
	Month             int               `json:"month"`
	Year              int               `json:"year"`
	BaseSalary        decimal.Decimal   `json:"base_salary"`
	Allowances        []LineItem        `json:"allowances"`
	Bonuses           []Bonus           `json:"bonuses"`
	Increment         *Increment        `json:"increment,omitempty"`
	Deductions        []LineItem        `json:"deductions"`
	AttendanceDetails AttendanceDetails `json:"attendance_details"`
	TotalAllowances   decimal.Decimal   `json:"total_allowances"`
	TotalBonuses      decimal.Decimal   `json:"total_bonuses"`
	TotalDeductions   decimal.Decimal   `json:"total_deductions"`
	GrossSalary       decimal.Decimal   `json:"gross_salary"`
	NetSalary         decimal.Decimal   `json:"net_salary"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	PaymentDate       *time.Time        `json:"payment_date,omitempty"`
	PaymentMethod     *string           `json:"payment_method,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	IsLocked          bool              `json:"is_locked"`
	IsEditable        bool              `json:"is_editable"`
	LockedAt          *time.Time        `json:"locked_at,omitempty"`
	LockedBy          *string           `json:"locked_by,omitempty"`
	Acknowledgment    Acknowledgment    `json:"acknowledgment"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

func ToSalaryResponse(s *SalaryRecord) SalaryResponse {
	allowances := s.Allowances
	if allowances == nil {
		allowances = []LineItem{}
	}
	bonuses := s.Bonuses
	if bonuses == nil {
		bonuses = []Bonus{}
	}
	deductions := s.Deductions
	if deductions == nil {
		deductions = []LineItem{}
	}

	return SalaryResponse{
		ID:                s.ID,
		EmployeeID:        s.EmployeeID,
		EmployeeName:      s.EmployeeName,
		Month:             s.Month,
		Year:              s.Year,
		BaseSalary:        s.BaseSalary,
		Allowances:        allowances,
		Bonuses:           bonuses,
		Increment:         s.Increment,
		Deductions:        deductions,
		AttendanceDetails: s.AttendanceDetails,
		TotalAllowances:   s.TotalAllowances,
		TotalBonuses:      s.TotalBonuses,
		TotalDeductions:   s.TotalDeductions,
		GrossSalary:       s.GrossSalary,
		NetSalary:         s.NetSalary,
		PaymentStatus:     s.PaymentStatus,
		PaymentDate:       s.PaymentDate,
		PaymentMethod:     s.PaymentMethod,
		Notes:             s.Notes,
		IsLocked:          s.IsLocked,
		IsEditable:        s.IsEditable(),
		LockedAt:          s.LockedAt,
		LockedBy:          s.LockedBy,
		Acknowledgment:    s.Acknowledgment,
		CreatedAt:         s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
	}
}
