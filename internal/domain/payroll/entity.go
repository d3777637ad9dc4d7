package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusHold       PaymentStatus = "hold"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

func AllPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid, PaymentStatusHold, PaymentStatusCancelled}
}

// DeductionAbsent is the line added by monthly generation for absent days.
const DeductionAbsent = "absent-deduction"

// LineItem is an allowance or a deduction.
type LineItem struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Note   *string         `json:"note,omitempty"`
}

type Bonus struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Note   *string         `json:"note,omitempty"`
	Date   *time.Time      `json:"date,omitempty"`
}

type Increment struct {
	PreviousSalary decimal.Decimal `json:"previous_salary"`
	NewSalary      decimal.Decimal `json:"new_salary"`
	Amount         decimal.Decimal `json:"amount"`
	Percentage     decimal.Decimal `json:"percentage"`
	EffectiveDate  *time.Time      `json:"effective_date,omitempty"`
	Reason         *string         `json:"reason,omitempty"`
	ApprovedBy     *string         `json:"approved_by,omitempty"`
}

// Derive fills Amount and Percentage from the two salaries.
func (i *Increment) Derive() {
	i.Amount = i.NewSalary.Sub(i.PreviousSalary)
	i.Percentage = decimal.Zero
	if i.PreviousSalary.IsPositive() {
		i.Percentage = i.Amount.Div(i.PreviousSalary).Mul(decimal.NewFromInt(100)).Round(2)
	}
}

type AttendanceDetails struct {
	TotalWorkingDays int             `json:"total_working_days"`
	PresentDays      int             `json:"present_days"`
	AbsentDays       int             `json:"absent_days"`
	LateDays         int             `json:"late_days"`
	HalfDays         int             `json:"half_days"`
	OvertimeHours    float64         `json:"overtime_hours"`
	OvertimeAmount   decimal.Decimal `json:"overtime_amount"`
}

type Acknowledgment struct {
	Acknowledged bool       `json:"acknowledged"`
	At           *time.Time `json:"at,omitempty"`
	By           *string    `json:"by,omitempty"`
}

// SalaryRecord - one employee's pay for one month. (CompanyID, EmployeeID, Month, Year) is unique.
type SalaryRecord struct {
	ID                string
	CompanyID         string
	EmployeeID        string
	Month             int
	Year              int
	BaseSalary        decimal.Decimal
	Allowances        []LineItem
	Bonuses           []Bonus
	Increment         *Increment
	Deductions        []LineItem
	AttendanceDetails AttendanceDetails

	// Derived, see RecomputeTotals
	TotalAllowances decimal.Decimal
	TotalBonuses    decimal.Decimal
	TotalDeductions decimal.Decimal
	GrossSalary     decimal.Decimal
	NetSalary       decimal.Decimal

	PaymentStatus  PaymentStatus
	PaymentDate    *time.Time
	PaymentMethod  *string
	Notes          *string
	IsLocked       bool
	LockedAt       *time.Time
	LockedBy       *string
	Acknowledgment Acknowledgment
	CreatedBy      *string
	UpdatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Joined fields
	EmployeeName *string
}

// RecomputeTotals derives the totals from the line arrays.
// gross = base + allowances + bonuses + overtime; net = max(0, gross - deductions).
func (s *SalaryRecord) RecomputeTotals() {
	s.TotalAllowances = decimal.Zero
	for _, a := range s.Allowances {
		s.TotalAllowances = s.TotalAllowances.Add(a.Amount)
	}

	s.TotalBonuses = decimal.Zero
	for _, b := range s.Bonuses {
		s.TotalBonuses = s.TotalBonuses.Add(b.Amount)
	}

	s.TotalDeductions = decimal.Zero
	for _, d := range s.Deductions {
		s.TotalDeductions = s.TotalDeductions.Add(d.Amount)
	}

	s.GrossSalary = s.BaseSalary.
		Add(s.TotalAllowances).
		Add(s.TotalBonuses).
		Add(s.AttendanceDetails.OvertimeAmount)

	s.NetSalary = s.GrossSalary.Sub(s.TotalDeductions)
	if s.NetSalary.IsNegative() {
		s.NetSalary = decimal.Zero
	}
}

// IsEditable is false once the record is locked or paid.
func (s *SalaryRecord) IsEditable() bool {
	return !s.IsLocked && s.PaymentStatus != PaymentStatusPaid
}

// Period formats the record's month for messages, e.g. "3/2025".
func (s *SalaryRecord) Period() string {
	return Period(s.Month, s.Year)
}

// DaysInMonth is the calendar-day count used as the per-day salary divisor.
func DaysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PerDayRate is base / calendar days in the month.
func PerDayRate(base decimal.Decimal, month, year int) decimal.Decimal {
	return base.Div(decimal.NewFromInt(int64(DaysInMonth(month, year))))
}
