package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// Directory is an employee directory and company list in one.
type Directory struct {
	mu        sync.Mutex
	companies []company.Company
	employees map[string]employee.Employee

	// Err, when set, fails every lookup with a storage-style error.
	Err error
}

func NewDirectory() *Directory {
	return &Directory{employees: make(map[string]employee.Employee)}
}

func (d *Directory) AddCompany(c company.Company) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.companies = append(d.companies, c)
}

func (d *Directory) AddEmployee(e employee.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	d.employees[e.ID] = e
}

func (d *Directory) ListActive(ctx context.Context, companyID string) ([]employee.Employee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	var out []employee.Employee
	for _, e := range d.employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (d *Directory) GetByID(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	e, ok := d.employees[id]
	if !ok || e.CompanyID != companyID {
		return nil, employee.ErrEmployeeNotFound
	}
	return &e, nil
}

func (d *Directory) GetBaseSalary(ctx context.Context, companyID, id string) (decimal.Decimal, error) {
	e, err := d.GetByID(ctx, companyID, id)
	if err != nil {
		return decimal.Zero, err
	}
	return e.BaseSalary, nil
}

// Companies lists every registered company.
func (d *Directory) Companies(ctx context.Context) ([]company.Company, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	return append([]company.Company(nil), d.companies...), nil
}

// CompanyList adapts the directory to company.CompanyRepository.
type CompanyList struct {
	*Directory
}

func (c CompanyList) ListActive(ctx context.Context) ([]company.Company, error) {
	return c.Companies(ctx)
}

// LeaveCalendar answers approved-leave lookups from a fixed table.
type LeaveCalendar struct {
	mu     sync.Mutex
	leaves map[string]map[string]bool // company|employee -> day keys

	Err error
}

func NewLeaveCalendar() *LeaveCalendar {
	return &LeaveCalendar{leaves: make(map[string]map[string]bool)}
}

// Approve records approved leave for the inclusive day range.
func (l *LeaveCalendar) Approve(companyID, employeeID string, from, to time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := companyID + "|" + employeeID
	if l.leaves[key] == nil {
		l.leaves[key] = make(map[string]bool)
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		l.leaves[key][d.Format("2006-01-02")] = true
	}
}

func (l *LeaveCalendar) HasApprovedLeave(ctx context.Context, companyID, employeeID string, date time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return false, l.Err
	}
	return l.leaves[companyID+"|"+employeeID][date.Format("2006-01-02")], nil
}

func (l *LeaveCalendar) EmployeesOnLeave(ctx context.Context, companyID string, date time.Time) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return nil, l.Err
	}
	day := date.Format("2006-01-02")
	out := make(map[string]bool)
	prefix := companyID + "|"
	for key, days := range l.leaves {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && days[day] {
			out[key[len(prefix):]] = true
		}
	}
	return out, nil
}

// ErrStorage is a stand-in for a database outage.
var ErrStorage = errors.New("storage unavailable")
