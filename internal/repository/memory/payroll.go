package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type SalaryRepository struct {
	mu      sync.Mutex
	records map[string]payroll.SalaryRecord

	// FailCreate, when set, is returned by Create before any write.
	FailCreate func(r *payroll.SalaryRecord) error
}

func NewSalaryRepository() *SalaryRepository {
	return &SalaryRepository{records: make(map[string]payroll.SalaryRecord)}
}

func cloneSalary(s payroll.SalaryRecord) payroll.SalaryRecord {
	s.Allowances = append([]payroll.LineItem(nil), s.Allowances...)
	s.Bonuses = append([]payroll.Bonus(nil), s.Bonuses...)
	s.Deductions = append([]payroll.LineItem(nil), s.Deductions...)
	if s.Increment != nil {
		inc := *s.Increment
		s.Increment = &inc
	}
	return s
}

func (m *SalaryRepository) get(companyID, id string) (payroll.SalaryRecord, bool) {
	s, ok := m.records[id]
	if !ok || s.CompanyID != companyID {
		return payroll.SalaryRecord{}, false
	}
	return s, true
}

func (m *SalaryRepository) Create(ctx context.Context, r *payroll.SalaryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailCreate != nil {
		if err := m.FailCreate(r); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.records {
		if s.CompanyID == r.CompanyID && s.EmployeeID == r.EmployeeID && s.Month == r.Month && s.Year == r.Year {
			return payroll.ErrSalaryRecordExists
		}
	}
	if r.ID == "" {
		r.ID = newID()
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	m.records[r.ID] = cloneSalary(*r)
	return nil
}

func (m *SalaryRepository) Update(ctx context.Context, r *payroll.SalaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.get(r.CompanyID, r.ID)
	if !ok {
		return payroll.ErrSalaryRecordNotFound
	}
	if !stored.IsEditable() {
		return payroll.ErrSalaryRecordLocked
	}
	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = time.Now()
	m.records[r.ID] = cloneSalary(*r)
	return nil
}

func (m *SalaryRepository) Lock(ctx context.Context, companyID, id, lockedBy string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.get(companyID, id)
	if !ok {
		return payroll.ErrSalaryRecordNotFound
	}
	if stored.IsLocked {
		return payroll.ErrSalaryAlreadyLocked
	}
	stored.IsLocked = true
	stored.LockedAt = &at
	stored.LockedBy = &lockedBy
	stored.UpdatedAt = at
	m.records[id] = stored
	return nil
}

func (m *SalaryRepository) Acknowledge(ctx context.Context, companyID, id, by string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.get(companyID, id)
	if !ok {
		return payroll.ErrSalaryRecordNotFound
	}
	if stored.PaymentStatus != payroll.PaymentStatusPaid {
		return payroll.ErrSalaryNotPaid
	}
	if stored.Acknowledgment.Acknowledged {
		return payroll.ErrAlreadyAcknowledged
	}
	stored.Acknowledgment = payroll.Acknowledgment{Acknowledged: true, At: &at, By: &by}
	stored.UpdatedAt = at
	m.records[id] = stored
	return nil
}

func (m *SalaryRepository) Delete(ctx context.Context, companyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.get(companyID, id)
	if !ok {
		return payroll.ErrSalaryRecordNotFound
	}
	if !stored.IsEditable() {
		return payroll.ErrSalaryRecordLocked
	}
	delete(m.records, id)
	return nil
}

func (m *SalaryRepository) GetByID(ctx context.Context, companyID, id string) (*payroll.SalaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.get(companyID, id)
	if !ok {
		return nil, payroll.ErrSalaryRecordNotFound
	}
	s := cloneSalary(stored)
	return &s, nil
}

func (m *SalaryRepository) ExistsForPeriod(ctx context.Context, companyID string, month, year int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.records {
		if s.CompanyID == companyID && s.Month == month && s.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (m *SalaryRepository) ListByEmployeeYear(ctx context.Context, companyID, employeeID string, year int) ([]payroll.SalaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []payroll.SalaryRecord
	for _, s := range m.records {
		if s.CompanyID == companyID && s.EmployeeID == employeeID && s.Year == year {
			out = append(out, cloneSalary(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (m *SalaryRepository) matching(companyID string, filter payroll.ListFilter) []payroll.SalaryRecord {
	var out []payroll.SalaryRecord
	for _, s := range m.records {
		if s.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Month != nil && s.Month != *filter.Month {
			continue
		}
		if filter.Year != nil && s.Year != *filter.Year {
			continue
		}
		if filter.PaymentStatus != nil && s.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		out = append(out, cloneSalary(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month > out[j].Month
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (m *SalaryRepository) List(ctx context.Context, companyID string, filter payroll.ListFilter) ([]payroll.SalaryRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.matching(companyID, filter)
	return page(out, filter.Offset(), filter.Limit), int64(len(out)), nil
}

func (m *SalaryRepository) Statistics(ctx context.Context, companyID string, year int, month *int) (*payroll.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &payroll.Statistics{
		Year:            year,
		Month:           month,
		ByStatus:        make(map[payroll.PaymentStatus]int),
		TotalGross:      decimal.Zero,
		TotalNet:        decimal.Zero,
		TotalDeductions: decimal.Zero,
	}
	for _, s := range m.matching(companyID, payroll.ListFilter{Year: &year, Month: month}) {
		stats.TotalRecords++
		stats.ByStatus[s.PaymentStatus]++
		stats.TotalGross = stats.TotalGross.Add(s.GrossSalary)
		stats.TotalNet = stats.TotalNet.Add(s.NetSalary)
		stats.TotalDeductions = stats.TotalDeductions.Add(s.TotalDeductions)
		if s.IsLocked {
			stats.LockedCount++
		}
	}
	return stats, nil
}
