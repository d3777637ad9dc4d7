package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/attendance"
)

type AttendanceRepository struct {
	mu      sync.Mutex
	records map[string]attendance.Record // by id
	now     func() time.Time

	// FailCreate, when set, is returned by Create before any write.
	FailCreate func(r *attendance.Record) error
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{records: make(map[string]attendance.Record), now: time.Now}
}

func cloneRecord(r attendance.Record) attendance.Record {
	if r.CheckIn != nil {
		p := *r.CheckIn
		r.CheckIn = &p
	}
	if r.CheckOut != nil {
		p := *r.CheckOut
		r.CheckOut = &p
	}
	return r
}

func (m *AttendanceRepository) findByKey(companyID, employeeID, day string) (attendance.Record, bool) {
	for _, r := range m.records {
		if r.CompanyID == companyID && r.EmployeeID == employeeID && r.DayKey() == day {
			return r, true
		}
	}
	return attendance.Record{}, false
}

func (m *AttendanceRepository) Create(ctx context.Context, r *attendance.Record) error {
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

	if _, exists := m.findByKey(r.CompanyID, r.EmployeeID, r.DayKey()); exists {
		return attendance.ErrAttendanceExists
	}
	if r.ID == "" {
		r.ID = newID()
	}
	now := m.now()
	r.CreatedAt, r.UpdatedAt = now, now
	m.records[r.ID] = cloneRecord(*r)
	return nil
}

func (m *AttendanceRepository) Update(ctx context.Context, r *attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[r.ID]
	if !ok || stored.CompanyID != r.CompanyID {
		return attendance.ErrAttendanceNotFound
	}
	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = m.now()
	m.records[r.ID] = cloneRecord(*r)
	return nil
}

func (m *AttendanceRepository) Delete(ctx context.Context, companyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[id]
	if !ok || stored.CompanyID != companyID {
		return attendance.ErrAttendanceNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *AttendanceRepository) GetByID(ctx context.Context, companyID, id string) (*attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[id]
	if !ok || stored.CompanyID != companyID {
		return nil, attendance.ErrAttendanceNotFound
	}
	r := cloneRecord(stored)
	return &r, nil
}

func (m *AttendanceRepository) GetByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.findByKey(companyID, employeeID, attendance.DayKey(date))
	if !ok {
		return nil, attendance.ErrAttendanceNotFound
	}
	r := cloneRecord(stored)
	return &r, nil
}

func (m *AttendanceRepository) ListByDate(ctx context.Context, companyID string, date time.Time) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := attendance.DayKey(date)
	var out []attendance.Record
	for _, r := range m.records {
		if r.CompanyID == companyID && r.DayKey() == day {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *AttendanceRepository) ListByEmployeeRange(ctx context.Context, companyID, employeeID string, start, end time.Time) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from, to := attendance.DayKey(start), attendance.DayKey(end)
	var out []attendance.Record
	for _, r := range m.records {
		day := r.DayKey()
		if r.CompanyID == companyID && r.EmployeeID == employeeID && day >= from && day <= to {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayKey() < out[j].DayKey() })
	return out, nil
}

func (m *AttendanceRepository) List(ctx context.Context, companyID string, filter attendance.ListFilter) ([]attendance.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []attendance.Record
	for _, r := range m.records {
		if r.CompanyID != companyID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.StartDate != nil && r.DayKey() < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && r.DayKey() > *filter.EndDate {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayKey() != out[j].DayKey() {
			return out[i].DayKey() > out[j].DayKey()
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})

	return page(out, filter.Offset(), filter.Limit), int64(len(out)), nil
}

// Count returns the number of stored records across all companies.
func (m *AttendanceRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
