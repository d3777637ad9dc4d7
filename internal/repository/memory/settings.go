package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
)

type SettingsRepository struct {
	mu        sync.Mutex
	byCompany map[string]settings.TenantSettings
	inserts   int
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{byCompany: make(map[string]settings.TenantSettings)}
}

func (m *SettingsRepository) GetByCompanyID(ctx context.Context, companyID string) (*settings.TenantSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byCompany[companyID]
	if !ok {
		return nil, settings.ErrSettingsNotFound
	}
	return &s, nil
}

func (m *SettingsRepository) CreateIfAbsent(ctx context.Context, s *settings.TenantSettings) (*settings.TenantSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.byCompany[s.CompanyID]; ok {
		return &stored, nil
	}
	stored := *s
	if stored.ID == "" {
		stored.ID = newID()
	}
	now := time.Now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.byCompany[s.CompanyID] = stored
	m.inserts++
	return &stored, nil
}

func (m *SettingsRepository) Update(ctx context.Context, s *settings.TenantSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byCompany[s.CompanyID]; !ok {
		return settings.ErrSettingsNotFound
	}
	s.UpdatedAt = time.Now()
	m.byCompany[s.CompanyID] = *s
	return nil
}

// Put stores s as-is, replacing any existing settings.
func (m *SettingsRepository) Put(s settings.TenantSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCompany[s.CompanyID] = s
}

// Inserts counts the rows CreateIfAbsent actually created.
func (m *SettingsRepository) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}
