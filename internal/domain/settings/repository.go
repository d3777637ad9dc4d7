package settings

import "context"

// SettingsRepository stores one TenantSettings per company.
type SettingsRepository interface {
	GetByCompanyID(ctx context.Context, companyID string) (*TenantSettings, error)
	// CreateIfAbsent inserts s unless the company already has settings, then returns the stored row.
	CreateIfAbsent(ctx context.Context, s *TenantSettings) (*TenantSettings, error)
	Update(ctx context.Context, s *TenantSettings) error
}
