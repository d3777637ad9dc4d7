package settings

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
)

type SettingsService interface {
	// Get returns the company's settings, creating them from defaults on first read.
	Get(ctx context.Context, companyID string) (*TenantSettings, error)
	Update(ctx context.Context, actor user.Actor, req UpdateSettingsRequest) (*TenantSettings, error)
}
