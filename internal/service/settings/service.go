package settings

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/fixtures"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
)

type SettingsServiceImpl struct {
	settings.SettingsRepository
	defaults *fixtures.SettingsDefaults
}

func NewSettingsService(repo settings.SettingsRepository, defaults *fixtures.SettingsDefaults) settings.SettingsService {
	if defaults == nil {
		defaults = fixtures.MustDefaultSettings()
	}
	return &SettingsServiceImpl{
		SettingsRepository: repo,
		defaults:           defaults,
	}
}

// Get implements settings.SettingsService.
func (s *SettingsServiceImpl) Get(ctx context.Context, companyID string) (*settings.TenantSettings, error) {
	if companyID == "" {
		return nil, user.ErrCompanyIDRequired
	}

	current, err := s.SettingsRepository.GetByCompanyID(ctx, companyID)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, settings.ErrSettingsNotFound) {
		return nil, apperr.Dependency("failed to load attendance settings for company "+companyID, err)
	}

	// First read for this company; a concurrent first read may win the insert.
	created, err := s.SettingsRepository.CreateIfAbsent(ctx, s.defaults.ForCompany(companyID))
	if err != nil {
		return nil, apperr.Dependency("failed to create default attendance settings for company "+companyID, err)
	}

	slog.Info("created default attendance settings", "company_id", companyID)
	return created, nil
}

// Update implements settings.SettingsService.
func (s *SettingsServiceImpl) Update(ctx context.Context, actor user.Actor, req settings.UpdateSettingsRequest) (*settings.TenantSettings, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !actor.Can(user.PermissionSettingsManage) {
		return nil, user.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	req.Apply(current)
	current.UpdatedBy = &actor.UserID

	if err := s.SettingsRepository.Update(ctx, current); err != nil {
		return nil, apperr.Dependency("failed to update attendance settings for company "+actor.CompanyID, err)
	}

	slog.Info("attendance settings updated", "company_id", actor.CompanyID, "updated_by", actor.UserID)
	return current, nil
}
