package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepository struct {
	db *database.DB
}

// GetByCompanyID implements settings.SettingsRepository.
func (s *settingsRepository) GetByCompanyID(ctx context.Context, companyID string) (*settings.TenantSettings, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, company_id, timezone, working_days, holidays, shift, auto_absent, notifications,
			   geofence, updated_by, created_at, updated_at
		FROM attendance_settings
		WHERE company_id = $1
	`

	var found settings.TenantSettings
	err := q.QueryRow(ctx, query, companyID).Scan(
		&found.ID, &found.CompanyID, &found.Timezone, &found.WorkingDays, &found.Holidays,
		&found.Shift, &found.AutoAbsent, &found.Notifications,
		&found.Geofence, &found.UpdatedBy, &found.CreatedAt, &found.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settings.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get attendance settings: %w", err)
	}

	return &found, nil
}

// CreateIfAbsent implements settings.SettingsRepository. Concurrent first reads all end up with
// the single stored row.
func (s *settingsRepository) CreateIfAbsent(ctx context.Context, ts *settings.TenantSettings) (*settings.TenantSettings, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO attendance_settings (
			company_id, timezone, working_days, holidays, shift, auto_absent, notifications, geofence, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id) DO NOTHING
	`
	_, err := q.Exec(ctx, query,
		ts.CompanyID,
		ts.Timezone,
		ts.WorkingDays,
		ts.Holidays,
		ts.Shift,
		ts.AutoAbsent,
		ts.Notifications,
		ts.Geofence,
		ts.UpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attendance settings: %w", err)
	}

	return s.GetByCompanyID(ctx, ts.CompanyID)
}

// Update implements settings.SettingsRepository.
func (s *settingsRepository) Update(ctx context.Context, ts *settings.TenantSettings) error {
	q := GetQuerier(ctx, s.db)

	query := `
		UPDATE attendance_settings SET
			timezone = $2,
			working_days = $3,
			holidays = $4,
			shift = $5,
			auto_absent = $6,
			notifications = $7,
			geofence = $8,
			updated_by = $9,
			updated_at = NOW()
		WHERE company_id = $1
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		ts.CompanyID,
		ts.Timezone,
		ts.WorkingDays,
		ts.Holidays,
		ts.Shift,
		ts.AutoAbsent,
		ts.Notifications,
		ts.Geofence,
		ts.UpdatedBy,
	).Scan(&ts.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.ErrSettingsNotFound
		}
		return fmt.Errorf("failed to update attendance settings: %w", err)
	}

	return nil
}

func NewSettingsRepository(db *database.DB) settings.SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}
