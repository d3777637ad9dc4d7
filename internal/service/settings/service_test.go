package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = user.Actor{UserID: "u-admin", EmployeeID: "e-admin", CompanyID: "c1", Role: user.RoleAdmin}

func strPtr(s string) *string { return &s }

func TestSettingsService_GetCreatesDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSettingsRepository()
	svc := NewSettingsService(repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := svc.Get(ctx, "c1")
			assert.NoError(t, err)
			assert.Equal(t, "c1", s.CompanyID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Inserts())

	s, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "UTC", s.Timezone)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, s.WorkingDays)
	assert.Equal(t, "09:00", s.Shift.StartTime)
	assert.Equal(t, 15, s.Shift.GraceMinutes)
	assert.True(t, s.AutoAbsent.Enabled)
	assert.Equal(t, "10:00", s.AutoAbsent.CutoffTime)
}

func TestSettingsService_GetRequiresCompany(t *testing.T) {
	_, err := NewSettingsService(memory.NewSettingsRepository(), nil).Get(context.Background(), "")
	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)
}

func TestSettingsService_Update(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSettingsRepository()
	svc := NewSettingsService(repo, nil)

	holidays := []settings.Holiday{{Date: "2025-03-05", Name: "Founders Day"}}
	updated, err := svc.Update(ctx, admin, settings.UpdateSettingsRequest{
		Timezone:    strPtr("Asia/Jakarta"),
		WorkingDays: []string{"Monday", "Tuesday"},
		Holidays:    &holidays,
	})
	require.NoError(t, err)

	assert.Equal(t, "Asia/Jakarta", updated.Timezone)
	assert.Equal(t, []string{"monday", "tuesday"}, updated.WorkingDays)
	require.Len(t, updated.Holidays, 1)
	assert.Equal(t, settings.HolidayPublic, updated.Holidays[0].Kind)
	assert.Equal(t, "09:00", updated.Shift.StartTime, "untouched sections keep their values")
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, "u-admin", *updated.UpdatedBy)

	stored, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", stored.Timezone)
}

func TestSettingsService_UpdateRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memory.NewSettingsRepository(), nil)

	employee := admin
	employee.Role = user.RoleEmployee
	_, err := svc.Update(ctx, employee, settings.UpdateSettingsRequest{Timezone: strPtr("UTC")})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Update(ctx, admin, settings.UpdateSettingsRequest{Timezone: strPtr("Mars/Olympus")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, admin, settings.UpdateSettingsRequest{
		Shift: &settings.Shift{StartTime: "18:00", EndTime: "09:00"},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, admin, settings.UpdateSettingsRequest{
		Geofence: &settings.Geofence{Enabled: true, Enforce: true},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "enforcing needs an office")

	_, err = svc.Update(ctx, admin, settings.UpdateSettingsRequest{
		Geofence: &settings.Geofence{Enabled: true, Offices: []settings.OfficeLocation{{Name: "HQ", Latitude: 95, Longitude: 106.8}}},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSettingsService_UpdateGeofenceDefaultsRadius(t *testing.T) {
	svc := NewSettingsService(memory.NewSettingsRepository(), nil)

	updated, err := svc.Update(context.Background(), admin, settings.UpdateSettingsRequest{
		Geofence: &settings.Geofence{Enabled: true, Offices: []settings.OfficeLocation{{Name: "HQ", Latitude: -6.2088, Longitude: 106.8456}}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Geofence.Offices, 1)
	assert.Equal(t, settings.DefaultOfficeRadius, updated.Geofence.Offices[0].RadiusMeters)
	assert.True(t, updated.Geofence.Within(-6.2090, 106.8457))
	assert.False(t, updated.Geofence.Within(-6.9175, 107.6191))
}

func TestSettingsService_TenantsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(memory.NewSettingsRepository(), nil)

	_, err := svc.Update(ctx, admin, settings.UpdateSettingsRequest{Timezone: strPtr("Asia/Jakarta")})
	require.NoError(t, err)

	other, err := svc.Get(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "UTC", other.Timezone)
}
