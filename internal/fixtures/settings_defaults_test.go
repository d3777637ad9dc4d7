package fixtures

import (
	"testing"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaults(t *testing.T) {
	s := MustDefaultSettings().ForCompany("company-a")

	assert.Equal(t, "company-a", s.CompanyID)
	assert.Equal(t, "UTC", s.Timezone)
	assert.Equal(t, settings.DefaultWorkingDays, s.WorkingDays)
	assert.Equal(t, "09:00", s.Shift.StartTime)
	assert.Equal(t, "18:00", s.Shift.EndTime)
	assert.Equal(t, 15, s.Shift.GraceMinutes)
	assert.Equal(t, 8.0, s.Shift.MinimumHours)
	assert.True(t, s.AutoAbsent.Enabled)
	assert.Equal(t, "10:00", s.AutoAbsent.CutoffTime)
	assert.Equal(t, "19:00", s.Notifications.CheckOutReminderTime)
}

func TestForCompanyReturnsIndependentCopies(t *testing.T) {
	d := MustDefaultSettings()

	a := d.ForCompany("a")
	a.WorkingDays[0] = "sunday"
	b := d.ForCompany("b")

	assert.Equal(t, "monday", b.WorkingDays[0])
}

func TestParseSettingsDefaultsOverride(t *testing.T) {
	raw := []byte(`
timezone: Asia/Jakarta
working_days: [monday, tuesday, wednesday, thursday, friday, saturday]
holidays:
  - date: "2025-08-17"
    name: Independence Day
    kind: public
shift:
  start_time: "08:00"
  end_time: "17:00"
  grace_minutes: 10
`)

	d, err := ParseSettingsDefaults(raw)
	require.NoError(t, err)

	s := d.ForCompany("c")
	assert.Equal(t, "Asia/Jakarta", s.Timezone)
	assert.Len(t, s.WorkingDays, 6)
	require.Len(t, s.Holidays, 1)
	assert.Equal(t, "Independence Day", s.Holidays[0].Name)
	assert.Equal(t, 10, s.Shift.GraceMinutes)
	assert.Equal(t, 8.0, s.Shift.MinimumHours)
	assert.Equal(t, "10:00", s.AutoAbsent.CutoffTime)
}

func TestParseSettingsDefaultsRejectsGarbage(t *testing.T) {
	_, err := ParseSettingsDefaults([]byte("shift: [not, a, map]"))
	assert.Error(t, err)
}
