package fixtures

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/settings"
	"gopkg.in/yaml.v3"
)

//go:embed settings_defaults.yaml
var defaultSettingsYAML []byte

// SettingsDefaults is the template for lazily created company settings.
type SettingsDefaults struct {
	base settings.TenantSettings
}

// LoadSettingsDefaults parses the file at path, or the embedded defaults when path is empty.
func LoadSettingsDefaults(path string) (*SettingsDefaults, error) {
	raw := defaultSettingsYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings defaults %s: %w", path, err)
		}
		raw = data
	}

	return ParseSettingsDefaults(raw)
}

// ParseSettingsDefaults decodes a YAML settings template.
func ParseSettingsDefaults(raw []byte) (*SettingsDefaults, error) {
	var base settings.TenantSettings
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("failed to parse settings defaults: %w", err)
	}

	if base.Timezone == "" {
		base.Timezone = settings.DefaultTimezone
	}
	if len(base.WorkingDays) == 0 {
		base.WorkingDays = append([]string(nil), settings.DefaultWorkingDays...)
	}
	base.Shift = base.EffectiveShift()
	if base.AutoAbsent.CutoffTime == "" {
		base.AutoAbsent.CutoffTime = settings.DefaultAutoAbsentAt
	}

	return &SettingsDefaults{base: base}, nil
}

// MustDefaultSettings returns the embedded defaults; the embedded file is known to parse.
func MustDefaultSettings() *SettingsDefaults {
	d, err := ParseSettingsDefaults(defaultSettingsYAML)
	if err != nil {
		panic(err)
	}
	return d
}

// ForCompany returns a fresh copy bound to companyID.
func (d *SettingsDefaults) ForCompany(companyID string) *settings.TenantSettings {
	s := d.base
	s.CompanyID = companyID
	s.WorkingDays = append([]string(nil), d.base.WorkingDays...)
	s.Holidays = append([]settings.Holiday(nil), d.base.Holidays...)
	s.Notifications.Recipients = append([]string(nil), d.base.Notifications.Recipients...)
	s.Geofence.Offices = append([]settings.OfficeLocation(nil), d.base.Geofence.Offices...)
	return &s
}
