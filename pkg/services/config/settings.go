package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Settings are the tunables of an audit run beyond the target itself.
type Settings struct {
	// InactivityThresholdDays controls when a login counts as inactive
	// (default 90, clamped to [30, 3650] by the run context).
	InactivityThresholdDays int `mapstructure:"inactivity_threshold_days"`
	// Parallelism bounds concurrent rule evaluation; 0 or 1 means sequential.
	Parallelism int `mapstructure:"parallelism"`
}

func DefaultSettings() Settings {
	return Settings{
		InactivityThresholdDays: 90,
		Parallelism:             1,
	}
}

// LoadSettings reads settings from an optional file, with environment
// overrides (AUDIT_INACTIVITY_DAYS, AUDIT_PARALLELISM).
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetDefault("inactivity_threshold_days", 90)
	v.SetDefault("parallelism", 1)
	v.SetEnvPrefix("audit")
	_ = v.BindEnv("inactivity_threshold_days", "AUDIT_INACTIVITY_DAYS")
	_ = v.BindEnv("parallelism", "AUDIT_PARALLELISM")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}
