package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CADENCE"

// ConfigFileEnv names the variable holding an explicit config file path.
const ConfigFileEnv = "CADENCE_CONFIG_FILE"

var defaults = map[string]any{
	"server.port":                  8080,
	"server.log_level":             "info",
	"database.url":                 "",
	"database.max_open_conns":      10,
	"auth.jwt_secret":              "",
	"auth.token_lifetime_minutes":  60,
	"scheduler.enabled":            true,
	"scheduler.cron_spec":          "0 0 18 * * SUN",
	"scheduler.timezone":           "UTC",
	"scheduler.sweep_workers":      1,
	"task.worker_count":            2,
	"task.queue_size":              100,
	"task.stuck_task_age_minutes":  30,
	"engine.holiday_search_days":   30,
	"engine.preload_margin_days":   30,
	"engine.pause_lead_days":       7,
	"engine.manual_max_range_days": 92,
	"calendar.file":                "",
}

// Load reads configuration from defaults, an optional cadence.yaml and
// CADENCE_* environment variables, in increasing order of precedence, then
// validates the result.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cadence")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind each explicitly.
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
