package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
}

// ServerConfig contains HTTP server and logging settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// AuthConfig contains bearer token validation settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// SchedulerConfig controls the periodic sweep.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// CronSpec uses the six-field format with a leading seconds field.
	CronSpec     string `mapstructure:"cron_spec" validate:"required"`
	Timezone     string `mapstructure:"timezone" validate:"required,timezone"`
	SweepWorkers int    `mapstructure:"sweep_workers" validate:"gte=1,lte=32"`
}

// Location loads the configured time zone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// TaskConfig sizes the background task runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize           int `mapstructure:"queue_size" validate:"gte=1"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
}

// EngineConfig holds the materialization engine's tunables.
type EngineConfig struct {
	HolidaySearchDays  int `mapstructure:"holiday_search_days" validate:"gte=1,lte=366"`
	PreloadMarginDays  int `mapstructure:"preload_margin_days" validate:"gtefield=HolidaySearchDays"`
	PauseLeadDays      int `mapstructure:"pause_lead_days" validate:"gte=1"`
	ManualMaxRangeDays int `mapstructure:"manual_max_range_days" validate:"gte=1"`
}

// CalendarConfig selects the holiday source. When File is empty holidays are
// read from the database.
type CalendarConfig struct {
	File string `mapstructure:"file" validate:"omitempty,file"`
}
