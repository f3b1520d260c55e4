package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	SRS      SRSConfig      `yaml:"srs"`
	Reminder ReminderConfig `yaml:"reminder"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// DatabaseConfig selects the SQL driver and connection string.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"         env:"DB_TYPE"            env-default:"sqlite3"`
	DSN          string `yaml:"dsn"            env:"DATABASE_DSN"       env-default:"data/recall.db"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DATABASE_MAX_CONNS" env-default:"10"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// SRSConfig tunes the SM-2 scheduler and review sessions.
type SRSConfig struct {
	MinEaseFactor   float64 `yaml:"min_ease_factor"   env:"SRS_MIN_EASE_FACTOR"   env-default:"1.3"`
	MaxEaseFactor   float64 `yaml:"max_ease_factor"   env:"SRS_MAX_EASE_FACTOR"   env-default:"0"`
	MaxIntervalDays int     `yaml:"max_interval_days" env:"SRS_MAX_INTERVAL_DAYS" env-default:"0"`
	ItemsPerSession int     `yaml:"items_per_session" env:"SRS_ITEMS_PER_SESSION" env-default:"50"`
}

// ReminderConfig controls the due-item reminder job.
type ReminderConfig struct {
	Enabled   bool          `yaml:"enabled"    env:"ENABLE_SCHEDULER"        env-default:"true"`
	StartHour int           `yaml:"start_hour" env:"NOTIFICATION_START_HOUR" env-default:"4"`
	EndHour   int           `yaml:"end_hour"   env:"NOTIFICATION_END_HOUR"   env-default:"18"`
	Every     time.Duration `yaml:"every"      env:"REMINDER_EVERY"          env-default:"1h"`
}

// TelegramConfig holds the bot token used for reminders. Empty disables Telegram.
type TelegramConfig struct {
	Token string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
}
