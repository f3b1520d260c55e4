package config

import (
	"errors"
	"fmt"
)

// Validate checks field ranges and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: required"))
	}

	if c.SRS.MinEaseFactor < 1.3 {
		errs = append(errs, fmt.Errorf("srs.min_ease_factor: %v below 1.3", c.SRS.MinEaseFactor))
	}
	if c.SRS.MaxEaseFactor != 0 && c.SRS.MaxEaseFactor < c.SRS.MinEaseFactor {
		errs = append(errs, fmt.Errorf("srs.max_ease_factor: %v below min_ease_factor", c.SRS.MaxEaseFactor))
	}
	if c.SRS.MaxIntervalDays < 0 {
		errs = append(errs, errors.New("srs.max_interval_days: must not be negative"))
	}
	if c.SRS.ItemsPerSession < 0 {
		errs = append(errs, errors.New("srs.items_per_session: must not be negative"))
	}

	if c.Reminder.StartHour < 0 || c.Reminder.StartHour > 23 {
		errs = append(errs, fmt.Errorf("reminder.start_hour: %d out of range 0-23", c.Reminder.StartHour))
	}
	if c.Reminder.EndHour < 0 || c.Reminder.EndHour > 23 {
		errs = append(errs, fmt.Errorf("reminder.end_hour: %d out of range 0-23", c.Reminder.EndHour))
	}
	if c.Reminder.Every <= 0 {
		errs = append(errs, errors.New("reminder.every: must be positive"))
	}

	return errors.Join(errs...)
}
