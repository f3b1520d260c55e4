package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/example/recall/internal/config"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// Connect opens the configured database and makes sure the schema exists.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = driverSQLite
	}

	if driver == driverSQLite && !isMemoryDSN(cfg.DSN) {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "failed to create data directory")
			}
		}
	}

	db, err := sqlx.Connect(driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if driver == driverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	pk, ts, float := "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP", "REAL"
	if db.DriverName() == driverPostgres {
		pk, ts, float = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ", "DOUBLE PRECISION"
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"learners", `
			CREATE TABLE IF NOT EXISTS learners (
				id %[1]s,
				name TEXT NOT NULL,
				telegram_chat_id BIGINT NOT NULL DEFAULT 0,
				notification_enabled BOOLEAN NOT NULL DEFAULT true,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				items_per_day INTEGER NOT NULL DEFAULT 20,
				created_at %[2]s NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"collections", `
			CREATE TABLE IF NOT EXISTS collections (
				id %[1]s,
				learner_id BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				created_at %[2]s NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(learner_id, name)
			)`},
		{"items", `
			CREATE TABLE IF NOT EXISTS items (
				id %[1]s,
				collection_id BIGINT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
				front TEXT NOT NULL,
				back TEXT NOT NULL,
				created_at %[2]s NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(collection_id, front)
			)`},
		{"learning_states", `
			CREATE TABLE IF NOT EXISTS learning_states (
				item_id BIGINT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
				interval_days INTEGER NOT NULL DEFAULT 0,
				repetition INTEGER NOT NULL DEFAULT 0,
				ease_factor %[3]s NOT NULL DEFAULT 2.5,
				last_reviewed_at %[2]s,
				next_review_at %[2]s,
				updated_at %[2]s NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"review_logs", `
			CREATE TABLE IF NOT EXISTS review_logs (
				id %[1]s,
				item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
				session_id TEXT NOT NULL,
				grade INTEGER NOT NULL,
				interval_days INTEGER NOT NULL,
				repetition INTEGER NOT NULL,
				ease_factor %[3]s NOT NULL,
				reviewed_at %[2]s NOT NULL,
				UNIQUE(session_id, item_id, reviewed_at)
			)`},
	}

	for _, t := range tables {
		if _, err := db.Exec(fmt.Sprintf(t.ddl, pk, ts, float)); err != nil {
			return errors.Wrapf(err, "failed to create %s table", t.name)
		}
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_learning_states_next_review ON learning_states(next_review_at)`); err != nil {
		return errors.Wrap(err, "failed to create next_review_at index")
	}

	return nil
}
