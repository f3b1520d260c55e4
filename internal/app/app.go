package app

import (
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/example/recall/internal/config"
	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/excel"
	"github.com/example/recall/internal/notify"
	"github.com/example/recall/internal/scheduler"
	sr "github.com/example/recall/internal/spaced_repetition"
	"github.com/example/recall/internal/study"
)

// App holds the wired dependencies shared by every command.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	DB     *sqlx.DB

	Learners    *database.LearnerRepository
	Collections *database.CollectionRepository
	Items       *database.ItemRepository
	ReviewLogs  *database.ReviewLogRepository

	SM2      *sr.SM2
	Study    *study.Service
	Importer *excel.Importer
}

// New connects to the database and builds the services.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Learners:    database.NewLearnerRepository(db),
		Collections: database.NewCollectionRepository(db),
		Items:       database.NewItemRepository(db),
		ReviewLogs:  database.NewReviewLogRepository(db),
		SM2:         NewSM2(cfg.SRS),
	}
	a.Study = study.NewService(log, a.Items, a.SM2, cfg.SRS.ItemsPerSession)
	a.Importer = excel.NewImporter(a.Collections, a.Items)

	log.Debug("application wired",
		slog.String("version", BuildVersion()),
		slog.String("db_driver", cfg.Database.Driver),
	)
	return a, nil
}

// NewSM2 builds the scheduler from SRS settings.
func NewSM2(cfg config.SRSConfig) *sr.SM2 {
	sm := sr.NewSM2(sr.SystemClock{})
	if cfg.MinEaseFactor > 0 {
		sm.MinEaseFactor = cfg.MinEaseFactor
	}
	sm.MaxEaseFactor = cfg.MaxEaseFactor
	sm.MaxInterval = cfg.MaxIntervalDays
	return sm
}

// Notifier returns the Telegram notifier when a bot token is configured, the log notifier otherwise.
func (a *App) Notifier() (scheduler.Notifier, error) {
	if a.Config.Telegram.Token == "" {
		a.Log.Warn("TELEGRAM_BOT_TOKEN is not set, reminders go to the log")
		return notify.NewLog(a.Log), nil
	}
	return notify.NewTelegram(a.Log, a.Config.Telegram.Token)
}

// NewReminderScheduler builds the reminder job around the study service.
func (a *App) NewReminderScheduler(n scheduler.Notifier) *scheduler.Scheduler {
	return scheduler.New(a.Log, a.Config.Reminder, a.Learners, a.Study, n)
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
