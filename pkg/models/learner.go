package models

import "time"

// Learner is a person studying items, with their reminder preferences
type Learner struct {
	ID                  int64     `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	TelegramChatID      int64     `json:"telegram_chat_id" db:"telegram_chat_id"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for notifications (0-23)
	ItemsPerDay         int       `json:"items_per_day" db:"items_per_day"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
