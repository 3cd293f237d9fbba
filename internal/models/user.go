package models

import "time"

// User identifies the owner of indexed records and statistics. User
// management itself lives outside this service; only the read model
// needed for scoping and notification delivery is carried here.
type User struct {
	Username string       `json:"username"`
	Hash     string       `json:"hash"`
	Active   bool         `json:"active"`
	Modified time.Time    `json:"modified,omitempty"`
	Settings UserSettings `json:"settings,omitempty"`
}

// UserSettings carries the per-user options this service reads.
type UserSettings struct {
	// TelegramID is the notification target; empty means the user has
	// not opted in to broadcast messages.
	TelegramID string `json:"telegram_id,omitempty"`

	// CleaningIntervalDays controls how long statistics are retained
	// before the cleanup command removes them. Zero disables cleaning.
	CleaningIntervalDays int `json:"cleaning_interval_days,omitempty"`
}
