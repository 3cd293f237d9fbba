package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService     = "service"
	FieldUserKey     = "user_key"
	FieldUsername    = "username"
	FieldIndexKey    = "index_key"
	FieldFile        = "file"
	FieldQuery       = "query"
	FieldStatsKey    = "stats_key"
	FieldRecipientID = "recipient_id"
	FieldError       = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// UserKey returns a slog attribute for the owning user's key.
func UserKey(key string) slog.Attr {
	return slog.String(FieldUserKey, key)
}

// Username returns a slog attribute for the username.
func Username(name string) slog.Attr {
	return slog.String(FieldUsername, name)
}

// IndexKey returns a slog attribute for an indexing job key.
func IndexKey(key string) slog.Attr {
	return slog.String(FieldIndexKey, key)
}

// File returns a slog attribute for a log file path.
func File(path string) slog.Attr {
	return slog.String(FieldFile, path)
}

// Query returns a slog attribute for a serialized query.
func Query(query string) slog.Attr {
	return slog.String(FieldQuery, query)
}

// StatsKey returns a slog attribute for a statistics lookup key.
func StatsKey(key string) slog.Attr {
	return slog.String(FieldStatsKey, key)
}

// RecipientID returns a slog attribute for a notification recipient.
func RecipientID(id string) slog.Attr {
	return slog.String(FieldRecipientID, id)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
