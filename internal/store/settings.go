package store

import "database/sql"

// Common setting keys for external service credentials
const (
	SettingDiscogsToken   = "discogs.token"
	SettingLastFMKey      = "lastfm.api_key"
	SettingLastFMSecret   = "lastfm.api_secret"
	SettingAcoustIDKey    = "acoustid.client_key"
	SettingCoverDirectory = "covers.directory"
)

// GetSetting returns the value for a settings key and whether it exists
func (s *Store) GetSetting(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return value, true
}

// SetSetting stores a settings value, replacing any existing one
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}
