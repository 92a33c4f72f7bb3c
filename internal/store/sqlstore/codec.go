package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// Timestamps are stored as RFC 3339 text so SQLite and Postgres scan the
// same way.

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(s string, out interface{}) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// decodeSettings unmarshals the settings column and migrates pre-versioned
// layouts to the current schema version on the way out.
func decodeSettings(s string) (model.Settings, error) {
	out := model.DefaultSettings()
	if s == "" || s == "{}" {
		return out, nil
	}
	if err := decodeJSON(s, &out); err != nil {
		return model.Settings{}, err
	}
	if out.SchemaVersion < model.SettingsSchemaVersion {
		out = migrateSettings(out)
	}
	return out, nil
}

// migrateSettings upgrades a settings struct to the current layout, filling
// fields that did not exist when it was written.
func migrateSettings(s model.Settings) model.Settings {
	def := model.DefaultSettings()
	if s.TimeZone == "" {
		s.TimeZone = def.TimeZone
	}
	if s.SelectedModel == "" {
		s.SelectedModel = def.SelectedModel
	}
	if s.TaskStyle == "" {
		s.TaskStyle = def.TaskStyle
	}
	if s.DefaultTaskMins == 0 {
		s.DefaultTaskMins = def.DefaultTaskMins
	}
	if s.CelebrationLevel == "" {
		s.CelebrationLevel = def.CelebrationLevel
	}
	s.SchemaVersion = model.SettingsSchemaVersion
	return s
}
