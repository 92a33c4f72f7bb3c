package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

type users struct{ *sqlStore }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.CreationTime.IsZero() {
		out.CreationTime = time.Now().UTC()
	}
	if out.Settings.SchemaVersion == 0 {
		out.Settings = model.DefaultSettings()
	}
	out.Version = 1

	subJSON, err := encodeJSON(out.Subscription)
	if err != nil {
		return nil, err
	}
	tokJSON, err := encodeJSON(out.TokensUsed)
	if err != nil {
		return nil, err
	}
	keyJSON, err := encodeJSON(out.Keys)
	if err != nil {
		return nil, err
	}
	setJSON, err := encodeJSON(out.Settings)
	if err != nil {
		return nil, err
	}
	emoJSON, err := encodeJSON(out.EmotionalStatus)
	if err != nil {
		return nil, err
	}

	_, err = u.db.ExecContext(ctx, u.q(`
		INSERT INTO users (user_id, email, display_name, completed_tasks,
			subscription, sub_balance, purchased_balance, tokens_used,
			api_keys, settings, emotional_status, version, creation_time)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		out.UserID, out.Email, out.DisplayName, out.CompletedTasks,
		subJSON, out.Credits.SubscriptionBalance, out.Credits.PurchasedBalance, tokJSON,
		keyJSON, setJSON, emoJSON, out.Version, encodeTime(out.CreationTime))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var (
		out                                      model.User
		subJSON, tokJSON, keyJSON, setJSON, emoJSON string
		created                                  string
	)
	row := u.db.QueryRowContext(ctx, u.q(`
		SELECT user_id, email, display_name, completed_tasks,
			subscription, sub_balance, purchased_balance, tokens_used,
			api_keys, settings, emotional_status, version, creation_time
		FROM users WHERE user_id = ?`), userID)
	err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.CompletedTasks,
		&subJSON, &out.Credits.SubscriptionBalance, &out.Credits.PurchasedBalance, &tokJSON,
		&keyJSON, &setJSON, &emoJSON, &out.Version, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(subJSON, &out.Subscription); err != nil {
		return nil, err
	}
	if err := decodeJSON(tokJSON, &out.TokensUsed); err != nil {
		return nil, err
	}
	if err := decodeJSON(keyJSON, &out.Keys); err != nil {
		return nil, err
	}
	if out.Settings, err = decodeSettings(setJSON); err != nil {
		return nil, err
	}
	if err := decodeJSON(emoJSON, &out.EmotionalStatus); err != nil {
		return nil, err
	}
	if out.CreationTime, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) UpdateSettings(ctx context.Context, userID string, version int64, s model.Settings) error {
	s.SchemaVersion = model.SettingsSchemaVersion
	setJSON, err := encodeJSON(s)
	if err != nil {
		return err
	}
	return u.withTx(ctx, func(tx *sql.Tx) error {
		if err := u.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			u.q(`UPDATE users SET settings = ?, display_name = ? WHERE user_id = ?`),
			setJSON, nullIfEmpty(s.DisplayName), userID)
		return err
	})
}

func (u *users) UpdateKeys(ctx context.Context, userID string, version int64, k model.APIKeys) error {
	keyJSON, err := encodeJSON(k)
	if err != nil {
		return err
	}
	return u.withTx(ctx, func(tx *sql.Tx) error {
		if err := u.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			u.q(`UPDATE users SET api_keys = ? WHERE user_id = ?`), keyJSON, userID)
		return err
	})
}

func (u *users) UpdateEmotionalStatus(ctx context.Context, userID string, version int64, es model.EmotionalStatus) error {
	emoJSON, err := encodeJSON(es)
	if err != nil {
		return err
	}
	return u.withTx(ctx, func(tx *sql.Tx) error {
		if err := u.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			u.q(`UPDATE users SET emotional_status = ? WHERE user_id = ?`), emoJSON, userID)
		return err
	})
}

func (u *users) AddTokenUsage(ctx context.Context, userID string, version int64, usage model.TokenUsage) error {
	return u.withTx(ctx, func(tx *sql.Tx) error {
		if err := u.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		var tokJSON string
		if err := tx.QueryRowContext(ctx,
			u.q(`SELECT tokens_used FROM users WHERE user_id = ?`), userID).Scan(&tokJSON); err != nil {
			return err
		}
		var current model.TokenUsage
		if err := decodeJSON(tokJSON, &current); err != nil {
			return err
		}
		current.OpenAI4oMini += usage.OpenAI4oMini
		current.Claude3Haiku += usage.Claude3Haiku
		current.Gemini25Flash += usage.Gemini25Flash
		current.WhisperUnits += usage.WhisperUnits

		updated, err := encodeJSON(current)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			u.q(`UPDATE users SET tokens_used = ? WHERE user_id = ?`), updated, userID)
		return err
	})
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
