package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

type reminders struct{ *sqlStore }

func (r *reminders) Create(ctx context.Context, userID string, version int64, m *model.Reminder) (*model.Reminder, error) {
	out := *m
	out.UserID = userID
	if out.ReminderID == "" {
		out.ReminderID = model.NewID()
	}
	if out.CreationTime.IsZero() {
		out.CreationTime = time.Now().UTC()
	}
	out.Active = true
	if out.Timeframe == nil {
		out.Timeframe = []string{}
	}

	tfJSON, err := encodeJSON(out.Timeframe)
	if err != nil {
		return nil, err
	}
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			r.q(`UPDATE reminders SET active = 0 WHERE user_id = ?`), userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, r.q(`
			INSERT INTO reminders (user_id, reminder_id, name, reminder_count,
				start_time, end_time, timeframe, active, creation_time)
			VALUES (?,?,?,?,?,?,?,1,?)`),
			userID, out.ReminderID, out.Name, out.Count,
			out.StartTime, out.EndTime, tfJSON, encodeTime(out.CreationTime))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reminders) List(ctx context.Context, userID string) ([]model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT user_id, reminder_id, name, reminder_count, start_time, end_time,
			timeframe, active, creation_time
		FROM reminders WHERE user_id = ? ORDER BY creation_time DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Reminder
	for rows.Next() {
		m, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *reminders) GetActive(ctx context.Context, userID string) (*model.Reminder, error) {
	row := r.db.QueryRowContext(ctx, r.q(`
		SELECT user_id, reminder_id, name, reminder_count, start_time, end_time,
			timeframe, active, creation_time
		FROM reminders WHERE user_id = ? AND active = 1
		ORDER BY creation_time DESC LIMIT 1`), userID)
	m, err := scanReminder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active reminder: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *reminders) Deactivate(ctx context.Context, userID string, version int64, reminderID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			r.q(`UPDATE reminders SET active = 0 WHERE user_id = ? AND reminder_id = ?`),
			userID, reminderID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("reminder %s: %w", reminderID, model.ErrNotFound)
		}
		return nil
	})
}

func scanReminder(scan func(...interface{}) error) (*model.Reminder, error) {
	var m model.Reminder
	var tfJSON, created string
	var active int
	if err := scan(&m.UserID, &m.ReminderID, &m.Name, &m.Count, &m.StartTime, &m.EndTime,
		&tfJSON, &active, &created); err != nil {
		return nil, err
	}
	m.Active = active != 0
	m.Timeframe = []string{}
	if err := decodeJSON(tfJSON, &m.Timeframe); err != nil {
		return nil, err
	}
	var err error
	if m.CreationTime, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &m, nil
}
