package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// bumpVersion advances the user's aggregate version inside tx, guarding the
// rest of the transaction against concurrent writers. A stale version yields
// model.ErrConflict; an unknown user yields model.ErrNotFound.
func (s *sqlStore) bumpVersion(ctx context.Context, tx *sql.Tx, userID string, version int64) error {
	res, err := tx.ExecContext(ctx,
		s.q(`UPDATE users SET version = version + 1 WHERE user_id = ? AND version = ?`),
		userID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx,
		s.q(`SELECT 1 FROM users WHERE user_id = ?`), userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("user %s version %d: %w", userID, version, model.ErrConflict)
}
