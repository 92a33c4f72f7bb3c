package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/store"
)

type credits struct{ *sqlStore }

func (c *credits) Apply(ctx context.Context, req store.ApplyCreditRequest) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if req.Transaction != nil {
			var exists int
			err := tx.QueryRowContext(ctx,
				c.q(`SELECT 1 FROM transactions WHERE transaction_id = ?`),
				req.Transaction.TransactionID).Scan(&exists)
			if err == nil {
				return fmt.Errorf("transaction %s: %w", req.Transaction.TransactionID, model.ErrDuplicateTransaction)
			}
			if err != sql.ErrNoRows {
				return err
			}
		}

		if err := c.bumpVersion(ctx, tx, req.UserID, req.Version); err != nil {
			return err
		}

		if req.Subscription != nil {
			subJSON, err := encodeJSON(*req.Subscription)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, c.q(`
				UPDATE users SET subscription = ?, sub_balance = ?, purchased_balance = ?
				WHERE user_id = ?`),
				subJSON, req.Balance.SubscriptionBalance, req.Balance.PurchasedBalance, req.UserID)
			if err != nil {
				return err
			}
		} else {
			_, err := tx.ExecContext(ctx, c.q(`
				UPDATE users SET sub_balance = ?, purchased_balance = ?
				WHERE user_id = ?`),
				req.Balance.SubscriptionBalance, req.Balance.PurchasedBalance, req.UserID)
			if err != nil {
				return err
			}
		}

		entry := req.Entry
		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, c.q(`
			INSERT INTO ledger_entries (user_id, seq, entry_type, amount, description, entry_time)
			SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
			FROM ledger_entries WHERE user_id = ?`),
			req.UserID, string(entry.Type), entry.Amount, entry.Description,
			encodeTime(entry.Timestamp), req.UserID)
		if err != nil {
			return err
		}

		if req.Transaction != nil {
			t := *req.Transaction
			if t.CreationTime.IsZero() {
				t.CreationTime = time.Now().UTC()
			}
			_, err := tx.ExecContext(ctx, c.q(`
				INSERT INTO transactions (transaction_id, user_id, user_email, txn_type,
					plan, package_size, payment_method, amount, credits_added,
					description, status, creation_time)
				VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`),
				t.TransactionID, t.UserID, t.UserEmail, t.Type,
				string(t.Plan), t.PackageSize, t.PaymentMethod, t.Amount, t.CreditsAdded,
				t.Description, t.Status, encodeTime(t.CreationTime))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *credits) History(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.QueryContext(ctx, c.q(`
		SELECT entry_type, amount, description, entry_time
		FROM ledger_entries WHERE user_id = ?
		ORDER BY seq DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var typ, ts string
		if err := rows.Scan(&typ, &e.Amount, &e.Description, &ts); err != nil {
			return nil, err
		}
		e.Type = model.LedgerType(typ)
		if e.Timestamp, err = decodeTime(ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *credits) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	row := c.db.QueryRowContext(ctx, c.q(`
		SELECT transaction_id, user_id, user_email, txn_type, plan, package_size,
			payment_method, amount, credits_added, description, status, creation_time
		FROM transactions WHERE transaction_id = ?`), transactionID)
	t, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *credits) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := c.db.QueryContext(ctx, c.q(`
		SELECT transaction_id, user_id, user_email, txn_type, plan, package_size,
			payment_method, amount, credits_added, description, status, creation_time
		FROM transactions WHERE user_id = ? ORDER BY creation_time DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTransaction(scan func(...interface{}) error) (*model.Transaction, error) {
	var t model.Transaction
	var plan, created string
	if err := scan(&t.TransactionID, &t.UserID, &t.UserEmail, &t.Type, &plan, &t.PackageSize,
		&t.PaymentMethod, &t.Amount, &t.CreditsAdded, &t.Description, &t.Status, &created); err != nil {
		return nil, err
	}
	t.Plan = model.Plan(plan)
	var err error
	if t.CreationTime, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &t, nil
}
