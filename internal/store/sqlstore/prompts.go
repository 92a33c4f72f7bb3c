package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

type prompts struct{ *sqlStore }

func (p *prompts) Get(ctx context.Context, name string) (*model.PromptTemplate, error) {
	row := p.db.QueryRowContext(ctx, p.q(`
		SELECT name, content, description, active, last_modified_by, update_time
		FROM prompts WHERE name = ?`), name)
	m, err := scanPrompt(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("prompt %s: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (p *prompts) List(ctx context.Context) ([]model.PromptTemplate, error) {
	rows, err := p.db.QueryContext(ctx, p.q(`
		SELECT name, content, description, active, last_modified_by, update_time
		FROM prompts ORDER BY name`))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.PromptTemplate
	for rows.Next() {
		m, err := scanPrompt(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (p *prompts) Upsert(ctx context.Context, m *model.PromptTemplate) error {
	if m.UpdateTime.IsZero() {
		m.UpdateTime = time.Now().UTC()
	}
	return p.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, p.q(`
			UPDATE prompts SET content = ?, description = ?, active = ?,
				last_modified_by = ?, update_time = ?
			WHERE name = ?`),
			m.Content, m.Description, boolToInt(m.Active),
			m.LastModifiedBy, encodeTime(m.UpdateTime), m.Name)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, p.q(`
			INSERT INTO prompts (name, content, description, active, last_modified_by, update_time)
			VALUES (?,?,?,?,?,?)`),
			m.Name, m.Content, m.Description, boolToInt(m.Active),
			m.LastModifiedBy, encodeTime(m.UpdateTime))
		return err
	})
}

func (p *prompts) Delete(ctx context.Context, name string) error {
	res, err := p.db.ExecContext(ctx, p.q(`DELETE FROM prompts WHERE name = ?`), name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("prompt %s: %w", name, model.ErrNotFound)
	}
	return nil
}

func scanPrompt(scan func(...interface{}) error) (*model.PromptTemplate, error) {
	var m model.PromptTemplate
	var active int
	var updated string
	if err := scan(&m.Name, &m.Content, &m.Description, &active, &m.LastModifiedBy, &updated); err != nil {
		return nil, err
	}
	m.Active = active != 0
	var err error
	if m.UpdateTime, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}
