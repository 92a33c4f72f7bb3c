package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

type analyses struct{ *sqlStore }

func (a *analyses) Create(ctx context.Context, userID string, version int64, m *model.Analysis) (*model.Analysis, error) {
	out := *m
	out.UserID = userID
	if out.AnalysisID == "" {
		out.AnalysisID = model.NewID()
	}
	if out.CreationTime.IsZero() {
		out.CreationTime = time.Now().UTC()
	}

	err := a.withTx(ctx, func(tx *sql.Tx) error {
		if err := a.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, a.q(`
			INSERT INTO analyses (user_id, analysis_id, transcript, emotional_state,
				energy_level, brain_clarity, summary, title, completed, creation_time)
			VALUES (?,?,?,?,?,?,?,?,?,?)`),
			userID, out.AnalysisID, out.Transcript, out.EmotionalState,
			out.EnergyLevel, out.BrainClarity, out.Summary, out.Title,
			boolToInt(out.Completed), encodeTime(out.CreationTime))
		if err != nil {
			return err
		}
		for i := range out.Tasks {
			t := out.Tasks[i]
			t.AnalysisID = out.AnalysisID
			if t.TaskID == "" {
				t.TaskID = model.NewID()
			}
			if t.CreationTime.IsZero() {
				t.CreationTime = out.CreationTime
			}
			if err := insertTask(ctx, tx, a.sqlStore, userID, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *analyses) Get(ctx context.Context, userID, analysisID string) (*model.Analysis, error) {
	row := a.db.QueryRowContext(ctx, a.q(`
		SELECT user_id, analysis_id, transcript, emotional_state, energy_level,
			brain_clarity, summary, title, completed, creation_time
		FROM analyses WHERE user_id = ? AND analysis_id = ?`), userID, analysisID)
	out, err := scanAnalysis(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s: %w", analysisID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	tasks, err := queryTasks(ctx, a.sqlStore, `user_id = ? AND analysis_id = ?`, userID, analysisID)
	if err != nil {
		return nil, err
	}
	out.Tasks = tasks
	return out, nil
}

func (a *analyses) List(ctx context.Context, userID string) ([]*model.Analysis, error) {
	rows, err := a.db.QueryContext(ctx, a.q(`
		SELECT user_id, analysis_id, transcript, emotional_state, energy_level,
			brain_clarity, summary, title, completed, creation_time
		FROM analyses WHERE user_id = ? ORDER BY creation_time DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Analysis
	byID := make(map[string]*model.Analysis)
	for rows.Next() {
		m, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		byID[m.AnalysisID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tasks, err := queryTasks(ctx, a.sqlStore, `user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if m, ok := byID[t.AnalysisID]; ok {
			m.Tasks = append(m.Tasks, t)
		}
	}
	for _, m := range out {
		sortTasks(m.Tasks)
	}
	return out, nil
}

func (a *analyses) Delete(ctx context.Context, userID string, version int64, analysisID string) error {
	return a.withTx(ctx, func(tx *sql.Tx) error {
		if err := a.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			a.q(`DELETE FROM analyses WHERE user_id = ? AND analysis_id = ?`),
			userID, analysisID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("analysis %s: %w", analysisID, model.ErrNotFound)
		}

		// The counter tracks currently present completed tasks, so the
		// analysis's completed tasks leave with it.
		var completed int
		if err := tx.QueryRowContext(ctx, a.q(`
			SELECT COUNT(1) FROM tasks
			WHERE user_id = ? AND analysis_id = ? AND status = 'completed'`),
			userID, analysisID).Scan(&completed); err != nil {
			return err
		}
		if completed > 0 {
			if err := decrementCompletedCounter(ctx, tx, a.sqlStore, userID, completed); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx,
			a.q(`DELETE FROM tasks WHERE user_id = ? AND analysis_id = ?`),
			userID, analysisID)
		return err
	})
}

func scanAnalysis(scan func(...interface{}) error) (*model.Analysis, error) {
	var m model.Analysis
	var completed int
	var created string
	if err := scan(&m.UserID, &m.AnalysisID, &m.Transcript, &m.EmotionalState,
		&m.EnergyLevel, &m.BrainClarity, &m.Summary, &m.Title, &completed, &created); err != nil {
		return nil, err
	}
	m.Completed = completed != 0
	var err error
	if m.CreationTime, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &m, nil
}

// sortTasks orders by position ascending, then newest first for ties.
func sortTasks(ts []*model.Task) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Position != ts[j].Position {
			return ts[i].Position < ts[j].Position
		}
		return ts[i].CreationTime.After(ts[j].CreationTime)
	})
}
