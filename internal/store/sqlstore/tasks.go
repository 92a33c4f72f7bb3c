package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainpal/brainpal-backend/internal/model"
)

type tasks struct{ *sqlStore }

func insertTask(ctx context.Context, tx *sql.Tx, s *sqlStore, userID string, t *model.Task) error {
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}
	subJSON, err := encodeJSON(t.Subtasks)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO tasks (user_id, analysis_id, task_id, title, description,
			priority, status, position, due_date, scheduled_date, scheduled_time,
			postponed_until, subtasks, creation_time)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		userID, t.AnalysisID, t.TaskID, t.Title, t.Description,
		string(t.Priority), string(t.Status), t.Position,
		encodeTimePtr(t.DueDate), encodeTimePtr(t.ScheduledDate), t.ScheduledTime,
		encodeTimePtr(t.PostponedUntil), subJSON, encodeTime(t.CreationTime))
	return err
}

const taskColumns = `user_id, analysis_id, task_id, title, description,
	priority, status, position, due_date, scheduled_date, scheduled_time,
	postponed_until, subtasks, creation_time`

func scanTask(scan func(...interface{}) error) (*model.Task, error) {
	var (
		t                      model.Task
		userID, prio, status   string
		due, sched, schedTime  sql.NullString
		postponed              sql.NullString
		subJSON, created       string
	)
	if err := scan(&userID, &t.AnalysisID, &t.TaskID, &t.Title, &t.Description,
		&prio, &status, &t.Position, &due, &sched, &schedTime,
		&postponed, &subJSON, &created); err != nil {
		return nil, err
	}
	t.Priority = model.Priority(prio)
	t.Status = model.Status(status)
	var err error
	if t.DueDate, err = decodeTimePtr(due); err != nil {
		return nil, err
	}
	if t.ScheduledDate, err = decodeTimePtr(sched); err != nil {
		return nil, err
	}
	if schedTime.Valid && schedTime.String != "" {
		v := schedTime.String
		t.ScheduledTime = &v
	}
	if t.PostponedUntil, err = decodeTimePtr(postponed); err != nil {
		return nil, err
	}
	t.Subtasks = []model.Subtask{}
	if err := decodeJSON(subJSON, &t.Subtasks); err != nil {
		return nil, err
	}
	if t.CreationTime, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &t, nil
}

func queryTasks(ctx context.Context, s *sqlStore, where string, args ...interface{}) ([]*model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+taskColumns+` FROM tasks WHERE `+where), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortTasks(out)
	return out, nil
}

func (ts *tasks) Create(ctx context.Context, userID string, version int64, t *model.Task) (*model.Task, error) {
	out := *t
	if out.TaskID == "" {
		out.TaskID = model.NewID()
	}
	if out.CreationTime.IsZero() {
		out.CreationTime = time.Now().UTC()
	}

	err := ts.withTx(ctx, func(tx *sql.Tx) error {
		if err := ts.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		var exists int
		err := tx.QueryRowContext(ctx,
			ts.q(`SELECT 1 FROM analyses WHERE user_id = ? AND analysis_id = ?`),
			userID, out.AnalysisID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("analysis %s: %w", out.AnalysisID, model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		// New tasks append at the end of the display order.
		if out.Position == 0 {
			var n int
			if err := tx.QueryRowContext(ctx,
				ts.q(`SELECT COUNT(1) FROM tasks WHERE user_id = ? AND analysis_id = ?`),
				userID, out.AnalysisID).Scan(&n); err != nil {
				return err
			}
			out.Position = n
		}
		if err := insertTask(ctx, tx, ts.sqlStore, userID, &out); err != nil {
			return err
		}
		// A pending task reopens a previously completed analysis.
		return recomputeCompletion(ctx, tx, ts.sqlStore, userID, out.AnalysisID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (ts *tasks) Get(ctx context.Context, userID, analysisID, taskID string) (*model.Task, error) {
	row := ts.db.QueryRowContext(ctx, ts.q(`
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
		userID, analysisID, taskID)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (ts *tasks) List(ctx context.Context, req model.ListTasksRequest) ([]*model.Task, error) {
	where := `user_id = ?`
	args := []interface{}{req.UserID}
	if req.AnalysisID != nil {
		where += ` AND analysis_id = ?`
		args = append(args, *req.AnalysisID)
	}
	if req.Status != nil {
		where += ` AND status = ?`
		args = append(args, string(*req.Status))
	}
	return queryTasks(ctx, ts.sqlStore, where, args...)
}

func (ts *tasks) Update(ctx context.Context, userID string, version int64, analysisID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	var out *model.Task
	err := ts.withTx(ctx, func(tx *sql.Tx) error {
		if err := ts.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, ts.q(`
			SELECT `+taskColumns+` FROM tasks
			WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
			userID, analysisID, taskID)
		t, err := scanTask(row.Scan)
		if err == sql.ErrNoRows {
			return fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		oldStatus := t.Status
		if err := applyTaskPatch(t, patch); err != nil {
			return err
		}

		subJSON, err := encodeJSON(t.Subtasks)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, ts.q(`
			UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?,
				position = ?, due_date = ?, scheduled_date = ?, scheduled_time = ?,
				postponed_until = ?, subtasks = ?
			WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
			t.Title, t.Description, string(t.Priority), string(t.Status),
			t.Position, encodeTimePtr(t.DueDate), encodeTimePtr(t.ScheduledDate), t.ScheduledTime,
			encodeTimePtr(t.PostponedUntil), subJSON,
			userID, analysisID, taskID)
		if err != nil {
			return err
		}

		if err := adjustCompletedCounter(ctx, tx, ts.sqlStore, userID, oldStatus, t.Status); err != nil {
			return err
		}
		if err := recomputeCompletion(ctx, tx, ts.sqlStore, userID, analysisID); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ts *tasks) Delete(ctx context.Context, userID string, version int64, analysisID, taskID string) error {
	return ts.withTx(ctx, func(tx *sql.Tx) error {
		if err := ts.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		var status string
		err := tx.QueryRowContext(ctx,
			ts.q(`SELECT status FROM tasks WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
			userID, analysisID, taskID).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			ts.q(`DELETE FROM tasks WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
			userID, analysisID, taskID); err != nil {
			return err
		}
		// Removing a completed task shrinks the completed population.
		if model.Status(status) == model.StatusCompleted {
			if err := decrementCompletedCounter(ctx, tx, ts.sqlStore, userID, 1); err != nil {
				return err
			}
		}
		return recomputeCompletion(ctx, tx, ts.sqlStore, userID, analysisID)
	})
}

func (ts *tasks) ReplaceList(ctx context.Context, userID string, version int64, analysisID string, list []*model.Task) ([]*model.Task, error) {
	out := make([]*model.Task, len(list))
	err := ts.withTx(ctx, func(tx *sql.Tx) error {
		if err := ts.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		var exists int
		err := tx.QueryRowContext(ctx,
			ts.q(`SELECT 1 FROM analyses WHERE user_id = ? AND analysis_id = ?`),
			userID, analysisID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("analysis %s: %w", analysisID, model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var completed int
		if err := tx.QueryRowContext(ctx, ts.q(`
			SELECT COUNT(1) FROM tasks
			WHERE user_id = ? AND analysis_id = ? AND status = 'completed'`),
			userID, analysisID).Scan(&completed); err != nil {
			return err
		}
		if completed > 0 {
			if err := decrementCompletedCounter(ctx, tx, ts.sqlStore, userID, completed); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			ts.q(`DELETE FROM tasks WHERE user_id = ? AND analysis_id = ?`),
			userID, analysisID); err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := range list {
			t := *list[i]
			t.AnalysisID = analysisID
			if t.TaskID == "" {
				t.TaskID = model.NewID()
			}
			t.Position = i
			if t.CreationTime.IsZero() {
				t.CreationTime = now
			}
			if err := insertTask(ctx, tx, ts.sqlStore, userID, &t); err != nil {
				return err
			}
			out[i] = &t
		}
		return recomputeCompletion(ctx, tx, ts.sqlStore, userID, analysisID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ts *tasks) Reorder(ctx context.Context, userID string, version int64, updates []model.PositionUpdate) (int, error) {
	applied := 0
	err := ts.withTx(ctx, func(tx *sql.Tx) error {
		if err := ts.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		for _, u := range updates {
			analysisID, taskID, err := model.SplitTaskID(u.TaskID)
			if err != nil {
				continue
			}
			res, err := tx.ExecContext(ctx, ts.q(`
				UPDATE tasks SET position = ?
				WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
				u.Position, userID, analysisID, taskID)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				applied++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

func (ts *tasks) AddSubtask(ctx context.Context, userID string, version int64, analysisID, taskID string, st model.Subtask) (*model.Task, error) {
	return ts.mutateSubtasks(ctx, userID, version, analysisID, taskID, func(t *model.Task) error {
		t.Subtasks = append(t.Subtasks, st)
		return nil
	})
}

func (ts *tasks) UpdateSubtask(ctx context.Context, userID string, version int64, analysisID, taskID string, index int, patch model.SubtaskPatch) (*model.Task, error) {
	return ts.mutateSubtasks(ctx, userID, version, analysisID, taskID, func(t *model.Task) error {
		if index < 0 || index >= len(t.Subtasks) {
			return fmt.Errorf("subtask %d: %w", index, model.ErrNotFound)
		}
		st := &t.Subtasks[index]
		if patch.Title != nil {
			st.Title = *patch.Title
		}
		if patch.EstimatedMinutes != nil {
			st.EstimatedMinutes = *patch.EstimatedMinutes
		}
		if patch.Completed != nil {
			st.Completed = *patch.Completed
		}
		return nil
	})
}

func (ts *tasks) DeleteSubtask(ctx context.Context, userID string, version int64, analysisID, taskID string, index int) (*model.Task, error) {
	return ts.mutateSubtasks(ctx, userID, version, analysisID, taskID, func(t *model.Task) error {
		if index < 0 || index >= len(t.Subtasks) {
			return fmt.Errorf("subtask %d: %w", index, model.ErrNotFound)
		}
		t.Subtasks = append(t.Subtasks[:index], t.Subtasks[index+1:]...)
		return nil
	})
}

func (ts *tasks) mutateSubtasks(ctx context.Context, userID string, version int64, analysisID, taskID string, fn func(*model.Task) error) (*model.Task, error) {
	var out *model.Task
	err := ts.withTx(ctx, func(tx *sql.Tx) error {
		if err := ts.bumpVersion(ctx, tx, userID, version); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, ts.q(`
			SELECT `+taskColumns+` FROM tasks
			WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
			userID, analysisID, taskID)
		t, err := scanTask(row.Scan)
		if err == sql.ErrNoRows {
			return fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		subJSON, err := encodeJSON(t.Subtasks)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, ts.q(`
			UPDATE tasks SET subtasks = ?
			WHERE user_id = ? AND analysis_id = ? AND task_id = ?`),
			subJSON, userID, analysisID, taskID)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyTaskPatch merges a patch into t. Empty date strings clear the field.
func applyTaskPatch(t *model.Task, p model.TaskPatch) error {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	var err error
	if t.DueDate, err = patchDate(t.DueDate, p.DueDate); err != nil {
		return err
	}
	if t.ScheduledDate, err = patchDate(t.ScheduledDate, p.ScheduledDate); err != nil {
		return err
	}
	if t.PostponedUntil, err = patchDate(t.PostponedUntil, p.PostponedUntil); err != nil {
		return err
	}
	if p.ScheduledTime != nil {
		if *p.ScheduledTime == "" {
			t.ScheduledTime = nil
		} else {
			v := *p.ScheduledTime
			t.ScheduledTime = &v
		}
	}
	return nil
}

func patchDate(current *time.Time, patch *string) (*time.Time, error) {
	if patch == nil {
		return current, nil
	}
	if *patch == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *patch)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", model.ErrValidation, *patch)
	}
	return &d, nil
}

// adjustCompletedCounter maintains the user's completed-tasks counter across
// a status transition, never going below zero.
func adjustCompletedCounter(ctx context.Context, tx *sql.Tx, s *sqlStore, userID string, oldStatus, newStatus model.Status) error {
	switch {
	case oldStatus != model.StatusCompleted && newStatus == model.StatusCompleted:
		_, err := tx.ExecContext(ctx,
			s.q(`UPDATE users SET completed_tasks = completed_tasks + 1 WHERE user_id = ?`), userID)
		return err
	case oldStatus == model.StatusCompleted && newStatus != model.StatusCompleted:
		return decrementCompletedCounter(ctx, tx, s, userID, 1)
	}
	return nil
}

func decrementCompletedCounter(ctx context.Context, tx *sql.Tx, s *sqlStore, userID string, by int) error {
	_, err := tx.ExecContext(ctx, s.q(`
		UPDATE users SET completed_tasks =
			CASE WHEN completed_tasks > ? THEN completed_tasks - ? ELSE 0 END
		WHERE user_id = ?`), by, by, userID)
	return err
}

// recomputeCompletion re-derives the analysis completed flag: true only when
// the analysis has at least one task and none of them is incomplete.
func recomputeCompletion(ctx context.Context, tx *sql.Tx, s *sqlStore, userID, analysisID string) error {
	_, err := tx.ExecContext(ctx, s.q(`
		UPDATE analyses SET completed =
			CASE WHEN EXISTS (
				SELECT 1 FROM tasks WHERE user_id = ? AND analysis_id = ?
			) AND NOT EXISTS (
				SELECT 1 FROM tasks WHERE user_id = ? AND analysis_id = ? AND status <> 'completed'
			) THEN 1 ELSE 0 END
		WHERE user_id = ? AND analysis_id = ?`),
		userID, analysisID, userID, analysisID, userID, analysisID)
	return err
}
