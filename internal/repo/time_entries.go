package repo

import (
	"context"
	"database/sql"

	"taskcycle/internal/domain"
)

func (r Repo) InsertTimeEntry(ctx context.Context, tx *sql.Tx, te domain.TimeEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO time_entries(id,task_id,actor_id,started_at,stopped_at,seconds) VALUES (?,?,?,?,?,?)`,
		te.ID, te.TaskID, te.ActorID, te.StartedAt, nullableStringPtr(te.StoppedAt), nullableIntPtr(te.Seconds))
	return err
}

func (r Repo) StopTimeEntry(ctx context.Context, tx *sql.Tx, id, stoppedAt string, seconds int) error {
	res, err := tx.ExecContext(ctx, `UPDATE time_entries SET stopped_at=?, seconds=? WHERE id=? AND stopped_at IS NULL`,
		stoppedAt, seconds, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RunningTimeEntry returns the actor's open entry for a task, if any.
func (r Repo) RunningTimeEntry(ctx context.Context, taskID, actorID string) (domain.TimeEntry, error) {
	return scanTimeEntry(r.DB.QueryRowContext(ctx,
		`SELECT id,task_id,actor_id,started_at,stopped_at,seconds FROM time_entries WHERE task_id=? AND actor_id=? AND stopped_at IS NULL`,
		taskID, actorID))
}

// RunningTimeEntryForActor returns the actor's open entry regardless of
// task. At most one exists at a time.
func (r Repo) RunningTimeEntryForActor(ctx context.Context, actorID string) (domain.TimeEntry, error) {
	return scanTimeEntry(r.DB.QueryRowContext(ctx,
		`SELECT id,task_id,actor_id,started_at,stopped_at,seconds FROM time_entries WHERE actor_id=? AND stopped_at IS NULL`,
		actorID))
}

func scanTimeEntry(s scanner) (domain.TimeEntry, error) {
	var te domain.TimeEntry
	var stoppedAt sql.NullString
	var seconds sql.NullInt64
	err := s.Scan(&te.ID, &te.TaskID, &te.ActorID, &te.StartedAt, &stoppedAt, &seconds)
	if err == sql.ErrNoRows {
		return te, ErrNotFound
	}
	if err != nil {
		return te, err
	}
	if stoppedAt.Valid {
		te.StoppedAt = &stoppedAt.String
	}
	if seconds.Valid {
		n := int(seconds.Int64)
		te.Seconds = &n
	}
	return te, nil
}

func (r Repo) ListTimeEntries(ctx context.Context, taskID string) ([]domain.TimeEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,task_id,actor_id,started_at,stopped_at,seconds FROM time_entries WHERE task_id=? ORDER BY started_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TimeEntry
	for rows.Next() {
		te, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, te)
	}
	return res, nil
}

// TaskTotalSeconds sums closed entries for a task.
func (r Repo) TaskTotalSeconds(ctx context.Context, taskID string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(seconds),0) FROM time_entries WHERE task_id=? AND seconds IS NOT NULL`, taskID).Scan(&total)
	return total, err
}
