package repo

import (
	"context"
	"database/sql"
	"strings"

	"taskcycle/internal/domain"
)

const taskColumns = `id,project_id,series_id,title,description,status,priority,assignee_id,due_date,tags_json,created_at,updated_at,completed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var t domain.Task
	var seriesID, assigneeID, dueDate, tags, completedAt sql.NullString
	var priority sql.NullInt64
	err := s.Scan(&t.ID, &t.ProjectID, &seriesID, &t.Title, &t.Description, &t.Status,
		&priority, &assigneeID, &dueDate, &tags, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if seriesID.Valid {
		t.SeriesID = &seriesID.String
	}
	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if tags.Valid {
		t.TagsJSON = &tags.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.String
	}
	if priority.Valid {
		p := int(priority.Int64)
		t.Priority = &p
	}
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, nullableStringPtr(t.SeriesID), t.Title, t.Description, t.Status,
		nullableIntPtr(t.Priority), nullableStringPtr(t.AssigneeID), nullableStringPtr(t.DueDate),
		nullableStringPtr(t.TagsJSON), t.CreatedAt, t.UpdatedAt, nullableStringPtr(t.CompletedAt))
	return err
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `UPDATE tasks SET series_id=?, title=?, description=?, status=?, priority=?, assignee_id=?, due_date=?, tags_json=?, updated_at=?, completed_at=? WHERE id=?`,
		nullableStringPtr(t.SeriesID), t.Title, t.Description, t.Status, nullableIntPtr(t.Priority),
		nullableStringPtr(t.AssigneeID), nullableStringPtr(t.DueDate), nullableStringPtr(t.TagsJSON),
		t.UpdatedAt, nullableStringPtr(t.CompletedAt), t.ID)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	return scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

type TaskFilters struct {
	ProjectID       string
	Status          string
	SeriesID        string
	AssigneeID      string
	DueBefore       string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.SeriesID != "" {
		clauses = append(clauses, "series_id=?")
		args = append(args, f.SeriesID)
	}
	if f.AssigneeID != "" {
		clauses = append(clauses, "assignee_id=?")
		args = append(args, f.AssigneeID)
	}
	if f.DueBefore != "" {
		clauses = append(clauses, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, f.DueBefore)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

// ListSeriesTasks returns all instances of a series ordered by due date,
// earliest first. Instances without a due date sort last.
func (r Repo) ListSeriesTasks(ctx context.Context, tx *sql.Tx, seriesID string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE series_id=? ORDER BY due_date IS NULL, due_date ASC, id ASC`
	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.QueryContext(ctx, query, seriesID)
	} else {
		rows, err = r.DB.QueryContext(ctx, query, seriesID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

// CountPendingSeriesTasks counts series instances that are still open and
// not already overdue. Instances without a due date count as open.
func (r Repo) CountPendingSeriesTasks(ctx context.Context, tx *sql.Tx, seriesID, now string) (int, error) {
	query := `SELECT count(*) FROM tasks WHERE series_id=? AND status IN ('todo','in_progress') AND (due_date IS NULL OR due_date > ?)`
	var n int
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, seriesID, now).Scan(&n)
	} else {
		err = r.DB.QueryRowContext(ctx, query, seriesID, now).Scan(&n)
	}
	return n, err
}

func (r Repo) CountTasksByStatus(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM tasks WHERE project_id=? GROUP BY status`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, nil
}
