package repo

import (
	"context"
	"database/sql"

	"taskcycle/internal/domain"
)

const seriesColumns = `id,project_id,base_task_id,pattern_json,state,occurrences_created,next_due_date,created_at,updated_at`

func scanSeries(s scanner) (domain.Series, error) {
	var sr domain.Series
	var nextDue sql.NullString
	err := s.Scan(&sr.ID, &sr.ProjectID, &sr.BaseTaskID, &sr.PatternJSON, &sr.State,
		&sr.OccurrencesCreated, &nextDue, &sr.CreatedAt, &sr.UpdatedAt)
	if err == sql.ErrNoRows {
		return sr, ErrNotFound
	}
	if err != nil {
		return sr, err
	}
	if nextDue.Valid {
		sr.NextDueDate = &nextDue.String
	}
	return sr, nil
}

func (r Repo) InsertSeries(ctx context.Context, tx *sql.Tx, s domain.Series) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO series(`+seriesColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		s.ID, s.ProjectID, s.BaseTaskID, s.PatternJSON, s.State, s.OccurrencesCreated,
		nullableStringPtr(s.NextDueDate), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r Repo) UpdateSeries(ctx context.Context, tx *sql.Tx, s domain.Series) error {
	res, err := tx.ExecContext(ctx, `UPDATE series SET pattern_json=?, state=?, occurrences_created=?, next_due_date=?, updated_at=? WHERE id=?`,
		s.PatternJSON, s.State, s.OccurrencesCreated, nullableStringPtr(s.NextDueDate), s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetSeries(ctx context.Context, id string) (domain.Series, error) {
	return scanSeries(r.DB.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id=?`, id))
}

func (r Repo) GetSeriesTx(ctx context.Context, tx *sql.Tx, id string) (domain.Series, error) {
	return scanSeries(tx.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id=?`, id))
}

func (r Repo) CountActiveSeries(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM series WHERE project_id=? AND state='active'`, projectID).Scan(&n)
	return n, err
}

type SeriesFilters struct {
	ProjectID string
	State     string
	Limit     int
}

func (r Repo) ListSeries(ctx context.Context, f SeriesFilters) ([]domain.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series WHERE 1=1`
	var args []any
	if f.ProjectID != "" {
		query += ` AND project_id=?`
		args = append(args, f.ProjectID)
	}
	if f.State != "" {
		query += ` AND state=?`
		args = append(args, f.State)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}
