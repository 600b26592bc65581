package repo

import (
	"context"
	"database/sql"
	"fmt"

	"taskcycle/internal/domain"
)

// EnsureActor inserts the actor with the free plan if unseen, otherwise
// leaves the existing row alone. The caller supplies the created_at
// timestamp so the engine's clock stays authoritative.
func (r Repo) EnsureActor(ctx context.Context, id, now string) (domain.Actor, error) {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO actors(id,plan,created_at) VALUES (?,?,?) ON CONFLICT(id) DO NOTHING`,
		id, "free", now)
	if err != nil {
		return domain.Actor{}, err
	}
	return r.GetActor(ctx, id)
}

func (r Repo) GetActor(ctx context.Context, id string) (domain.Actor, error) {
	var a domain.Actor
	err := r.DB.QueryRowContext(ctx, `SELECT id,plan,created_at FROM actors WHERE id=?`, id).
		Scan(&a.ID, &a.Plan, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (r Repo) SetActorPlan(ctx context.Context, id, plan string) error {
	switch plan {
	case "free", "premium":
	default:
		return fmt.Errorf("unknown plan %q", plan)
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE actors SET plan=? WHERE id=?`, plan, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListActors(ctx context.Context) ([]domain.Actor, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,plan,created_at FROM actors ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Actor
	for rows.Next() {
		var a domain.Actor
		if err := rows.Scan(&a.ID, &a.Plan, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}
