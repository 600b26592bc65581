package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskcycle/internal/domain"
	"taskcycle/internal/events"
	"taskcycle/internal/repo"
)

var ErrTimerRunning = errors.New("timer already running")

// StartTimer opens a time entry for the actor on a task. An actor has at
// most one open entry across all tasks.
func (e Engine) StartTimer(ctx context.Context, taskID, actorID string) (domain.TimeEntry, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	if t.Status == "done" || t.Status == "canceled" {
		return domain.TimeEntry{}, fmt.Errorf("task %s is %s", t.ID, t.Status)
	}
	if _, err := e.Repo.RunningTimeEntryForActor(ctx, actorID); err == nil {
		return domain.TimeEntry{}, ErrTimerRunning
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.TimeEntry{}, err
	}
	te := domain.TimeEntry{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		ActorID:   actorID,
		StartedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return te, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTimeEntry(ctx, tx, te); err != nil {
		return te, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeTimerStarted, t.ProjectID, "time_entry", te.ID, actorID, events.EventPayload{"task_id": taskID}); err != nil {
		return te, err
	}
	return te, tx.Commit()
}

// StopTimer closes the actor's open entry on a task and records elapsed
// seconds.
func (e Engine) StopTimer(ctx context.Context, taskID, actorID string) (domain.TimeEntry, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	te, err := e.Repo.RunningTimeEntry(ctx, taskID, actorID)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	started, err := time.Parse(time.RFC3339, te.StartedAt)
	if err != nil {
		return te, fmt.Errorf("time entry %s started_at: %w", te.ID, err)
	}
	now := e.now().UTC()
	seconds := int(now.Sub(started).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	stoppedAt := now.Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return te, err
	}
	defer tx.Rollback()
	if err := e.Repo.StopTimeEntry(ctx, tx, te.ID, stoppedAt, seconds); err != nil {
		return te, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeTimerStopped, t.ProjectID, "time_entry", te.ID, actorID, events.EventPayload{
		"task_id": taskID,
		"seconds": seconds,
	}); err != nil {
		return te, err
	}
	if err := tx.Commit(); err != nil {
		return te, err
	}
	te.StoppedAt = &stoppedAt
	te.Seconds = &seconds
	return te, nil
}
