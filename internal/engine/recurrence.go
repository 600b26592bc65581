package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskcycle/internal/domain"
	"taskcycle/internal/engine/entitlement"
	"taskcycle/internal/events"
	"taskcycle/internal/recur"
	"taskcycle/internal/repo"
)

// ValidationError carries the full list of pattern problems so the API can
// report them all at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid pattern: " + strings.Join(e.Problems, "; ")
}

var ErrSeriesExhausted = errors.New("series exhausted")

// RecurrenceOptions turn an existing task into the base of a series.
type RecurrenceOptions struct {
	TaskID  string
	Pattern recur.Pattern
	ActorID string
}

func (e Engine) initialBatch() int {
	if e.Config != nil && e.Config.Recurrence.InitialBatch > 0 {
		return e.Config.Recurrence.InitialBatch
	}
	return 3
}

func (e Engine) lowWater() int {
	if e.Config != nil {
		return e.Config.Recurrence.LowWater
	}
	return 2
}

func (e Engine) topupBatch() int {
	if e.Config != nil && e.Config.Recurrence.TopupBatch > 0 {
		return e.Config.Recurrence.TopupBatch
	}
	return 3
}

// CreateRecurrence validates the pattern, checks the actor's plan, then
// creates the series and its initial instances in one transaction. Either
// everything lands or nothing does.
func (e Engine) CreateRecurrence(ctx context.Context, opts RecurrenceOptions) (domain.Series, []domain.Task, error) {
	var s domain.Series
	t, err := e.Repo.GetTask(ctx, opts.TaskID)
	if err != nil {
		return s, nil, err
	}
	if t.SeriesID != nil {
		return s, nil, fmt.Errorf("task %s already belongs to series %s", t.ID, *t.SeriesID)
	}
	now := e.now().UTC()
	if problems := recur.Validate(opts.Pattern, now); len(problems) > 0 {
		return s, nil, &ValidationError{Problems: problems}
	}
	actor, err := e.Repo.EnsureActor(ctx, opts.ActorID, now.Format(time.RFC3339))
	if err != nil {
		return s, nil, err
	}
	if err := entitlement.CheckPattern(e.Config, actor.Plan, opts.Pattern); err != nil {
		return s, nil, err
	}
	active, err := e.Repo.CountActiveSeries(ctx, t.ProjectID)
	if err != nil {
		return s, nil, err
	}
	if err := entitlement.CheckSeriesQuota(e.Config, actor.Plan, active); err != nil {
		return s, nil, err
	}

	start := now
	if t.DueDate != nil {
		if parsed, err := time.Parse(time.RFC3339, *t.DueDate); err == nil {
			start = parsed
		}
	}
	pattern := opts.Pattern
	if pattern.Kind == recur.KindMonthly && pattern.MonthDay == 0 {
		pattern.MonthDay = start.In(pattern.Location()).Day()
	}
	remaining := -1
	if pattern.MaxOccurrences > 0 {
		remaining = pattern.MaxOccurrences
	}
	dates := recur.Generate(start, pattern, recur.GenerateOptions{
		MaxBatch:  e.initialBatch(),
		Remaining: remaining,
		Now:       now,
	})

	patternJSON, err := json.Marshal(pattern)
	if err != nil {
		return s, nil, err
	}
	nowStr := now.Format(time.RFC3339)
	s = domain.Series{
		ID:                 uuid.New().String(),
		ProjectID:          t.ProjectID,
		BaseTaskID:         t.ID,
		PatternJSON:        string(patternJSON),
		State:              "active",
		OccurrencesCreated: len(dates),
		CreatedAt:          nowStr,
		UpdatedAt:          nowStr,
	}
	if len(dates) > 0 {
		next := dates[len(dates)-1].Format(time.RFC3339)
		s.NextDueDate = &next
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, nil, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertSeries(ctx, tx, s); err != nil {
		return s, nil, err
	}
	t.SeriesID = &s.ID
	t.UpdatedAt = nowStr
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return s, nil, err
	}
	instances := make([]domain.Task, 0, len(dates))
	for _, due := range dates {
		inst, err := e.insertInstance(ctx, tx, s, t, due, opts.ActorID)
		if err != nil {
			return s, nil, err
		}
		instances = append(instances, inst)
	}
	if err := e.Events.Append(ctx, tx, events.TypeSeriesCreated, s.ProjectID, "series", s.ID, opts.ActorID, events.EventPayload{
		"base_task_id": t.ID,
		"instances":    len(instances),
	}); err != nil {
		return s, nil, err
	}
	if err := tx.Commit(); err != nil {
		return s, nil, err
	}
	return s, instances, nil
}

// insertInstance clones the base task for one occurrence date.
func (e Engine) insertInstance(ctx context.Context, tx *sql.Tx, s domain.Series, base domain.Task, due time.Time, actorID string) (domain.Task, error) {
	nowStr := e.now().UTC().Format(time.RFC3339)
	dueStr := due.Format(time.RFC3339)
	inst := domain.Task{
		ID:          uuid.New().String(),
		ProjectID:   base.ProjectID,
		SeriesID:    &s.ID,
		Title:       base.Title,
		Description: base.Description,
		Status:      "todo",
		Priority:    base.Priority,
		AssigneeID:  base.AssigneeID,
		DueDate:     &dueStr,
		TagsJSON:    base.TagsJSON,
		CreatedAt:   nowStr,
		UpdatedAt:   nowStr,
	}
	if err := e.Repo.InsertTask(ctx, tx, inst); err != nil {
		return inst, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeTaskCreated, inst.ProjectID, "task", inst.ID, actorID, events.EventPayload{
		"title":     inst.Title,
		"status":    inst.Status,
		"series_id": s.ID,
	}); err != nil {
		return inst, err
	}
	return inst, nil
}

// ReplenishSeries tops the series back up when its pool of open instances
// falls to the low-water mark. Instances insert one at a time in their own
// transactions; a crash mid-batch leaves the series short, never corrupt,
// and the next completion or sweep finishes the job.
func (e Engine) ReplenishSeries(ctx context.Context, seriesID, actorID string) error {
	s, err := e.Repo.GetSeries(ctx, seriesID)
	if err != nil {
		return err
	}
	if s.State != "active" {
		return nil
	}
	pending, err := e.Repo.CountPendingSeriesTasks(ctx, nil, s.ID, e.now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	if pending > e.lowWater() {
		return nil
	}

	var pattern recur.Pattern
	if err := json.Unmarshal([]byte(s.PatternJSON), &pattern); err != nil {
		return fmt.Errorf("series %s pattern: %w", s.ID, err)
	}
	now := e.now().UTC()
	start := now
	if s.NextDueDate != nil {
		if parsed, err := time.Parse(time.RFC3339, *s.NextDueDate); err == nil && parsed.After(start) {
			start = parsed
		}
	}
	remaining := -1
	if pattern.MaxOccurrences > 0 {
		remaining = pattern.MaxOccurrences - s.OccurrencesCreated
		if remaining <= 0 {
			return e.markExhausted(ctx, s, actorID)
		}
	}
	dates := recur.Generate(start, pattern, recur.GenerateOptions{
		MaxBatch:  e.topupBatch(),
		Remaining: remaining,
		Now:       now,
	})
	if len(dates) == 0 {
		// Nothing left inside the horizon. End-date and count-bounded
		// patterns are finished; open-ended ones just wait for time to pass.
		if pattern.EndDate != nil || pattern.MaxOccurrences > 0 {
			if _, ok := recur.Next(start, pattern); !ok {
				return e.markExhausted(ctx, s, actorID)
			}
		}
		return nil
	}

	base, err := e.Repo.GetTask(ctx, s.BaseTaskID)
	if err != nil {
		return err
	}
	for _, due := range dates {
		tx, err := e.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := e.insertInstance(ctx, tx, s, base, due, actorID); err != nil {
			tx.Rollback()
			return err
		}
		s.OccurrencesCreated++
		next := due.Format(time.RFC3339)
		s.NextDueDate = &next
		s.UpdatedAt = e.now().UTC().Format(time.RFC3339)
		if err := e.Repo.UpdateSeries(ctx, tx, s); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, events.TypeSeriesReplenished, s.ProjectID, "series", s.ID, actorID, events.EventPayload{
		"added":               len(dates),
		"occurrences_created": s.OccurrencesCreated,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if pattern.MaxOccurrences > 0 && s.OccurrencesCreated >= pattern.MaxOccurrences {
		return e.markExhausted(ctx, s, actorID)
	}
	return nil
}

func (e Engine) markExhausted(ctx context.Context, s domain.Series, actorID string) error {
	if s.State == "exhausted" {
		return nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	s.State = "exhausted"
	s.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateSeries(ctx, tx, s); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TypeSeriesExhausted, s.ProjectID, "series", s.ID, actorID, events.EventPayload{
		"occurrences_created": s.OccurrencesCreated,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// SeriesUpdateOptions replace a series' pattern going forward.
type SeriesUpdateOptions struct {
	SeriesID string
	Pattern  recur.Pattern
	ActorID  string
}

// UpdateSeries swaps the pattern and regenerates open instances from it.
// Completed and canceled instances keep their history; only pending ones
// are rescheduled.
func (e Engine) UpdateSeries(ctx context.Context, opts SeriesUpdateOptions) (domain.Series, error) {
	s, err := e.Repo.GetSeries(ctx, opts.SeriesID)
	if err != nil {
		return s, err
	}
	if s.State != "active" {
		return s, ErrSeriesExhausted
	}
	now := e.now().UTC()
	if problems := recur.Validate(opts.Pattern, now); len(problems) > 0 {
		return s, &ValidationError{Problems: problems}
	}
	actor, err := e.Repo.EnsureActor(ctx, opts.ActorID, now.Format(time.RFC3339))
	if err != nil {
		return s, err
	}
	if err := entitlement.CheckPattern(e.Config, actor.Plan, opts.Pattern); err != nil {
		return s, err
	}
	base, err := e.Repo.GetTask(ctx, s.BaseTaskID)
	if err != nil {
		return s, err
	}

	pattern := opts.Pattern
	if pattern.Kind == recur.KindMonthly && pattern.MonthDay == 0 {
		pattern.MonthDay = now.In(pattern.Location()).Day()
	}
	patternJSON, err := json.Marshal(pattern)
	if err != nil {
		return s, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()

	instances, err := e.Repo.ListSeriesTasks(ctx, tx, s.ID)
	if err != nil {
		return s, err
	}
	removed := 0
	for _, inst := range instances {
		if inst.Status != "todo" || inst.ID == s.BaseTaskID {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND status='todo'`, inst.ID); err != nil {
			return s, err
		}
		removed++
	}
	s.OccurrencesCreated -= removed
	if s.OccurrencesCreated < 0 {
		s.OccurrencesCreated = 0
	}

	remaining := -1
	if pattern.MaxOccurrences > 0 {
		remaining = pattern.MaxOccurrences - s.OccurrencesCreated
		if remaining < 0 {
			remaining = 0
		}
	}
	dates := recur.Generate(now, pattern, recur.GenerateOptions{
		MaxBatch:  e.initialBatch(),
		Remaining: remaining,
		Now:       now,
	})
	for _, due := range dates {
		if _, err := e.insertInstance(ctx, tx, s, base, due, opts.ActorID); err != nil {
			return s, err
		}
	}
	s.OccurrencesCreated += len(dates)
	s.PatternJSON = string(patternJSON)
	s.NextDueDate = nil
	if len(dates) > 0 {
		next := dates[len(dates)-1].Format(time.RFC3339)
		s.NextDueDate = &next
	}
	s.UpdatedAt = now.Format(time.RFC3339)
	if err := e.Repo.UpdateSeries(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeSeriesUpdated, s.ProjectID, "series", s.ID, opts.ActorID, events.EventPayload{
		"removed_pending": removed,
		"rescheduled":     len(dates),
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// SeriesEditOptions carry field edits to roll out over a series.
type SeriesEditOptions struct {
	SeriesID    string
	Title       *string
	Description *string
	Priority    *int
	TagsJSON    *string
	ActorID     string
}

func (o SeriesEditOptions) empty() bool {
	return o.Title == nil && o.Description == nil && o.Priority == nil && o.TagsJSON == nil
}

// EditSeriesInstances applies field edits to instances that are still open
// and due in the future. Completed and canceled instances keep what they
// had; instances already overdue are left alone too.
func (e Engine) EditSeriesInstances(ctx context.Context, opts SeriesEditOptions) (int, error) {
	if opts.empty() {
		return 0, errors.New("no edits given")
	}
	s, err := e.Repo.GetSeries(ctx, opts.SeriesID)
	if err != nil {
		return 0, err
	}
	nowStr := e.now().UTC().Format(time.RFC3339)

	sets := []string{"updated_at=?"}
	args := []any{nowStr}
	if opts.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *opts.Title)
	}
	if opts.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *opts.Description)
	}
	if opts.Priority != nil {
		sets = append(sets, "priority=?")
		args = append(args, *opts.Priority)
	}
	if opts.TagsJSON != nil {
		sets = append(sets, "tags_json=?")
		args = append(args, *opts.TagsJSON)
	}
	args = append(args, s.ID, nowStr)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+
			` WHERE series_id=? AND status IN ('todo','in_progress') AND due_date > ?`, args...)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	if err := e.Events.Append(ctx, tx, events.TypeSeriesUpdated, s.ProjectID, "series", s.ID, opts.ActorID, events.EventPayload{
		"edited_instances": affected,
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}

// CancelSeries stops generation and drops the remaining open instances.
func (e Engine) CancelSeries(ctx context.Context, seriesID, actorID string) (domain.Series, error) {
	s, err := e.Repo.GetSeries(ctx, seriesID)
	if err != nil {
		return s, err
	}
	if s.State != "active" {
		return s, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()
	nowStr := e.now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET status='canceled', updated_at=? WHERE series_id=? AND status IN ('todo','in_progress')`,
		nowStr, s.ID); err != nil {
		return s, err
	}
	s.State = "exhausted"
	s.NextDueDate = nil
	s.UpdatedAt = nowStr
	if err := e.Repo.UpdateSeries(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeSeriesCanceled, s.ProjectID, "series", s.ID, actorID, events.EventPayload{}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// SweepSeries replenishes every active series. It backs the periodic
// scheduler and the tc sweep command, and is safe to run repeatedly.
func (e Engine) SweepSeries(ctx context.Context, actorID string) (int, error) {
	series, err := e.Repo.ListSeries(ctx, repo.SeriesFilters{State: "active"})
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, s := range series {
		if err := e.ReplenishSeries(ctx, s.ID, actorID); err != nil {
			return swept, fmt.Errorf("series %s: %w", s.ID, err)
		}
		swept++
	}
	return swept, nil
}
