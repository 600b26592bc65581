package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskcycle/internal/config"
	"taskcycle/internal/db"
	"taskcycle/internal/engine"
	"taskcycle/internal/engine/entitlement"
	"taskcycle/internal/migrate"
	"taskcycle/internal/recur"
	"taskcycle/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("proj-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.InitProject(ctx, "proj-1", "test", "tester"); err != nil {
		t.Fatalf("init project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func (env testEnv) makePremium(t *testing.T, actorID string) {
	t.Helper()
	if _, err := env.Engine.Repo.EnsureActor(env.Ctx, actorID, "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("ensure actor: %v", err)
	}
	if err := env.Engine.Repo.SetActorPlan(env.Ctx, actorID, "premium"); err != nil {
		t.Fatalf("set plan: %v", err)
	}
}

func (env testEnv) countSeriesTasks(t *testing.T, seriesID, status string) int {
	t.Helper()
	query := `SELECT count(*) FROM tasks WHERE series_id=?`
	args := []any{seriesID}
	if status != "" {
		query += ` AND status=?`
		args = append(args, status)
	}
	var n int
	if err := env.Engine.DB.QueryRowContext(env.Ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	return n
}

func TestTaskStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1",
		Title:     "Do work",
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	task, err = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: "in_progress", ActorID: "tester"})
	if err != nil || task.Status != "in_progress" {
		t.Fatalf("to in_progress: %v", err)
	}
	task, err = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: "done", ActorID: "tester"})
	if err != nil || task.Status != "done" {
		t.Fatalf("to done: %v", err)
	}
	if task.CompletedAt == nil {
		t.Fatalf("expected completed_at set")
	}
	_, err = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: "todo", ActorID: "tester"})
	if err == nil {
		t.Fatalf("expected transition error from done")
	}
}

func TestCreateRecurrenceInitialBatch(t *testing.T) {
	env := newTestEnv(t)
	env.makePremium(t, "tester")
	due := "2024-01-10T09:00:00Z"
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "weekly report", DueDate: due, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindWeekly, Interval: 1},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create recurrence: %v", err)
	}
	if s.State != "active" {
		t.Fatalf("series state %s", s.State)
	}
	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	if instances[0].DueDate == nil || *instances[0].DueDate != "2024-01-17T09:00:00Z" {
		t.Fatalf("first instance due %v", instances[0].DueDate)
	}
	got, err := env.Engine.Repo.GetTask(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SeriesID == nil || *got.SeriesID != s.ID {
		t.Fatalf("base task not linked to series")
	}
	// base + 3 instances
	if n := env.countSeriesTasks(t, s.ID, ""); n != 4 {
		t.Fatalf("expected 4 series tasks, got %d", n)
	}
}

func TestCreateRecurrenceInvalidPatternRollsBack(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "bad", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindWeekly, Interval: 0, Weekdays: []int{9}},
		ActorID: "tester",
	})
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Problems) < 2 {
		t.Fatalf("expected all problems reported, got %v", verr.Problems)
	}
	var count int
	if err := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT count(*) FROM series`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected no series rows, got %d", count)
	}
	got, err := env.Engine.Repo.GetTask(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SeriesID != nil {
		t.Fatalf("task must stay unlinked after failed recurrence")
	}
}

func TestFreePlanGating(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "gated", ActorID: "free-user"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindWeekly, Interval: 1},
		ActorID: "free-user",
	})
	var upgrade *entitlement.UpgradeRequiredError
	if !errors.As(err, &upgrade) {
		t.Fatalf("expected upgrade error, got %v", err)
	}
	// simple daily stays available on the free plan
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "free-user",
	})
	if err != nil {
		t.Fatalf("daily recurrence on free plan: %v", err)
	}
	if s.State != "active" || len(instances) != 3 {
		t.Fatalf("unexpected series %s with %d instances", s.State, len(instances))
	}
}

func TestCompletionReplenishesAtLowWater(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "water plants", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	// base + 3 instances pending; completing one leaves 3 open, above the
	// low-water mark of 2, so nothing regenerates yet.
	if _, err := env.Engine.CompleteTask(env.Ctx, instances[0].ID, "tester"); err != nil {
		t.Fatal(err)
	}
	if n := env.countSeriesTasks(t, s.ID, ""); n != 4 {
		t.Fatalf("expected no replenish yet, got %d tasks", n)
	}
	// next completion drops open count to 2 and triggers a top-up of 3
	if _, err := env.Engine.CompleteTask(env.Ctx, instances[1].ID, "tester"); err != nil {
		t.Fatal(err)
	}
	if n := env.countSeriesTasks(t, s.ID, ""); n != 7 {
		t.Fatalf("expected top-up to 7 tasks, got %d", n)
	}
	got, err := env.Engine.Repo.GetSeries(env.Ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OccurrencesCreated != 6 {
		t.Fatalf("expected 6 occurrences created, got %d", got.OccurrencesCreated)
	}
}

func TestMaxOccurrencesExhaustsSeries(t *testing.T) {
	env := newTestEnv(t)
	env.makePremium(t, "tester")
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "limited", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1, MaxOccurrences: 2},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	// completing both drives the open count to the low-water mark; with the
	// occurrence budget spent the series flips to exhausted instead of
	// generating more
	for _, inst := range instances {
		if _, err := env.Engine.CompleteTask(env.Ctx, inst.ID, "tester"); err != nil {
			t.Fatal(err)
		}
	}
	got, err := env.Engine.Repo.GetSeries(env.Ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != "exhausted" {
		t.Fatalf("expected exhausted series, got %s", got.State)
	}
	if n := env.countSeriesTasks(t, s.ID, ""); n != 3 {
		t.Fatalf("expected no new instances, got %d tasks", n)
	}
	// replenishing an exhausted series is a no-op
	if err := env.Engine.ReplenishSeries(env.Ctx, s.ID, "tester"); err != nil {
		t.Fatalf("replenish exhausted: %v", err)
	}
	if n := env.countSeriesTasks(t, s.ID, ""); n != 3 {
		t.Fatalf("exhausted series must not grow, got %d tasks", n)
	}
}

func TestUpdateSeriesKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.makePremium(t, "tester")
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "standup notes", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	done, err := env.Engine.CompleteTask(env.Ctx, instances[0].ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	updated, err := env.Engine.UpdateSeries(env.Ctx, engine.SeriesUpdateOptions{
		SeriesID: s.ID,
		Pattern:  recur.Pattern{Kind: recur.KindWeekly, Interval: 1, Weekdays: []int{1}},
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("update series: %v", err)
	}
	if updated.State != "active" {
		t.Fatalf("series state %s", updated.State)
	}
	// completed instance survives the reschedule
	kept, err := env.Engine.Repo.GetTask(env.Ctx, done.ID)
	if err != nil {
		t.Fatalf("completed instance gone: %v", err)
	}
	if kept.Status != "done" {
		t.Fatalf("completed instance status %s", kept.Status)
	}
	// old pending instances were replaced by a fresh batch
	if n := env.countSeriesTasks(t, s.ID, "todo"); n != 4 {
		t.Fatalf("expected base + 3 rescheduled todos, got %d", n)
	}
	for _, inst := range instances[1:] {
		if _, err := env.Engine.Repo.GetTask(env.Ctx, inst.ID); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("expected old pending instance removed, got %v", err)
		}
	}
}

func TestCancelSeriesStopsGeneration(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "newsletter", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	canceled, err := env.Engine.CancelSeries(env.Ctx, s.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if canceled.State != "exhausted" {
		t.Fatalf("series state %s", canceled.State)
	}
	for _, inst := range instances {
		got, err := env.Engine.Repo.GetTask(env.Ctx, inst.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != "canceled" {
			t.Fatalf("instance %s status %s", inst.ID, got.Status)
		}
	}
}

func TestSweepReplenishesActiveSeries(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "backup check", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	s, instances, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	// drain below the low-water mark outside the completion hook
	for _, inst := range instances[:2] {
		if _, err := env.Engine.DB.ExecContext(env.Ctx, `UPDATE tasks SET status='canceled' WHERE id=?`, inst.ID); err != nil {
			t.Fatal(err)
		}
	}
	swept, err := env.Engine.SweepSeries(env.Ctx, "sweeper")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 series swept, got %d", swept)
	}
	if n := env.countSeriesTasks(t, s.ID, "todo"); n != 5 {
		t.Fatalf("expected sweep to top up open tasks to 5, got %d", n)
	}
	// a second sweep finds the pool full and changes nothing
	if _, err := env.Engine.SweepSeries(env.Ctx, "sweeper"); err != nil {
		t.Fatal(err)
	}
	if n := env.countSeriesTasks(t, s.ID, ""); n != 7 {
		t.Fatalf("sweep must be idempotent, got %d tasks", n)
	}
}

func TestTimerStartStop(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "timed", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	env.Engine.Now = func() time.Time { return clock }
	te, err := env.Engine.StartTimer(env.Ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.Engine.StartTimer(env.Ctx, task.ID, "tester"); !errors.Is(err, engine.ErrTimerRunning) {
		t.Fatalf("expected running conflict, got %v", err)
	}
	clock = clock.Add(90 * time.Second)
	stopped, err := env.Engine.StopTimer(env.Ctx, task.ID, "tester")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.ID != te.ID {
		t.Fatalf("stopped wrong entry")
	}
	if stopped.Seconds == nil || *stopped.Seconds != 90 {
		t.Fatalf("expected 90s, got %v", stopped.Seconds)
	}
}

func TestEventAppendOnStateChanges(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "proj-1", Title: "evented", ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: "in_progress", ActorID: "tester"})
	_, _ = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: "done", ActorID: "tester"})
	rows, err := env.Engine.DB.QueryContext(env.Ctx, `SELECT type FROM events WHERE entity_id=?`, task.ID)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		count++
	}
	if count < 3 {
		t.Fatalf("expected multiple events, got %d", count)
	}
}

func TestEditSeriesInstancesFutureOnly(t *testing.T) {
	env := newTestEnv(t)
	env.makePremium(t, "tester")
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "standup notes", DueDate: "2024-01-02T10:00:00Z", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	s, _, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create recurrence: %v", err)
	}
	if _, err := env.Engine.CompleteTask(env.Ctx, task.ID, "tester"); err != nil {
		t.Fatalf("complete base: %v", err)
	}

	title := "standup notes v2"
	edited, err := env.Engine.EditSeriesInstances(env.Ctx, engine.SeriesEditOptions{
		SeriesID: s.ID,
		Title:    &title,
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("edit series: %v", err)
	}
	if edited == 0 {
		t.Fatalf("expected future instances to be edited")
	}

	done, err := env.Engine.Repo.GetTask(env.Ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Title != "standup notes" {
		t.Fatalf("completed instance was rewritten: %q", done.Title)
	}
	instances, err := env.Engine.Repo.ListSeriesTasks(env.Ctx, nil, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, inst := range instances {
		if inst.Status == "todo" && inst.Title != title {
			t.Fatalf("open instance %s kept old title %q", inst.ID, inst.Title)
		}
	}

	if _, err := env.Engine.EditSeriesInstances(env.Ctx, engine.SeriesEditOptions{SeriesID: s.ID, ActorID: "tester"}); err == nil {
		t.Fatalf("expected error for empty edit")
	}
}

func TestSeriesQuotaForFreePlan(t *testing.T) {
	env := newTestEnv(t)
	daily := recur.Pattern{Kind: recur.KindDaily, Interval: 1}
	for i := 0; i < 3; i++ {
		task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
			ProjectID: "proj-1", Title: "chore", DueDate: "2024-01-05T08:00:00Z", ActorID: "tester",
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
			TaskID: task.ID, Pattern: daily, ActorID: "tester",
		}); err != nil {
			t.Fatalf("series %d: %v", i+1, err)
		}
	}
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "one too many", DueDate: "2024-01-05T08:00:00Z", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID: task.ID, Pattern: daily, ActorID: "tester",
	})
	var upgrade *entitlement.UpgradeRequiredError
	if !errors.As(err, &upgrade) {
		t.Fatalf("expected quota rejection, got %v", err)
	}

	// Premium is uncapped.
	env.makePremium(t, "tester")
	if _, _, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID: task.ID, Pattern: daily, ActorID: "tester",
	}); err != nil {
		t.Fatalf("premium create: %v", err)
	}
}

func TestTimerSingleRunningEntryPerActor(t *testing.T) {
	env := newTestEnv(t)
	first, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "write docs", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "review docs", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.Engine.StartTimer(env.Ctx, first.ID, "tester"); err != nil {
		t.Fatalf("start first: %v", err)
	}
	if _, err := env.Engine.StartTimer(env.Ctx, second.ID, "tester"); !errors.Is(err, engine.ErrTimerRunning) {
		t.Fatalf("expected ErrTimerRunning for second task, got %v", err)
	}
	// Another actor may track the same task concurrently.
	if _, err := env.Engine.StartTimer(env.Ctx, first.ID, "other"); err != nil {
		t.Fatalf("start as other actor: %v", err)
	}
	if _, err := env.Engine.StopTimer(env.Ctx, first.ID, "tester"); err != nil {
		t.Fatalf("stop first: %v", err)
	}
	if _, err := env.Engine.StartTimer(env.Ctx, second.ID, "tester"); err != nil {
		t.Fatalf("start after stop: %v", err)
	}
}

func TestDueDateStoredInUTC(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "offset due", DueDate: "2024-01-10T09:00:00+02:00", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.DueDate == nil || *task.DueDate != "2024-01-10T07:00:00Z" {
		t.Fatalf("created due date %v", task.DueDate)
	}
	due := "2024-02-01T00:30:00-05:00"
	task, err = env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, DueDate: &due, ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	if task.DueDate == nil || *task.DueDate != "2024-02-01T05:30:00Z" {
		t.Fatalf("updated due date %v", task.DueDate)
	}
}

func TestEnsureActorUsesEngineClock(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		ProjectID: "proj-1", Title: "daily chore", DueDate: "2024-01-03T08:00:00Z", ActorID: "clockwork",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.Engine.CreateRecurrence(env.Ctx, engine.RecurrenceOptions{
		TaskID:  task.ID,
		Pattern: recur.Pattern{Kind: recur.KindDaily, Interval: 1},
		ActorID: "clockwork",
	}); err != nil {
		t.Fatal(err)
	}
	actor, err := env.Engine.Repo.GetActor(env.Ctx, "clockwork")
	if err != nil {
		t.Fatal(err)
	}
	if actor.CreatedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("actor created_at %s", actor.CreatedAt)
	}
}
