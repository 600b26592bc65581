package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskcycle/internal/config"
	"taskcycle/internal/domain"
	"taskcycle/internal/events"
	"taskcycle/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// InitProject initializes a new project with migrations already run.
func (e Engine) InitProject(ctx context.Context, projectID, description, actorID string) (domain.Project, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p := domain.Project{
		ID:          projectID,
		Status:      "active",
		Description: description,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id,status,description,created_at) VALUES (?,?,?,?)`,
		p.ID, p.Status, p.Description, p.CreatedAt); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Repo.UpsertProjectConfigTx(ctx, tx, p.ID, config.Default(p.ID)); err != nil {
		return domain.Project{}, fmt.Errorf("insert project config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.TypeProjectInit, p.ID, "project", p.ID, actorID, events.EventPayload{"status": p.Status}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Priority    int
	AssigneeID  string
	DueDate     string
	TagsJSON    string
	ActorID     string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, errors.New("title is required")
	}
	if opts.ProjectID == "" {
		return domain.Task{}, errors.New("project is required")
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.Task{}, err
	}
	if opts.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, opts.DueDate)
		if err != nil {
			return domain.Task{}, fmt.Errorf("due date: %w", err)
		}
		// Stored in UTC so string comparisons against other dates hold.
		opts.DueDate = parsed.UTC().Format(time.RFC3339)
	}
	id := opts.ID
	now := e.now().UTC().Format(time.RFC3339)
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.ProjectID+"|"+opts.Title+"|"+now)).String()
	}
	t := domain.Task{
		ID:          id,
		ProjectID:   opts.ProjectID,
		Title:       opts.Title,
		Description: opts.Description,
		Status:      "todo",
		Priority:    optionalInt(opts.Priority),
		AssigneeID:  optionalString(opts.AssigneeID),
		DueDate:     optionalString(opts.DueDate),
		TagsJSON:    optionalString(opts.TagsJSON),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeTaskCreated, t.ProjectID, "task", t.ID, opts.ActorID, events.EventPayload{"title": t.Title, "status": t.Status}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// TaskUpdateOptions encapsulates allowed updates.
type TaskUpdateOptions struct {
	ID          string
	Status      string
	Title       string
	Description *string
	Assign      *string
	Priority    *int
	DueDate     *string
	TagsJSON    *string
	ActorID     string
	Force       bool
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, opts.ID)
	if err != nil {
		return t, err
	}
	original := t
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()

	if opts.Title != "" {
		t.Title = opts.Title
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	if opts.Assign != nil {
		if *opts.Assign == "" {
			t.AssigneeID = nil
		} else {
			t.AssigneeID = opts.Assign
		}
	}
	if opts.Priority != nil {
		t.Priority = opts.Priority
	}
	if opts.DueDate != nil {
		if *opts.DueDate == "" {
			t.DueDate = nil
		} else {
			parsed, err := time.Parse(time.RFC3339, *opts.DueDate)
			if err != nil {
				return t, fmt.Errorf("due date: %w", err)
			}
			normalized := parsed.UTC().Format(time.RFC3339)
			t.DueDate = &normalized
		}
	}
	if opts.TagsJSON != nil {
		t.TagsJSON = opts.TagsJSON
	}

	completed := false
	if opts.Status != "" && opts.Status != t.Status {
		if err := ensureTaskTransition(t.Status, opts.Status, opts.Force); err != nil {
			return t, err
		}
		t.Status = opts.Status
		if opts.Status == "done" {
			now := e.now().UTC().Format(time.RFC3339)
			t.CompletedAt = &now
			completed = true
		}
	}
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return t, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeTaskUpdated, t.ProjectID, "task", t.ID, opts.ActorID, events.EventPayload{
		"from_status": original.Status,
		"to_status":   t.Status,
	}); err != nil {
		return t, err
	}
	if completed {
		if err := e.Events.Append(ctx, tx, events.TypeTaskCompleted, t.ProjectID, "task", t.ID, opts.ActorID, events.EventPayload{"series_id": deref(t.SeriesID)}); err != nil {
			return t, err
		}
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	if completed && t.SeriesID != nil {
		// Replenishment runs after the completion commits. A failure here
		// leaves the series short, which the sweep catches later.
		if err := e.ReplenishSeries(ctx, *t.SeriesID, opts.ActorID); err != nil {
			return t, fmt.Errorf("replenish series %s: %w", *t.SeriesID, err)
		}
	}
	return t, nil
}

// CompleteTask marks a task done and tops up its series when it belongs
// to one.
func (e Engine) CompleteTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	return e.UpdateTask(ctx, TaskUpdateOptions{ID: taskID, Status: "done", ActorID: actorID})
}

func ensureTaskTransition(oldStatus, newStatus string, force bool) error {
	if force {
		return nil
	}
	switch oldStatus {
	case "todo":
		if newStatus == "in_progress" || newStatus == "done" || newStatus == "canceled" {
			return nil
		}
	case "in_progress":
		if newStatus == "todo" || newStatus == "done" || newStatus == "canceled" {
			return nil
		}
	}
	return fmt.Errorf("invalid task status transition %s -> %s", oldStatus, newStatus)
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
