package server

import (
	"encoding/json"

	"taskcycle/internal/config"
	"taskcycle/internal/domain"
	"taskcycle/internal/recur"
)

type CreateProjectRequest struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
}

type ProjectResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Status:      p.Status,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	res := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		res = append(res, projectResponse(p))
	}
	return res
}

type ProjectConfigResponse struct {
	Project struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	} `json:"project"`
	Recurrence struct {
		InitialBatch int `json:"initial_batch"`
		LowWater     int `json:"low_water"`
		TopupBatch   int `json:"topup_batch"`
	} `json:"recurrence"`
	Plans    map[string]planResponse `json:"plans,omitempty"`
	Webhooks []webhookConfigResponse `json:"webhooks,omitempty"`
}

type planResponse struct {
	Description        string `json:"description"`
	AdvancedRecurrence bool   `json:"advanced_recurrence"`
	MaxActiveSeries    int    `json:"max_active_series,omitempty"`
}

// webhookConfigResponse omits the signing secret on purpose.
type webhookConfigResponse struct {
	URL            string   `json:"url"`
	Events         []string `json:"events,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

func configResponse(cfg *config.Config) ProjectConfigResponse {
	var res ProjectConfigResponse
	res.Project.ID = cfg.Project.ID
	res.Project.Kind = cfg.Project.Kind
	res.Recurrence.InitialBatch = cfg.Recurrence.InitialBatch
	res.Recurrence.LowWater = cfg.Recurrence.LowWater
	res.Recurrence.TopupBatch = cfg.Recurrence.TopupBatch
	if len(cfg.Plans) > 0 {
		res.Plans = map[string]planResponse{}
		for name, p := range cfg.Plans {
			res.Plans[name] = planResponse{
				Description:        p.Description,
				AdvancedRecurrence: p.AdvancedRecurrence,
				MaxActiveSeries:    p.MaxActiveSeries,
			}
		}
	}
	for _, wh := range cfg.Webhooks {
		res.Webhooks = append(res.Webhooks, webhookConfigResponse{
			URL:            wh.URL,
			Events:         wh.Events,
			TimeoutSeconds: wh.TimeoutSeconds,
		})
	}
	return res
}

type ImportConfigRequest struct {
	YAML string `json:"yaml"`
}

type CreateTaskRequest struct {
	ID          *string  `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	AssigneeID  *string  `json:"assignee_id,omitempty"`
	DueDate     *string  `json:"due_date,omitempty" format:"date-time"`
	Tags        []string `json:"tags,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty" enum:"todo,in_progress,done,canceled"`
	Priority    *int     `json:"priority,omitempty"`
	AssigneeID  *string  `json:"assignee_id,omitempty"`
	DueDate     *string  `json:"due_date,omitempty" format:"date-time"`
	Tags        []string `json:"tags,omitempty"`
}

type TaskResponse struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	SeriesID    *string  `json:"series_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    *int     `json:"priority,omitempty"`
	AssigneeID  *string  `json:"assignee_id,omitempty"`
	DueDate     *string  `json:"due_date,omitempty" format:"date-time"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
	UpdatedAt   string   `json:"updated_at" format:"date-time"`
	CompletedAt *string  `json:"completed_at,omitempty" format:"date-time"`
}

func taskResponse(t domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		SeriesID:    t.SeriesID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		AssigneeID:  t.AssigneeID,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.TagsJSON != nil && *t.TagsJSON != "" {
		_ = json.Unmarshal([]byte(*t.TagsJSON), &resp.Tags)
	}
	return resp
}

func mapTasks(items []domain.Task) []TaskResponse {
	res := make([]TaskResponse, 0, len(items))
	for _, t := range items {
		res = append(res, taskResponse(t))
	}
	return res
}

type paginatedTasks struct {
	Items      []TaskResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type CreateRecurrenceRequest struct {
	Pattern recur.Pattern `json:"pattern"`
}

// UpdateSeriesRequest swaps the pattern, edits upcoming instances, or both.
type UpdateSeriesRequest struct {
	Pattern     *recur.Pattern `json:"pattern,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Priority    *int           `json:"priority,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

type SeriesResponse struct {
	ID                 string        `json:"id"`
	ProjectID          string        `json:"project_id"`
	BaseTaskID         string        `json:"base_task_id"`
	Pattern            recur.Pattern `json:"pattern"`
	State              string        `json:"state"`
	OccurrencesCreated int           `json:"occurrences_created"`
	NextDueDate        *string       `json:"next_due_date,omitempty" format:"date-time"`
	CreatedAt          string        `json:"created_at" format:"date-time"`
	UpdatedAt          string        `json:"updated_at" format:"date-time"`
}

func seriesResponse(s domain.Series) SeriesResponse {
	resp := SeriesResponse{
		ID:                 s.ID,
		ProjectID:          s.ProjectID,
		BaseTaskID:         s.BaseTaskID,
		State:              s.State,
		OccurrencesCreated: s.OccurrencesCreated,
		NextDueDate:        s.NextDueDate,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	_ = json.Unmarshal([]byte(s.PatternJSON), &resp.Pattern)
	return resp
}

type RecurrenceResponse struct {
	Series    SeriesResponse `json:"series"`
	Instances []TaskResponse `json:"instances"`
	Count     int            `json:"count"`
}

type TimeEntryResponse struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"task_id"`
	ActorID   string  `json:"actor_id"`
	StartedAt string  `json:"started_at" format:"date-time"`
	StoppedAt *string `json:"stopped_at,omitempty" format:"date-time"`
	Seconds   *int    `json:"seconds,omitempty"`
}

func timeEntryResponse(te domain.TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:        te.ID,
		TaskID:    te.TaskID,
		ActorID:   te.ActorID,
		StartedAt: te.StartedAt,
		StoppedAt: te.StoppedAt,
		Seconds:   te.Seconds,
	}
}

type ActorResponse struct {
	ID        string `json:"id"`
	Plan      string `json:"plan"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type SetPlanRequest struct {
	Plan string `json:"plan" enum:"free,premium"`
}

type EventResponse struct {
	ID         int64           `json:"id"`
	TS         string          `json:"ts" format:"date-time"`
	Type       string          `json:"type"`
	ProjectID  string          `json:"project_id,omitempty"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	Payload    json.RawMessage `json:"payload"`
}

func eventResponse(e domain.Event) EventResponse {
	payload := json.RawMessage("{}")
	if e.Payload != "" && json.Valid([]byte(e.Payload)) {
		payload = json.RawMessage(e.Payload)
	}
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    payload,
	}
}
