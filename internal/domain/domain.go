package domain

type Project struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Task struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	SeriesID    *string `json:"series_id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status" enum:"todo,in_progress,done,canceled"`
	Priority    *int    `json:"priority,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty" format:"date-time"`
	TagsJSON    *string `json:"tags_json,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

// Series is the first-class record behind a group of recurring task
// instances. PatternJSON holds the serialized recurrence pattern; the
// counters track how far generation has progressed.
type Series struct {
	ID                 string  `json:"id"`
	ProjectID          string  `json:"project_id"`
	BaseTaskID         string  `json:"base_task_id"`
	PatternJSON        string  `json:"pattern_json"`
	State              string  `json:"state" enum:"active,exhausted"`
	OccurrencesCreated int     `json:"occurrences_created"`
	NextDueDate        *string `json:"next_due_date,omitempty" format:"date-time"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
	UpdatedAt          string  `json:"updated_at" format:"date-time"`
}

type TimeEntry struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"task_id"`
	ActorID   string  `json:"actor_id"`
	StartedAt string  `json:"started_at" format:"date-time"`
	StoppedAt *string `json:"stopped_at,omitempty" format:"date-time"`
	Seconds   *int    `json:"seconds,omitempty"`
}

type Actor struct {
	ID        string `json:"id"`
	Plan      string `json:"plan" enum:"free,premium"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
