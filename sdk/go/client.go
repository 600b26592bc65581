package taskcyclesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Taskcycle HTTP API client.
type Client struct {
	BaseURL     string
	ProjectID   string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, projectID string) *Client {
	return &Client{
		BaseURL:   baseURL,
		ProjectID: projectID,
		Timeout:   10 * time.Second,
	}
}

// Task represents the API task model (partial).
type Task struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	SeriesID  *string `json:"series_id,omitempty"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	DueDate   *string `json:"due_date,omitempty"`
}

// Pattern describes how a series repeats.
type Pattern struct {
	Kind           string `json:"kind"`
	Interval       int    `json:"interval,omitempty"`
	Weekdays       []int  `json:"weekdays,omitempty"`
	MonthDay       int    `json:"month_day,omitempty"`
	MonthOfYear    int    `json:"month_of_year,omitempty"`
	Expr           string `json:"expr,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	MaxOccurrences int    `json:"max_occurrences,omitempty"`
}

// Series represents a recurring series.
type Series struct {
	ID                 string  `json:"id"`
	ProjectID          string  `json:"project_id"`
	BaseTaskID         string  `json:"base_task_id"`
	Pattern            Pattern `json:"pattern"`
	State              string  `json:"state"`
	OccurrencesCreated int     `json:"occurrences_created"`
	NextDueDate        *string `json:"next_due_date,omitempty"`
}

// Recurrence is the result of attaching a pattern to a task.
type Recurrence struct {
	Series    Series `json:"series"`
	Instances []Task `json:"instances"`
	Count     int    `json:"count"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsUpgradeRequired reports whether the server rejected the request
// because the actor's plan does not cover the pattern.
func (e *APIError) IsUpgradeRequired() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

// PaginatedTasks wraps task listings with cursors.
type PaginatedTasks struct {
	Items      []Task `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, title, dueDate string) (Task, error) {
	body := map[string]any{"title": title}
	if dueDate != "" {
		body["due_date"] = dueDate
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, c.projectPath("tasks"), body, &resp)
	return resp, err
}

// CompleteTask marks a task done.
func (c *Client) CompleteTask(ctx context.Context, taskID string) (Task, error) {
	var resp Task
	endpoint := c.projectPath(fmt.Sprintf("tasks/%s/complete", url.PathEscape(taskID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// TasksPage returns a paginated task listing.
func (c *Client) TasksPage(ctx context.Context, limit int, cursor string) (PaginatedTasks, error) {
	endpoint := withQuery(c.projectPath("tasks"), limit, cursor)
	var resp PaginatedTasks
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateRecurrence attaches a recurrence pattern to a task.
func (c *Client) CreateRecurrence(ctx context.Context, taskID string, p Pattern) (Recurrence, error) {
	var resp Recurrence
	endpoint := c.projectPath(fmt.Sprintf("tasks/%s/recurrence", url.PathEscape(taskID)))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"pattern": p}, &resp)
	return resp, err
}

// GetSeries fetches a series by id.
func (c *Client) GetSeries(ctx context.Context, id string) (Series, error) {
	var resp Series
	endpoint := c.projectPath(fmt.Sprintf("series/%s", url.PathEscape(id)))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateSeries swaps the pattern on a series.
func (c *Client) UpdateSeries(ctx context.Context, id string, p Pattern) (Series, error) {
	var resp Series
	endpoint := c.projectPath(fmt.Sprintf("series/%s", url.PathEscape(id)))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"pattern": p}, &resp)
	return resp, err
}

// CancelSeries cancels a series and its pending instances.
func (c *Client) CancelSeries(ctx context.Context, id string) (Series, error) {
	var resp Series
	endpoint := c.projectPath(fmt.Sprintf("series/%s", url.PathEscape(id)))
	err := c.do(ctx, http.MethodDelete, endpoint, nil, &resp)
	return resp, err
}

// ListSeries returns the project's series.
func (c *Client) ListSeries(ctx context.Context, state string) ([]Series, error) {
	endpoint := c.projectPath("series")
	if state != "" {
		endpoint = fmt.Sprintf("%s?state=%s", endpoint, url.QueryEscape(state))
	}
	var resp struct {
		Items []Series `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	endpoint := withQuery(c.projectPath("events"), limit, cursor)
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func withQuery(endpoint string, limit int, cursor string) string {
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	return endpoint
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) projectPath(p string) string {
	project := url.PathEscape(c.ProjectID)
	return fmt.Sprintf("v0/projects/%s/%s", project, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
