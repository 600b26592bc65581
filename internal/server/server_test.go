package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"taskcycle/internal/config"
	"taskcycle/internal/db"
	"taskcycle/internal/engine"
	"taskcycle/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("taskcycle")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	if _, err := e.InitProject(context.Background(), cfg.Project.ID, "", "tester"); err != nil {
		t.Fatalf("init project: %v", err)
	}
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func actorHeaders() map[string]string {
	return map[string]string{"X-Actor-Id": "tester"}
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func createTask(t *testing.T, srv *testServer, title, due string) TaskResponse {
	t.Helper()
	body := map[string]any{"title": title}
	if due != "" {
		body["due_date"] = due
	}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/projects/taskcycle/tasks", body, actorHeaders())
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}
	var created TaskResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	return created
}

func upgradeActor(t *testing.T, srv *testServer) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v0/actors/tester/plan", map[string]any{
		"plan": "premium",
	}, actorHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set plan status %d: %s", res.StatusCode, string(data))
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}

func TestMissingCredentialsRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/projects", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "unauthorized" {
		t.Fatalf("code = %q, want unauthorized", env.Error.Code)
	}
}

func TestRecurrenceEndpointCreatesSeries(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	upgradeActor(t, srv)
	task := createTask(t, srv, "Weekly report", "2026-01-07T09:00:00Z")

	res, data := doJSON(t, srv.Client(), http.MethodPost,
		srv.URL+"/v0/projects/taskcycle/tasks/"+task.ID+"/recurrence", map[string]any{
			"pattern": map[string]any{"kind": "weekly", "interval": 1},
		}, actorHeaders())
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("recurrence status %d: %s", res.StatusCode, string(data))
	}
	var out RecurrenceResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal recurrence: %v", err)
	}
	if out.Series.State != "active" {
		t.Fatalf("series state = %q, want active", out.Series.State)
	}
	if out.Count != 3 || len(out.Instances) != 3 {
		t.Fatalf("count = %d, instances = %d, want 3", out.Count, len(out.Instances))
	}
	for _, inst := range out.Instances {
		if inst.SeriesID == nil || *inst.SeriesID != out.Series.ID {
			t.Fatalf("instance %s not linked to series", inst.ID)
		}
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet,
		srv.URL+"/v0/projects/taskcycle/series/"+out.Series.ID, nil, actorHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get series status %d: %s", res.StatusCode, string(data))
	}
}

func TestRecurrenceRequiresPremium(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	task := createTask(t, srv, "Weekly sync", "2026-01-07T09:00:00Z")

	res, data := doJSON(t, srv.Client(), http.MethodPost,
		srv.URL+"/v0/projects/taskcycle/tasks/"+task.ID+"/recurrence", map[string]any{
			"pattern": map[string]any{"kind": "weekly", "interval": 1},
		}, actorHeaders())
	if res.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status %d, want 402: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "payment_required" {
		t.Fatalf("code = %q, want payment_required", env.Error.Code)
	}
	if env.Error.Details["plan"] != "free" {
		t.Fatalf("details plan = %v, want free", env.Error.Details["plan"])
	}
}

func TestRecurrenceRejectsInvalidPattern(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	upgradeActor(t, srv)
	task := createTask(t, srv, "Broken schedule", "")

	res, data := doJSON(t, srv.Client(), http.MethodPost,
		srv.URL+"/v0/projects/taskcycle/tasks/"+task.ID+"/recurrence", map[string]any{
			"pattern": map[string]any{"kind": "weekly", "interval": 0, "weekdays": []int{9}},
		}, actorHeaders())
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if env.Error.Code != "validation_failed" {
		t.Fatalf("code = %q, want validation_failed", env.Error.Code)
	}
	problems, ok := env.Error.Details["problems"].([]any)
	if !ok || len(problems) < 2 {
		t.Fatalf("expected at least two problems, got %v", env.Error.Details["problems"])
	}
}

func TestCancelSeriesEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	upgradeActor(t, srv)
	task := createTask(t, srv, "Daily standup", "2026-01-05T10:00:00Z")

	res, data := doJSON(t, srv.Client(), http.MethodPost,
		srv.URL+"/v0/projects/taskcycle/tasks/"+task.ID+"/recurrence", map[string]any{
			"pattern": map[string]any{"kind": "daily", "interval": 1},
		}, actorHeaders())
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("recurrence status %d: %s", res.StatusCode, string(data))
	}
	var out RecurrenceResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal recurrence: %v", err)
	}

	res, data = doJSON(t, srv.Client(), http.MethodDelete,
		srv.URL+"/v0/projects/taskcycle/series/"+out.Series.ID, nil, actorHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel status %d: %s", res.StatusCode, string(data))
	}
	var canceled SeriesResponse
	if err := json.Unmarshal(data, &canceled); err != nil {
		t.Fatalf("unmarshal series: %v", err)
	}
	if canceled.State != "exhausted" {
		t.Fatalf("state = %q, want exhausted", canceled.State)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet,
		srv.URL+"/v0/projects/taskcycle/tasks?series_id="+out.Series.ID+"&status=canceled", nil, actorHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list tasks status %d: %s", res.StatusCode, string(data))
	}
	var page paginatedTasks
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatalf("unmarshal tasks: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatalf("expected canceled instances, got none")
	}
}

func TestEventsEndpointListsSeriesEvents(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	upgradeActor(t, srv)
	task := createTask(t, srv, "Monthly invoice", "2026-01-31T12:00:00Z")

	res, data := doJSON(t, srv.Client(), http.MethodPost,
		srv.URL+"/v0/projects/taskcycle/tasks/"+task.ID+"/recurrence", map[string]any{
			"pattern": map[string]any{"kind": "monthly", "interval": 1},
		}, actorHeaders())
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("recurrence status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet,
		srv.URL+"/v0/projects/taskcycle/events?type=series.created", nil, actorHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %s", res.StatusCode, string(data))
	}
	var out struct {
		Items []EventResponse `json:"items"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("series.created events = %d, want 1", len(out.Items))
	}
}
