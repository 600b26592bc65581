package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types appended by the engine. Webhook filters match against
// these, including with trailing wildcards ("series.*").
const (
	TypeProjectInit       = "project.init"
	TypeTaskCreated       = "task.created"
	TypeTaskUpdated       = "task.updated"
	TypeTaskCompleted     = "task.completed"
	TypeSeriesCreated     = "series.created"
	TypeSeriesUpdated     = "series.updated"
	TypeSeriesReplenished = "series.replenished"
	TypeSeriesExhausted   = "series.exhausted"
	TypeSeriesCanceled    = "series.canceled"
	TypeTimerStarted      = "timer.started"
	TypeTimerStopped      = "timer.stopped"
)

// Writer appends to the append-only event log. Events are written inside
// the caller's transaction so they commit or roll back with the change
// they describe.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		ts, evtType, nullable(projectID), entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
