package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var logTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func writeEvent(t *testing.T, log EventLog, event Event) {
	t.Helper()
	if event.Level == "" {
		event.Level = "INFO"
	}
	if err := log.Write(event); err != nil {
		t.Fatalf("writing event: %v", err)
	}
}

func TestEventLog_WriteRead(t *testing.T) {
	log, _ := newTestLog(t)

	writeEvent(t, log, Event{ID: "1", Time: logTime, Type: "task.created", PlanID: "p", Message: "task auth:login created"})
	writeEvent(t, log, Event{ID: "2", Time: logTime.Add(time.Minute), Type: "task.status_changed", PlanID: "p",
		Data: map[string]any{"task_id": "auth:login", "from": "TODO", "to": "IN_PROGRESS"}})

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Data["to"] != "IN_PROGRESS" {
		t.Fatalf("data not round-tripped: %v", events[1].Data)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := newTestLog(t)

	writeEvent(t, log, Event{ID: "1", Time: logTime, Type: "task.created", PlanID: "p1"})
	writeEvent(t, log, Event{ID: "2", Time: logTime.Add(time.Hour), Type: "task.created", PlanID: "p2"})
	writeEvent(t, log, Event{ID: "3", Time: logTime.Add(2 * time.Hour), Type: "story.created", PlanID: "p1", Level: "WARN"})

	byType, err := log.Read(EventFilter{Type: "task.created"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("type filter: expected 2, got %d", len(byType))
	}

	byPlan, err := log.Read(EventFilter{PlanID: "p1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(byPlan) != 2 {
		t.Fatalf("plan filter: expected 2, got %d", len(byPlan))
	}

	since := logTime.Add(30 * time.Minute)
	until := logTime.Add(90 * time.Minute)
	byWindow, err := log.Read(EventFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(byWindow) != 1 || byWindow[0].ID != "2" {
		t.Fatalf("time window filter: %v", byWindow)
	}

	byLevel, err := log.Read(EventFilter{Level: "WARN"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(byLevel) != 1 || byLevel[0].ID != "3" {
		t.Fatalf("level filter: %v", byLevel)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)

	writeEvent(t, log, Event{ID: "1", Time: logTime, Type: "task.created"})
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	if _, err := f.WriteString("{not json\n\n"); err != nil {
		t.Fatalf("corrupting log: %v", err)
	}
	_ = f.Close()
	writeEvent(t, log, Event{ID: "2", Time: logTime, Type: "task.created"})

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events around the corrupt line, got %d", len(events))
	}
}

func TestEventLog_ReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer func() { _ = log.Close() }()
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing file: %v", err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if events != nil {
		t.Fatalf("expected nil, got %v", events)
	}
}

func TestRecorder_WritesEvents(t *testing.T) {
	log, _ := newTestLog(t)
	rec := NewRecorder(log)
	rec.now = func() time.Time { return logTime }

	rec.LogEvent("p", "task.created", "task auth:login created", map[string]any{"task_id": "auth:login"})

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID == "" || got.Level != "INFO" || got.PlanID != "p" || !got.Time.Equal(logTime) {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestRecorder_NilSafe(t *testing.T) {
	var rec *Recorder
	rec.LogEvent("p", "task.created", "must not panic", nil)

	NewRecorder(nil).LogEvent("p", "task.created", "must not panic", nil)
}
