package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logs", "deliveries.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	ev1 := Event{Timestamp: time.Unix(1, 0).UTC(), PassID: "p1", User: "amy", Outcome: "delivered", Candy: "hello"}
	ev2 := Event{Timestamp: time.Unix(2, 0).UTC(), PassID: "p1", User: "bob", Outcome: "skipped", Reason: "not_due"}
	if err := rec.AppendEvent(ev1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.AppendEvent(ev2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	events, err := rec.LoadEvents()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2, got %d", len(events))
	}
	if events[0].User != "amy" || events[1].User != "bob" {
		t.Fatalf("order mismatch: %+v", events)
	}
	if events[0].Candy != "hello" || events[1].Reason != "not_due" {
		t.Fatalf("fields lost: %+v", events)
	}

	// ensure file exists and non-empty
	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileRecorder_SkipsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "j.jsonl")
	if err := os.WriteFile(p, []byte("not json\n\n{\"user\":\"amy\"}\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	events, err := rec.LoadEvents()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 || events[0].User != "amy" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
