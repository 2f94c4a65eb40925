package chatlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Append(ctx, entities.ChatRecord{
		Username: "alice",
		Query:    "食堂几点开门",
		Response: "早上七点。",
		Topic:    "dining",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero row id")
	}

	records, err := s.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Query != "食堂几点开门" || records[0].Response != "早上七点。" {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if records[0].Topic != "dining" {
		t.Errorf("unexpected topic: %q", records[0].Topic)
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		if _, err := s.Append(ctx, entities.ChatRecord{Username: "bob", Query: q, Response: "ok"}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.Recent(ctx, "bob", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Query != "third" || records[1].Query != "second" {
		t.Errorf("expected newest first, got %q then %q", records[0].Query, records[1].Query)
	}
}

func TestStore_RecentFiltersByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Append(ctx, entities.ChatRecord{Username: "alice", Query: "q", Response: "r"})
	s.Append(ctx, entities.ChatRecord{Username: "bob", Query: "q", Response: "r"})

	records, err := s.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Username != "alice" {
		t.Errorf("expected only alice's records, got %+v", records)
	}
}

func TestStore_RecentEmptyTopic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Append(ctx, entities.ChatRecord{Username: "alice", Query: "q", Response: "r"})

	records, err := s.Recent(ctx, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Topic != "" {
		t.Errorf("expected empty topic, got %q", records[0].Topic)
	}
}
