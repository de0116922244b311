package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/casetime/pkg/model"
)

func mustTask(t *testing.T, name, caseNumber string) *model.Task {
	t.Helper()
	task, err := model.NewTask(name, caseNumber)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	return task
}

func TestAddRejectsDuplicates(t *testing.T) {
	s := NewTaskStore()
	if err := s.Add(mustTask(t, "a", "CASE-1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := s.Add(mustTask(t, "b", "CASE-1"))
	if !errors.Is(err, model.ErrDuplicateCaseNumber) {
		t.Errorf("Expected ErrDuplicateCaseNumber, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 task, got %d", s.Len())
	}
}

func TestListPreservesOrderAndCopies(t *testing.T) {
	s := NewTaskStore()
	s.Add(mustTask(t, "b", "CASE-2"))
	s.Add(mustTask(t, "a", "CASE-1"))

	list := s.List()
	if list[0].CaseNumber != "CASE-2" || list[1].CaseNumber != "CASE-1" {
		t.Fatalf("Unexpected order: %s, %s", list[0].CaseNumber, list[1].CaseNumber)
	}
	list[0].Name = "mutated"
	if got, _ := s.Get("CASE-2"); got.Name != "b" {
		t.Errorf("List must return copies, stored name is now %q", got.Name)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	s := NewTaskStore()
	s.Add(mustTask(t, "a", "CASE-1"))

	boom := errors.New("boom")
	err := s.Update("CASE-1", func(task *model.Task) error {
		task.Total = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if got, _ := s.Get("CASE-1"); got.Total != 0 {
		t.Errorf("Failed update leaked: total %v", got.Total)
	}

	if err := s.Update(" CASE-1 ", func(task *model.Task) error { task.Total = 5; return nil }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got, _ := s.Get("CASE-1"); got.Total != 5 {
		t.Errorf("Expected total 5, got %v", got.Total)
	}

	if err := s.Update("CASE-9", func(*model.Task) error { return nil }); !errors.Is(err, model.ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestRemoveClearReplace(t *testing.T) {
	s := NewTaskStore()
	s.Add(mustTask(t, "a", "CASE-1"))
	s.Add(mustTask(t, "b", "CASE-2"))
	s.Add(mustTask(t, "c", "CASE-3"))

	if !s.Remove("CASE-2") || s.Remove("CASE-2") {
		t.Error("Expected Remove to succeed exactly once")
	}
	if got := s.CaseNumbers(); len(got) != 2 || got[0] != "CASE-1" || got[1] != "CASE-3" {
		t.Errorf("Unexpected case numbers %v", got)
	}

	s.Replace([]*model.Task{{CaseNumber: "X"}, {CaseNumber: "Y"}, {CaseNumber: "X", Name: "dup"}})
	if s.Len() != 2 {
		t.Errorf("Expected duplicates to be dropped on replace, got %d", s.Len())
	}
	if got, _ := s.Get("X"); got.Name != "" {
		t.Errorf("Expected the first X to be kept, got %q", got.Name)
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d", s.Len())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tasks.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Exists() {
		t.Fatal("Expected no snapshot yet")
	}

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	running := mustTask(t, "running", "CASE-1")
	running.Start = &start
	running.Previous = 60
	running.Total = 60
	running.Running = true
	s.Add(running)
	s.Add(mustTask(t, "idle", "CASE-2"))
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !reopened.Exists() || reopened.Len() != 2 {
		t.Fatalf("Expected 2 tasks after reopen, got %d", reopened.Len())
	}
	got, _ := reopened.Get("CASE-1")
	if !got.Running || got.Previous != 60 || !got.Start.Equal(start) {
		t.Errorf("Running session not restored: %+v", got)
	}
	if got := reopened.CaseNumbers(); got[0] != "CASE-1" || got[1] != "CASE-2" {
		t.Errorf("Order not restored: %v", got)
	}
}
