package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("  Investigate outage ", " CASE-100 ")
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.CaseNumber != "CASE-100" || task.Name != "Investigate outage" {
		t.Errorf("Expected trimmed fields, got %q / %q", task.CaseNumber, task.Name)
	}
	if task.Running || task.HasStart() || task.HasStop() || task.Total != 0 {
		t.Errorf("Expected a fresh stopped task, got %+v", task)
	}

	if _, err := NewTask("name", "  "); err == nil {
		t.Error("Expected error for empty case number")
	}
	if _, err := NewTask("", "CASE-1"); err == nil {
		t.Error("Expected error for empty task name")
	}
}

func TestCloneIsDeep(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)
	task := &Task{CaseNumber: "CASE-1", Start: &start}
	c := task.Clone()
	*c.Start = c.Start.Add(time.Hour)
	if !task.Start.Equal(start) {
		t.Errorf("Clone shares its start time with the original")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	dup := fmt.Errorf("add: %w", &DuplicateCaseNumberError{CaseNumber: "CASE-1"})
	if !errors.Is(dup, ErrDuplicateCaseNumber) {
		t.Error("Expected DuplicateCaseNumberError to match ErrDuplicateCaseNumber")
	}

	state := &InvalidStateError{CaseNumber: "CASE-1", Op: "delete", State: "running"}
	if !errors.Is(state, ErrInvalidState) {
		t.Error("Expected InvalidStateError to match ErrInvalidState")
	}
	if state.Error() != "cannot delete task 'CASE-1' while it is running" {
		t.Errorf("Unexpected message: %s", state.Error())
	}

	cause := errors.New("quota exceeded")
	remote := &RemoteStoreError{Op: "append", Err: cause}
	if !errors.Is(remote, ErrRemoteStore) || !errors.Is(remote, cause) {
		t.Error("Expected RemoteStoreError to match both ErrRemoteStore and its cause")
	}
}
