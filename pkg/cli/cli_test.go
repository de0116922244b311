package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/casetime/pkg/model"
	"github.com/harrisonrobin/casetime/pkg/store"
	"github.com/harrisonrobin/casetime/pkg/timer"
	"github.com/harrisonrobin/casetime/pkg/tracker"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := confirm(strings.NewReader(tt.input), "? "); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPrintTasks(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	stop := start.Add(3661 * time.Second)
	views := []tracker.View{
		{
			Task:    &model.Task{CaseNumber: "CASE-100", Name: "Investigate outage", Start: &start, Stop: &stop, Total: 3661},
			State:   timer.STOPPED,
			Elapsed: 3661,
		},
		{
			Task:    &model.Task{CaseNumber: "CASE-5", Name: "Never started"},
			State:   timer.STOPPED,
			Elapsed: 0,
		},
	}

	var buf bytes.Buffer
	printTasks(&buf, views)
	out := buf.String()
	for _, want := range []string{"CASE-100", "Investigate outage", "2024-05-01 09:00:00", "2024-05-01 10:01:01", "1.02 hours", "1:01:01", "CASE-5", "0.00 hours"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return Execute(context.Background())
}

func TestLocalCommandsPersistSession(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := run(t, "--config", cfgPath, "add", "CASE-1", "Investigate", "outage"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := run(t, "--config", cfgPath, "add", "CASE-1", "Again"); !errors.Is(err, model.ErrDuplicateCaseNumber) {
		t.Errorf("Expected duplicate error, got %v", err)
	}
	if err := run(t, "--config", cfgPath, "start", "CASE-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := run(t, "--config", cfgPath, "start", "CASE-1"); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("Expected invalid state starting twice, got %v", err)
	}
	if err := run(t, "--config", cfgPath, "list"); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	st, err := store.Open(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	task, ok := st.Get("CASE-1")
	if !ok {
		t.Fatal("Expected CASE-1 in the saved session")
	}
	if !task.Running || task.Name != "Investigate outage" {
		t.Errorf("Unexpected saved task %+v", task)
	}

	if err := run(t, "--config", cfgPath, "stop", "CASE-1"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := run(t, "--config", cfgPath, "sync"); err == nil {
		t.Error("Expected sync to fail without a configured spreadsheet")
	}
}
