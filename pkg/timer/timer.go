// Package timer implements the start/stop state machine of a task and its
// elapsed-time accounting. There is no background ticker: the live total of a
// running task is computed on demand by Observe.
package timer

import (
	"time"

	"github.com/harrisonrobin/casetime/pkg/model"
)

type State string

const (
	STOPPED State = "stopped"
	RUNNING State = "running"
)

// StateOf returns the current state of a task.
func StateOf(task *model.Task) State {
	if task.Running {
		return RUNNING
	}
	return STOPPED
}

// Start begins a new session. The accumulated total becomes the base for the session.
func Start(task *model.Task, now time.Time) error {
	if task.Running {
		return &model.InvalidStateError{CaseNumber: task.CaseNumber, Op: "start", State: string(RUNNING)}
	}
	task.Previous = task.Total
	start := now
	task.Start = &start
	task.Running = true
	return nil
}

// Stop closes the current session and freezes the total.
func Stop(task *model.Task, now time.Time) error {
	if !task.Running {
		return &model.InvalidStateError{CaseNumber: task.CaseNumber, Op: "stop", State: string(STOPPED)}
	}
	stop := now
	task.Stop = &stop
	task.Total = task.Previous + sessionSeconds(task, now)
	task.Running = false
	return nil
}

// Observe returns the total time of a task as of now without mutating it.
func Observe(task *model.Task, now time.Time) float64 {
	if !task.Running {
		return task.Total
	}
	return task.Previous + sessionSeconds(task, now)
}

// CanDelete fails for running tasks; deletion is only permitted once the timer is stopped.
func CanDelete(task *model.Task) error {
	if task.Running {
		return &model.InvalidStateError{CaseNumber: task.CaseNumber, Op: "delete", State: string(RUNNING)}
	}
	return nil
}

func sessionSeconds(task *model.Task, now time.Time) float64 {
	if !task.HasStart() {
		return 0
	}
	elapsed := now.Sub(*task.Start).Seconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
