package model

import (
	"fmt"
	"strings"
	"time"
)

// Task is one tracked unit of work, keyed by its case number.
type Task struct {
	CaseNumber string `json:"case_number"`
	Name       string `json:"task_name"`

	// Timer state. Start and Stop describe the most recent session only.
	Start *time.Time `json:"start_time,omitempty"`
	Stop  *time.Time `json:"stop_time,omitempty"`

	// Accounting, in seconds.
	Total    float64 `json:"total_time"`
	Previous float64 `json:"previous_time"`
	Running  bool    `json:"is_running"`
}

// NewTask validates the user supplied fields and returns a stopped task with no time on it.
func NewTask(name, caseNumber string) (*Task, error) {
	name = strings.TrimSpace(name)
	caseNumber = NormalizeCaseNumber(caseNumber)
	if caseNumber == "" {
		return nil, fmt.Errorf("case number is required")
	}
	if name == "" {
		return nil, fmt.Errorf("task name is required")
	}
	return &Task{CaseNumber: caseNumber, Name: name}, nil
}

// NormalizeCaseNumber is the join key used everywhere case numbers are compared.
func NormalizeCaseNumber(caseNumber string) string {
	return strings.TrimSpace(caseNumber)
}

// HasStart reports whether the task has ever been started.
func (t *Task) HasStart() bool {
	return t.Start != nil && !t.Start.IsZero()
}

// HasStop reports whether the task has a recorded stop.
func (t *Task) HasStop() bool {
	return t.Stop != nil && !t.Stop.IsZero()
}

// Clone returns a deep copy, so callers can hand tasks out without sharing timestamps.
func (t *Task) Clone() *Task {
	c := *t
	if t.Start != nil {
		s := *t.Start
		c.Start = &s
	}
	if t.Stop != nil {
		s := *t.Stop
		c.Stop = &s
	}
	return &c
}
