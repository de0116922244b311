// Package store holds the in-memory task list. It is owned by the caller and
// passed to the tracker explicitly. The JSON snapshot only carries the session
// (running timers included) between command invocations; the sheet remains the
// system of record.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrisonrobin/casetime/pkg/model"
)

type snapshot struct {
	Tasks []*model.Task `json:"tasks"`
}

// TaskStore is an ordered set of tasks keyed by case number.
type TaskStore struct {
	Path string

	mu    sync.RWMutex
	tasks map[string]*model.Task
	order []string
	dirty bool
}

// NewTaskStore creates an empty, unsaved store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*model.Task)}
}

// Open loads the snapshot at path if it exists.
func Open(path string) (*TaskStore, error) {
	s := NewTaskStore()
	s.Path = path
	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Exists reports whether a snapshot file is present on disk.
func (s *TaskStore) Exists() bool {
	if s.Path == "" {
		return false
	}
	_, err := os.Stat(s.Path)
	return err == nil
}

func (s *TaskStore) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(snap.Tasks)
	s.dirty = false
	return nil
}

// Save writes the snapshot if anything changed since the last load or save.
func (s *TaskStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.Path == "" {
		return nil
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap := snapshot{Tasks: make([]*model.Task, 0, len(s.order))}
	for _, key := range s.order {
		snap.Tasks = append(snap.Tasks, s.tasks[key])
	}
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Add inserts a task, rejecting a case number that is already present.
func (s *TaskStore) Add(task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.NormalizeCaseNumber(task.CaseNumber)
	if _, exists := s.tasks[key]; exists {
		return &model.DuplicateCaseNumberError{CaseNumber: key}
	}
	s.tasks[key] = task
	s.order = append(s.order, key)
	s.dirty = true
	return nil
}

// Get returns a copy of the task with the given case number.
func (s *TaskStore) Get(caseNumber string) (*model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[model.NormalizeCaseNumber(caseNumber)]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// Update applies fn to the stored task under the store lock. The change is
// kept only if fn succeeds.
func (s *TaskStore) Update(caseNumber string, fn func(*model.Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.NormalizeCaseNumber(caseNumber)
	task, ok := s.tasks[key]
	if !ok {
		return model.ErrTaskNotFound
	}
	working := task.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.tasks[key] = working
	s.dirty = true
	return nil
}

// Remove deletes a task. It reports whether the task was present.
func (s *TaskStore) Remove(caseNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.NormalizeCaseNumber(caseNumber)
	if _, exists := s.tasks[key]; !exists {
		return false
	}
	delete(s.tasks, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.dirty = true
	return true
}

// Clear removes every task.
func (s *TaskStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return
	}
	s.tasks = make(map[string]*model.Task)
	s.order = nil
	s.dirty = true
}

// Replace swaps the whole list. Later duplicates of a case number are dropped.
func (s *TaskStore) Replace(tasks []*model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(tasks)
	s.dirty = true
}

func (s *TaskStore) replaceLocked(tasks []*model.Task) {
	s.tasks = make(map[string]*model.Task, len(tasks))
	s.order = make([]string, 0, len(tasks))
	for _, task := range tasks {
		key := model.NormalizeCaseNumber(task.CaseNumber)
		if _, exists := s.tasks[key]; exists {
			continue
		}
		s.tasks[key] = task
		s.order = append(s.order, key)
	}
}

// List returns copies of all tasks in insertion order.
func (s *TaskStore) List() []*model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Task, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.tasks[key].Clone())
	}
	return out
}

// CaseNumbers returns the case numbers in insertion order.
func (s *TaskStore) CaseNumbers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
