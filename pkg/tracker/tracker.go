// Package tracker exposes the operations the command line calls: task
// creation, timer transitions, deletion, and synchronization with the sheet.
// Every interaction with the sheet is converted into a Result at this
// boundary; nothing here exits the process or retries.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/casetime/pkg/model"
	"github.com/harrisonrobin/casetime/pkg/reconcile"
	"github.com/harrisonrobin/casetime/pkg/sheets"
	"github.com/harrisonrobin/casetime/pkg/store"
	"github.com/harrisonrobin/casetime/pkg/timer"
)

// Target identifies the sheet (tab) inside a spreadsheet that holds the task rows.
type Target struct {
	SpreadsheetID string
	SheetName     string
}

// Result is the outcome of an operation the user may want to retry.
type Result struct {
	OK      bool
	Message string
	Err     error
}

func success(format string, args ...interface{}) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

func failure(err error, format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

type Tracker struct {
	store   *store.TaskStore
	gateway sheets.Gateway
	target  Target
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Tracker)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithTimeout bounds every remote round trip.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.timeout = d }
}

// New creates a tracker over the given store. gateway may be nil, in which
// case only the local operations succeed.
func New(st *store.TaskStore, gateway sheets.Gateway, target Target, opts ...Option) *Tracker {
	t := &Tracker{
		store:   st,
		gateway: gateway,
		target:  target,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddTask creates a stopped task. Case numbers must be unique.
func (t *Tracker) AddTask(name, caseNumber string) (*model.Task, error) {
	task, err := model.NewTask(name, caseNumber)
	if err != nil {
		return nil, err
	}
	if err := t.store.Add(task); err != nil {
		return nil, err
	}
	return task.Clone(), nil
}

// Start begins a new session on a stopped task.
func (t *Tracker) Start(caseNumber string) error {
	now := t.now()
	return t.store.Update(caseNumber, func(task *model.Task) error {
		return timer.Start(task, now)
	})
}

// Stop ends the running session of a task.
func (t *Tracker) Stop(caseNumber string) error {
	now := t.now()
	return t.store.Update(caseNumber, func(task *model.Task) error {
		return timer.Stop(task, now)
	})
}

// View is a task as rendered: a copy with its total observed at a given instant.
type View struct {
	Task    *model.Task
	State   timer.State
	Elapsed float64
}

// Tasks returns every task with its live total.
func (t *Tracker) Tasks() []View {
	now := t.now()
	tasks := t.store.List()
	views := make([]View, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, View{Task: task, State: timer.StateOf(task), Elapsed: timer.Observe(task, now)})
	}
	return views
}

// Delete removes a stopped task from the sheet, then from the list.
// Running tasks are refused before anything is sent.
func (t *Tracker) Delete(ctx context.Context, caseNumber string) Result {
	task, ok := t.store.Get(caseNumber)
	if !ok {
		err := fmt.Errorf("%w: %s", model.ErrTaskNotFound, caseNumber)
		return Result{Message: err.Error(), Err: err}
	}
	if err := timer.CanDelete(task); err != nil {
		return Result{Message: err.Error(), Err: err}
	}

	cleared, err := t.clearRemote(ctx, []string{task.CaseNumber})
	if err != nil {
		return failure(err, "Failed to delete task")
	}
	t.store.Remove(task.CaseNumber)
	return success("Task '%s' deleted (%d sheet rows cleared)", task.Name, cleared)
}

// DeleteAll clears every tracked case number from the sheet and empties the list.
func (t *Tracker) DeleteAll(ctx context.Context) Result {
	caseNumbers := t.store.CaseNumbers()
	if len(caseNumbers) == 0 {
		return success("No tasks to delete")
	}
	cleared, err := t.clearRemote(ctx, caseNumbers)
	if err != nil {
		return failure(err, "Failed to delete tasks")
	}
	t.store.Clear()
	return success("All tasks have been deleted (%d sheet rows cleared)", cleared)
}

func (t *Tracker) clearRemote(ctx context.Context, caseNumbers []string) (int, error) {
	rows, err := t.readRows(ctx)
	if err != nil {
		return 0, err
	}
	toClear := reconcile.RowsToClear(rows, caseNumbers)
	if len(toClear) == 0 {
		return 0, nil
	}
	err = t.remote(ctx, "clear", func(ctx context.Context, gw sheets.Gateway) error {
		return gw.Clear(ctx, t.target.SpreadsheetID, t.target.SheetName, toClear, reconcile.NumColumns)
	})
	return len(toClear), err
}

// Sync writes the task list to the sheet: existing case numbers are updated
// in place, new ones appended. Updates go out first.
func (t *Tracker) Sync(ctx context.Context) Result {
	rows, err := t.readRows(ctx)
	if err != nil {
		return failure(err, "Error during synchronization")
	}

	plan := reconcile.BuildPlan(t.store.List(), rows, t.now())
	if len(plan.Updates) > 0 {
		data := make([]sheets.ValueRange, 0, len(plan.Updates))
		for _, u := range plan.Updates {
			data = append(data, sheets.ValueRange{
				Range:  sheets.RowRange(t.target.SheetName, u.RowNumber, reconcile.NumColumns),
				Values: [][]string{u.Values},
			})
		}
		err := t.remote(ctx, "batch update", func(ctx context.Context, gw sheets.Gateway) error {
			return gw.BatchUpdate(ctx, t.target.SpreadsheetID, data)
		})
		if err != nil {
			return failure(err, "Error during synchronization")
		}
	}
	if len(plan.Appends) > 0 {
		appendRange := sheets.RowRange(t.target.SheetName, reconcile.FirstDataRow, reconcile.NumColumns)
		err := t.remote(ctx, "append", func(ctx context.Context, gw sheets.Gateway) error {
			return gw.Append(ctx, t.target.SpreadsheetID, appendRange, plan.Appends)
		})
		if err != nil {
			// Updates already applied stay applied.
			return failure(err, "Error during synchronization (%d rows updated before the failure)", len(plan.Updates))
		}
	}

	log.Printf("Synced %d tasks: %d updated, %d appended", len(plan.Updates)+len(plan.Appends), len(plan.Updates), len(plan.Appends))
	return success("Synchronization successful! (%d updated, %d appended)", len(plan.Updates), len(plan.Appends))
}

// Load rebuilds the task list from the sheet. A local task that is running
// keeps its session, and tasks never synced are kept; every other local task
// is replaced by its sheet row.
func (t *Tracker) Load(ctx context.Context) (Result, []*model.Task) {
	rows, err := t.readRows(ctx)
	if err != nil {
		return failure(err, "Error loading from sheets"), nil
	}

	loaded, problems := reconcile.LoadTasks(rows)
	for _, p := range problems {
		log.Printf("Warning: %v", p)
	}

	local := t.store.List()
	keep := make(map[string]*model.Task)
	for _, task := range local {
		if task.Running {
			keep[model.NormalizeCaseNumber(task.CaseNumber)] = task
		}
	}

	merged := make([]*model.Task, 0, len(loaded)+len(local))
	remote := make(map[string]bool, len(loaded))
	for _, task := range loaded {
		key := model.NormalizeCaseNumber(task.CaseNumber)
		remote[key] = true
		if running, ok := keep[key]; ok {
			merged = append(merged, running)
			continue
		}
		merged = append(merged, task)
	}
	for _, task := range local {
		if !remote[model.NormalizeCaseNumber(task.CaseNumber)] {
			merged = append(merged, task)
		}
	}

	t.store.Replace(merged)
	return success("Loaded %d tasks from the sheet (%d fields could not be parsed)", len(loaded), len(problems)), t.store.List()
}

func (t *Tracker) readRows(ctx context.Context) ([][]string, error) {
	var rows [][]string
	err := t.remote(ctx, "read", func(ctx context.Context, gw sheets.Gateway) error {
		var err error
		rows, err = gw.ReadRange(ctx, t.target.SpreadsheetID,
			sheets.DataRange(t.target.SheetName, reconcile.FirstDataRow, reconcile.NumColumns))
		return err
	})
	return rows, err
}

var errNoGateway = errors.New("no spreadsheet connection configured")

// remote runs one round trip against the sheet with the configured timeout.
func (t *Tracker) remote(ctx context.Context, op string, fn func(context.Context, sheets.Gateway) error) error {
	if t.gateway == nil {
		return &model.RemoteStoreError{Op: op, Err: errNoGateway}
	}
	if t.target.SpreadsheetID == "" || t.target.SheetName == "" {
		return &model.RemoteStoreError{Op: op, Err: errors.New("spreadsheet id and sheet name are required")}
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := fn(ctx, t.gateway); err != nil {
		return &model.RemoteStoreError{Op: op, Err: err}
	}
	return nil
}
