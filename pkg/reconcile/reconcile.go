// Package reconcile decides how the in-memory task list and the rows of the
// remote sheet are merged. Everything here is pure: it reads rows and tasks
// and produces plans, the tracker package performs the I/O.
package reconcile

import (
	"time"

	"github.com/harrisonrobin/casetime/pkg/model"
	"github.com/harrisonrobin/casetime/pkg/timer"
	"github.com/harrisonrobin/casetime/pkg/util"
)

// Dedup keeps one task per case number: the one with the most recent start.
// A defined start beats an undefined one, and on an exact tie the first
// occurrence is kept. Output order follows the first occurrence of each case number.
func Dedup(tasks []*model.Task) []*model.Task {
	var order []string
	best := make(map[string]*model.Task, len(tasks))
	for _, task := range tasks {
		key := model.NormalizeCaseNumber(task.CaseNumber)
		current, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = task
			continue
		}
		if startsLater(task, current) {
			best[key] = task
		}
	}

	unique := make([]*model.Task, 0, len(order))
	for _, key := range order {
		unique = append(unique, best[key])
	}
	return unique
}

func startsLater(candidate, current *model.Task) bool {
	if !candidate.HasStart() {
		return false
	}
	if !current.HasStart() {
		return true
	}
	return candidate.Start.After(*current.Start)
}

// Update is a full-row rewrite of an existing sheet row.
type Update struct {
	RowNumber int
	Values    []string
}

// Plan is the set of writes needed to make the sheet reflect the task list.
// Updates are applied before Appends.
type Plan struct {
	Updates []Update
	Appends [][]string
}

// Empty reports whether the plan has nothing to write.
func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Appends) == 0
}

// BuildPlan merges the tasks against the rows currently in the sheet.
// Running tasks are written with their live total as of now; they are not mutated.
func BuildPlan(tasks []*model.Task, remoteRows [][]string, now time.Time) Plan {
	existing := IndexRows(remoteRows)

	var plan Plan
	for _, task := range Dedup(tasks) {
		remote, found := existing[model.NormalizeCaseNumber(task.CaseNumber)]
		row := MergeRow(task, remote, found, now)
		if found {
			plan.Updates = append(plan.Updates, Update{RowNumber: remote.Number, Values: row.Values()})
		} else {
			plan.Appends = append(plan.Appends, row.Values())
		}
	}
	return plan
}

// MergeRow computes the row to write for a task given its remote counterpart, if any.
// The original start column is write-once: once non-empty in the sheet it is never changed.
func MergeRow(task *model.Task, remote RemoteRow, found bool, now time.Time) Row {
	recentStart := util.FormatTimestamp(task.Start)

	originalStart := recentStart
	if found {
		originalStart = remote.OriginalStart
		if originalStart == "" && task.HasStart() {
			originalStart = recentStart
		}
		if !task.HasStart() {
			recentStart = remote.RecentStart
		}
	}

	return Row{
		CaseNumber:    model.NormalizeCaseNumber(task.CaseNumber),
		Name:          task.Name,
		OriginalStart: originalStart,
		RecentStart:   recentStart,
		Stop:          util.FormatTimestamp(task.Stop),
		TotalHours:    util.FormatHours(timer.Observe(task, now)),
	}
}

// LoadTasks builds the task list from the rows read from the sheet. Incomplete
// rows are skipped, and duplicates in the sheet are collapsed with Dedup.
func LoadTasks(remoteRows [][]string) ([]*model.Task, []*model.ParseError) {
	var tasks []*model.Task
	var problems []*model.ParseError
	for i, cells := range remoteRows {
		row, ok := DecodeRow(cells)
		if !ok || row.CaseNumber == "" {
			continue
		}
		task, rowProblems := row.ToTask(i + FirstDataRow)
		problems = append(problems, rowProblems...)
		tasks = append(tasks, task)
	}
	return Dedup(tasks), problems
}

// RowsToClear returns the sheet row numbers whose case number is one of
// caseNumbers, in sheet order. Every matching row is returned, duplicates included.
func RowsToClear(remoteRows [][]string, caseNumbers []string) []int {
	wanted := make(map[string]bool, len(caseNumbers))
	for _, c := range caseNumbers {
		if key := model.NormalizeCaseNumber(c); key != "" {
			wanted[key] = true
		}
	}

	var rows []int
	for i, cells := range remoteRows {
		if len(cells) == 0 {
			continue
		}
		if wanted[model.NormalizeCaseNumber(cells[0])] {
			rows = append(rows, i+FirstDataRow)
		}
	}
	return rows
}
