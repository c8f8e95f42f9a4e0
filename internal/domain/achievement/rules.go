package achievement

import (
	"time"

	"github.com/taskflow/backend/internal/domain/task"
)

// Code identifies the progress rule behind an achievement
type Code string

const (
	CodeNewbie         Code = "NEWBIE"
	CodeDeadlineMaster Code = "DEADLINE_MASTER"
	CodeSprinter       Code = "SPRINTER"
	CodePlanner        Code = "PLANNER"
	CodeCategorizer    Code = "CATEGORIZER"
	CodePriorityGuru   Code = "PRIORITY_GURU"
)

// sprintWindow is how soon after creation a task must be completed to count
const sprintWindow = time.Hour

// Action is the kind of task change being scored
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
)

// TaskChange is the input to a rule. Before is nil for creations.
type TaskChange struct {
	Action Action
	Before *task.Snapshot
	After  task.Snapshot
	Now    time.Time
}

func (c TaskChange) completed() bool {
	return c.Action == ActionUpdate && c.Before != nil &&
		c.Before.Status != task.StatusDone && c.After.Status == task.StatusDone
}

func (c TaskChange) reverted() bool {
	return c.Action == ActionUpdate && c.Before != nil &&
		c.Before.Status == task.StatusDone && c.After.Status != task.StatusDone
}

// Rule returns the progress delta a change contributes
type Rule func(c TaskChange) int

var rules = map[Code]Rule{
	CodeNewbie:         newbieRule,
	CodeDeadlineMaster: deadlineMasterRule,
	CodeSprinter:       sprinterRule,
	CodePlanner:        plannerRule,
	CodeCategorizer:    categorizerRule,
	CodePriorityGuru:   priorityGuruRule,
}

// RuleFor returns the rule for a code, or nil when the code has none
func RuleFor(code Code) Rule {
	return rules[code]
}

// Only root tasks count toward achievements.

func newbieRule(c TaskChange) int {
	if !c.After.IsRoot() {
		return 0
	}
	switch {
	case c.completed():
		return 1
	case c.reverted():
		return -1
	}
	return 0
}

func deadlineMasterRule(c TaskChange) int {
	if !c.After.IsRoot() || c.After.DueDate == nil {
		return 0
	}
	switch {
	case c.completed() && c.Now.Before(*c.After.DueDate):
		return 1
	case c.reverted():
		return -1
	}
	return 0
}

func sprinterRule(c TaskChange) int {
	if !c.After.IsRoot() {
		return 0
	}
	switch {
	case c.completed() && c.Now.Sub(c.After.CreatedAt) < sprintWindow:
		return 1
	case c.reverted():
		return -1
	}
	return 0
}

func plannerRule(c TaskChange) int {
	if c.Action == ActionCreate && c.After.IsRoot() && c.After.DueDate != nil {
		return 1
	}
	return 0
}

func categorizerRule(c TaskChange) int {
	if c.Action == ActionCreate && c.After.IsRoot() && c.After.CategoryID != nil {
		return 1
	}
	return 0
}

func priorityGuruRule(c TaskChange) int {
	if !c.After.IsRoot() {
		return 0
	}
	high := c.After.Priority == task.PriorityHigh
	switch c.Action {
	case ActionCreate:
		if high {
			return 1
		}
	case ActionUpdate:
		if c.Before == nil {
			return 0
		}
		wasHigh := c.Before.Priority == task.PriorityHigh
		switch {
		case high && !wasHigh:
			return 1
		case wasHigh && !high:
			return -1
		}
	}
	return 0
}
