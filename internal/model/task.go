package model

import (
	"strings"
	"time"
)

// TaskStatus is one of the fixed task states. There is no enforced state
// machine: any status may transition to any other, including regression
// from completed back to pending.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority is drawn from a fixed enumeration.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskType classifies what kind of work a task represents.
type TaskType string

const (
	TypeTask        TaskType = "task"
	TypeProject     TaskType = "project"
	TypeBug         TaskType = "bug"
	TypeFeature     TaskType = "feature"
	TypeImprovement TaskType = "improvement"
)

func (t TaskType) Valid() bool {
	switch t {
	case TypeTask, TypeProject, TypeBug, TypeFeature, TypeImprovement:
		return true
	}
	return false
}

// Task is the central record of the system.
//
// ASSIGNMENT MODEL:
// Every task has exactly one primary assignee (AssigneeID) and zero or more
// additional assignees (AssigneeIDs). Invariant: whenever AssigneeIDs is
// non-empty it contains the primary assignee. The service layer normalizes
// this on create and on every assignee change — the repository persists
// whatever it is given.
//
// Tags travel as a comma-separated string on the wire and are normalized
// (split, trimmed, deduplicated, order preserved) before persisting.
type Task struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Slug           string       `json:"slug"`
	TaskType       TaskType     `json:"task_type"`
	Priority       TaskPriority `json:"priority"`
	Status         TaskStatus   `json:"status"`
	AuthorID       int64        `json:"author_id"`
	AssigneeID     int64        `json:"assignee_id"`
	AssigneeIDs    []int64      `json:"assignee_ids"`
	EstimatedHours float64      `json:"estimated_hours"`
	ActualHours    float64      `json:"actual_hours"`
	StartDate      *time.Time   `json:"start_date"`
	DueDate        *time.Time   `json:"due_date"`
	CompletedAt    *time.Time   `json:"completed_at"`
	IsActive       bool         `json:"is_active"`
	IsPublic       bool         `json:"is_public"`
	Tags           string       `json:"tags"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsOverdue reports whether the task's due date has passed without the
// task being completed. Tasks with no due date are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return now.After(*t.DueDate)
}

// ProgressPercentage derives a coarse progress figure from the status.
func (t *Task) ProgressPercentage() int {
	switch t.Status {
	case StatusCompleted:
		return 100
	case StatusInProgress:
		return 50
	default:
		return 0
	}
}

// HasAssignee reports whether userID is the primary assignee or a member
// of the additional-assignee set.
func (t *Task) HasAssignee(userID int64) bool {
	if t.AssigneeID == userID {
		return true
	}
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SplitTags splits a comma-separated tag string into trimmed, non-empty,
// deduplicated tags. Order of first appearance is preserved.
func SplitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, raw := range strings.Split(tags, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// NormalizeTags canonicalizes a comma-separated tag string: trimmed,
// deduplicated, single-comma separated.
func NormalizeTags(tags string) string {
	return strings.Join(SplitTags(tags), ",")
}
