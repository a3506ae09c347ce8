package models

import "gorm.io/gorm"

// Issue statuses match the kanban columns.
const (
	IssueStatusTodo       = "todo"
	IssueStatusInProgress = "in_progress"
	IssueStatusDone       = "done"
)

const (
	IssuePriorityLow    = "low"
	IssuePriorityMedium = "medium"
	IssuePriorityHigh   = "high"
)

// Issue is a kanban card inside a project.
type Issue struct {
	gorm.Model

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Status      string `gorm:"default:'todo'" json:"status"`
	Priority    string `gorm:"default:'medium'" json:"priority"`

	ProjectID   uint  `gorm:"not null;index" json:"project_id"`
	AssigneeID  *uint `json:"assignee_id"`
	CreatedByID uint  `gorm:"not null;index" json:"created_by_id"`

	// Relations
	Project   Project `json:"-"`
	Assignee  *User   `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	CreatedBy User    `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

// ValidIssueStatus reports whether s is one of the kanban statuses.
func ValidIssueStatus(s string) bool {
	return s == IssueStatusTodo || s == IssueStatusInProgress || s == IssueStatusDone
}

// ValidIssuePriority reports whether p is a known priority.
func ValidIssuePriority(p string) bool {
	return p == IssuePriorityLow || p == IssuePriorityMedium || p == IssuePriorityHigh
}
