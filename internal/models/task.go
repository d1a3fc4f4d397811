package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidEnum is returned by save hooks when a closed enumeration holds an unknown value.
var ErrInvalidEnum = errors.New("invalid enum value")

type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "new"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNew, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

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

type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	ProjectID   uint64         `gorm:"not null;index" json:"project_id"`
	CreatedBy   uint64         `gorm:"not null;index" json:"created_by"`
	AssignedTo  uint64         `gorm:"not null;index" json:"assigned_to"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	Priority    TaskPriority   `gorm:"type:varchar(20);not null;index" json:"priority"`
	DueDate     datatypes.Date `gorm:"not null" json:"due_date"`
	Notes       *string        `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project  Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Creator  User    `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignee User    `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

// TaskFillable lists the columns that update paths may write.
var TaskFillable = []string{"assigned_to", "title", "description", "status", "priority", "due_date", "notes"}

// BeforeSave keeps unknown statuses and priorities out of storage.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TaskStatusNew
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidEnum, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalidEnum, t.Priority)
	}
	return nil
}
