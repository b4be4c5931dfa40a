package domain

import (
	"fmt"
	"time"
)

// TaskStatus enumerates the lifecycle states of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusDeferred   TaskStatus = "DEFERRED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// ParseTaskStatus maps a string to a TaskStatus, rejecting unknown values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusDeferred, TaskStatusCancelled:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// Task is the domain model for a unit of work assigned to an employee.
type Task struct {
	ID          string
	Title       string
	Description string
	DueDate     time.Time
	Priority    string
	Status      TaskStatus
	AssigneeID  string
	// AssigneeName is populated on reads via a join; it is not persisted
	// on the tasks table itself.
	AssigneeName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
