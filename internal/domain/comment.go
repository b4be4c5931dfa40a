package domain

import "time"

// Comment is a remark left on a task by an admin or an employee.
type Comment struct {
	ID       string
	TaskID   string
	AuthorID string
	// AuthorName is populated on reads via a join.
	AuthorName string
	Content    string
	CreatedAt  time.Time
}
