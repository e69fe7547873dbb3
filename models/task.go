package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in progress"
	StatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is one of the three known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const DefaultTaskDescription = "Empty description"

type Task struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description" bson:"description"`
	AssignedTo  []primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	ProjectID   primitive.ObjectID   `json:"projectId" bson:"projectId"`
	Status      TaskStatus           `json:"status" bson:"status"`
	StartDate   time.Time            `json:"startDate" bson:"startDate"`
	EndDate     time.Time            `json:"endDate" bson:"endDate"`
}

// HasAssignee reports whether userID is present in the task's assignedTo array.
func (t Task) HasAssignee(userID primitive.ObjectID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// TaskSummary is the denormalized view of a task embedded in project listings.
type TaskSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Status TaskStatus         `json:"status"`
}

func (t Task) Summary() TaskSummary {
	return TaskSummary{ID: t.ID, Name: t.Name, Status: t.Status}
}

// TaskPatch carries the fields of a partial task update. A nil field means
// "not supplied"; a present zero value is applied as-is. A nil AssignedTo
// leaves the assignees untouched, an empty non-nil slice clears them.
type TaskPatch struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	AssignedTo  []primitive.ObjectID `json:"assignedTo"`
	ProjectID   *primitive.ObjectID  `json:"projectId"`
	Status      *TaskStatus          `json:"status"`
	EndDate     *time.Time           `json:"endDate"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.AssignedTo == nil &&
		p.ProjectID == nil && p.Status == nil && p.EndDate == nil
}

// TaskFilters narrows task listings. EndDate matches by calendar day and is
// applied after the page is fetched, not pushed into the store query, so
// pagination counts are computed before it runs.
type TaskFilters struct {
	Status       TaskStatus
	EndDate      *time.Time
	UserAssigned *primitive.ObjectID
}
