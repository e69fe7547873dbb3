package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Project struct {
	ID    primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name  string               `json:"name" bson:"name"`
	Users []primitive.ObjectID `json:"users" bson:"users"`
	Tasks []primitive.ObjectID `json:"tasks" bson:"tasks"`
}

// HasUser reports whether userID is present in the project's users array.
func (p Project) HasUser(userID primitive.ObjectID) bool {
	for _, id := range p.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// ProjectPatch carries the fields of a partial project update. A nil field
// means "not supplied"; a present zero value is applied as-is. The tasks
// array is deliberately absent: it is only ever mutated through the task
// service, never seeded or patched directly.
type ProjectPatch struct {
	Name  *string              `json:"name"`
	Users []primitive.ObjectID `json:"users"`
}

func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Users == nil
}

// ProjectDetails is a project with its referenced users and tasks
// denormalized into summaries, returned by project listings.
type ProjectDetails struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Users []UserSummary      `json:"users"`
	Tasks []TaskSummary      `json:"tasks"`
}
