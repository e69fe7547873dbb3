package repositories

import (
	"context"

	"github.com/SantiagoArteche/ober-api/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The repositories translate "not found" into nil results instead of errors;
// the services own the decision of whether absence is a failure. Every error
// returned from here is a raw store failure and is propagated unchanged.

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type ProjectRepository interface {
	Find(ctx context.Context, p models.Pagination) ([]models.Project, error)
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	// SetFields applies the non-nil fields of the patch and returns the
	// updated document, or nil if the project does not exist.
	SetFields(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error)
	// PushUser appends userID to the users array (no duplicate check here).
	PushUser(ctx context.Context, projectID, userID primitive.ObjectID) (*models.Project, error)
	// PushTask appends taskID to the tasks array.
	PushTask(ctx context.Context, projectID, taskID primitive.ObjectID) error
	// AddTask adds taskID to the tasks array with set semantics.
	AddTask(ctx context.Context, projectID, taskID primitive.ObjectID) error
	// PullTask removes taskID from the tasks array by exact match.
	PullTask(ctx context.Context, projectID, taskID primitive.ObjectID) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type TaskRepository interface {
	// Find and Count apply the status and assignee filters only; the endDate
	// filter is the task service's concern.
	Find(ctx context.Context, filters models.TaskFilters, p models.Pagination) ([]models.Task, error)
	Count(ctx context.Context, filters models.TaskFilters) (int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	FindByName(ctx context.Context, name string) ([]models.Task, error)
	FindByDescription(ctx context.Context, description string) ([]models.Task, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	SetFields(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error)
	// PushAssignee appends userID to the assignedTo array (no duplicate check here).
	PushAssignee(ctx context.Context, taskID, userID primitive.ObjectID) (*models.Task, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// TxRunner scopes a sequence of writes into one atomic commit/rollback unit.
// An error returned by fn aborts the transaction and is propagated unchanged.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
