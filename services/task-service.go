package services

import (
	"context"
	"time"

	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// TaskService owns the task lifecycle, task.assignedTo, and keeps
// project.tasks synchronized on create, move and delete. The operations that
// touch both entity types run inside one transaction; the single-document
// writes (ChangeTaskState, AssignTaskToUser) do not.
type TaskService struct {
	tasks      repositories.TaskRepository
	projects   repositories.ProjectRepository
	users      repositories.UserRepository
	membership *MembershipService
	tx         repositories.TxRunner
	logger     logging.Logger
}

func NewTaskService(
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	membership *MembershipService,
	tx repositories.TxRunner,
	logger logging.Logger,
) *TaskService {
	return &TaskService{
		tasks:      tasks,
		projects:   projects,
		users:      users,
		membership: membership,
		tx:         tx,
		logger:     logger,
	}
}

// GetAllTasks returns a page of tasks plus pagination metadata. The status
// and assignee filters are pushed into the store query; the endDate filter
// matches by calendar day and is applied over the fetched page afterwards,
// so totalDocuments is computed before it runs and can disagree with the
// filtered result set.
func (s *TaskService) GetAllTasks(ctx context.Context, filters models.TaskFilters, p models.Pagination) ([]models.Task, models.PageInfo, error) {
	total, err := s.tasks.Count(ctx, filters)
	if err != nil {
		return nil, models.PageInfo{}, err
	}

	tasks, err := s.tasks.Find(ctx, filters, p)
	if err != nil {
		return nil, models.PageInfo{}, err
	}

	if filters.EndDate != nil {
		filtered := make([]models.Task, 0, len(tasks))
		for _, task := range tasks {
			if sameCalendarDay(task.EndDate, *filters.EndDate) {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	return tasks, models.NewPageInfo(total, p), nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func (s *TaskService) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, models.NewNotFound("Task with id %s not found", id.Hex())
	}
	return task, nil
}

// GetTasksByName is an exact-match lookup; an empty result is a NotFound,
// not an empty list.
func (s *TaskService) GetTasksByName(ctx context.Context, name string) ([]models.Task, error) {
	tasks, err := s.tasks.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, models.NewNotFound("Tasks with name %s not found", name)
	}
	return tasks, nil
}

func (s *TaskService) GetTasksByDescription(ctx context.Context, description string) ([]models.Task, error) {
	tasks, err := s.tasks.FindByDescription(ctx, description)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, models.NewNotFound("Tasks with description %s not found", description)
	}
	return tasks, nil
}

// CreateTask inserts the task and appends its id to the owning project's
// tasks array as one atomic unit. Every assigned user must already be a
// member of the project; a single non-member aborts the whole operation and
// no task is persisted.
func (s *TaskService) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Description == "" {
		task.Description = models.DefaultTaskDescription
	}
	if task.StartDate.IsZero() {
		task.StartDate = time.Now()
	}
	if task.AssignedTo == nil {
		task.AssignedTo = []primitive.ObjectID{}
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		project, err := s.projects.FindByID(ctx, task.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return models.NewNotFound("Project with id %s not found", task.ProjectID.Hex())
		}

		for _, userID := range task.AssignedTo {
			inProject, err := s.membership.IsUserInProject(ctx, userID, task.ProjectID)
			if err != nil {
				return err
			}
			if !inProject {
				return models.NewConflict("The user with id %s is not working in the project", userID.Hex())
			}
		}

		if err := s.tasks.Create(ctx, task); err != nil {
			return err
		}

		return s.projects.PushTask(ctx, task.ProjectID, task.ID)
	})
	if err != nil {
		s.logger.Warnf("Event ID: TASK_CREATE_FAILED, Description: create task %q failed: %v", task.Name, err)
		return nil, err
	}

	s.logger.Infof("Event ID: TASK_CREATED, Description: task %s created in project %s", task.ID.Hex(), task.ProjectID.Hex())
	return task, nil
}

// UpdateTask applies a partial patch. If the patch moves the task to another
// project, the task id is pulled from the old project's tasks array and
// added (set semantics) to the new one, atomically with the task update.
// Assignees in the patch are validated against whichever project is
// authoritative after the patch.
func (s *TaskService) UpdateTask(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	var updated *models.Task

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if task == nil {
			return models.NewNotFound("Task with id %s not found", id.Hex())
		}

		authoritative := task.ProjectID
		projectChanged := patch.ProjectID != nil && *patch.ProjectID != task.ProjectID
		if projectChanged {
			newProject, err := s.projects.FindByID(ctx, *patch.ProjectID)
			if err != nil {
				return err
			}
			if newProject == nil {
				return models.NewNotFound("Project with id %s not found", patch.ProjectID.Hex())
			}
			authoritative = *patch.ProjectID
		}

		if patch.AssignedTo != nil {
			for _, userID := range patch.AssignedTo {
				inProject, err := s.membership.IsUserInProject(ctx, userID, authoritative)
				if err != nil {
					return err
				}
				if !inProject {
					return models.NewConflict("The user with id %s is not working in the project", userID.Hex())
				}
			}
		}

		updated, err = s.tasks.SetFields(ctx, id, patch)
		if err != nil {
			return err
		}
		if updated == nil {
			return models.NewNotFound("Task with id %s not found", id.Hex())
		}

		if projectChanged {
			if err := s.projects.PullTask(ctx, task.ProjectID, id); err != nil {
				return err
			}
			if err := s.projects.AddTask(ctx, *patch.ProjectID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warnf("Event ID: TASK_UPDATE_FAILED, Description: update of task %s failed: %v", id.Hex(), err)
		return nil, err
	}

	s.logger.Infof("Event ID: TASK_UPDATED, Description: task %s updated", id.Hex())
	return updated, nil
}

// ChangeTaskState writes only the status field. It is deliberately narrow:
// no membership or project checks, any of the three statuses in any order.
func (s *TaskService) ChangeTaskState(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, models.NewNotFound("Task with id %s not found", id.Hex())
	}

	updated, err := s.tasks.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFound("Task with id %s not found", id.Hex())
	}

	s.logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: task %s moved to status %q", id.Hex(), status)
	return updated, nil
}

// AssignTaskToUser appends the user to the task's assignedTo array. Task and
// user are fetched in parallel. Membership in the task's project is a
// prerequisite, never a consequence: assigning never auto-joins the user to
// the project.
func (s *TaskService) AssignTaskToUser(ctx context.Context, taskID, userID primitive.ObjectID) (*models.Task, error) {
	var (
		task *models.Task
		user *models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		task, err = s.tasks.FindByID(gctx, taskID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.users.FindByID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if task == nil {
		return nil, models.NewNotFound("Task with id %s not found", taskID.Hex())
	}
	if user == nil {
		return nil, models.NewNotFound("User with id %s not found", userID.Hex())
	}

	inProject, err := s.membership.IsUserInProject(ctx, userID, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !inProject {
		return nil, models.NewConflict("The user with id %s is not working in the project", userID.Hex())
	}
	if task.HasAssignee(userID) {
		return nil, models.NewConflict("User with id %s is already working in the task", userID.Hex())
	}

	updated, err := s.tasks.PushAssignee(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFound("Task with id %s not found", taskID.Hex())
	}

	s.logger.Infof("Event ID: TASK_USER_ASSIGNED, Description: user %s assigned to task %s", userID.Hex(), taskID.Hex())
	return updated, nil
}

// DeleteTask removes the task and repairs the owning project's tasks array
// in one atomic unit. The repair is skipped if the project is already gone.
func (s *TaskService) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if task == nil {
			return models.NewNotFound("Task with id %s not found", id.Hex())
		}

		if _, err := s.tasks.DeleteByID(ctx, id); err != nil {
			return err
		}

		project, err := s.projects.FindByID(ctx, task.ProjectID)
		if err != nil {
			return err
		}
		if project != nil {
			return s.projects.PullTask(ctx, task.ProjectID, id)
		}
		return nil
	})
	if err != nil {
		s.logger.Warnf("Event ID: TASK_DELETE_FAILED, Description: delete of task %s failed: %v", id.Hex(), err)
		return err
	}

	s.logger.Infof("Event ID: TASK_DELETED, Description: task %s deleted", id.Hex())
	return nil
}
