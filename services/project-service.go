package services

import (
	"context"

	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// ProjectService owns the project lifecycle and the project.users and
// project.tasks arrays. Every operation that touches more than one entity
// type runs inside a single transaction.
type ProjectService struct {
	projects repositories.ProjectRepository
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	tx       repositories.TxRunner
	logger   logging.Logger
}

func NewProjectService(
	projects repositories.ProjectRepository,
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	tx repositories.TxRunner,
	logger logging.Logger,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		tasks:    tasks,
		users:    users,
		tx:       tx,
		logger:   logger,
	}
}

// GetAllProjects returns a page of projects with their referenced users and
// tasks denormalized into summaries, plus the pagination metadata.
func (s *ProjectService) GetAllProjects(ctx context.Context, p models.Pagination) ([]models.ProjectDetails, models.PageInfo, error) {
	total, err := s.projects.Count(ctx)
	if err != nil {
		return nil, models.PageInfo{}, err
	}

	projects, err := s.projects.Find(ctx, p)
	if err != nil {
		return nil, models.PageInfo{}, err
	}

	var userIDs, taskIDs []primitive.ObjectID
	for _, project := range projects {
		userIDs = append(userIDs, project.Users...)
		taskIDs = append(taskIDs, project.Tasks...)
	}

	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, models.PageInfo{}, err
	}
	tasks, err := s.tasks.FindByIDs(ctx, taskIDs)
	if err != nil {
		return nil, models.PageInfo{}, err
	}

	usersByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	tasksByID := make(map[primitive.ObjectID]models.Task, len(tasks))
	for _, t := range tasks {
		tasksByID[t.ID] = t
	}

	details := make([]models.ProjectDetails, 0, len(projects))
	for _, project := range projects {
		d := models.ProjectDetails{
			ID:    project.ID,
			Name:  project.Name,
			Users: []models.UserSummary{},
			Tasks: []models.TaskSummary{},
		}
		for _, id := range project.Users {
			if u, ok := usersByID[id]; ok {
				d.Users = append(d.Users, u.Summary())
			}
		}
		for _, id := range project.Tasks {
			if t, ok := tasksByID[id]; ok {
				d.Tasks = append(d.Tasks, t.Summary())
			}
		}
		details = append(details, d)
	}

	return details, models.NewPageInfo(total, p), nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, models.NewNotFound("Project with id %s not found", id.Hex())
	}
	return project, nil
}

// CreateProject inserts a new project. The tasks array always starts empty,
// regardless of what the caller supplied: task ids only ever enter it
// through task creation.
func (s *ProjectService) CreateProject(ctx context.Context, name string, users []primitive.ObjectID) (*models.Project, error) {
	if users == nil {
		users = []primitive.ObjectID{}
	}

	project := &models.Project{
		Name:  name,
		Users: users,
		Tasks: []primitive.ObjectID{},
	}
	if err := s.projects.Create(ctx, project); err != nil {
		s.logger.Errorf("Event ID: PROJECT_CREATE_FAILED, Description: failed to create project %q: %v", name, err)
		return nil, err
	}

	s.logger.Infof("Event ID: PROJECT_CREATED, Description: project %s created", project.ID.Hex())
	return project, nil
}

// UpdateProject applies the supplied fields only; omitted fields are left
// untouched. The tasks array cannot be mutated through this operation.
func (s *ProjectService) UpdateProject(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error) {
	existing, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, models.NewNotFound("Project with id %s not found", id.Hex())
	}

	updated, err := s.projects.SetFields(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFound("Project with id %s not found", id.Hex())
	}

	s.logger.Infof("Event ID: PROJECT_UPDATED, Description: project %s updated", id.Hex())
	return updated, nil
}

// DeleteProject deletes the project and every task it owns as a single
// atomic unit. If any step fails the whole operation rolls back; no partial
// deletion is ever observable.
func (s *ProjectService) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		project, err := s.projects.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return models.NewNotFound("Project with id %s not found", id.Hex())
		}

		if _, err := s.tasks.DeleteByIDs(ctx, project.Tasks); err != nil {
			return err
		}

		if _, err := s.projects.DeleteByID(ctx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Warnf("Event ID: PROJECT_DELETE_FAILED, Description: delete of project %s failed: %v", id.Hex(), err)
		return err
	}

	s.logger.Infof("Event ID: PROJECT_DELETED, Description: project %s and its tasks deleted", id.Hex())
	return nil
}

// AssignUserToProject appends the user to the project's users array. It is a
// single-document write and runs outside a transaction; two concurrent
// assignments to the same project can race (accepted limitation).
func (s *ProjectService) AssignUserToProject(ctx context.Context, projectID, userID primitive.ObjectID) (*models.Project, error) {
	var (
		project *models.Project
		user    *models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = s.projects.FindByID(gctx, projectID)
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

	if project == nil {
		return nil, models.NewNotFound("Project with id %s not found", projectID.Hex())
	}
	if user == nil {
		return nil, models.NewNotFound("User with id %s not found", userID.Hex())
	}
	if project.HasUser(userID) {
		return nil, models.NewConflict("The user with id %s is already working in the project", userID.Hex())
	}

	updated, err := s.projects.PushUser(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFound("Project with id %s not found", projectID.Hex())
	}

	s.logger.Infof("Event ID: PROJECT_USER_ASSIGNED, Description: user %s assigned to project %s", userID.Hex(), projectID.Hex())
	return updated, nil
}
