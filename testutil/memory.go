package testutil

import (
	"context"
	"sync"

	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-memory stand-in for the document store, implementing
// the repository interfaces plus a transaction runner with real rollback
// semantics (snapshot before, restore on error). Service tests use it to
// verify atomicity without a running MongoDB.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	userOrder    []primitive.ObjectID
	users        map[primitive.ObjectID]models.User
	projectOrder []primitive.ObjectID
	projects     map[primitive.ObjectID]models.Project
	taskOrder    []primitive.ObjectID
	tasks        map[primitive.ObjectID]models.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[primitive.ObjectID]models.User),
		projects: make(map[primitive.ObjectID]models.Project),
		tasks:    make(map[primitive.ObjectID]models.Task),
	}
}

func (s *MemoryStore) Users() repositories.UserRepository       { return &memoryUserRepo{s} }
func (s *MemoryStore) Projects() repositories.ProjectRepository { return &memoryProjectRepo{s} }
func (s *MemoryStore) Tasks() repositories.TaskRepository       { return &memoryTaskRepo{s} }
func (s *MemoryStore) TxRunner() repositories.TxRunner          { return &memoryTxRunner{s} }

// CountTasks reports the raw number of stored tasks, for asserting that a
// rolled-back creation left no orphan behind.
func (s *MemoryStore) CountTasks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

type snapshot struct {
	userOrder    []primitive.ObjectID
	users        map[primitive.ObjectID]models.User
	projectOrder []primitive.ObjectID
	projects     map[primitive.ObjectID]models.Project
	taskOrder    []primitive.ObjectID
	tasks        map[primitive.ObjectID]models.Task
}

func (s *MemoryStore) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		userOrder:    append([]primitive.ObjectID(nil), s.userOrder...),
		users:        make(map[primitive.ObjectID]models.User, len(s.users)),
		projectOrder: append([]primitive.ObjectID(nil), s.projectOrder...),
		projects:     make(map[primitive.ObjectID]models.Project, len(s.projects)),
		taskOrder:    append([]primitive.ObjectID(nil), s.taskOrder...),
		tasks:        make(map[primitive.ObjectID]models.Task, len(s.tasks)),
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, p := range s.projects {
		snap.projects[id] = cloneProject(p)
	}
	for id, t := range s.tasks {
		snap.tasks[id] = cloneTask(t)
	}
	return snap
}

func (s *MemoryStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userOrder = snap.userOrder
	s.users = snap.users
	s.projectOrder = snap.projectOrder
	s.projects = snap.projects
	s.taskOrder = snap.taskOrder
	s.tasks = snap.tasks
}

func cloneUser(u models.User) models.User {
	return u
}

func cloneProject(p models.Project) models.Project {
	p.Users = append([]primitive.ObjectID(nil), p.Users...)
	p.Tasks = append([]primitive.ObjectID(nil), p.Tasks...)
	return p
}

func cloneTask(t models.Task) models.Task {
	t.AssignedTo = append([]primitive.ObjectID(nil), t.AssignedTo...)
	return t
}

type memoryTxRunner struct {
	s *MemoryStore
}

func (r *memoryTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	if err := fn(ctx); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

type memoryUserRepo struct {
	s *MemoryStore
}

func (r *memoryUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		u = cloneUser(u)
		return &u, nil
	}
	return nil, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, id := range r.s.userOrder {
		if u, ok := r.s.users[id]; ok && u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []models.User
	seen := make(map[primitive.ObjectID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users[user.ID] = cloneUser(*user)
	r.s.userOrder = append(r.s.userOrder, user.ID)
	return nil
}

func (r *memoryUserRepo) DeleteByID(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return false, nil
	}
	delete(r.s.users, id)
	r.s.userOrder = removeID(r.s.userOrder, id)
	return true, nil
}

type memoryProjectRepo struct {
	s *MemoryStore
}

func (r *memoryProjectRepo) Find(_ context.Context, p models.Pagination) ([]models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var projects []models.Project
	var skipped int64
	for _, id := range r.s.projectOrder {
		project, ok := r.s.projects[id]
		if !ok {
			continue
		}
		if skipped < p.Skip {
			skipped++
			continue
		}
		if p.Limit > 0 && int64(len(projects)) >= p.Limit {
			break
		}
		projects = append(projects, cloneProject(project))
	}
	return projects, nil
}

func (r *memoryProjectRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.projects)), nil
}

func (r *memoryProjectRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if p, ok := r.s.projects[id]; ok {
		p = cloneProject(p)
		return &p, nil
	}
	return nil, nil
}

func (r *memoryProjectRepo) Create(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if project.Users == nil {
		project.Users = []primitive.ObjectID{}
	}
	if project.Tasks == nil {
		project.Tasks = []primitive.ObjectID{}
	}
	r.s.projects[project.ID] = cloneProject(*project)
	r.s.projectOrder = append(r.s.projectOrder, project.ID)
	return nil
}

func (r *memoryProjectRepo) SetFields(_ context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	project, ok := r.s.projects[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		project.Name = *patch.Name
	}
	if patch.Users != nil {
		project.Users = append([]primitive.ObjectID(nil), patch.Users...)
	}
	r.s.projects[id] = project
	project = cloneProject(project)
	return &project, nil
}

func (r *memoryProjectRepo) PushUser(_ context.Context, projectID, userID primitive.ObjectID) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	project, ok := r.s.projects[projectID]
	if !ok {
		return nil, nil
	}
	project.Users = append(project.Users, userID)
	r.s.projects[projectID] = project
	project = cloneProject(project)
	return &project, nil
}

func (r *memoryProjectRepo) PushTask(_ context.Context, projectID, taskID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	project, ok := r.s.projects[projectID]
	if !ok {
		return nil
	}
	project.Tasks = append(project.Tasks, taskID)
	r.s.projects[projectID] = project
	return nil
}

func (r *memoryProjectRepo) AddTask(_ context.Context, projectID, taskID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	project, ok := r.s.projects[projectID]
	if !ok {
		return nil
	}
	for _, id := range project.Tasks {
		if id == taskID {
			return nil
		}
	}
	project.Tasks = append(project.Tasks, taskID)
	r.s.projects[projectID] = project
	return nil
}

func (r *memoryProjectRepo) PullTask(_ context.Context, projectID, taskID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	project, ok := r.s.projects[projectID]
	if !ok {
		return nil
	}
	project.Tasks = removeID(project.Tasks, taskID)
	r.s.projects[projectID] = project
	return nil
}

func (r *memoryProjectRepo) DeleteByID(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return false, nil
	}
	delete(r.s.projects, id)
	r.s.projectOrder = removeID(r.s.projectOrder, id)
	return true, nil
}

type memoryTaskRepo struct {
	s *MemoryStore
}

func taskMatches(t models.Task, filters models.TaskFilters) bool {
	if filters.Status != "" && t.Status != filters.Status {
		return false
	}
	if filters.UserAssigned != nil && !t.HasAssignee(*filters.UserAssigned) {
		return false
	}
	return true
}

func (r *memoryTaskRepo) Find(_ context.Context, filters models.TaskFilters, p models.Pagination) ([]models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tasks []models.Task
	var skipped int64
	for _, id := range r.s.taskOrder {
		task, ok := r.s.tasks[id]
		if !ok || !taskMatches(task, filters) {
			continue
		}
		if skipped < p.Skip {
			skipped++
			continue
		}
		if p.Limit > 0 && int64(len(tasks)) >= p.Limit {
			break
		}
		tasks = append(tasks, cloneTask(task))
	}
	return tasks, nil
}

func (r *memoryTaskRepo) Count(_ context.Context, filters models.TaskFilters) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, task := range r.s.tasks {
		if taskMatches(task, filters) {
			count++
		}
	}
	return count, nil
}

func (r *memoryTaskRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if t, ok := r.s.tasks[id]; ok {
		t = cloneTask(t)
		return &t, nil
	}
	return nil, nil
}

func (r *memoryTaskRepo) FindByName(_ context.Context, name string) ([]models.Task, error) {
	return r.findAll(func(t models.Task) bool { return t.Name == name })
}

func (r *memoryTaskRepo) FindByDescription(_ context.Context, description string) ([]models.Task, error) {
	return r.findAll(func(t models.Task) bool { return t.Description == description })
}

func (r *memoryTaskRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tasks []models.Task
	seen := make(map[primitive.ObjectID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if t, ok := r.s.tasks[id]; ok {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return tasks, nil
}

func (r *memoryTaskRepo) findAll(match func(models.Task) bool) ([]models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tasks []models.Task
	for _, id := range r.s.taskOrder {
		if t, ok := r.s.tasks[id]; ok && match(t) {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return tasks, nil
}

func (r *memoryTaskRepo) Create(_ context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.AssignedTo == nil {
		task.AssignedTo = []primitive.ObjectID{}
	}
	r.s.tasks[task.ID] = cloneTask(*task)
	r.s.taskOrder = append(r.s.taskOrder, task.ID)
	return nil
}

func (r *memoryTaskRepo) SetFields(_ context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	task, ok := r.s.tasks[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.AssignedTo != nil {
		task.AssignedTo = append([]primitive.ObjectID(nil), patch.AssignedTo...)
	}
	if patch.ProjectID != nil {
		task.ProjectID = *patch.ProjectID
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.EndDate != nil {
		task.EndDate = *patch.EndDate
	}
	r.s.tasks[id] = task
	task = cloneTask(task)
	return &task, nil
}

func (r *memoryTaskRepo) SetStatus(_ context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	task, ok := r.s.tasks[id]
	if !ok {
		return nil, nil
	}
	task.Status = status
	r.s.tasks[id] = task
	task = cloneTask(task)
	return &task, nil
}

func (r *memoryTaskRepo) PushAssignee(_ context.Context, taskID, userID primitive.ObjectID) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	task, ok := r.s.tasks[taskID]
	if !ok {
		return nil, nil
	}
	task.AssignedTo = append(task.AssignedTo, userID)
	r.s.tasks[taskID] = task
	task = cloneTask(task)
	return &task, nil
}

func (r *memoryTaskRepo) DeleteByID(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return false, nil
	}
	delete(r.s.tasks, id)
	r.s.taskOrder = removeID(r.s.taskOrder, id)
	return true, nil
}

func (r *memoryTaskRepo) DeleteByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := r.s.tasks[id]; ok {
			delete(r.s.tasks, id)
			r.s.taskOrder = removeID(r.s.taskOrder, id)
			deleted++
		}
	}
	return deleted, nil
}

func removeID(ids []primitive.ObjectID, target primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
