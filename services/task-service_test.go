package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/services"
	"github.com/SantiagoArteche/ober-api/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestTaskService(t *testing.T) (*testutil.MemoryStore, *services.TaskService) {
	t.Helper()
	store := testutil.NewMemoryStore()
	membership := services.NewMembershipService(store.Projects())
	svc := services.NewTaskService(store.Tasks(), store.Projects(), store.Users(), membership, store.TxRunner(), logging.NewNop())
	return store, svc
}

func seedUser(t *testing.T, store *testutil.MemoryStore, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "hashed"}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProject(t *testing.T, store *testutil.MemoryStore, name string, users ...primitive.ObjectID) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, Users: users, Tasks: []primitive.ObjectID{}}
	if err := store.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func projectByID(t *testing.T, store *testutil.MemoryStore, id primitive.ObjectID) *models.Project {
	t.Helper()
	project, err := store.Projects().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find project: %v", err)
	}
	if project == nil {
		t.Fatalf("project %s not found", id.Hex())
	}
	return project
}

func hasID(ids []primitive.ObjectID, target primitive.ObjectID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func TestCreateTask_AppendsToProjectTasks(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	user := seedUser(t, store, "ana")
	project := seedProject(t, store, "Backend", user.ID)

	task, err := svc.CreateTask(ctx, &models.Task{
		Name:       "Write endpoints",
		ProjectID:  project.ID,
		AssignedTo: []primitive.ObjectID{user.ID},
		EndDate:    time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ID.IsZero() {
		t.Fatal("CreateTask() did not assign an id")
	}

	got := projectByID(t, store, project.ID)
	if !hasID(got.Tasks, task.ID) {
		t.Errorf("project.Tasks = %v, want to contain %s", got.Tasks, task.ID.Hex())
	}
}

func TestCreateTask_AppliesDefaults(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	project := seedProject(t, store, "Backend")

	task, err := svc.CreateTask(ctx, &models.Task{
		Name:      "Untitled work",
		ProjectID: project.ID,
		EndDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if task.Status != models.StatusPending {
		t.Errorf("Status = %q, want %q", task.Status, models.StatusPending)
	}
	if task.Description != models.DefaultTaskDescription {
		t.Errorf("Description = %q, want %q", task.Description, models.DefaultTaskDescription)
	}
	if task.StartDate.IsZero() {
		t.Error("StartDate was not defaulted")
	}
	if task.AssignedTo == nil || len(task.AssignedTo) != 0 {
		t.Errorf("AssignedTo = %v, want empty non-nil slice", task.AssignedTo)
	}
}

func TestCreateTask_ProjectNotFound(t *testing.T) {
	_, svc := newTestTaskService(t)

	_, err := svc.CreateTask(context.Background(), &models.Task{
		Name:      "Orphan",
		ProjectID: primitive.NewObjectID(),
		EndDate:   time.Now(),
	})
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("CreateTask() error = %v, want NotFound", err)
	}
}

func TestCreateTask_NonMemberAssigneeLeavesNothingBehind(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	member := seedUser(t, store, "ana")
	outsider := seedUser(t, store, "bruno")
	project := seedProject(t, store, "Backend", member.ID)

	_, err := svc.CreateTask(ctx, &models.Task{
		Name:       "Mixed assignees",
		ProjectID:  project.ID,
		AssignedTo: []primitive.ObjectID{member.ID, outsider.ID},
		EndDate:    time.Now().Add(24 * time.Hour),
	})
	if !models.IsKind(err, models.KindConflict) {
		t.Fatalf("CreateTask() error = %v, want Conflict", err)
	}

	if n := store.CountTasks(); n != 0 {
		t.Errorf("stored tasks = %d, want 0 after rollback", n)
	}
	got := projectByID(t, store, project.ID)
	if len(got.Tasks) != 0 {
		t.Errorf("project.Tasks = %v, want empty after rollback", got.Tasks)
	}
}

func TestUpdateTask_MoveBetweenProjects(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	source := seedProject(t, store, "Source")
	target := seedProject(t, store, "Target")

	task, err := svc.CreateTask(ctx, &models.Task{
		Name:      "Migrating task",
		ProjectID: source.ID,
		EndDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	updated, err := svc.UpdateTask(ctx, task.ID, models.TaskPatch{ProjectID: &target.ID})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.ProjectID != target.ID {
		t.Errorf("ProjectID = %s, want %s", updated.ProjectID.Hex(), target.ID.Hex())
	}

	if got := projectByID(t, store, source.ID); hasID(got.Tasks, task.ID) {
		t.Errorf("source project still references task %s", task.ID.Hex())
	}
	if got := projectByID(t, store, target.ID); !hasID(got.Tasks, task.ID) {
		t.Errorf("target project does not reference task %s", task.ID.Hex())
	}
}

func TestUpdateTask_MoveToMissingProject(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	source := seedProject(t, store, "Source")
	task, err := svc.CreateTask(ctx, &models.Task{
		Name:      "Stays put",
		ProjectID: source.ID,
		EndDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	missing := primitive.NewObjectID()
	_, err = svc.UpdateTask(ctx, task.ID, models.TaskPatch{ProjectID: &missing})
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("UpdateTask() error = %v, want NotFound", err)
	}

	if got := projectByID(t, store, source.ID); !hasID(got.Tasks, task.ID) {
		t.Errorf("source project lost task %s after failed move", task.ID.Hex())
	}
}

func TestUpdateTask_AssigneesValidatedAgainstNewProject(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	user := seedUser(t, store, "ana")
	source := seedProject(t, store, "Source", user.ID)
	target := seedProject(t, store, "Target")

	task, err := svc.CreateTask(ctx, &models.Task{
		Name:      "Migrating task",
		ProjectID: source.ID,
		EndDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	// user belongs to the source project but not the target; moving the task
	// and assigning them in the same patch must fail against the new project.
	_, err = svc.UpdateTask(ctx, task.ID, models.TaskPatch{
		ProjectID:  &target.ID,
		AssignedTo: []primitive.ObjectID{user.ID},
	})
	if !models.IsKind(err, models.KindConflict) {
		t.Fatalf("UpdateTask() error = %v, want Conflict", err)
	}

	if got := projectByID(t, store, target.ID); hasID(got.Tasks, task.ID) {
		t.Errorf("target project references task %s after rollback", task.ID.Hex())
	}
}

func TestGetAllTasks_EndDateFilterKeepsPreFilterCounts(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	project := seedProject(t, store, "Backend")
	deadline := time.Date(2026, 9, 15, 17, 30, 0, 0, time.UTC)

	if _, err := svc.CreateTask(ctx, &models.Task{Name: "On deadline", ProjectID: project.ID, EndDate: deadline}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, &models.Task{Name: "Later", ProjectID: project.ID, EndDate: deadline.AddDate(0, 0, 10)}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	// Same calendar day, different clock time: must still match.
	filterDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	tasks, pageInfo, err := svc.GetAllTasks(ctx, models.TaskFilters{EndDate: &filterDate}, models.Pagination{Skip: 0, Limit: 10})
	if err != nil {
		t.Fatalf("GetAllTasks() error = %v", err)
	}

	if len(tasks) != 1 || tasks[0].Name != "On deadline" {
		t.Errorf("tasks = %v, want the single task ending on the filter day", tasks)
	}
	// totalDocuments is computed before the endDate filter runs.
	if pageInfo.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", pageInfo.TotalDocuments)
	}
}

func TestGetAllTasks_StatusFilter(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	project := seedProject(t, store, "Backend")
	if _, err := svc.CreateTask(ctx, &models.Task{Name: "A", ProjectID: project.ID, EndDate: time.Now()}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	done, err := svc.CreateTask(ctx, &models.Task{Name: "B", ProjectID: project.ID, Status: models.StatusCompleted, EndDate: time.Now()})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	tasks, pageInfo, err := svc.GetAllTasks(ctx, models.TaskFilters{Status: models.StatusCompleted}, models.Pagination{Skip: 0, Limit: 10})
	if err != nil {
		t.Fatalf("GetAllTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != done.ID {
		t.Errorf("tasks = %v, want only the completed task", tasks)
	}
	if pageInfo.TotalDocuments != 1 {
		t.Errorf("TotalDocuments = %d, want 1", pageInfo.TotalDocuments)
	}
}

func TestGetTasksByName_EmptyIsNotFound(t *testing.T) {
	_, svc := newTestTaskService(t)

	_, err := svc.GetTasksByName(context.Background(), "no such task")
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("GetTasksByName() error = %v, want NotFound", err)
	}
}

func TestChangeTaskState(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	project := seedProject(t, store, "Backend")
	task, err := svc.CreateTask(ctx, &models.Task{Name: "Work", ProjectID: project.ID, EndDate: time.Now()})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	updated, err := svc.ChangeTaskState(ctx, task.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("ChangeTaskState() error = %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Errorf("Status = %q, want %q", updated.Status, models.StatusCompleted)
	}

	// Any transition is allowed, including going back.
	updated, err = svc.ChangeTaskState(ctx, task.ID, models.StatusPending)
	if err != nil {
		t.Fatalf("ChangeTaskState() error = %v", err)
	}
	if updated.Status != models.StatusPending {
		t.Errorf("Status = %q, want %q", updated.Status, models.StatusPending)
	}
}

func TestChangeTaskState_NotFound(t *testing.T) {
	_, svc := newTestTaskService(t)

	_, err := svc.ChangeTaskState(context.Background(), primitive.NewObjectID(), models.StatusCompleted)
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("ChangeTaskState() error = %v, want NotFound", err)
	}
}

func TestAssignTaskToUser(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	user := seedUser(t, store, "ana")
	project := seedProject(t, store, "Backend", user.ID)
	task, err := svc.CreateTask(ctx, &models.Task{Name: "Work", ProjectID: project.ID, EndDate: time.Now()})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	updated, err := svc.AssignTaskToUser(ctx, task.ID, user.ID)
	if err != nil {
		t.Fatalf("AssignTaskToUser() error = %v", err)
	}
	if !updated.HasAssignee(user.ID) {
		t.Errorf("assignedTo = %v, want to contain %s", updated.AssignedTo, user.ID.Hex())
	}

	// Second assignment of the same user is a conflict.
	_, err = svc.AssignTaskToUser(ctx, task.ID, user.ID)
	if !models.IsKind(err, models.KindConflict) {
		t.Fatalf("AssignTaskToUser() repeat error = %v, want Conflict", err)
	}
}

func TestAssignTaskToUser_NotProjectMember(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	outsider := seedUser(t, store, "bruno")
	project := seedProject(t, store, "Backend")
	task, err := svc.CreateTask(ctx, &models.Task{Name: "Work", ProjectID: project.ID, EndDate: time.Now()})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	_, err = svc.AssignTaskToUser(ctx, task.ID, outsider.ID)
	if !models.IsKind(err, models.KindConflict) {
		t.Fatalf("AssignTaskToUser() error = %v, want Conflict", err)
	}

	// The failed assignment must not have joined the user to the project.
	if got := projectByID(t, store, project.ID); got.HasUser(outsider.ID) {
		t.Errorf("user %s was added to project.Users", outsider.ID.Hex())
	}
}

func TestAssignTaskToUser_MissingUser(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	project := seedProject(t, store, "Backend")
	task, err := svc.CreateTask(ctx, &models.Task{Name: "Work", ProjectID: project.ID, EndDate: time.Now()})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	_, err = svc.AssignTaskToUser(ctx, task.ID, primitive.NewObjectID())
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("AssignTaskToUser() error = %v, want NotFound", err)
	}
}

func TestDeleteTask_RemovesProjectReference(t *testing.T) {
	store, svc := newTestTaskService(t)
	ctx := context.Background()

	project := seedProject(t, store, "Backend")
	task, err := svc.CreateTask(ctx, &models.Task{Name: "Work", ProjectID: project.ID, EndDate: time.Now()})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	if got := projectByID(t, store, project.ID); hasID(got.Tasks, task.ID) {
		t.Errorf("project.Tasks still references deleted task %s", task.ID.Hex())
	}
	if _, err := svc.GetTaskByID(ctx, task.ID); !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("GetTaskByID() after delete error = %v, want NotFound", err)
	}
}

func TestDeleteTask_NotFound(t *testing.T) {
	_, svc := newTestTaskService(t)

	err := svc.DeleteTask(context.Background(), primitive.NewObjectID())
	if !models.IsKind(err, models.KindNotFound) {
		t.Fatalf("DeleteTask() error = %v, want NotFound", err)
	}
}
