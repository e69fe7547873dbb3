package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SantiagoArteche/ober-api/handlers"
	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/services"
	"github.com/SantiagoArteche/ober-api/testutil"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestRouter(t *testing.T) (*testutil.MemoryStore, *mux.Router) {
	t.Helper()
	store := testutil.NewMemoryStore()
	logger := logging.NewNop()
	membership := services.NewMembershipService(store.Projects())
	taskService := services.NewTaskService(store.Tasks(), store.Projects(), store.Users(), membership, store.TxRunner(), logger)
	projectService := services.NewProjectService(store.Projects(), store.Tasks(), store.Users(), store.TxRunner(), logger)

	taskHandler := handlers.NewTaskHandler(taskService)
	projectHandler := handlers.NewProjectHandler(projectService)

	r := mux.NewRouter()
	r.HandleFunc("/api/projects", projectHandler.GetAllProjects).Methods(http.MethodGet)
	r.HandleFunc("/api/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{id}", projectHandler.GetProjectByID).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/state/{id}", taskHandler.ChangeTaskState).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	return store, r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, decoded
}

func TestCreateTaskEndpoint(t *testing.T) {
	store, router := newTestRouter(t)

	project := &models.Project{Name: "Backend", Tasks: []primitive.ObjectID{}}
	if err := store.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	rec, body := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]interface{}{
		"name":      "Write endpoints",
		"projectId": project.ID.Hex(),
		"endDate":   time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if body["msg"] != "OK" {
		t.Errorf("msg = %v, want OK", body["msg"])
	}
	newTask, ok := body["newTask"].(map[string]interface{})
	if !ok {
		t.Fatalf("newTask missing in response: %v", body)
	}
	if newTask["status"] != string(models.StatusPending) {
		t.Errorf("status = %v, want %q", newTask["status"], models.StatusPending)
	}
	if newTask["description"] != models.DefaultTaskDescription {
		t.Errorf("description = %v, want %q", newTask["description"], models.DefaultTaskDescription)
	}
}

func TestCreateTaskEndpoint_Validation(t *testing.T) {
	_, router := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing name", body: map[string]interface{}{
			"projectId": primitive.NewObjectID().Hex(),
			"endDate":   time.Now().Format(time.RFC3339),
		}},
		{name: "missing projectId", body: map[string]interface{}{
			"name":    "Work",
			"endDate": time.Now().Format(time.RFC3339),
		}},
		{name: "missing endDate", body: map[string]interface{}{
			"name":      "Work",
			"projectId": primitive.NewObjectID().Hex(),
		}},
		{name: "invalid status", body: map[string]interface{}{
			"name":      "Work",
			"projectId": primitive.NewObjectID().Hex(),
			"endDate":   time.Now().Format(time.RFC3339),
			"status":    "done",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/api/tasks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if body["msg"] != "ERROR" {
				t.Errorf("msg = %v, want ERROR", body["msg"])
			}
			if body["error"] == nil || body["error"] == "" {
				t.Error("error message missing from envelope")
			}
		})
	}
}

func TestCreateTaskEndpoint_MissingProjectIs404(t *testing.T) {
	_, router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]interface{}{
		"name":      "Orphan",
		"projectId": primitive.NewObjectID().Hex(),
		"endDate":   time.Now().Format(time.RFC3339),
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body["msg"] != "ERROR" {
		t.Errorf("msg = %v, want ERROR", body["msg"])
	}
}

func TestGetTaskEndpoint_InvalidObjectID(t *testing.T) {
	_, router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/api/tasks/not-an-id", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body["msg"] != "ERROR" {
		t.Errorf("msg = %v, want ERROR", body["msg"])
	}
}

func TestGetAllTasksEndpoint_PaginationValidation(t *testing.T) {
	_, router := newTestRouter(t)

	for _, path := range []string{
		"/api/tasks?skip=-1",
		"/api/tasks?limit=0",
		"/api/tasks?limit=abc",
		"/api/tasks?status=done",
		"/api/tasks?userAssigned=zzz",
	} {
		rec, _ := doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestGetAllProjectsEndpoint_Envelope(t *testing.T) {
	store, router := newTestRouter(t)

	for i := 0; i < 3; i++ {
		project := &models.Project{Name: fmt.Sprintf("Project %d", i), Tasks: []primitive.ObjectID{}}
		if err := store.Projects().Create(context.Background(), project); err != nil {
			t.Fatalf("seed project: %v", err)
		}
	}

	rec, body := doJSON(t, router, http.MethodGet, "/api/projects?skip=0&limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body["msg"] != "OK" {
		t.Errorf("msg = %v, want OK", body["msg"])
	}
	if got := body["totalDocuments"].(float64); got != 3 {
		t.Errorf("totalDocuments = %v, want 3", got)
	}
	if got := body["totalPages"].(float64); got != 2 {
		t.Errorf("totalPages = %v, want 2", got)
	}
	if body["prev"] != nil {
		t.Errorf("prev = %v, want null on the first page", body["prev"])
	}
	if got := body["next"].(float64); got != 2 {
		t.Errorf("next = %v, want 2", got)
	}
	projects, ok := body["projects"].([]interface{})
	if !ok || len(projects) != 2 {
		t.Errorf("projects = %v, want a page of 2", body["projects"])
	}
}

func TestDeleteTaskEndpoint(t *testing.T) {
	store, router := newTestRouter(t)
	ctx := context.Background()

	project := &models.Project{Name: "Backend", Tasks: []primitive.ObjectID{}}
	if err := store.Projects().Create(ctx, project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	_, created := doJSON(t, router, http.MethodPost, "/api/tasks", map[string]interface{}{
		"name":      "Short lived",
		"projectId": project.ID.Hex(),
		"endDate":   time.Now().Format(time.RFC3339),
	})
	id := created["newTask"].(map[string]interface{})["id"].(string)

	rec, body := doJSON(t, router, http.MethodDelete, "/api/tasks/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	want := "Task with id " + id + " was deleted"
	if body["msg"] != want {
		t.Errorf("msg = %v, want %q", body["msg"], want)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/tasks/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
