package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/services"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	pagination, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filters, err := parseTaskFilters(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, pageInfo, err := h.service.GetAllTasks(r.Context(), filters, pagination)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":            "OK",
		"tasks":          tasks,
		"totalDocuments": pageInfo.TotalDocuments,
		"totalPages":     pageInfo.TotalPages,
		"page":           pageInfo.Page,
		"prev":           pageInfo.Prev,
		"next":           pageInfo.Next,
	})
}

func parseTaskFilters(r *http.Request) (models.TaskFilters, error) {
	var filters models.TaskFilters
	query := r.URL.Query()

	if status := query.Get("status"); status != "" {
		taskStatus := models.TaskStatus(status)
		if !taskStatus.IsValid() {
			return filters, models.NewBadRequest("Invalid status, valid ones are: [pending, in progress, completed]")
		}
		filters.Status = taskStatus
	}
	if raw := query.Get("endDate"); raw != "" {
		endDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			endDate, err = time.Parse(time.RFC3339, raw)
		}
		if err != nil {
			return filters, models.NewBadRequest("endDate must be a valid date")
		}
		filters.EndDate = &endDate
	}
	if raw := query.Get("userAssigned"); raw != "" {
		userID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filters, models.NewBadRequest("userAssigned %s is not a valid ObjectId", raw)
		}
		filters.UserAssigned = &userID
	}
	return filters, nil
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.GetTaskByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":  "OK",
		"task": task,
	})
}

func (h *TaskHandler) GetTasksByName(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	tasks, err := h.service.GetTasksByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":   "OK",
		"tasks": tasks,
	})
}

func (h *TaskHandler) GetTasksByDescription(w http.ResponseWriter, r *http.Request) {
	description := mux.Vars(r)["description"]

	tasks, err := h.service.GetTasksByDescription(r.Context(), description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":   "OK",
		"tasks": tasks,
	})
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string               `json:"name"`
		Description string               `json:"description"`
		AssignedTo  []primitive.ObjectID `json:"assignedTo"`
		ProjectID   primitive.ObjectID   `json:"projectId"`
		Status      models.TaskStatus    `json:"status"`
		EndDate     time.Time            `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}
	if body.Name == "" {
		writeError(w, models.NewBadRequest("Name is required"))
		return
	}
	if body.ProjectID.IsZero() {
		writeError(w, models.NewBadRequest("The id of the project is required"))
		return
	}
	if body.EndDate.IsZero() {
		writeError(w, models.NewBadRequest("endDate is required"))
		return
	}
	if body.Status != "" && !body.Status.IsValid() {
		writeError(w, models.NewBadRequest("Invalid status, valid ones are: [pending, in progress, completed]"))
		return
	}

	task := &models.Task{
		Name:        body.Name,
		Description: body.Description,
		AssignedTo:  body.AssignedTo,
		ProjectID:   body.ProjectID,
		Status:      body.Status,
		EndDate:     body.EndDate,
	}

	created, err := h.service.CreateTask(r.Context(), task)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"msg":     "OK",
		"newTask": created,
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		writeError(w, models.NewBadRequest("Invalid status, valid ones are: [pending, in progress, completed]"))
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":     "OK",
		"newTask": task,
	})
}

func (h *TaskHandler) ChangeTaskState(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}
	if !body.Status.IsValid() {
		writeError(w, models.NewBadRequest("Invalid status, valid ones are: [pending, in progress, completed]"))
		return
	}

	task, err := h.service.ChangeTaskState(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":  "Status updated",
		"task": task,
	})
}

func (h *TaskHandler) AssignTaskToUser(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathObjectID(r, "taskId")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := pathObjectID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.AssignTaskToUser(r.Context(), taskID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":  "User assigned",
		"task": task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"msg": "Task with id " + id.Hex() + " was deleted",
	})
}
