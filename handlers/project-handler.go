package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

func (h *ProjectHandler) GetAllProjects(w http.ResponseWriter, r *http.Request) {
	pagination, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	projects, pageInfo, err := h.service.GetAllProjects(r.Context(), pagination)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":            "OK",
		"projects":       projects,
		"totalDocuments": pageInfo.TotalDocuments,
		"totalPages":     pageInfo.TotalPages,
		"page":           pageInfo.Page,
		"prev":           pageInfo.Prev,
		"next":           pageInfo.Next,
	})
}

func (h *ProjectHandler) GetProjectByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := h.service.GetProjectByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":     "OK",
		"project": project,
	})
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string               `json:"name"`
		Users []primitive.ObjectID `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}
	if body.Name == "" {
		writeError(w, models.NewBadRequest("Name is required"))
		return
	}

	project, err := h.service.CreateProject(r.Context(), body.Name, body.Users)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"msg":        "Project created",
		"newProject": project,
	})
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}

	project, err := h.service.UpdateProject(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":            "Project updated",
		"updatedProject": project,
	})
}

func (h *ProjectHandler) AssignUserToProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathObjectID(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := pathObjectID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := h.service.AssignUserToProject(r.Context(), projectID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":            "OK",
		"projectUpdated": project,
	})
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"msg": "Project with id " + id.Hex() + " was deleted",
	})
}
