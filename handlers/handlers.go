package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SantiagoArteche/ober-api/models"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Every response uses the same envelope: {"msg": "OK", ...} on success and
// {"msg": "ERROR", "error": ...} on failure, with the taxonomy kind mapped
// to the HTTP status. Anything outside the taxonomy renders as a 500 without
// leaking the underlying error.

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	if appErr, ok := models.AsError(err); ok {
		writeJSON(w, appErr.Status(), map[string]string{
			"msg":   "ERROR",
			"error": appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"msg":   "ERROR",
		"error": "Internal Server Error",
	})
}

func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := mux.Vars(r)[name]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.NewBadRequest("%s %s is not a valid ObjectId", name, raw)
	}
	return id, nil
}

// parsePagination reads skip/limit query parameters with defaults of skip 0
// and limit 10, rejecting malformed or negative values.
func parsePagination(r *http.Request) (models.Pagination, error) {
	p := models.Pagination{Skip: 0, Limit: 10}

	if raw := r.URL.Query().Get("skip"); raw != "" {
		skip, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || skip < 0 {
			return p, models.NewBadRequest("skip must be a non-negative integer")
		}
		p.Skip = skip
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			return p, models.NewBadRequest("limit must be a positive integer")
		}
		p.Limit = limit
	}
	return p, nil
}
