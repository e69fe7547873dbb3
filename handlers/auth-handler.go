package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SantiagoArteche/ober-api/models"
	"github.com/SantiagoArteche/ober-api/services"
	"github.com/gorilla/mux"
)

type AuthHandler struct {
	service *services.UserService
}

func NewAuthHandler(service *services.UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Captcha  string `json:"captcha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, models.NewBadRequest("name, email and password are required"))
		return
	}

	user, err := h.service.CreateUser(r.Context(), body.Name, body.Email, body.Password, body.Captcha)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"msg": "User created",
		"newUser": map[string]string{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, models.NewBadRequest("Invalid request payload"))
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, models.NewBadRequest("email and password are required"))
		return
	}

	_, token, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"msg":   "Successfull login",
		"token": token,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "auth_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Successfull logout"})
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathObjectID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"msg": "User with id " + id.Hex() + " was deleted",
	})
}
