package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"notesync/internal/account/model"
	"notesync/internal/account/service"
)

type Handler struct {
	Service *service.AccountService
}

func NewHandler(s *service.AccountService) *Handler {
	return &Handler{Service: s}
}

type authResponse struct {
	User    *model.User           `json:"user,omitempty"`
	Session *service.SessionToken `json:"session,omitempty"`
	Message string                `json:"message,omitempty"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, session, err := h.Service.SignUp(req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	resp := authResponse{User: &user, Session: session}
	if session == nil {
		resp.Message = "Account created! Please check your email to confirm, then log in."
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) LogIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, session, err := h.Service.LogIn(req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: &user, Session: session})
}

func (h *Handler) LogOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.Service.LogOut()
	w.WriteHeader(http.StatusNoContent)
}

// Session restores a session from a bearer token, returning null when none
// is live, so a reloading client can pick up where it left off.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	writeJSON(w, http.StatusOK, h.Service.CurrentSession(token))
}

// writeAuthError surfaces AuthError messages verbatim; anything else is an
// internal failure and stays generic.
func writeAuthError(w http.ResponseWriter, err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": authErr.Message})
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
