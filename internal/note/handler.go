package note

import (
	"encoding/json"
	"net/http"

	"notesync/internal/note/model"
	"notesync/internal/note/service"
	"notesync/middleware"
)

type Handler struct {
	Service *service.NoteService
}

func NewHandler(s *service.NoteService) *Handler {
	return &Handler{Service: s}
}

// Note serves the authenticated owner's single note: GET reads it (creating
// an empty one on first access), PUT saves new content.
func (h *Handler) Note(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value(middleware.UserIDKey).(string)

	switch r.Method {
	case http.MethodGet:
		n, err := h.Service.Get(ownerID)
		if err != nil {
			http.Error(w, "Failed to load note", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, n)

	case http.MethodPut:
		var req model.SaveNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		n, err := h.Service.Save(ownerID, req.Content)
		if err != nil {
			http.Error(w, "Failed to save note", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, n)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
