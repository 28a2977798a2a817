package router

import (
	"database/sql"
	"net/http"

	"notesync/config"
	"notesync/internal/account"
	accountrepo "notesync/internal/account/repository"
	accountsvc "notesync/internal/account/service"
	"notesync/internal/note"
	noterepo "notesync/internal/note/repository"
	notesvc "notesync/internal/note/service"
	"notesync/middleware"
	"notesync/socket"
)

func Setup(cfg config.Config, db *sql.DB, hub *socket.Hub) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware([]byte(cfg.JWTSecret))

	// WebSocket change feed, scoped to the authenticated owner.
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, r, ownerID)
	})
	mux.Handle("/ws", auth(wsHandler))

	// Account Service
	accounts := accountsvc.NewAccountService(accountrepo.NewAccountRepository(db), []byte(cfg.JWTSecret), cfg.RequireEmailConfirmation)
	accountHandler := account.NewHandler(accounts)
	mux.Handle("/api/auth/signup", http.HandlerFunc(accountHandler.SignUp))
	mux.Handle("/api/auth/login", http.HandlerFunc(accountHandler.LogIn))
	mux.Handle("/api/auth/logout", http.HandlerFunc(accountHandler.LogOut))
	mux.Handle("/api/auth/session", http.HandlerFunc(accountHandler.Session))

	// Document Store
	notes := notesvc.NewNoteService(noterepo.NewNoteRepository(db), hub)
	noteHandler := note.NewHandler(notes)
	mux.Handle("/api/note", auth(http.HandlerFunc(noteHandler.Note)))

	return middleware.CORSMiddleware(mux)
}
