package main

import (
	"log"
	"net/http"

	"notesync/config"
	"notesync/config/database"
	"notesync/pkg/logger"
	"notesync/router"
	"notesync/socket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	db := database.Connect(cfg.ConnString())
	defer db.Close()

	// The hub fans accepted writes out to every live session's change feed.
	hub := socket.NewHub(db)
	go hub.Run()

	handler := router.Setup(cfg, db, hub)

	logger.Sugar.Infof("notesync listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Sugar.Fatalf("server: %v", err)
	}
}
