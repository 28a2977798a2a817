package database

import (
	"database/sql"
	"time"

	"notesync/pkg/logger"

	_ "github.com/lib/pq"
)

func Connect(connStr string) *sql.DB {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open database connection: %v", err)
	}

	// Retry a few times in case of temporary DNS/network blips.
	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	logger.Sugar.Fatalf("Could not connect to database after retries: %v", err)
	return nil
}
