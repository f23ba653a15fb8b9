package sqlite

import (
	"database/sql"
	"fmt"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and creates the grabs table if it
// doesn't exist. Use ":memory:" for a throwaway database.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite serialises writers; one connection also keeps :memory: consistent
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS grabs (
		id INTEGER PRIMARY KEY,
		download_id TEXT UNIQUE NOT NULL,
		client TEXT NOT NULL,
		kind TEXT NOT NULL,
		source TEXT,
		grabbed_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create grabs table: %w", err)
	}

	return db, nil
}
