// Package chatlog provides the append-only chat record store.
// Clean Architecture: Adapter implementing ports.ChatLogStore.
package chatlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store persists query/response exchanges in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the chat log store at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// initSchema creates the necessary tables.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		topic TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chat_logs_username ON chat_logs(username);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one exchange and returns its row id.
func (s *Store) Append(ctx context.Context, rec entities.ChatRecord) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_logs (username, query, response, topic) VALUES (?, ?, ?, ?)",
		rec.Username, rec.Query, rec.Response, rec.Topic,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting chat record: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns up to limit records for a user, newest first.
func (s *Store) Recent(ctx context.Context, username string, limit int) ([]entities.ChatRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, query, response, COALESCE(topic, ''), created_at "+
			"FROM chat_logs WHERE username = ? ORDER BY id DESC LIMIT ?",
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat records: %w", err)
	}
	defer rows.Close()

	var records []entities.ChatRecord
	for rows.Next() {
		var rec entities.ChatRecord
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Query, &rec.Response, &rec.Topic, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
