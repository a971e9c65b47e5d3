package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/earshot-dev/earshot/pkg/logger"
)

// MessageRecord represents one dispatched SMS in the database
type MessageRecord struct {
	ID        int64     `json:"id"`
	SID       string    `json:"sid"`
	ToNumber  string    `json:"to"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}

// MessageStorage handles persistence of dispatched messages
type MessageStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewMessageStorage opens (or creates) the SQLite database at the given path
// and initializes the schema.
func NewMessageStorage(dbPath string, log *logger.Logger) (*MessageStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &MessageStorage{
		db:     db,
		logger: log.Named("sqlite-messages"),
	}

	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *MessageStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sid TEXT NOT NULL,
			to_number TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	return nil
}

// StoreMessage stores a dispatched message record
func (s *MessageStorage) StoreMessage(record *MessageRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO messages (sid, to_number, body, created_at) VALUES (?, ?, ?, ?)`,
		record.SID,
		record.ToNumber,
		record.Body,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// GetMessages returns dispatched messages, newest first, with pagination
func (s *MessageStorage) GetMessages(limit, offset int) ([]*MessageRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, sid, to_number, body, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var records []*MessageRecord
	for rows.Next() {
		var record MessageRecord
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.SID,
			&record.ToNumber,
			&record.Body,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return records, nil
}

// Close closes the underlying database handle
func (s *MessageStorage) Close() error {
	return s.db.Close()
}
