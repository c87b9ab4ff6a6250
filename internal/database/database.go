package database

import (
	"fmt"
	"os"
	"sync"

	"database/sql"

	"tripdesk/internal/migrations"
	"tripdesk/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the durable conversation store backed by SQLite. Writes on
// the same conversation are serialized through a per-conversation lock so
// concurrent webhook deliveries cannot interleave last_message_at updates.
type Database struct {
	db        *sql.DB
	encryptor *encryptor

	lockMu    sync.Mutex
	convLocks map[string]*sync.Mutex
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	// Validate database path to prevent directory traversal
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(migrations.InitialSchema()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	encryptor, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{
		db:        db,
		encryptor: encryptor,
		convLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// conversationLock returns the mutex serializing writes for one
// conversation id. Locks are small and never evicted; the process handles
// a bounded set of active threads.
func (d *Database) conversationLock(conversationID string) *sync.Mutex {
	d.lockMu.Lock()
	defer d.lockMu.Unlock()

	lock, ok := d.convLocks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		d.convLocks[conversationID] = lock
	}
	return lock
}
