// Package kv is the client's durable key-value storage, kept in a local SQLite
// database under the XDG data directory.
package kv

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "crate"
	dbFileName   = "crate.db"
	saveDebounce = 500 * time.Millisecond
)

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// DB is the SQLite-backed Store. Deferred writes are coalesced and flushed
// after a short quiet period or on Close.
type DB struct {
	db *sql.DB

	debounce  time.Duration
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   map[string]string
}

// Verify DB implements Store at compile time.
var _ Store = (*DB)(nil)

// Open opens the database at the default XDG location.
func Open() (*DB, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath opens or creates the database at path.
func OpenPath(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	// Deferred writes flush from a timer goroutine while the UI reads.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, debounce: saveDebounce}, nil
}

// Get returns the value stored under key. A deferred write not yet flushed is
// visible to Get.
func (d *DB) Get(key string) (string, bool, error) {
	d.saveMu.Lock()
	if v, ok := d.pending[key]; ok {
		d.saveMu.Unlock()
		return v, true, nil
	}
	d.saveMu.Unlock()

	var value string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key immediately.
func (d *DB) Set(key, value string) error {
	d.saveMu.Lock()
	delete(d.pending, key)
	d.saveMu.Unlock()

	return set(d.db, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DB) Delete(key string) error {
	d.saveMu.Lock()
	delete(d.pending, key)
	d.saveMu.Unlock()

	_, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// SetDeferred queues a write; rapid successive writes are coalesced.
func (d *DB) SetDeferred(key, value string) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	if d.pending == nil {
		d.pending = make(map[string]string)
	}
	d.pending[key] = value

	if d.saveTimer != nil {
		d.saveTimer.Stop()
	}
	d.saveTimer = time.AfterFunc(d.debounce, func() {
		_ = d.flush()
	})
}

// flush writes all deferred values in one transaction.
func (d *DB) flush() error {
	d.saveMu.Lock()
	pending := d.pending
	d.pending = nil
	d.saveMu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	return withTx(d.db, func(tx *sql.Tx) error {
		for k, v := range pending {
			if err := set(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close flushes deferred writes and closes the database.
func (d *DB) Close() error {
	d.saveMu.Lock()
	if d.saveTimer != nil {
		d.saveTimer.Stop()
	}
	d.saveMu.Unlock()

	flushErr := d.flush()
	if err := d.db.Close(); err != nil {
		return err
	}
	return flushErr
}

// Deferred is a Store over the same database whose Set goes through
// SetDeferred, for values rewritten on every keystroke.
type Deferred struct {
	*DB
}

// Verify Deferred implements Store at compile time.
var _ Store = Deferred{}

// Deferred returns a view of d with coalesced writes.
func (d *DB) Deferred() Deferred {
	return Deferred{DB: d}
}

// Set queues value under key and never fails. The write happens in the
// background once writes settle, or on Close.
func (d Deferred) Set(key, value string) error {
	d.SetDeferred(key, value)
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func set(e execer, key, value string) error {
	_, err := e.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}
