package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/svcclient/internal/cookies"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store implements cookies.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New creates a new SQLite-based cookie store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cookie database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cookies (
			id TEXT PRIMARY KEY,
			jar TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			domain TEXT NOT NULL,
			path TEXT NOT NULL,
			value TEXT NOT NULL,
			secure INTEGER NOT NULL DEFAULT 0,
			expires TEXT,
			updated_at DATETIME NOT NULL,
			UNIQUE(jar, domain, path, name)
		);

		CREATE INDEX IF NOT EXISTS idx_cookies_jar ON cookies(jar, position);
		CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load returns the non-expired cookies of a partition in insertion order.
func (s *Store) Load(ctx context.Context, domain string) ([]*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, domain, path, value, secure, expires
		FROM cookies
		WHERE jar = ?
		ORDER BY position
	`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanCookies(rows)
	if err != nil {
		return nil, err
	}
	return cookies.Unexpired(list, time.Now()), nil
}

// Save replaces the cookies of a partition in a single transaction.
func (s *Store) Save(ctx context.Context, domain string, list []*cookies.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cookies WHERE jar = ?`, domain); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO cookies
		(id, jar, position, name, domain, path, value, secure, expires, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, c := range list {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), domain, i,
			c.Name, c.Domain, c.Path, c.Value,
			boolToInt(c.Secure), nullExpires(c.Expires), now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Domains lists the stored partitions.
func (s *Store) Domains(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT jar FROM cookies ORDER BY jar`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// Delete removes a partition.
func (s *Store) Delete(ctx context.Context, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE jar = ?`, domain)
	return err
}

// DeleteExpired removes all expired cookies and returns count.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, cookies.ErrStoreClosed
	}

	// Canonical expiry strings sort chronologically.
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE expires IS NOT NULL AND expires < ?
	`, cookies.FormatExpires(time.Now()))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullExpires(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return cookies.FormatExpires(t)
}

// scanCookies runs every row through the validator so the store never
// hands out a record that breaks the cookie invariants.
func scanCookies(rows *sql.Rows) ([]*cookies.Cookie, error) {
	var result []*cookies.Cookie
	for rows.Next() {
		var r cookies.Record
		var secure int
		var expires sql.NullString

		if err := rows.Scan(&r.Name, &r.Domain, &r.Path, &r.Value, &secure, &expires); err != nil {
			return nil, err
		}
		r.Secure = secure != 0
		if expires.Valid {
			r.Expires = &expires.String
		}

		c, err := cookies.Validate(r.Raw(), nil)
		if err != nil {
			continue
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
