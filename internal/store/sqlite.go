package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the durable Store implementation. One database file holds all
// cache entries; the schema is managed by embedded migrations.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Read(key string) (Entry, bool) {
	var (
		createdAt int64
		payload   []byte
	)
	err := s.db.QueryRow(
		`SELECT created_at, payload FROM cache_entries WHERE key = ?`, key,
	).Scan(&createdAt, &payload)
	if err == sql.ErrNoRows {
		return Entry{}, false
	}
	if err != nil {
		slog.Warn("Cache read failed, treating as miss", "key", key, "error", err)
		return Entry{}, false
	}
	return Entry{Timestamp: time.UnixMilli(createdAt), Payload: payload}, true
}

func (s *SQLite) Write(key string, payload []byte) {
	_, err := s.db.Exec(
		`INSERT INTO cache_entries (key, created_at, payload) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload`,
		key, time.Now().UnixMilli(), payload,
	)
	if err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (s *SQLite) Remove(key string) {
	if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		slog.Warn("Cache remove failed", "key", key, "error", err)
	}
}

func (s *SQLite) KeysWithPrefix(prefix string) []string {
	rows, err := s.db.Query(
		`SELECT key FROM cache_entries WHERE key LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		slog.Warn("Cache key scan failed", "prefix", prefix, "error", err)
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			slog.Warn("Cache key scan failed", "prefix", prefix, "error", err)
			return keys
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		slog.Warn("Cache key scan failed", "prefix", prefix, "error", err)
	}
	return keys
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
