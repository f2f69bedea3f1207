package devserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Upload is one stored CSV. Stats is nil when the file could not be analysed.
type Upload struct {
	ID         int64
	Filename   string
	StoredPath string
	UploadedAt string
	Stats      *Stats
}

// Open creates or opens the SQLite database at the given path and runs
// schema initialization.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS uploads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  filename TEXT NOT NULL,
  stored_path TEXT NOT NULL,
  uploaded_at TEXT NOT NULL,
  stats TEXT
);

CREATE TABLE IF NOT EXISTS tokens (
  token TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  created_at INTEGER NOT NULL
);
`
	_, err := db.Exec(schema)
	return err
}

// InsertUpload records a received file and returns its id
func (db *DB) InsertUpload(filename, storedPath string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO uploads (filename, stored_path, uploaded_at) VALUES (?, ?, ?)`,
		filename, storedPath, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert upload: %w", err)
	}
	return id, nil
}

// SetStats stores the analysis of upload id
func (db *DB) SetStats(id int64, stats Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if _, err := db.Exec(`UPDATE uploads SET stats = ? WHERE id = ?`, string(raw), id); err != nil {
		return fmt.Errorf("set stats: %w", err)
	}
	return nil
}

// ListUploads returns all uploads, most recent first
func (db *DB) ListUploads() ([]Upload, error) {
	rows, err := db.Query(`
		SELECT id, filename, stored_path, uploaded_at, stats
		FROM uploads ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// LatestAnalysed returns the most recent upload that has stats
func (db *DB) LatestAnalysed() (Upload, error) {
	row := db.QueryRow(`
		SELECT id, filename, stored_path, uploaded_at, stats
		FROM uploads WHERE stats IS NOT NULL ORDER BY id DESC LIMIT 1
	`)
	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (Upload, error) {
	var (
		u   Upload
		raw sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Filename, &u.StoredPath, &u.UploadedAt, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Upload{}, err
		}
		return Upload{}, fmt.Errorf("scan upload: %w", err)
	}
	if raw.Valid {
		var st Stats
		if err := json.Unmarshal([]byte(raw.String), &st); err != nil {
			return Upload{}, fmt.Errorf("decode stats of upload %d: %w", u.ID, err)
		}
		u.Stats = &st
	}
	return u, nil
}

// IssueToken returns the user's token, creating one on first login
func (db *DB) IssueToken(username string) (string, error) {
	var token string
	err := db.QueryRow(`SELECT token FROM tokens WHERE username = ?`, username).Scan(&token)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get token: %w", err)
	}

	token = strings.ReplaceAll(uuid.New().String(), "-", "")
	if _, err := db.Exec(
		`INSERT INTO tokens (token, username, created_at) VALUES (?, ?, ?)`,
		token, username, time.Now().Unix(),
	); err != nil {
		return "", fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// Username resolves a token to its owner
func (db *DB) Username(token string) (string, error) {
	var username string
	err := db.QueryRow(`SELECT username FROM tokens WHERE token = ?`, token).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	return username, nil
}

// RevokeToken deletes the user's token so the next request gets a 401
func (db *DB) RevokeToken(username string) error {
	if _, err := db.Exec(`DELETE FROM tokens WHERE username = ?`, username); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
