package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JoeWakeling/newswire/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	password_hash BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS stories (
	key       INTEGER PRIMARY KEY AUTOINCREMENT,
	headline  TEXT NOT NULL,
	category  TEXT NOT NULL,
	region    TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date      TEXT NOT NULL,
	details   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stories_date ON stories(date);
`

// SQLiteStore persists stories and users in a single SQLite file.
type SQLiteStore struct {
	conn *sql.DB
}

// Open creates or opens the database at the given path and migrates the
// schema. The parent directory is created if missing.
func Open(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// CreateStory inserts the story and fills in its server-assigned key.
func (s *SQLiteStore) CreateStory(ctx context.Context, story *model.Story) error {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO stories (headline, category, region, author_id, date, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		story.Headline, string(story.Category), string(story.Region),
		story.AuthorID, story.Date.Format(model.StoreDateLayout), story.Details,
	)
	if err != nil {
		return fmt.Errorf("inserting story: %w", err)
	}
	story.Key, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) GetStory(ctx context.Context, key int64) (*model.Story, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT s.key, s.headline, s.category, s.region, s.author_id, u.display_name, s.date, s.details
		 FROM stories s JOIN users u ON u.id = s.author_id
		 WHERE s.key = ?`, key)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return story, err
}

// DeleteStory removes the story with the given key. Returns ErrNotFound if
// no row was deleted.
func (s *SQLiteStore) DeleteStory(ctx context.Context, key int64) error {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM stories WHERE key = ?", key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryStories returns stories matching the filter, ordered by ascending
// publication date. The date lower bound is always applied; a zero Since
// falls back to the epoch so it matches everything.
func (s *SQLiteStore) QueryStories(ctx context.Context, f model.Filter) ([]model.Story, error) {
	query := `SELECT s.key, s.headline, s.category, s.region, s.author_id, u.display_name, s.date, s.details
		FROM stories s JOIN users u ON u.id = s.author_id
		WHERE s.date >= ?`
	args := []any{f.Since.Format(model.StoreDateLayout)}
	if f.Category != "" {
		query += " AND s.category = ?"
		args = append(args, string(f.Category))
	}
	if f.Region != "" {
		query += " AND s.region = ?"
		args = append(args, string(f.Region))
	}
	query += " ORDER BY s.date ASC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []model.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	return stories, rows.Err()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, displayName string, passwordHash []byte) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		"INSERT INTO users (username, display_name, password_hash) VALUES (?, ?, ?)",
		username, displayName, passwordHash,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.conn.QueryRowContext(ctx,
		"SELECT id, username, display_name, password_hash FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (*model.Story, error) {
	var (
		story    model.Story
		cat, reg string
		date     string
	)
	if err := row.Scan(&story.Key, &story.Headline, &cat, &reg, &story.AuthorID, &story.Author, &date, &story.Details); err != nil {
		return nil, err
	}
	story.Category = model.Category(cat)
	story.Region = model.Region(reg)
	t, err := time.Parse(model.StoreDateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("corrupt date %q for story %d: %w", date, story.Key, err)
	}
	story.Date = t
	return &story, nil
}
