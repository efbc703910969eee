package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/models"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	slug        TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	section     TEXT NOT NULL DEFAULT 'general',
	category    TEXT NOT NULL DEFAULT 'uncategorized',
	date        TEXT NOT NULL DEFAULT '',
	difficulty  TEXT NOT NULL DEFAULT '',
	level       INTEGER,
	number      INTEGER NOT NULL DEFAULT 0,
	tags        TEXT NOT NULL DEFAULT '[]',
	source_path TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_section ON posts(section);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category);
`

const selectColumns = `slug, title, content, section, category, date, difficulty, level,
	number, tags, source_path, checksum, created_at, updated_at`

// SQLite is the database/sql backed store.
type SQLite struct {
	conn *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Driver returns DriverSQLite.
func (db *SQLite) Driver() string { return DriverSQLite }

// Close closes the underlying database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

// Ping checks that the database answers.
func (db *SQLite) Ping(ctx context.Context) error {
	return wrapErr(ctx, "ping", db.conn.PingContext(ctx))
}

// UpsertBatch writes all posts inside a single transaction.
func (db *SQLite) UpsertBatch(ctx context.Context, posts []models.Post, now time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(ctx, "begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (slug, title, content, section, category, date, difficulty, level,
			number, tags, source_path, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title       = excluded.title,
			content     = excluded.content,
			section     = excluded.section,
			category    = excluded.category,
			date        = excluded.date,
			difficulty  = excluded.difficulty,
			level       = excluded.level,
			number      = excluded.number,
			tags        = excluded.tags,
			source_path = excluded.source_path,
			checksum    = excluded.checksum,
			updated_at  = excluded.updated_at
	`)
	if err != nil {
		return wrapErr(ctx, "prepare upsert", err)
	}
	defer stmt.Close()

	ts := now.UTC()
	for _, p := range posts {
		tagsJSON, _ := json.Marshal(nonNilTags(p.Tags))
		var level sql.NullInt64
		if p.Level != nil {
			level = sql.NullInt64{Int64: int64(*p.Level), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, p.Slug, p.Title, p.Content, p.Section, p.Category, p.Date,
			p.Difficulty, level, p.Number, string(tagsJSON), p.SourcePath, p.Checksum, ts, ts); err != nil {
			return wrapErr(ctx, "upsert "+p.Slug, err)
		}
		// FTS upsert (no-op when the sqlite_fts5 tag is absent).
		if err := ftsUpsert(ctx, tx, p); err != nil {
			return wrapErr(ctx, "fts upsert "+p.Slug, err)
		}
	}

	return wrapErr(ctx, "commit", tx.Commit())
}

// All returns every stored post.
func (db *SQLite) All(ctx context.Context) ([]models.Post, error) {
	return db.query(ctx, "all", `SELECT `+selectColumns+` FROM posts ORDER BY slug`)
}

// BySection returns the posts of one section.
func (db *SQLite) BySection(ctx context.Context, section string) ([]models.Post, error) {
	return db.query(ctx, "by section", `SELECT `+selectColumns+` FROM posts WHERE section = ? ORDER BY slug`, section)
}

// ByCategory returns the posts of one category.
func (db *SQLite) ByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return db.query(ctx, "by category", `SELECT `+selectColumns+` FROM posts WHERE category = ? ORDER BY slug`, category)
}

// BySlug returns one post or apperr.ErrNotFound.
func (db *SQLite) BySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(ctx, "by slug", err)
	}
	return p, nil
}

// Count returns the number of stored posts.
func (db *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, wrapErr(ctx, "count", err)
	}
	return n, nil
}

func (db *SQLite) query(ctx context.Context, op, q string, args ...any) ([]models.Post, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr(ctx, op, err)
		}
		out = append(out, *p)
	}
	return out, wrapErr(ctx, op, rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		p     models.Post
		level sql.NullInt64
		tags  string
	)
	if err := s.Scan(&p.Slug, &p.Title, &p.Content, &p.Section, &p.Category, &p.Date, &p.Difficulty,
		&level, &p.Number, &tags, &p.SourcePath, &p.Checksum, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = p.Slug
	if level.Valid {
		l := int(level.Int64)
		p.Level = &l
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", p.Slug, err)
		}
	}
	if len(p.Tags) == 0 {
		p.Tags = nil
	}
	return &p, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
