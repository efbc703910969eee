//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/coursepress/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			section UNINDEXED,
			title,
			content,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, p models.Post) error {
	_, _ = tx.ExecContext(ctx, `DELETE FROM posts_fts WHERE slug = ?`, p.Slug)
	_, err := tx.ExecContext(ctx, `INSERT INTO posts_fts (slug, section, title, content, tags) VALUES (?, ?, ?, ?, ?)`,
		p.Slug, p.Section, p.Title, p.Content, strings.Join(p.Tags, " "))
	if err != nil {
		return fmt.Errorf("upsert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *SQLite) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT slug,
		       title,
		       section,
		       snippet(posts_fts, 3, '<b>', '</b>', '...', 64)
		FROM posts_fts
		WHERE posts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, wrapErr(ctx, "search", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Section, &r.Snippet); err != nil {
			return nil, wrapErr(ctx, "search", err)
		}
		out = append(out, r)
	}
	return out, wrapErr(ctx, "search", rows.Err())
}
