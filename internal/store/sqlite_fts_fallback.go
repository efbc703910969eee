//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"

	"github.com/starford/coursepress/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the posts table.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ models.Post) error {
	return nil
}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *SQLite) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT slug, title, section, substr(content, 1, 200)
		FROM posts
		WHERE title LIKE ? OR content LIKE ? OR tags LIKE ?
		ORDER BY slug
		LIMIT ?
	`, like, like, like, limit)
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
