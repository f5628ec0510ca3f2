package corpus

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Verify interface compliance
var _ Repository = (*Postgres)(nil)

// Postgres reads published posts from the content platform's relational
// store. The query is read-only; the analyzer never writes here.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const publishedQuery = `
SELECT p.id,
       p.title,
       p.slug,
       p.content,
       COALESCE(p.excerpt, ''),
       COALESCE(p.tags, '{}'),
       COALESCE(p.seo_keywords, ''),
       COALESCE(c.name, ''),
       p.view_count,
       p.published_at
FROM posts p
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.status = 'published'
  AND p.deleted_at IS NULL`

// Published lists published, non-deleted posts, excluding one id when
// provided.
func (r *Postgres) Published(ctx context.Context, excludeID string) ([]Entry, error) {
	query := publishedQuery
	var args []interface{}
	if excludeID != "" {
		query += " AND p.id <> $1"
		args = append(args, excludeID)
	}
	query += " ORDER BY p.published_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query published posts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.Title,
			&e.Slug,
			&e.Content,
			&e.Excerpt,
			pq.Array(&e.Tags),
			&e.Keywords,
			&e.CategoryName,
			&e.ViewCount,
			&e.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan published post: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate published posts: %w", err)
	}
	return entries, nil
}
