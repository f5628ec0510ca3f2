// Package corpus provides read-only access to the published documents the
// internal link suggestion engine matches against. The analyzer only
// depends on the Repository interface; adapters for an in-memory store,
// postgres and a redis read-through cache live alongside it.
package corpus

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("corpus unavailable")

// Entry is one published document as seen by the link engine. Entries are
// never mutated by the analyzer.
type Entry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt"`
	Tags         []string  `json:"tags"`
	Keywords     string    `json:"keywords"` // comma-joined SEO keywords
	CategoryName string    `json:"categoryName"`
	ViewCount    int       `json:"viewCount"`
	PublishedAt  time.Time `json:"publishedAt"`
}

// Repository lists published, non-deleted documents, optionally excluding
// one id so a document never links to itself.
type Repository interface {
	Published(ctx context.Context, excludeID string) ([]Entry, error)
}
