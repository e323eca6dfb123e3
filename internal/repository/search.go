package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// SearchParams narrows a published-works search. Zero values mean "no
// filter".
type SearchParams struct {
	// Title is matched case-insensitively as a substring.
	Title string
	// AuthorID restricts to a single author.
	AuthorID uint
	// AuthorIDs restricts to a set of authors (the subscriptions filter).
	AuthorIDs []uint
	// Window restricts by publication recency: "day", "week", "month",
	// "year" or "all".
	Window string
	// Sort orders results: "rating", "time" or "" (creation order).
	Sort string

	Page  int
	Limit int
}

// windowStart translates a recency window into its cutoff instant. A zero
// time means no cutoff.
func windowStart(window string, now time.Time) time.Time {
	switch window {
	case "day":
		return now.AddDate(0, 0, -1)
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// applySearch narrows the query to published rows matching the params.
// Portable across postgres and sqlite.
func applySearch(db *gorm.DB, p SearchParams) *gorm.DB {
	q := db.Where("published_at IS NOT NULL")

	if p.Title != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(p.Title)+"%")
	}
	if p.AuthorID != 0 {
		q = q.Where("author_id = ?", p.AuthorID)
	}
	if p.AuthorIDs != nil {
		q = q.Where("author_id IN ?", p.AuthorIDs)
	}
	if cutoff := windowStart(p.Window, time.Now()); !cutoff.IsZero() {
		q = q.Where("published_at >= ?", cutoff)
	}

	switch p.Sort {
	case "rating":
		q = q.Order("rating DESC")
	case "time":
		q = q.Order("published_at DESC")
	default:
		q = q.Order("created_at DESC")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return q.Limit(limit).Offset((page - 1) * limit)
}
