package domain

import (
	"strings"
	"time"
)

// ReadingStatus tracks where the user is with a saved book.
type ReadingStatus string

// Reading statuses.
const (
	StatusNotStarted ReadingStatus = "not_started"
	StatusReading    ReadingStatus = "reading"
	StatusRead       ReadingStatus = "read"
	StatusQuit       ReadingStatus = "quit"
)

// Valid reports whether s is a known reading status.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusReading, StatusRead, StatusQuit:
		return true
	}
	return false
}

// SavedBook is one entry in the user's saved library. The suggestion engine
// consumes these read-only; writes go through the library store from the UI.
type SavedBook struct {
	ID         string        `json:"id"`
	BookID     string        `json:"book_id"`
	Book       Book          `json:"book"`
	Status     ReadingStatus `json:"status"`
	UserRating int           `json:"user_rating,omitempty"` // 0 = unrated, else 1..5
	Notes      string        `json:"notes,omitempty"`
	SavedAt    time.Time     `json:"saved_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// ReadBooks returns the entries the user has finished.
func ReadBooks(lib []SavedBook) []SavedBook {
	var out []SavedBook
	for _, sb := range lib {
		if sb.Status == StatusRead {
			out = append(out, sb)
		}
	}
	return out
}

// FiveStarBooks returns the entries the user rated five stars.
func FiveStarBooks(lib []SavedBook) []SavedBook {
	var out []SavedBook
	for _, sb := range lib {
		if sb.UserRating == 5 {
			out = append(out, sb)
		}
	}
	return out
}

// SavedTitles returns the set of lowercased titles in the library. No
// recommendation whose title appears in this set is ever shown.
func SavedTitles(lib []SavedBook) map[string]bool {
	titles := make(map[string]bool, len(lib))
	for _, sb := range lib {
		titles[strings.ToLower(sb.Book.Title)] = true
	}
	return titles
}

// KnownAuthors returns the distinct authors across the library, first-seen order.
func KnownAuthors(lib []SavedBook) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sb := range lib {
		for _, a := range sb.Book.Authors {
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// KnownGenres returns the distinct categories across the library, first-seen order.
func KnownGenres(lib []SavedBook) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sb := range lib {
		for _, g := range sb.Book.Categories {
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
