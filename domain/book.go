// Package domain contains the core entities for the Bookmarked suggestion engine.
package domain

// Book record sources.
const (
	// SourceGoogle identifies records that came from the Google Books catalog.
	SourceGoogle = "google"
	// SourceGenerated identifies placeholder records synthesized for
	// recommendations the catalog could not resolve.
	SourceGenerated = "generated"
)

// Book is a catalog entry. Identity is (Source, ID); instances are treated as
// immutable once constructed.
type Book struct {
	ID            string   `json:"id"`
	Source        string   `json:"source"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Description   string   `json:"description,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	RatingsCount  int      `json:"ratings_count,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"` // ISO-ish, partial dates allowed
	PageCount     int      `json:"page_count,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	Language      string   `json:"language,omitempty"` // ISO 639-1
}

// Key returns the catalog-scoped identity of the book.
func (b *Book) Key() string {
	return b.Source + ":" + b.ID
}

// HasCover reports whether the book carries a cover image URL.
func (b *Book) HasCover() bool {
	return b.CoverURL != ""
}

// PrimaryAuthor returns the first listed author, or empty when unknown.
func (b *Book) PrimaryAuthor() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0]
}
