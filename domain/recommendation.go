package domain

// Recommendation is a single item produced by the recommendation generator.
// It carries no identity beyond its title; deduplication against the saved
// library and across "more" pages is by lowercased title.
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Reason string `json:"reason"`
}

// Category is one of the named recommendation groupings.
type Category string

// The four recommendation categories.
const (
	CategoryByAuthors      Category = "byAuthors"
	CategoryByGenres       Category = "byGenres"
	CategoryByRatings      Category = "byRatings"
	CategoryBySomethingNew Category = "bySomethingNew"
)

// Categories lists all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryByAuthors,
		CategoryByGenres,
		CategoryByRatings,
		CategoryBySomethingNew,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryByAuthors, CategoryByGenres, CategoryByRatings, CategoryBySomethingNew:
		return true
	}
	return false
}

// Description returns the prompt text describing what the category should contain.
func (c Category) Description() string {
	switch c {
	case CategoryByAuthors:
		return "More books by authors from the saved list"
	case CategoryByGenres:
		return "Books in similar genres to what they've read"
	case CategoryByRatings:
		return "Books similar to their 5-star rated books"
	case CategoryBySomethingNew:
		return "Books by AUTHORS NOT in the known authors list, but in genres SIMILAR to their known genres. Help them discover new voices in familiar territory."
	default:
		return ""
	}
}

// Eligible reports whether the category should be fetched at all for the given
// library. Ineligible categories are never fetched.
func (c Category) Eligible(lib []SavedBook) bool {
	switch c {
	case CategoryByAuthors, CategoryBySomethingNew:
		return len(lib) > 0
	case CategoryByGenres:
		return len(ReadBooks(lib)) > 0
	case CategoryByRatings:
		return len(FiveStarBooks(lib)) > 0
	}
	return false
}
