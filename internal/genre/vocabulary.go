// Package genre provides the genre vocabulary used to classify search queries.
package genre

import "strings"

// Vocabulary is the fixed set of common genre and category terms. A query that
// matches any of these (equals, contains, or is contained by) is treated as a
// genre-style search and additionally issued as a subject-scoped sub-search.
var Vocabulary = []string{
	"fiction",
	"nonfiction",
	"non-fiction",
	"fantasy",
	"epic fantasy",
	"urban fantasy",
	"dark fantasy",
	"science fiction",
	"sci-fi",
	"space opera",
	"cyberpunk",
	"dystopian",
	"post-apocalyptic",
	"time travel",
	"mystery",
	"thriller",
	"suspense",
	"crime",
	"noir",
	"detective",
	"romance",
	"romantasy",
	"historical romance",
	"contemporary romance",
	"horror",
	"gothic",
	"supernatural",
	"paranormal",
	"literary fiction",
	"historical fiction",
	"adventure",
	"western",
	"humor",
	"satire",
	"young adult",
	"middle grade",
	"children",
	"graphic novel",
	"poetry",
	"biography",
	"autobiography",
	"memoir",
	"self-help",
	"business",
	"finance",
	"history",
	"science",
	"nature",
	"philosophy",
	"psychology",
	"religion",
	"spirituality",
	"true crime",
	"travel",
	"cooking",
	"health",
	"politics",
	"technology",
	"classics",
}

// IsGenreQuery reports whether the query reads like a genre or category term.
// Matching is case-insensitive: the query may equal a vocabulary entry,
// contain one, or be contained by one ("romanta" matches "romantasy").
func IsGenreQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, term := range Vocabulary {
		if q == term || strings.Contains(q, term) || strings.Contains(term, q) {
			return true
		}
	}
	return false
}
