package catalog

import (
	"sort"
	"strings"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/normalize"
)

// Ranking bonuses. Secondary signals only: when two results' title-match
// scores differ by scoreGap or more, the title match alone decides order.
const (
	languageBonus = 4
	coverBonus    = 2
	scoreGap      = 20
)

// stopwords rule a query out of the author-like heuristic: author names don't
// contain articles or prepositions.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
}

// isAuthorLike reports whether the query reads like an author name:
// at most three words, none of them a stopword.
func isAuthorLike(query string) bool {
	words := normalize.Words(query)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		if stopwords[w] {
			return false
		}
	}
	return true
}

// TitleMatchScore rates how well a title matches a query, 0-100. Both sides
// are lowercased and lose a leading "the " before comparison, so
// TitleMatchScore("The Hobbit", "hobbit") is an exact match.
//
// Rule order matters:
//
//	100  exact match
//	 80  title starts with the query
//	 60  every query word appears in the title, in order (multi-word queries only)
//	 40  every query word appears somewhere in the title
//	  n  20 x fraction of query words found
//	  0  nothing matched
func TitleMatchScore(title, query string) int {
	t := normalize.SearchKey(title)
	q := normalize.SearchKey(query)
	if t == "" || q == "" {
		return 0
	}

	if t == q {
		return 100
	}
	if strings.HasPrefix(t, q) {
		return 80
	}

	words := strings.Fields(q)
	if len(words) > 1 && wordsInOrder(t, words) {
		return 60
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(t, w) {
			matched++
		}
	}
	if matched == len(words) {
		return 40
	}
	return 20 * matched / len(words)
}

// wordsInOrder reports whether every word occurs in s left to right.
func wordsInOrder(s string, words []string) bool {
	offset := 0
	for _, w := range words {
		idx := strings.Index(s[offset:], w)
		if idx < 0 {
			return false
		}
		offset += idx + len(w)
	}
	return true
}

// rank sorts books by title-match score against the query, best first.
// Secondary bonuses (English language, cover present) only break near-ties:
// a title-match gap of scoreGap or more is decisive on its own. The sort is
// stable, so merge priority survives as the final tiebreak.
func rank(books []domain.Book, query string) {
	scores := make(map[string]int, len(books))
	for i := range books {
		scores[books[i].Key()] = TitleMatchScore(books[i].Title, query)
	}

	sort.SliceStable(books, func(i, j int) bool {
		si, sj := scores[books[i].Key()], scores[books[j].Key()]
		if diff := si - sj; diff >= scoreGap || diff <= -scoreGap {
			return si > sj
		}
		return si+secondaryScore(&books[i]) > sj+secondaryScore(&books[j])
	})
}

// secondaryScore computes the near-tie bonuses for a result.
func secondaryScore(b *domain.Book) int {
	score := 0
	if normalize.IsEnglish(b.Language) {
		score += languageBonus
	}
	if b.HasCover() {
		score += coverBonus
	}
	return score
}
