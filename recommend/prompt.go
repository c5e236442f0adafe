// Package recommend talks to the recommendation generator: it renders the
// user's library into a prompt, requests JSON-mode chat completions, and
// parses the structured result. Every failure mode collapses to an empty
// result; nothing past this boundary ever sees a generator error.
package recommend

import (
	"fmt"
	"strings"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
)

const (
	bulkSystem     = "You are a book recommendation expert. Provide thoughtful, personalized book recommendations based on reading history. Always return valid JSON."
	categorySystem = "You are a book recommendation expert. Suggest fresh, diverse recommendations. Always return valid JSON."
)

// buildBulkPrompt renders the whole-library prompt asking for all four
// categories at once.
func buildBulkPrompt(lib []domain.SavedBook) string {
	var b strings.Builder
	b.WriteString("Suggest 5 books per category based on this reading history. Be concise.\n\n")
	b.WriteString("SAVED: " + orNone(savedList(lib)) + "\n")
	b.WriteString("READ: " + orNone(readList(lib)) + "\n")
	b.WriteString("5-STAR: " + orNone(fiveStarList(lib)) + "\n\n")
	b.WriteString("KNOWN AUTHORS (for reference): " + orNone(strings.Join(domain.KnownAuthors(lib), ", ")) + "\n")
	b.WriteString("KNOWN GENRES (for reference): " + orNone(strings.Join(domain.KnownGenres(lib), ", ")) + "\n\n")
	b.WriteString("Categories:\n")
	for _, cat := range domain.Categories() {
		fmt.Fprintf(&b, "- %s: %s\n", cat, cat.Description())
	}
	b.WriteString("\nReturn JSON: {\"byAuthors\":[{\"title\":\"...\",\"author\":\"...\",\"genre\":\"...\",\"reason\":\"...\"}],\"byGenres\":[...],\"byRatings\":[...],\"bySomethingNew\":[...]}")
	return b.String()
}

// buildCategoryPrompt renders a single-category prompt with an explicit
// do-not-suggest list covering titles already shown to the user.
func buildCategoryPrompt(lib []domain.SavedBook, cat domain.Category, excludeTitles []string) string {
	var b strings.Builder
	b.WriteString("Suggest 3 NEW and DIFFERENT books based on this reading history. Be creative and suggest books you haven't suggested before.\n\n")
	b.WriteString("SAVED: " + orNone(savedList(lib)) + "\n")
	b.WriteString("READ: " + orNone(readList(lib)) + "\n")
	b.WriteString("5-STAR: " + orNone(fiveStarList(lib)) + "\n\n")
	b.WriteString("KNOWN AUTHORS: " + orNone(strings.Join(domain.KnownAuthors(lib), ", ")) + "\n")
	b.WriteString("KNOWN GENRES: " + orNone(strings.Join(domain.KnownGenres(lib), ", ")) + "\n")
	if len(excludeTitles) > 0 {
		b.WriteString("\nDO NOT SUGGEST THESE (already recommended): " + strings.Join(excludeTitles, ", ") + "\n")
	}
	b.WriteString("\nCategory: " + cat.Description() + "\n\n")
	b.WriteString("Return JSON: {\"recommendations\":[{\"title\":\"...\",\"author\":\"...\",\"genre\":\"...\",\"reason\":\"...\"}]}")
	return b.String()
}

// savedList renders every saved entry with its authors and categories.
func savedList(lib []domain.SavedBook) string {
	lines := make([]string, len(lib))
	for i, sb := range lib {
		lines[i] = fmt.Sprintf("- %q by %s (%s)",
			sb.Book.Title,
			orUnknown(strings.Join(sb.Book.Authors, ", ")),
			orUnknown(strings.Join(sb.Book.Categories, ", ")),
		)
	}
	return strings.Join(lines, "\n")
}

// readList renders finished books with the user's star rating.
func readList(lib []domain.SavedBook) string {
	var lines []string
	for _, sb := range domain.ReadBooks(lib) {
		stars := "unrated"
		if sb.UserRating > 0 {
			stars = fmt.Sprintf("%d", sb.UserRating)
		}
		lines = append(lines, fmt.Sprintf("- %q by %s - %s stars",
			sb.Book.Title,
			orUnknown(strings.Join(sb.Book.Authors, ", ")),
			stars,
		))
	}
	return strings.Join(lines, "\n")
}

// fiveStarList renders the user's five-star books.
func fiveStarList(lib []domain.SavedBook) string {
	var lines []string
	for _, sb := range domain.FiveStarBooks(lib) {
		lines = append(lines, fmt.Sprintf("- %q by %s",
			sb.Book.Title,
			orUnknown(strings.Join(sb.Book.Authors, ", ")),
		))
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
