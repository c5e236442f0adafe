// Package suggest turns raw recommendation items into displayable book
// records and owns the per-category suggestion state machine.
package suggest

import (
	"context"
	"log/slog"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/join"
	"github.com/bookmarkedapp/bookmarked-engine/internal/util"
	"github.com/bookmarkedapp/bookmarked-engine/ratings"
)

// lookupLimit bounds concurrent catalog lookups during a resolve batch.
const lookupLimit = 5

// CatalogLookup finds the catalog record for an exact title/author pair.
// A nil result means the catalog has no match.
type CatalogLookup interface {
	LookupByTitleAuthor(ctx context.Context, title, author string) *domain.Book
}

// RatingsSource backfills community ratings by ISBN. Nil means no data.
type RatingsSource interface {
	Get(ctx context.Context, isbn string) *ratings.Ratings
}

// Resolver maps recommendation items to book records via catalog lookup,
// synthesizing a placeholder for every item the catalog cannot find.
type Resolver struct {
	catalog CatalogLookup
	ratings RatingsSource // optional
	logger  *slog.Logger
}

// NewResolver creates a resolver. The ratings source may be nil to skip
// rating enrichment.
func NewResolver(catalog CatalogLookup, ratings RatingsSource, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		ratings: ratings,
		logger:  logger,
	}
}

// Resolve looks up every item concurrently and returns one record per item
// in input order. A catalog miss yields a placeholder, never a gap; items
// are only dropped when resolution itself panics, which is caught per item.
func (r *Resolver) Resolve(ctx context.Context, items []domain.Recommendation) []domain.Book {
	if len(items) == 0 {
		return nil
	}

	results := join.Map(ctx, lookupLimit, items, func(ctx context.Context, item domain.Recommendation) (domain.Book, error) {
		return r.resolveOne(ctx, item), nil
	})

	out := make([]domain.Book, 0, len(items))
	for i, res := range results {
		if res.Err != nil {
			r.logger.Warn("dropping unresolvable recommendation",
				"title", items[i].Title,
				"error", res.Err,
			)
			continue
		}
		out = append(out, res.Value)
	}
	return out
}

func (r *Resolver) resolveOne(ctx context.Context, item domain.Recommendation) domain.Book {
	found := r.catalog.LookupByTitleAuthor(ctx, item.Title, item.Author)
	if found == nil {
		return placeholder(item)
	}

	book := *found
	if r.ratings != nil && book.ISBN != "" && book.AverageRating == 0 {
		if rt := r.ratings.Get(ctx, book.ISBN); rt != nil {
			book.AverageRating = rt.Average
			book.RatingsCount = rt.Count
		}
	}
	return book
}

// placeholder synthesizes a minimal record from the recommendation itself so
// the item still renders when the catalog has never heard of it.
func placeholder(item domain.Recommendation) domain.Book {
	return domain.Book{
		ID:          "ai-" + util.Slugify(item.Title),
		Source:      domain.SourceGenerated,
		Title:       item.Title,
		Authors:     []string{item.Author},
		Categories:  []string{item.Genre},
		Description: item.Reason,
	}
}
