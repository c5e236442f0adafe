package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/genre"
	"github.com/bookmarkedapp/bookmarked-engine/internal/join"
)

// subSearch is one query strategy within a Search fan-out. The plan's slice
// order doubles as the first-seen merge priority.
type subSearch struct {
	name string
	q    string
}

// searchPlan builds the sub-searches for a query. Genre-style queries lead
// with a subject search, author-like queries with an author search, and
// everything else with plain relevance.
func searchPlan(query string) []subSearch {
	general := subSearch{name: "general", q: query}
	title := subSearch{name: "title", q: "intitle:" + query}
	author := subSearch{name: "author", q: "inauthor:" + query}

	switch {
	case genre.IsGenreQuery(query):
		subject := subSearch{name: "subject", q: "subject:" + query}
		return []subSearch{subject, general, title, author}
	case isAuthorLike(query):
		return []subSearch{author, general, title}
	default:
		return []subSearch{general, title, author}
	}
}

// Search runs the full catalog pipeline for a free-text query: concurrent
// sub-searches, first-seen dedup in priority order, title-match re-rank,
// truncation to maxResults.
//
// Search never returns an error. A sub-search failure just thins the result
// set; only when every sub-search fails does the pipeline come back empty,
// with the aggregate failure recorded on LastError.
func (c *Client) Search(ctx context.Context, query string) []domain.Book {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Book{}
	}

	plan := searchPlan(query)

	fns := make([]func(context.Context) ([]domain.Book, error), len(plan))
	for i, sub := range plan {
		sub := sub
		fns[i] = func(ctx context.Context) ([]domain.Book, error) {
			return c.volumes(ctx, sub.q, maxResults, sub.name == "general")
		}
	}
	results := join.Settle(ctx, fns)

	var errs []error
	seen := make(map[string]bool)
	merged := make([]domain.Book, 0, maxResults)
	for i, r := range results {
		if r.Err != nil {
			c.logger.Warn("catalog sub-search failed",
				"strategy", plan[i].name,
				"query", query,
				"error", r.Err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", plan[i].name, r.Err))
			continue
		}
		for _, b := range r.Value {
			if b.ID == "" || seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			merged = append(merged, b)
		}
	}

	if len(errs) == len(plan) {
		err := wrapError("search", query, errors.Join(errs...))
		c.logger.Error("catalog search failed", "query", query, "error", err)
		c.recordError(err)
		return []domain.Book{}
	}
	c.clearError()

	rank(merged, query)
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// LookupByTitleAuthor finds the single best catalog match for an exact
// title/author pair. It returns nil on a miss or any failure; callers
// substitute their own fallback record.
func (c *Client) LookupByTitleAuthor(ctx context.Context, title, author string) *domain.Book {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	q := "intitle:" + quoteTerm(title)
	if author = strings.TrimSpace(author); author != "" {
		q += " inauthor:" + quoteTerm(author)
	}

	books, err := c.volumes(ctx, q, 1, false)
	if err != nil {
		c.logger.Warn("catalog lookup failed",
			"title", title,
			"author", author,
			"error", err,
		)
		return nil
	}
	if len(books) == 0 {
		return nil
	}
	return &books[0]
}

// volumes runs one volumes request and decodes the items.
func (c *Client) volumes(ctx context.Context, q string, limit int, orderByRelevance bool) ([]domain.Book, error) {
	body, err := c.doRequest(ctx, volumesQuery(q, limit, orderByRelevance))
	if err != nil {
		return nil, err
	}

	var list rawVolumeList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	books := make([]domain.Book, 0, len(list.Items))
	for i := range list.Items {
		v := &list.Items[i]
		if v.VolumeInfo.Title == "" {
			continue
		}
		books = append(books, v.toBook())
	}
	return books, nil
}

// quoteTerm wraps multi-word field terms so the API treats them as a phrase.
func quoteTerm(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
