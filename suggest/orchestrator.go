package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/errors"
	"github.com/bookmarkedapp/bookmarked-engine/internal/join"
)

// categoryCap is how many items a category shows per page (initial and more
// are separate pages).
const categoryCap = 3

// RecommendationSource produces raw recommendation items. Implementations
// soft-fail: an unreachable or misconfigured generator returns empty, never
// an error.
type RecommendationSource interface {
	GetAll(ctx context.Context, lib []domain.SavedBook) map[domain.Category][]domain.Recommendation
	GetCategory(ctx context.Context, lib []domain.SavedBook, cat domain.Category, excludeTitles []string) []domain.Recommendation
}

// ItemResolver turns recommendation items into displayable book records.
type ItemResolver interface {
	Resolve(ctx context.Context, items []domain.Recommendation) []domain.Book
}

// LibraryReader supplies the saved-library snapshot that drives eligibility
// and title filtering.
type LibraryReader interface {
	List() ([]domain.SavedBook, error)
}

// Orchestrator owns the per-category suggestion state. All mutation goes
// through the reducer under one mutex; fetch pipelines run concurrently and
// deliver their results as events.
type Orchestrator struct {
	source   RecommendationSource
	resolver ItemResolver
	library  LibraryReader
	logger   *slog.Logger

	mu          sync.Mutex
	states      map[domain.Category]CategoryState
	bulk        map[domain.Category][]domain.Recommendation // nil = no bulk result cached
	lib         []domain.SavedBook
	savedTitles map[string]bool
	lastErr     error
}

// NewOrchestrator creates an orchestrator with every category ineligible
// until the first Sync.
func NewOrchestrator(source RecommendationSource, resolver ItemResolver, library LibraryReader, logger *slog.Logger) *Orchestrator {
	states := make(map[domain.Category]CategoryState, 4)
	for _, cat := range domain.Categories() {
		states[cat] = CategoryState{Phase: PhaseIneligible}
	}
	return &Orchestrator{
		source:   source,
		resolver: resolver,
		library:  library,
		logger:   logger,
		states:   states,
	}
}

// Sync reloads the library snapshot, recomputes eligibility, and runs the
// fetch pipeline for every eligible category that has no data yet. It blocks
// until all pipelines settle. Categories that already hold data are left
// alone; use the refresh methods to force refetching.
func (o *Orchestrator) Sync(ctx context.Context) error {
	lib, err := o.library.List()
	if err != nil {
		err = errors.Wrap(err, errors.CodeInternal, "read saved library")
		o.recordError(err)
		return err
	}

	o.mu.Lock()
	o.lastErr = nil
	o.lib = lib
	o.savedTitles = domain.SavedTitles(lib)

	type task struct {
		cat domain.Category
		gen int
	}
	var pending []task
	for _, cat := range domain.Categories() {
		s := Reduce(o.states[cat], EligibilityChanged{Eligible: cat.Eligible(lib)})
		o.states[cat] = s
		if s.Phase == PhaseIdle {
			pending = append(pending, task{cat: cat, gen: s.Generation})
		}
	}
	needBulk := o.bulk == nil && len(pending) > 0
	o.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	// One bulk call warms every pending category before the per-category
	// pipelines start.
	if needBulk {
		bulk := o.source.GetAll(ctx, lib)
		o.mu.Lock()
		if o.bulk == nil {
			o.bulk = bulk
		}
		o.mu.Unlock()
	}

	fns := make([]func(context.Context) (struct{}, error), len(pending))
	for i, t := range pending {
		t := t
		fns[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.runCategory(ctx, t.cat, t.gen, false)
		}
	}
	for i, res := range join.Settle(ctx, fns) {
		if res.Err != nil {
			o.logger.Error("category pipeline failed",
				"category", string(pending[i].cat),
				"error", res.Err,
			)
			o.recordError(res.Err)
		}
	}
	return nil
}

// RefreshCategory discards one category's live items (keeping the display
// cache), bumps its generation, and refetches with the bulk cache bypassed.
func (o *Orchestrator) RefreshCategory(ctx context.Context, cat domain.Category) error {
	if !cat.Valid() {
		return errors.Validationf("unknown category %q", cat)
	}

	o.mu.Lock()
	s := o.states[cat]
	if s.Phase == PhaseIneligible {
		o.mu.Unlock()
		return nil
	}
	s = Reduce(s, RefreshRequested{})
	o.states[cat] = s
	gen := s.Generation
	o.mu.Unlock()

	if err := o.runCategory(ctx, cat, gen, true); err != nil {
		o.logger.Error("category refresh failed", "category", string(cat), "error", err)
		o.recordError(err)
		return err
	}
	return nil
}

// RefreshAll resets every category completely, display caches included,
// invalidates the bulk result, and refetches each eligible category with a
// dedicated call.
func (o *Orchestrator) RefreshAll(ctx context.Context) error {
	lib, err := o.library.List()
	if err != nil {
		err = errors.Wrap(err, errors.CodeInternal, "read saved library")
		o.recordError(err)
		return err
	}

	o.mu.Lock()
	o.lastErr = nil
	o.bulk = nil
	o.lib = lib
	o.savedTitles = domain.SavedTitles(lib)

	type task struct {
		cat domain.Category
		gen int
	}
	var pending []task
	for _, cat := range domain.Categories() {
		gen := o.states[cat].Generation + 1
		if !cat.Eligible(lib) {
			o.states[cat] = CategoryState{Phase: PhaseIneligible, Generation: gen}
			continue
		}
		o.states[cat] = CategoryState{Phase: PhaseIdle, Generation: gen}
		pending = append(pending, task{cat: cat, gen: gen})
	}
	o.mu.Unlock()

	fns := make([]func(context.Context) (struct{}, error), len(pending))
	for i, t := range pending {
		t := t
		fns[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.runCategory(ctx, t.cat, t.gen, true)
		}
	}
	for i, res := range join.Settle(ctx, fns) {
		if res.Err != nil {
			o.logger.Error("category pipeline failed",
				"category", string(pending[i].cat),
				"error", res.Err,
			)
			o.recordError(res.Err)
		}
	}
	return nil
}

// Suggestions returns what the consumer should render for a category.
func (o *Orchestrator) Suggestions(cat domain.Category) []domain.Book {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[cat].Displayed()
}

// Snapshot returns a copy of every category's state.
func (o *Orchestrator) Snapshot() map[domain.Category]CategoryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[domain.Category]CategoryState, len(o.states))
	for cat, s := range o.states {
		out[cat] = s
	}
	return out
}

// LastError returns the most recent aggregate pipeline failure, cleared at
// the start of each Sync or RefreshAll. Failures never block other
// categories; this is for optional display only.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) recordError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = errors.Join(o.lastErr, err)
}

// apply routes one event through the reducer under the mutex.
func (o *Orchestrator) apply(cat domain.Category, ev Event) {
	o.mu.Lock()
	o.states[cat] = Reduce(o.states[cat], ev)
	o.mu.Unlock()
}

// runCategory executes one category's full pipeline: initial fetch, then the
// automatic more fetch once initial items exist. A panic anywhere inside is
// the category's problem alone; the fetch flag clears and items stay as they
// were.
func (o *Orchestrator) runCategory(ctx context.Context, cat domain.Category, gen int, bypassBulk bool) (err error) {
	more := false
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internalf("category %s pipeline: %v", cat, r)
			o.apply(cat, FetchFailed{More: more, Generation: gen})
		}
	}()

	o.apply(cat, FetchRequested{Generation: gen})
	initial := o.fetchInitial(ctx, cat, bypassBulk)
	o.apply(cat, FetchSucceeded{Generation: gen, Items: initial})

	o.mu.Lock()
	s := o.states[cat]
	stale := s.Generation != gen
	initialTitles := titlesOf(s.Initial)
	o.mu.Unlock()

	// The more fetch only ever follows a non-empty initial page of the same
	// generation.
	if stale || len(initialTitles) == 0 {
		return nil
	}

	more = true
	o.apply(cat, FetchRequested{More: true, Generation: gen})
	moreItems := o.fetchMore(ctx, cat, initialTitles)
	o.apply(cat, FetchSucceeded{More: true, Generation: gen, Items: moreItems})
	return nil
}

// fetchInitial produces a category's first page, preferring a non-empty bulk
// result unless the caller is refreshing.
func (o *Orchestrator) fetchInitial(ctx context.Context, cat domain.Category, bypassBulk bool) []domain.Book {
	o.mu.Lock()
	lib := o.lib
	var items []domain.Recommendation
	if !bypassBulk && o.bulk != nil && len(o.bulk[cat]) > 0 {
		items = o.bulk[cat]
	}
	o.mu.Unlock()

	if items == nil {
		items = o.source.GetCategory(ctx, lib, cat, nil)
	}

	books := o.resolver.Resolve(ctx, items)
	return o.filterAndCap(books, nil)
}

// fetchMore produces the follow-up page, excluding what the initial page
// already shows. The exclusion list sent to the generator is a hint; the
// client-side filter is what actually guarantees no repeats.
func (o *Orchestrator) fetchMore(ctx context.Context, cat domain.Category, displayedTitles []string) []domain.Book {
	o.mu.Lock()
	lib := o.lib
	o.mu.Unlock()

	items := o.source.GetCategory(ctx, lib, cat, displayedTitles)
	books := o.resolver.Resolve(ctx, items)

	exclude := make(map[string]bool, len(displayedTitles))
	for _, t := range displayedTitles {
		exclude[strings.ToLower(t)] = true
	}
	return o.filterAndCap(books, exclude)
}

// filterAndCap drops saved titles, excluded titles, and in-batch duplicates,
// then truncates to the category page size.
func (o *Orchestrator) filterAndCap(books []domain.Book, exclude map[string]bool) []domain.Book {
	o.mu.Lock()
	saved := o.savedTitles
	o.mu.Unlock()

	seen := make(map[string]bool, len(books))
	out := make([]domain.Book, 0, categoryCap)
	for _, b := range books {
		key := strings.ToLower(b.Title)
		if key == "" || saved[key] || exclude[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
		if len(out) == categoryCap {
			break
		}
	}
	return out
}

func titlesOf(books []domain.Book) []string {
	titles := make([]string, len(books))
	for i := range books {
		titles[i] = books[i].Title
	}
	return titles
}
