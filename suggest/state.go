package suggest

import (
	"strings"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
)

// Phase is a category's position in the fetch lifecycle.
type Phase int

// Category lifecycle phases.
const (
	PhaseIneligible Phase = iota
	PhaseIdle
	PhaseFetchingInitial
	PhaseHasInitial
	PhaseFetchingMore
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIneligible:
		return "ineligible"
	case PhaseIdle:
		return "idle"
	case PhaseFetchingInitial:
		return "fetching_initial"
	case PhaseHasInitial:
		return "has_initial"
	case PhaseFetchingMore:
		return "fetching_more"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

// CategoryState is everything the engine tracks for one category. It is a
// value type: the reducer takes a state and an event and returns the next
// state without mutating either.
type CategoryState struct {
	Phase Phase

	// Initial and More are the live item lists for the current generation.
	Initial []domain.Book
	More    []domain.Book

	// CachedDisplay holds the last non-empty displayed union. It survives a
	// refetch that transiently comes back empty, so a refresh never blanks
	// the screen. Only a full reset clears it.
	CachedDisplay []domain.Book

	// Generation counts manual refreshes. Fetch results are keyed by the
	// generation they started under; a result from an older generation is
	// discarded when it lands.
	Generation int

	// Refreshing marks a manual refresh in flight on top of whatever phase
	// the category is passing through.
	Refreshing bool
}

// Event is a state machine input.
type Event interface {
	isEvent()
}

// EligibilityChanged recomputes whether the category may fetch at all.
type EligibilityChanged struct {
	Eligible bool
}

// FetchRequested marks an initial or more fetch as started.
type FetchRequested struct {
	More       bool
	Generation int
}

// FetchSucceeded delivers fetched items for the given generation.
type FetchSucceeded struct {
	More       bool
	Generation int
	Items      []domain.Book
}

// FetchFailed clears the fetch flag without touching item lists.
type FetchFailed struct {
	More       bool
	Generation int
}

// RefreshRequested bumps the generation and clears live items, keeping the
// display cache.
type RefreshRequested struct{}

func (EligibilityChanged) isEvent() {}
func (FetchRequested) isEvent()     {}
func (FetchSucceeded) isEvent()     {}
func (FetchFailed) isEvent()        {}
func (RefreshRequested) isEvent()   {}

// Reduce applies one event to a category state. It is pure: no clocks, no
// IO, no mutation of the input.
func Reduce(s CategoryState, ev Event) CategoryState {
	switch ev := ev.(type) {
	case EligibilityChanged:
		if !ev.Eligible {
			// Losing eligibility discards everything; the category is
			// recreated from scratch if the predicate turns true again.
			return CategoryState{Phase: PhaseIneligible, Generation: s.Generation}
		}
		if s.Phase == PhaseIneligible {
			return CategoryState{Phase: PhaseIdle, Generation: s.Generation}
		}
		return s

	case FetchRequested:
		if s.Phase == PhaseIneligible || ev.Generation != s.Generation {
			return s
		}
		if ev.More {
			if s.Phase != PhaseHasInitial || len(s.Initial) == 0 {
				return s
			}
			s.Phase = PhaseFetchingMore
			return s
		}
		s.Phase = PhaseFetchingInitial
		return s

	case FetchSucceeded:
		if ev.Generation != s.Generation || s.Phase == PhaseIneligible {
			return s
		}
		if ev.More {
			s.More = append(s.More[:len(s.More):len(s.More)], ev.Items...)
			s.Phase = PhaseComplete
		} else {
			s.Initial = ev.Items
			s.More = nil
			s.Phase = PhaseHasInitial
		}
		s.Refreshing = false
		if union := liveUnion(s); len(union) > 0 {
			s.CachedDisplay = union
		}
		return s

	case FetchFailed:
		if ev.Generation != s.Generation || s.Phase == PhaseIneligible {
			return s
		}
		s.Refreshing = false
		if ev.More {
			s.Phase = PhaseHasInitial
		} else if len(s.Initial) > 0 {
			s.Phase = PhaseHasInitial
		} else {
			s.Phase = PhaseIdle
		}
		return s

	case RefreshRequested:
		if s.Phase == PhaseIneligible {
			return s
		}
		s.Generation++
		s.Initial = nil
		s.More = nil
		s.Refreshing = true
		s.Phase = PhaseIdle
		return s
	}
	return s
}

// Displayed returns what the consumer should render: the live union when it
// has anything, else the flicker cache, else nothing.
func (s CategoryState) Displayed() []domain.Book {
	if union := liveUnion(s); len(union) > 0 {
		return union
	}
	if len(s.CachedDisplay) > 0 {
		return s.CachedDisplay
	}
	return nil
}

// Fetching reports whether any fetch is in flight for the category.
func (s CategoryState) Fetching() bool {
	return s.Phase == PhaseFetchingInitial || s.Phase == PhaseFetchingMore
}

// liveUnion concatenates initial and more items, deduplicated by lowercase
// title.
func liveUnion(s CategoryState) []domain.Book {
	if len(s.Initial) == 0 && len(s.More) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(s.Initial)+len(s.More))
	out := make([]domain.Book, 0, len(s.Initial)+len(s.More))
	for _, b := range s.Initial {
		key := strings.ToLower(b.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	for _, b := range s.More {
		key := strings.ToLower(b.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}
