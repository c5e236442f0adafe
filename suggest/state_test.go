package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
)

func book(title string) domain.Book {
	return domain.Book{ID: "vol-" + title, Title: title}
}

func TestReduce_EligibilityTransitions(t *testing.T) {
	s := CategoryState{Phase: PhaseIneligible}

	s = Reduce(s, EligibilityChanged{Eligible: true})
	assert.Equal(t, PhaseIdle, s.Phase)

	s.Initial = []domain.Book{book("Dune")}
	s.CachedDisplay = []domain.Book{book("Dune")}
	s.Phase = PhaseHasInitial

	s = Reduce(s, EligibilityChanged{Eligible: false})
	assert.Equal(t, PhaseIneligible, s.Phase)
	assert.Empty(t, s.Initial, "losing eligibility discards items")
	assert.Empty(t, s.CachedDisplay, "losing eligibility discards the display cache")
}

func TestReduce_EligibilityNoOpWhenAlreadyEligible(t *testing.T) {
	s := CategoryState{Phase: PhaseHasInitial, Initial: []domain.Book{book("Dune")}}

	got := Reduce(s, EligibilityChanged{Eligible: true})

	assert.Equal(t, s, got)
}

func TestReduce_InitialFetchLifecycle(t *testing.T) {
	s := CategoryState{Phase: PhaseIdle}

	s = Reduce(s, FetchRequested{Generation: 0})
	assert.Equal(t, PhaseFetchingInitial, s.Phase)

	s = Reduce(s, FetchSucceeded{Generation: 0, Items: []domain.Book{book("Dune"), book("Hyperion")}})
	assert.Equal(t, PhaseHasInitial, s.Phase)
	assert.Len(t, s.Initial, 2)
	assert.Len(t, s.CachedDisplay, 2, "non-empty union should be copied to the display cache")
}

func TestReduce_MoreFetchRequiresInitialItems(t *testing.T) {
	s := CategoryState{Phase: PhaseHasInitial}

	got := Reduce(s, FetchRequested{More: true, Generation: 0})

	assert.Equal(t, PhaseHasInitial, got.Phase, "more fetch must not start with an empty initial page")
}

func TestReduce_MoreFetchAppends(t *testing.T) {
	s := CategoryState{
		Phase:   PhaseHasInitial,
		Initial: []domain.Book{book("Dune")},
	}

	s = Reduce(s, FetchRequested{More: true, Generation: 0})
	assert.Equal(t, PhaseFetchingMore, s.Phase)

	s = Reduce(s, FetchSucceeded{More: true, Generation: 0, Items: []domain.Book{book("Hyperion")}})
	assert.Equal(t, PhaseComplete, s.Phase)
	assert.Len(t, s.More, 1)
	assert.Len(t, s.CachedDisplay, 2)
}

func TestReduce_StaleGenerationDiscarded(t *testing.T) {
	s := CategoryState{Phase: PhaseFetchingInitial, Generation: 2}

	got := Reduce(s, FetchSucceeded{Generation: 1, Items: []domain.Book{book("Stale")}})

	assert.Equal(t, s, got, "result from an older generation must be ignored")

	got = Reduce(s, FetchFailed{Generation: 1})
	assert.Equal(t, s, got)
}

func TestReduce_RefreshKeepsDisplayCache(t *testing.T) {
	s := CategoryState{
		Phase:         PhaseComplete,
		Initial:       []domain.Book{book("Dune")},
		More:          []domain.Book{book("Hyperion")},
		CachedDisplay: []domain.Book{book("Dune"), book("Hyperion")},
		Generation:    1,
	}

	s = Reduce(s, RefreshRequested{})

	assert.Equal(t, 2, s.Generation)
	assert.Empty(t, s.Initial)
	assert.Empty(t, s.More)
	assert.Len(t, s.CachedDisplay, 2, "per-category refresh never clears the display cache")
	assert.True(t, s.Refreshing)
}

func TestReduce_EmptyRefetchFallsBackToCache(t *testing.T) {
	s := CategoryState{
		Phase:         PhaseComplete,
		Initial:       []domain.Book{book("Dune")},
		CachedDisplay: []domain.Book{book("Dune")},
	}

	s = Reduce(s, RefreshRequested{})
	s = Reduce(s, FetchRequested{Generation: s.Generation})
	s = Reduce(s, FetchSucceeded{Generation: s.Generation, Items: nil})

	displayed := s.Displayed()
	assert.Len(t, displayed, 1)
	assert.Equal(t, "Dune", displayed[0].Title)
	assert.False(t, s.Refreshing, "refresh overlay clears when the fetch settles")
}

func TestReduce_FetchFailedKeepsItems(t *testing.T) {
	s := CategoryState{
		Phase:   PhaseFetchingMore,
		Initial: []domain.Book{book("Dune")},
	}

	s = Reduce(s, FetchFailed{More: true, Generation: 0})

	assert.Equal(t, PhaseHasInitial, s.Phase)
	assert.Len(t, s.Initial, 1, "a failed fetch leaves item lists unchanged")

	s = CategoryState{Phase: PhaseFetchingInitial}
	s = Reduce(s, FetchFailed{Generation: 0})
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestDisplayed_DedupsByTitle(t *testing.T) {
	s := CategoryState{
		Initial: []domain.Book{book("Dune"), {ID: "other", Title: "DUNE"}},
		More:    []domain.Book{book("Hyperion"), book("Dune")},
	}

	displayed := s.Displayed()

	assert.Len(t, displayed, 2)
	assert.Equal(t, "Dune", displayed[0].Title)
	assert.Equal(t, "Hyperion", displayed[1].Title)
}
