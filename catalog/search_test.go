package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return data
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := New(Config{
		BaseURL: server.URL,
		RPS:     1000, // tests should not sit in the limiter
	}, logger)

	return client, server
}

// volumesBody builds a minimal volumes response with the given id/title pairs.
func volumesBody(pairs ...[2]string) []byte {
	items := make([]string, len(pairs))
	for i, p := range pairs {
		items[i] = fmt.Sprintf(`{"id":%q,"volumeInfo":{"title":%q}}`, p[0], p[1])
	}
	return []byte(fmt.Sprintf(`{"totalItems":%d,"items":[%s]}`, len(items), strings.Join(items, ",")))
}

func TestClient_Search_FixtureResults(t *testing.T) {
	fixture := loadFixture(t, "volumes_response.json")

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	results := client.Search(context.Background(), "hobbit")

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 after dedup", len(results))
	}

	first := results[0]
	if first.ID != "vol-hobbit" {
		t.Errorf("got %q first, want the exact title match", first.ID)
	}
	if first.ISBN != "9780547928227" {
		t.Errorf("ISBN = %q, want the ISBN-13", first.ISBN)
	}
	if !strings.HasPrefix(first.CoverURL, "https://") {
		t.Errorf("CoverURL = %q, want https upgrade", first.CoverURL)
	}
	if first.Language != "en" {
		t.Errorf("Language = %q, want en", first.Language)
	}
	if results[1].Language != "en" {
		t.Errorf("Language = %q, want eng normalized to en", results[1].Language)
	}
	if err := client.LastError(); err != nil {
		t.Errorf("LastError = %v, want nil after success", err)
	}
}

func TestClient_Search_MergePriority(t *testing.T) {
	// Author-like query, so the author strategy leads the merge. Titles share
	// no words with the query, leaving all scores equal and the merge order
	// intact: [A,B] + [B,C] + [] -> [A,B,C].
	handler := func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		w.WriteHeader(http.StatusOK)
		switch {
		case strings.HasPrefix(q, "inauthor:"):
			w.Write(volumesBody([2]string{"a", "Zeta"}, [2]string{"b", "Eta"}))
		case strings.HasPrefix(q, "intitle:"):
			w.Write(volumesBody())
		default:
			w.Write(volumesBody([2]string{"b", "Eta"}, [2]string{"c", "Theta"}))
		}
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	results := client.Search(context.Background(), "brandon sanderson")

	want := []string{"a", "b", "c"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, results[i].ID, id)
		}
	}
}

func TestClient_Search_Idempotent(t *testing.T) {
	// Overlapping sub-search results, including a score tie broken only by
	// merge order. Two back-to-back searches must return the same sequence.
	handler := func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		w.WriteHeader(http.StatusOK)
		switch {
		case strings.HasPrefix(q, "inauthor:"):
			w.Write(volumesBody([2]string{"d", "Heretics of Dune"}))
		case strings.HasPrefix(q, "intitle:"):
			w.Write(volumesBody([2]string{"b", "Dune Messiah"}, [2]string{"c", "Children of Dune"}))
		default:
			w.Write(volumesBody([2]string{"a", "Dune"}, [2]string{"b", "Dune Messiah"}))
		}
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	first := client.Search(context.Background(), "dune")
	second := client.Search(context.Background(), "dune")

	if len(first) == 0 {
		t.Fatal("no results from fixture server")
	}
	if len(second) != len(first) {
		t.Fatalf("second search returned %d results, first %d", len(second), len(first))
	}
	for i := range first {
		if second[i].ID != first[i].ID {
			t.Errorf("position %d: second search %q, first search %q", i, second[i].ID, first[i].ID)
		}
	}
}

func TestClient_Search_GenreQueryAddsSubjectStrategy(t *testing.T) {
	var mu sync.Mutex
	var queries []string

	handler := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("q"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		w.Write(volumesBody())
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	client.Search(context.Background(), "fantasy")

	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 4 {
		t.Fatalf("got %d sub-searches, want 4 for a genre query", len(queries))
	}
	found := false
	for _, q := range queries {
		if q == "subject:fantasy" {
			found = true
		}
	}
	if !found {
		t.Errorf("no subject sub-search issued, got queries %v", queries)
	}
}

func TestClient_Search_AllSubSearchesFail(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	results := client.Search(context.Background(), "dune")

	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}

	err := client.LastError()
	if err == nil {
		t.Fatal("LastError = nil, want recorded pipeline failure")
	}
	var catErr *Error
	if !errors.As(err, &catErr) {
		t.Fatalf("LastError = %v, want *Error", err)
	}
	if catErr.Op != "search" {
		t.Errorf("Op = %q, want search", catErr.Op)
	}
	if !errors.Is(err, ErrServer) {
		t.Errorf("LastError = %v, want wrapped ErrServer", err)
	}
}

func TestClient_Search_PartialFailureThinsResults(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Query().Get("q"), "intitle:") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(volumesBody([2]string{"a", "Zeta"}))
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	results := client.Search(context.Background(), "dune")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 from the surviving strategies", len(results))
	}
	if err := client.LastError(); err != nil {
		t.Errorf("LastError = %v, want nil for a partial failure", err)
	}
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	called := false
	handler := func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write(volumesBody())
	}

	client, server := newTestClient(t, handler)
	defer server.Close()

	results := client.Search(context.Background(), "   ")

	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
	if called {
		t.Error("blank query should not hit the catalog")
	}
}

func TestClient_LookupByTitleAuthor(t *testing.T) {
	fixture := loadFixture(t, "volumes_response.json")

	tests := []struct {
		name       string
		response   []byte
		statusCode int
		wantID     string
	}{
		{
			name:       "hit returns first match",
			response:   fixture,
			statusCode: http.StatusOK,
			wantID:     "vol-hobbit",
		},
		{
			name:       "miss returns nil",
			response:   []byte(`{"totalItems":0,"items":[]}`),
			statusCode: http.StatusOK,
		},
		{
			name:       "server error returns nil",
			statusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			handler := func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("q")
				w.WriteHeader(tt.statusCode)
				if tt.response != nil {
					w.Write(tt.response)
				}
			}

			client, server := newTestClient(t, handler)
			defer server.Close()

			book := client.LookupByTitleAuthor(context.Background(), "The Hobbit", "J.R.R. Tolkien")

			if tt.wantID == "" {
				if book != nil {
					t.Errorf("got %q, want nil", book.ID)
				}
				return
			}

			if book == nil {
				t.Fatal("got nil, want a match")
			}
			if book.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", book.ID, tt.wantID)
			}
			if !strings.Contains(gotQuery, `intitle:"The Hobbit"`) {
				t.Errorf("query %q missing quoted intitle term", gotQuery)
			}
			if !strings.Contains(gotQuery, `inauthor:"J.R.R. Tolkien"`) {
				t.Errorf("query %q missing quoted inauthor term", gotQuery)
			}
		})
	}
}

func TestClient_LookupByTitleAuthor_BlankTitle(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("blank title should not hit the catalog")
	})
	defer server.Close()

	if book := client.LookupByTitleAuthor(context.Background(), "  ", "someone"); book != nil {
		t.Errorf("got %v, want nil", book)
	}
}
