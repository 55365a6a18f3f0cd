package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vaultheim/crucible/internal/domain/deck"
)

func TestResolveMapsAndCachesDeck(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/decks/abc-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"deck":{"keyforgeId":"abc-123","name":"Titan of the Lonely Sprocket","expansion":"CALL_OF_THE_ARCHONS","houses":["Brobnar","Logos","Shadows"],"sasRating":74}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	ctx := context.Background()

	info, found, err := client.Resolve(ctx, "https://decksofkeyforge.com/decks/abc-123")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !found {
		t.Fatal("Resolve() found = false")
	}
	if info.Name != "Titan of the Lonely Sprocket" {
		t.Fatalf("name = %q", info.Name)
	}
	if info.Set != deck.SetCallOfTheArchons {
		t.Fatalf("set = %q", info.Set)
	}
	if len(info.Houses) != 3 {
		t.Fatalf("houses = %v", info.Houses)
	}

	if _, _, err := client.Resolve(ctx, "abc-123"); err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("registry hit %d times, want 1 (cached)", got)
	}
}

func TestResolveUnknownDeck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such deck", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	_, found, err := client.Resolve(context.Background(), "missing-deck")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if found {
		t.Fatal("Resolve() found = true for missing deck")
	}
}

func TestListBySetsPaginatesAndDeduplicates(t *testing.T) {
	var pages atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/decks/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		switch pages.Add(1) {
		case 1:
			_, _ = w.Write([]byte(`{"decks":[
{"keyforgeId":"woe-1","name":"Bartering Bess","expansion":"WINDS_OF_EXCHANGE","houses":["Brobnar","Ekwidon","Untamed"],"sasRating":70},
{"keyforgeId":"woe-2","name":"The Cartographer","expansion":"WINDS_OF_EXCHANGE","houses":["Dis","Ekwidon","Logos"],"sasRating":84}],"totalPages":2}`))
		default:
			_, _ = w.Write([]byte(`{"decks":[
{"keyforgeId":"woe-2","name":"The Cartographer","expansion":"WINDS_OF_EXCHANGE","houses":["Dis","Ekwidon","Logos"],"sasRating":84},
{"keyforgeId":"woe-3","name":"Sigrid","expansion":"WINDS_OF_EXCHANGE","houses":["Ekwidon","Mars","Sanctum"],"sasRating":66}],"totalPages":2}`))
		}
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, PageSize: 2})

	decks, err := client.ListBySets(context.Background(), []deck.Set{deck.SetWindsOfExchange})
	if err != nil {
		t.Fatalf("ListBySets() error: %v", err)
	}
	if len(decks) != 3 {
		t.Fatalf("got %d decks, want 3", len(decks))
	}
	if got := pages.Load(); got != 2 {
		t.Fatalf("registry queried %d pages, want 2", got)
	}
}
