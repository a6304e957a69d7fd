package marketplace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hivemesh/swarmd/ratelimit"
)

func TestStaticBrowser(t *testing.T) {
	b := NewStaticBrowser([]Candidate{
		{ID: "task-1", Title: "Index blocks", Value: 10},
		{ID: "task-2", Title: "Verify proofs", Value: 20},
		{ID: "task-3", Title: "Bridge assets", Value: 5},
	})

	got, err := b.Browse(context.Background(), 2)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(got) != 2 || got[0].ID != "task-1" {
		t.Errorf("Browse = %v", got)
	}

	all, _ := b.Browse(context.Background(), 0)
	if len(all) != 3 {
		t.Errorf("unlimited Browse = %d candidates, want 3", len(all))
	}

	// Returned slice is a copy.
	all[0].ID = "mutated"
	again, _ := b.Browse(context.Background(), 0)
	if again[0].ID != "task-1" {
		t.Error("Browse result aliases internal list")
	}

	b.SetError(ErrUnavailable)
	if _, err := b.Browse(context.Background(), 0); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestStaticBrowser_CancelledContext(t *testing.T) {
	b := NewStaticBrowser(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Browse(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestHTTPBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Errorf("status = %s, want open", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %s, want 5", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tasks":[
			{"id":"task-1","title":"Index blocks","description":"scan and index","value":12.5,"category":"indexing","network":"mainnet","owner_id":"poster-1"},
			{"id":"task-2","title":"Verify proofs","value":3}
		]}`))
	}))
	defer srv.Close()

	b, err := NewHTTPBrowser(HTTPConfig{BaseURL: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewHTTPBrowser: %v", err)
	}

	got, err := b.Browse(context.Background(), 5)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	want := Candidate{
		ID: "task-1", Title: "Index blocks", Description: "scan and index",
		Value: 12.5, Category: "indexing", Network: "mainnet", OwnerID: "poster-1",
	}
	if got[0] != want {
		t.Errorf("candidate = %+v, want %+v", got[0], want)
	}
}

func TestHTTPBrowser_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b, _ := NewHTTPBrowser(HTTPConfig{BaseURL: srv.URL})
	if _, err := b.Browse(context.Background(), 0); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestHTTPBrowser_RequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPBrowser(HTTPConfig{}); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestHTTPBrowser_LimiterGatesBrowse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tasks":[]}`))
	}))
	defer srv.Close()

	limiter := ratelimit.NewMemoryLimiter()
	defer limiter.Close()
	limiter.SetCapacity(ratelimit.ResourceMarketplace, 1, time.Hour)

	b, err := NewHTTPBrowser(HTTPConfig{BaseURL: srv.URL, Limiter: limiter})
	if err != nil {
		t.Fatalf("NewHTTPBrowser: %v", err)
	}

	if _, err := b.Browse(context.Background(), 5); err != nil {
		t.Fatalf("first Browse: %v", err)
	}

	// Release restores the token after each request, so a second
	// browse within the window still goes through.
	if _, err := b.Browse(context.Background(), 5); err != nil {
		t.Fatalf("second Browse: %v", err)
	}

	// Exhaust the bucket out from under the browser; a cancelled
	// context surfaces as ErrUnavailable.
	limiter.TryAcquire(ratelimit.ResourceMarketplace)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := b.Browse(ctx, 5); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Browse with exhausted budget = %v, want ErrUnavailable", err)
	}
}

func TestHTTPBrowser_TooManyRequestsCutsCapacity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limiter := ratelimit.NewMemoryLimiter()
	defer limiter.Close()
	limiter.SetCapacity(ratelimit.ResourceMarketplace, 100, time.Minute)

	b, err := NewHTTPBrowser(HTTPConfig{BaseURL: srv.URL, Limiter: limiter})
	if err != nil {
		t.Fatalf("NewHTTPBrowser: %v", err)
	}

	if _, err := b.Browse(context.Background(), 5); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Browse = %v, want ErrUnavailable", err)
	}

	cap := limiter.GetCapacity(ratelimit.ResourceMarketplace)
	if cap.Total >= 100 {
		t.Errorf("Total = %d, 429 should have cut capacity", cap.Total)
	}
}
