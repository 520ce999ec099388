package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogpilot/internal/domain"
)

type staticProvider struct {
	name    string
	results []domain.ImageResult
}

func (p staticProvider) Name() string { return p.name }

func (p staticProvider) Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error) {
	return p.results, nil
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register(staticProvider{name: "stock"})

	if _, err := reg.Resolve("stock"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := reg.Resolve("missing"); err == nil {
		t.Fatal("expected an error for an unregistered provider")
	}
}

func TestSearcherDelegates(t *testing.T) {
	want := []domain.ImageResult{{URL: "https://img.example/a.jpg"}}
	reg := NewRegistry()
	reg.Register(staticProvider{name: "stock", results: want})

	searcher, err := NewSearcher(reg, "stock")
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}

	got, err := searcher.Search(context.Background(), "sunset", 3, "landscape")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].URL != want[0].URL {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestPexelsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "pexels-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		q := r.URL.Query()
		if q.Get("query") != "mountains" || q.Get("per_page") != "2" || q.Get("orientation") != "landscape" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`{"photos":[
			{"width":1920,"height":1080,"photographer":"Ada",
			 "src":{"large":"https://img.example/large.jpg","medium":"https://img.example/med.jpg"}}
		]}`))
	}))
	defer srv.Close()

	p := NewPexelsProvider("pexels-key", srv.Client())
	p.baseURL = srv.URL

	results, err := p.Search(context.Background(), "mountains", 2, "landscape")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.URL != "https://img.example/large.jpg" || got.Attribution != "Ada" || got.Width != 1920 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestPexelsSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPexelsProvider("pexels-key", srv.Client())
	p.baseURL = srv.URL

	if _, err := p.Search(context.Background(), "mountains", 2, ""); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestPexelsMissingKey(t *testing.T) {
	p := NewPexelsProvider("", nil)
	if _, err := p.Search(context.Background(), "mountains", 2, ""); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestUnsplashSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Client-ID unsplash-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"results":[
			{"width":1200,"height":800,
			 "urls":{"regular":"https://img.example/reg.jpg","thumb":"https://img.example/thumb.jpg"},
			 "user":{"name":"Grace"}}
		]}`))
	}))
	defer srv.Close()

	p := NewUnsplashProvider("unsplash-key", srv.Client())
	p.baseURL = srv.URL

	results, err := p.Search(context.Background(), "sea", 1, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.URL != "https://img.example/reg.jpg" || got.ThumbnailURL != "https://img.example/thumb.jpg" || got.Attribution != "Grace" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestFetcherDownloads(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	data, err := f.Fetch(context.Background(), srv.URL+"/header.jpg")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data) != len(payload) {
		t.Fatalf("expected %d bytes, got %d", len(payload), len(data))
	}
}

func TestFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.jpg"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
