package strategy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/offlineshell/swproxy/internal/testutil"
	"github.com/offlineshell/swproxy/pkg/cache"
)

var testNS = cache.Namespace{Family: cache.FamilyStatic, Generation: "v1"}

func discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newGET(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func seed(t *testing.T, store cache.Store, ns cache.Namespace, path, body string) {
	t.Helper()
	entry := &cache.Entry{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
	}
	if err := store.Set(context.Background(), ns, cache.KeyForPath(path), entry); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return string(body)
}

// brokenStore delegates reads and fails all writes, for exercising the
// best-effort write-through boundary.
type brokenStore struct {
	cache.Store
}

func (b *brokenStore) Set(context.Context, cache.Namespace, cache.Key, *cache.Entry) error {
	return errors.New("quota exceeded")
}

func TestCacheFirst_HitSkipsNetwork(t *testing.T) {
	store := cache.NewMemoryStore()
	seed(t, store, testNS, "/logo.png", "cached-png")

	// Any network call would fail loudly.
	s := NewCacheFirst(store, &testutil.FailingFetcher{}, discard())

	req := newGET(t, "http://origin/logo.png")
	result := s.Serve(context.Background(), req, testNS)

	if result.Outcome != OutcomeHit {
		t.Errorf("Outcome = %s, want hit", result.Outcome)
	}
	if got := readBody(t, result.Response); got != "cached-png" {
		t.Errorf("Body = %q, want cached entry", got)
	}
}

func TestCacheFirst_MissFetchesAndWritesThrough(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetAsset("/app.js", "application/javascript", "fresh-js")

	store := cache.NewMemoryStore()
	s := NewCacheFirst(store, http.DefaultClient, discard())

	req := newGET(t, origin.URL()+"/app.js")
	result := s.Serve(context.Background(), req, testNS)

	if result.Outcome != OutcomeMiss {
		t.Errorf("Outcome = %s, want miss", result.Outcome)
	}
	if got := readBody(t, result.Response); got != "fresh-js" {
		t.Errorf("Body = %q, want network response", got)
	}

	entry, err := store.Get(context.Background(), testNS, cache.KeyForPath("/app.js"))
	if err != nil {
		t.Fatalf("write-through missing: %v", err)
	}
	if string(entry.Body) != "fresh-js" {
		t.Errorf("cached Body = %q, want network response", entry.Body)
	}
}

// A second identical request after a successful fetch must not touch
// the network.
func TestCacheFirst_SecondRequestSkipsNetwork(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetAsset("/app.js", "application/javascript", "js")

	store := cache.NewMemoryStore()
	s := NewCacheFirst(store, http.DefaultClient, discard())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		req := newGET(t, origin.URL()+"/app.js")
		result := s.Serve(ctx, req, testNS)
		readBody(t, result.Response)
	}

	if n := origin.PathCount("/app.js"); n != 1 {
		t.Errorf("origin fetched %d times, want 1", n)
	}
}

func TestCacheFirst_NetworkFailureNoCache(t *testing.T) {
	store := cache.NewMemoryStore()
	s := NewCacheFirst(store, &testutil.FailingFetcher{}, discard())

	req := newGET(t, "http://origin/missing.css")
	result := s.Serve(context.Background(), req, testNS)

	if result.Outcome != OutcomeUnavailable {
		t.Errorf("Outcome = %s, want unavailable", result.Outcome)
	}
	if result.Response.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", result.Response.StatusCode)
	}
}

// An HTTP-level error is passed through as-is and never cached; it is
// not a fetch failure.
func TestCacheFirst_HTTPErrorPassthroughNotCached(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/gone.js", testutil.OriginResponse{StatusCode: 404, Body: "not found"})

	store := cache.NewMemoryStore()
	s := NewCacheFirst(store, http.DefaultClient, discard())

	req := newGET(t, origin.URL()+"/gone.js")
	result := s.Serve(context.Background(), req, testNS)

	if result.Response.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404 passthrough", result.Response.StatusCode)
	}
	readBody(t, result.Response)

	if _, err := store.Get(context.Background(), testNS, cache.KeyForPath("/gone.js")); err != cache.ErrCacheMiss {
		t.Errorf("error response was cached: %v", err)
	}
}

// A write-through failure must not fail the response.
func TestCacheFirst_WriteThroughFailureStillServes(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetAsset("/app.js", "application/javascript", "js")

	store := &brokenStore{Store: cache.NewMemoryStore()}
	s := NewCacheFirst(store, http.DefaultClient, discard())

	req := newGET(t, origin.URL()+"/app.js")
	result := s.Serve(context.Background(), req, testNS)

	if result.Response.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200 despite store failure", result.Response.StatusCode)
	}
	if got := readBody(t, result.Response); got != "js" {
		t.Errorf("Body = %q, want network response", got)
	}
}

var pagesNS = cache.Namespace{Family: cache.FamilyPages, Generation: "v1"}

func TestNetworkFirst_SuccessWritesThrough(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetPage("/dashboard", "<html>dash</html>")

	store := cache.NewMemoryStore()
	s := NewNetworkFirst(store, http.DefaultClient, discard())

	req := newGET(t, origin.URL()+"/dashboard")
	result := s.Serve(context.Background(), req, pagesNS)

	if result.Outcome != OutcomeMiss {
		t.Errorf("Outcome = %s, want miss", result.Outcome)
	}
	if got := readBody(t, result.Response); got != "<html>dash</html>" {
		t.Errorf("Body = %q, want network response", got)
	}

	entry, err := store.Get(context.Background(), pagesNS, cache.KeyForPath("/dashboard"))
	if err != nil {
		t.Fatalf("write-through missing: %v", err)
	}
	if string(entry.Body) != "<html>dash</html>" {
		t.Errorf("cached Body = %q", entry.Body)
	}
}

func TestNetworkFirst_FallsBackToExactKey(t *testing.T) {
	store := cache.NewMemoryStore()
	seed(t, store, pagesNS, "/dashboard", "<html>cached dash</html>")

	s := NewNetworkFirst(store, &testutil.FailingFetcher{}, discard())

	req := newGET(t, "http://origin/dashboard")
	result := s.Serve(context.Background(), req, pagesNS)

	if result.Outcome != OutcomeFallback {
		t.Errorf("Outcome = %s, want fallback", result.Outcome)
	}
	if got := readBody(t, result.Response); got != "<html>cached dash</html>" {
		t.Errorf("Body = %q, want cached entry", got)
	}
}

// With no entry for the exact key, the cached root document is served:
// the precached application shell in the static namespace of the same
// generation.
func TestNetworkFirst_FallsBackToRootDocument(t *testing.T) {
	store := cache.NewMemoryStore()
	staticNS := cache.Namespace{Family: cache.FamilyStatic, Generation: "v1"}
	seed(t, store, staticNS, "/", "<html>shell</html>")

	s := NewNetworkFirst(store, &testutil.FailingFetcher{}, discard())

	req := newGET(t, "http://origin/dashboard")
	result := s.Serve(context.Background(), req, pagesNS)

	if result.Outcome != OutcomeFallback {
		t.Errorf("Outcome = %s, want fallback", result.Outcome)
	}
	if got := readBody(t, result.Response); got != "<html>shell</html>" {
		t.Errorf("Body = %q, want root document", got)
	}
}

func TestNetworkFirst_OfflineWhenNothingCached(t *testing.T) {
	store := cache.NewMemoryStore()
	s := NewNetworkFirst(store, &testutil.FailingFetcher{}, discard())

	req := newGET(t, "http://origin/dashboard")
	result := s.Serve(context.Background(), req, pagesNS)

	if result.Outcome != OutcomeOffline {
		t.Errorf("Outcome = %s, want offline", result.Outcome)
	}
	if result.Response.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", result.Response.StatusCode)
	}
	if result.Response.Status != "503 Offline" {
		t.Errorf("Status = %q, want offline variant", result.Response.Status)
	}
}

// An HTTP error from the origin is not a network failure: it passes
// through and does not trigger the cache fallback chain.
func TestNetworkFirst_HTTPErrorDoesNotFallBack(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/dashboard", testutil.OriginResponse{StatusCode: 500, Body: "boom"})

	store := cache.NewMemoryStore()
	seed(t, store, pagesNS, "/dashboard", "<html>stale</html>")

	s := NewNetworkFirst(store, http.DefaultClient, discard())

	req := newGET(t, origin.URL()+"/dashboard")
	result := s.Serve(context.Background(), req, pagesNS)

	if result.Response.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500 passthrough", result.Response.StatusCode)
	}
	readBody(t, result.Response)

	// The stale cached entry is untouched by the error response.
	entry, err := store.Get(context.Background(), pagesNS, cache.KeyForPath("/dashboard"))
	if err != nil {
		t.Fatalf("cached entry lost: %v", err)
	}
	if string(entry.Body) != "<html>stale</html>" {
		t.Errorf("cached Body = %q, want untouched entry", entry.Body)
	}
}
