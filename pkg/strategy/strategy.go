// Package strategy implements the two retrieval strategies, cache-first
// and network-first. Both are total: every failure path resolves to a
// response (cached, fetched, or a synthesized 503), never an error.
package strategy

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/offlineshell/swproxy/pkg/cache"
)

// Fetcher performs the actual network fetch. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome describes how a response was produced.
type Outcome string

const (
	// OutcomeHit was served from cache without touching the network.
	OutcomeHit Outcome = "hit"

	// OutcomeMiss went to the network (fresh response, cached or not).
	OutcomeMiss Outcome = "miss"

	// OutcomeFallback was served from cache after the network failed.
	OutcomeFallback Outcome = "fallback"

	// OutcomeUnavailable is a synthesized 503: network failed, no cache.
	OutcomeUnavailable Outcome = "unavailable"

	// OutcomeOffline is a synthesized 503 for an exhausted navigation
	// fallback chain.
	OutcomeOffline Outcome = "offline"
)

// Result pairs a response with how it was obtained.
type Result struct {
	Response *http.Response
	Outcome  Outcome
}

// Strategy serves a request against a namespace. Implementations never
// return an error; degraded paths synthesize a 503.
type Strategy interface {
	Serve(ctx context.Context, req *http.Request, ns cache.Namespace) Result
}

// httpSuccess reports whether the response status triggers write-through.
// Non-2xx statuses are passed through but never cached.
func httpSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// writeThrough stores a snapshot of resp as a side effect of serving
// it. Failures are logged and swallowed: caching is best-effort and
// must never gate the response path.
func writeThrough(ctx context.Context, store cache.Store, ns cache.Namespace, key cache.Key, resp *http.Response, logger zerolog.Logger) {
	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to snapshot response")
		return
	}
	if err := store.Set(ctx, ns, key, entry); err != nil {
		logger.Warn().Err(err).
			Str("namespace", ns.String()).
			Str("key", key.String()).
			Msg("Failed to cache response")
		return
	}
	logger.Debug().
		Str("namespace", ns.String()).
		Str("key", key.String()).
		Int("bytes", len(entry.Body)).
		Msg("Cached response")
}

// lookup fetches an entry from the store, treating backend errors as a
// miss so a broken store degrades the cache, not the request.
func lookup(ctx context.Context, store cache.Store, ns cache.Namespace, key cache.Key, logger zerolog.Logger) *cache.Entry {
	entry, err := store.Get(ctx, ns, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).
				Str("namespace", ns.String()).
				Str("key", key.String()).
				Msg("Cache get error")
		}
		return nil
	}
	return entry
}
