package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/offlineshell/swproxy/pkg/cache"
)

// CacheFirst serves from the namespace when possible and touches the
// network only on a miss. Suited to content-addressed static assets
// that never change within a generation.
type CacheFirst struct {
	store   cache.Store
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewCacheFirst creates a cache-first strategy.
func NewCacheFirst(store cache.Store, fetcher Fetcher, logger zerolog.Logger) *CacheFirst {
	return &CacheFirst{
		store:   store,
		fetcher: fetcher,
		logger:  logger.With().Str("strategy", "cache_first").Logger(),
	}
}

// Serve resolves the request: cache hit, else network with best-effort
// write-through, else a synthesized 503.
func (s *CacheFirst) Serve(ctx context.Context, req *http.Request, ns cache.Namespace) Result {
	key := cache.KeyForRequest(req)

	if entry := lookup(ctx, s.store, ns, key, s.logger); entry != nil {
		requestsTotal.WithLabelValues(ns.Family, "cache_first", string(OutcomeHit)).Inc()
		return Result{Response: cache.EntryToResponse(entry), Outcome: OutcomeHit}
	}

	start := time.Now()
	resp, err := s.fetcher.Do(req)
	fetchDuration.WithLabelValues(ns.Family).Observe(time.Since(start).Seconds())

	if err != nil {
		// Network failure with no cached entry: synthesize rather than
		// surface the error.
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Fetch failed, no cached entry")
		requestsTotal.WithLabelValues(ns.Family, "cache_first", string(OutcomeUnavailable)).Inc()
		return Result{Response: synthUnavailable(), Outcome: OutcomeUnavailable}
	}

	// HTTP-level errors pass through untouched and are never cached,
	// so a cached 200 is never shadowed by a transient 5xx.
	if httpSuccess(resp) {
		writeThrough(ctx, s.store, ns, key, resp, s.logger)
	}

	requestsTotal.WithLabelValues(ns.Family, "cache_first", string(OutcomeMiss)).Inc()
	return Result{Response: resp, Outcome: OutcomeMiss}
}

var _ Strategy = (*CacheFirst)(nil)
