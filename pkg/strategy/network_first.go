package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/offlineshell/swproxy/pkg/cache"
)

// RootDocumentPath is the navigation fallback served when the exact
// page is not cached but the application shell is.
const RootDocumentPath = "/"

// NetworkFirst prefers a fresh response and degrades to cache when the
// network is unavailable. Suited to page navigations, where staleness
// is acceptable but emptiness is not.
type NetworkFirst struct {
	store   cache.Store
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewNetworkFirst creates a network-first strategy.
func NewNetworkFirst(store cache.Store, fetcher Fetcher, logger zerolog.Logger) *NetworkFirst {
	return &NetworkFirst{
		store:   store,
		fetcher: fetcher,
		logger:  logger.With().Str("strategy", "network_first").Logger(),
	}
}

// Serve resolves the request: network with best-effort write-through,
// else the cached entry for this key, else the cached root document,
// else a synthesized 503 Offline.
func (s *NetworkFirst) Serve(ctx context.Context, req *http.Request, ns cache.Namespace) Result {
	key := cache.KeyForRequest(req)

	start := time.Now()
	resp, err := s.fetcher.Do(req)
	fetchDuration.WithLabelValues(ns.Family).Observe(time.Since(start).Seconds())

	if err == nil {
		if httpSuccess(resp) {
			writeThrough(ctx, s.store, ns, key, resp, s.logger)
		}
		requestsTotal.WithLabelValues(ns.Family, "network_first", string(OutcomeMiss)).Inc()
		return Result{Response: resp, Outcome: OutcomeMiss}
	}

	s.logger.Warn().Err(err).Str("key", key.String()).Msg("Fetch failed, falling back to cache")

	if entry := lookup(ctx, s.store, ns, key, s.logger); entry != nil {
		requestsTotal.WithLabelValues(ns.Family, "network_first", string(OutcomeFallback)).Inc()
		return Result{Response: cache.EntryToResponse(entry), Outcome: OutcomeFallback}
	}

	// The exact page is not cached; the precached application shell is
	// still a working document for a navigation. The root document may
	// live in this namespace (written through by an earlier navigation)
	// or in the static namespace of the same generation (precached).
	rootKey := cache.KeyForPath(RootDocumentPath)
	if key.String() != rootKey.String() {
		for _, fallbackNS := range []cache.Namespace{ns, {Family: cache.FamilyStatic, Generation: ns.Generation}} {
			entry := lookup(ctx, s.store, fallbackNS, rootKey, s.logger)
			if entry == nil {
				continue
			}
			s.logger.Debug().
				Str("key", key.String()).
				Str("namespace", fallbackNS.String()).
				Msg("Serving root document fallback")
			requestsTotal.WithLabelValues(ns.Family, "network_first", string(OutcomeFallback)).Inc()
			return Result{Response: cache.EntryToResponse(entry), Outcome: OutcomeFallback}
		}
	}

	requestsTotal.WithLabelValues(ns.Family, "network_first", string(OutcomeOffline)).Inc()
	return Result{Response: synthOffline(), Outcome: OutcomeOffline}
}

var _ Strategy = (*NetworkFirst)(nil)
