// Package cache implements the versioned cache namespace store.
//
// Responses are stored as byte-accurate snapshots (status, headers,
// body) keyed by normalized request identity (method + path + sorted
// query). Entries are partitioned into namespaces named
// "<family>-<generation>" (e.g. "static-v1"); a deployment's
// generation tag is the only invalidation mechanism - entries carry no
// TTL and live until their namespace is swept by the lifecycle
// controller's activation phase.
//
// Three Store backends are provided:
//
//   - RedisStore: production backend, entries JSON-encoded under
//     "swcache:<namespace>:<key>"
//   - LevelDBStore: embedded backend for single-node deployments
//   - MemoryStore: in-memory backend for tests and RAM-only mode
//
// # Basic Usage
//
//	store := cache.NewRedisStore(redisClient)
//	ns := cache.Namespace{Family: cache.FamilyStatic, Generation: "v1"}
//
//	entry, err := store.Get(ctx, ns, cache.KeyForRequest(req))
//	if err == cache.ErrCacheMiss {
//		// fetch from the network
//	}
//
// # HTTP Conversion
//
//	entry, err := cache.ResponseToEntry(resp) // snapshot, body restored
//	resp2 := cache.EntryToResponse(entry)     // serve from snapshot
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - swproxy_cache_hits_total{family} - cache hits
//   - swproxy_cache_misses_total{family} - cache misses
//   - swproxy_cache_write_bytes_total - bytes written
//   - swproxy_cache_errors_total{operation} - backend errors
package cache
