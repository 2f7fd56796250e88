package lifecycle

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/offlineshell/swproxy/pkg/cache"
)

// precacheEntry pairs a fetched snapshot with its key so the write
// phase only starts once every member has been fetched successfully.
type precacheEntry struct {
	key   cache.Key
	entry *cache.Entry
}

// fetchPrecache fetches every precache path with bounded concurrency.
// Any member failure (network error or non-2xx status) aborts the
// whole install; the first error cancels the remaining fetches.
func (c *Controller) fetchPrecache(ctx context.Context) ([]precacheEntry, error) {
	entries := make([]precacheEntry, len(c.precache))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var mu sync.Mutex
	for i, path := range c.precache {
		g.Go(func() error {
			entry, err := c.fetchOne(gctx, path)
			if err != nil {
				return err
			}
			mu.Lock()
			entries[i] = precacheEntry{key: cache.KeyForPath(path), entry: entry}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// fetchOne fetches a single precache member. A network error is
// retried once; a non-2xx status is not, since the origin answered
// and the manifest is simply wrong.
func (c *Controller) fetchOne(ctx context.Context, path string) (*cache.Entry, error) {
	target := c.origin.ResolveReference(mustParseRef(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &PrecacheError{Path: path, Err: err}
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Precache fetch failed, retrying once")
		retryReq, rerr := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if rerr != nil {
			return nil, &PrecacheError{Path: path, Err: rerr}
		}
		resp, err = c.fetcher.Do(retryReq)
	}
	if err != nil {
		return nil, &PrecacheError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &PrecacheError{Path: path, StatusCode: resp.StatusCode}
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		return nil, &PrecacheError{Path: path, Err: err}
	}
	return entry, nil
}

// mustParseRef parses a manifest path as a URL reference. Paths are
// validated at config load; a malformed one degrades to a literal
// path rather than aborting.
func mustParseRef(path string) *url.URL {
	u, err := url.Parse(path)
	if err != nil {
		return &url.URL{Path: path}
	}
	return u
}
