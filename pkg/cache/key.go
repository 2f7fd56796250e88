package cache

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Key is the normalized identity of a request: method plus URL path,
// query included. Two requests with the same Key address the same
// cache entry regardless of query parameter ordering.
type Key struct {
	// Method is the HTTP method (interception only caches GET, but the
	// key keeps it so entries are self-describing).
	Method string

	// Path is the URL path (e.g. "/assets/app.js").
	Path string

	// Query are the query parameters.
	Query url.Values
}

// KeyForRequest builds the cache key for an HTTP request.
func KeyForRequest(req *http.Request) Key {
	return Key{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
	}
}

// KeyForPath builds the cache key for a GET of an absolute path. The
// path may carry a query string (precache manifests do this verbatim).
func KeyForPath(path string) Key {
	p, q := path, url.Values{}
	if i := strings.Index(path, "?"); i >= 0 {
		p = path[:i]
		if parsed, err := url.ParseQuery(path[i+1:]); err == nil {
			q = parsed
		}
	}
	return Key{Method: http.MethodGet, Path: p, Query: q}
}

// String generates a deterministic key string.
// Format: GET /some/path?a=1&b=2 with query keys sorted.
func (k Key) String() string {
	method := k.Method
	if method == "" {
		method = http.MethodGet
	}
	path := k.Path
	if path == "" {
		path = "/"
	}

	var b strings.Builder
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)

	if len(k.Query) > 0 {
		queryKeys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		sep := "?"
		for _, key := range queryKeys {
			vals := append([]string(nil), k.Query[key]...)
			sort.Strings(vals)
			for _, v := range vals {
				fmt.Fprintf(&b, "%s%s=%s", sep, key, v)
				sep = "&"
			}
		}
	}

	return b.String()
}
