// Package classify routes incoming requests to a cache namespace
// family and retrieval strategy. Classification is a pure function of
// the request, so it can be tested deterministically.
package classify

import (
	"net/http"
	"path"
	"strings"

	"github.com/offlineshell/swproxy/pkg/cache"
)

// Strategy names the retrieval strategy a request is routed to.
type Strategy string

const (
	// StrategyCacheFirst serves from cache, hitting the network only
	// on a miss.
	StrategyCacheFirst Strategy = "cache_first"

	// StrategyNetworkFirst tries the network, falling back to cache.
	StrategyNetworkFirst Strategy = "network_first"
)

// Decision is the classification outcome for a single request.
type Decision struct {
	// Intercept is false for requests that bypass the cache entirely
	// (non-GET methods, cross-origin). Family and Strategy are unset
	// when Intercept is false.
	Intercept bool

	// Family is the target namespace family.
	Family string

	// Strategy is the retrieval strategy to apply.
	Strategy Strategy
}

// Config holds the static-asset patterns the classifier matches
// against. Zero values fall back to defaults covering common
// build-tool output.
type Config struct {
	// AssetPrefixes are path prefixes of build-emitted assets.
	AssetPrefixes []string

	// Extensions are static file extensions, with leading dot.
	Extensions []string

	// ManifestPaths are exact paths treated as static assets.
	ManifestPaths []string
}

// DefaultConfig returns patterns for common build-tool output.
func DefaultConfig() Config {
	return Config{
		AssetPrefixes: []string{"/assets/", "/static/"},
		Extensions: []string{
			".js", ".mjs", ".css", ".map",
			".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
			".woff", ".woff2", ".ttf", ".otf", ".eot",
			".wasm",
		},
		ManifestPaths: []string{
			"/manifest.json",
			"/manifest.webmanifest",
			"/favicon.ico",
		},
	}
}

// Classifier decides which namespace family and strategy a request
// belongs to. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	host          string
	assetPrefixes []string
	extensions    map[string]struct{}
	manifestPaths map[string]struct{}
}

// New creates a classifier. host is the origin host requests are
// considered same-origin against; requests carrying an absolute URL
// with a different host pass straight through.
func New(host string, cfg Config) *Classifier {
	if len(cfg.AssetPrefixes) == 0 && len(cfg.Extensions) == 0 && len(cfg.ManifestPaths) == 0 {
		cfg = DefaultConfig()
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	manifests := make(map[string]struct{}, len(cfg.ManifestPaths))
	for _, p := range cfg.ManifestPaths {
		manifests[p] = struct{}{}
	}

	return &Classifier{
		host:          host,
		assetPrefixes: cfg.AssetPrefixes,
		extensions:    exts,
		manifestPaths: manifests,
	}
}

// Classify applies the routing rules in order, first match wins:
//
//  1. non-GET methods pass through
//  2. cross-origin requests pass through
//  3. static-asset patterns -> {static, cache-first}
//  4. navigations / Accept: text/html -> {pages, network-first}
//  5. everything else -> {static, cache-first}
func (c *Classifier) Classify(req *http.Request) Decision {
	if req.Method != http.MethodGet {
		return Decision{}
	}

	if c.crossOrigin(req) {
		return Decision{}
	}

	if c.isStaticAsset(req.URL.Path) {
		return Decision{Intercept: true, Family: cache.FamilyStatic, Strategy: StrategyCacheFirst}
	}

	if isNavigation(req) {
		return Decision{Intercept: true, Family: cache.FamilyPages, Strategy: StrategyNetworkFirst}
	}

	// Same-origin GET catch-all (JSON data and the like).
	return Decision{Intercept: true, Family: cache.FamilyStatic, Strategy: StrategyCacheFirst}
}

// crossOrigin reports whether the request targets a different host.
// Server-side requests usually carry a relative URL with an empty
// host, which is same-origin by construction.
func (c *Classifier) crossOrigin(req *http.Request) bool {
	host := req.URL.Host
	if host == "" {
		return false
	}
	if c.host == "" {
		return host != req.Host && req.Host != ""
	}
	return !strings.EqualFold(host, c.host)
}

func (c *Classifier) isStaticAsset(p string) bool {
	for _, prefix := range c.assetPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	if _, ok := c.manifestPaths[p]; ok {
		return true
	}
	if ext := strings.ToLower(path.Ext(p)); ext != "" {
		if _, ok := c.extensions[ext]; ok {
			return true
		}
	}
	return false
}

// isNavigation reports whether the request is a page navigation:
// either the client declares it (Sec-Fetch-Mode) or the Accept header
// asks for HTML.
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	accept := req.Header.Get("Accept")
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "application/xhtml+xml")
}
