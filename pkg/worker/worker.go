// Package worker composes the lifecycle gate, the request classifier
// and the strategy engine into the request interception path.
package worker

import (
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/offlineshell/swproxy/pkg/cache"
	"github.com/offlineshell/swproxy/pkg/classify"
	"github.com/offlineshell/swproxy/pkg/lifecycle"
	"github.com/offlineshell/swproxy/pkg/strategy"
)

// MarkerHeader reports how a response was produced, without touching
// the response body: hit, miss, fallback, unavailable, offline, bypass.
const MarkerHeader = "X-Swproxy"

// OutcomeBypass marks responses that were never classified: non-GET,
// cross-origin, or requests arriving before activation completed.
const OutcomeBypass = "bypass"

// Worker intercepts requests once the lifecycle controller is active.
type Worker struct {
	ctrl         *lifecycle.Controller
	classifier   *classify.Classifier
	cacheFirst   strategy.Strategy
	networkFirst strategy.Strategy
	fetcher      strategy.Fetcher
	origin       *url.URL
	logger       zerolog.Logger
}

// Config holds worker configuration.
type Config struct {
	Controller *lifecycle.Controller
	Classifier *classify.Classifier

	// Store is the cache backend shared with the controller.
	Store cache.Store

	// Fetcher performs origin fetches. *http.Client satisfies it.
	Fetcher strategy.Fetcher

	// Origin is the upstream requests are forwarded to.
	Origin *url.URL

	Logger zerolog.Logger
}

// New creates a worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger.With().Str("component", "worker").Logger()
	return &Worker{
		ctrl:         cfg.Controller,
		classifier:   cfg.Classifier,
		cacheFirst:   strategy.NewCacheFirst(cfg.Store, cfg.Fetcher, cfg.Logger),
		networkFirst: strategy.NewNetworkFirst(cfg.Store, cfg.Fetcher, cfg.Logger),
		fetcher:      cfg.Fetcher,
		origin:       cfg.Origin,
		logger:       logger,
	}
}

// Handle resolves a single request to a response. It never returns an
// error: passthrough failures surface as 502, strategy failures as
// synthesized 503s. The caller owns the response body.
func (w *Worker) Handle(req *http.Request) strategy.Result {
	// Readiness gate: no request is classified against a namespace
	// whose generation is still being populated.
	if !w.ctrl.Ready() {
		return w.passthrough(req)
	}

	decision := w.classifier.Classify(req)
	if !decision.Intercept {
		return w.passthrough(req)
	}

	ns := w.ctrl.Namespace(decision.Family)
	upstream := w.rewrite(req)

	switch decision.Strategy {
	case classify.StrategyNetworkFirst:
		return w.networkFirst.Serve(req.Context(), upstream, ns)
	default:
		return w.cacheFirst.Serve(req.Context(), upstream, ns)
	}
}

// ServeHTTP is the reverse-proxy front: it resolves the request via
// Handle and copies the response to the client, tagging it with the
// marker header.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	result := w.Handle(req)
	resp := result.Response
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			rw.Header().Add(k, v)
		}
	}
	rw.Header().Set(MarkerHeader, string(result.Outcome))
	rw.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(rw, resp.Body); err != nil {
		w.logger.Warn().Err(err).Str("path", req.URL.Path).Msg("Failed to write response")
	}
}

// passthrough forwards a request to the origin without touching the
// cache. Used for non-intercepted requests and for requests arriving
// before activation.
func (w *Worker) passthrough(req *http.Request) strategy.Result {
	resp, err := w.fetcher.Do(w.rewrite(req))
	if err != nil {
		w.logger.Warn().Err(err).Str("path", req.URL.Path).Msg("Passthrough fetch failed")
		return strategy.Result{
			Response: &http.Response{
				Status:     http.StatusText(http.StatusBadGateway),
				StatusCode: http.StatusBadGateway,
				Proto:      "HTTP/1.1",
				ProtoMajor: 1,
				ProtoMinor: 1,
				Header:     http.Header{},
				Body:       http.NoBody,
			},
			Outcome: strategy.Outcome(OutcomeBypass),
		}
	}
	return strategy.Result{Response: resp, Outcome: strategy.Outcome(OutcomeBypass)}
}

// rewrite builds the upstream request: same method, path, query, body
// and headers, addressed to the origin.
func (w *Worker) rewrite(req *http.Request) *http.Request {
	target := *req.URL
	target.Scheme = w.origin.Scheme
	target.Host = w.origin.Host

	out := req.Clone(req.Context())
	out.URL = &target
	out.Host = w.origin.Host
	out.RequestURI = ""
	return out
}
