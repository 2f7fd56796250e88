// Package lifecycle drives the install -> activate -> serve sequence
// and owns generation management of the cache namespaces.
package lifecycle

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/offlineshell/swproxy/pkg/cache"
	"github.com/offlineshell/swproxy/pkg/strategy"
)

// State is the lifecycle phase. The sequence is strictly
// Installing -> WaitingToActivate -> Active, with no cycle back; a new
// deployment runs a fresh controller through the same sequence.
type State int32

const (
	// StateInstalling covers precache population.
	StateInstalling State = iota

	// StateWaitingToActivate is the moment between a successful install
	// and activation. With the skip-waiting policy this state is
	// transient: Run proceeds to Activate immediately.
	StateWaitingToActivate

	// StateActive means stale generations are swept and interception
	// may begin.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaitingToActivate:
		return "waiting_to_activate"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	lifecycleState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swproxy_lifecycle_state",
		Help: "Current lifecycle state (0=installing, 1=waiting_to_activate, 2=active)",
	})

	precacheDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swproxy_precache_duration_seconds",
		Help:    "Duration of precache population",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
	})

	precacheFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swproxy_precache_failures_total",
		Help: "Total failed install attempts",
	})

	namespacesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swproxy_namespaces_dropped_total",
		Help: "Total stale-generation namespaces deleted on activation",
	})
)

// Config holds controller configuration.
type Config struct {
	// Store is the cache backend.
	Store cache.Store

	// Fetcher performs precache fetches against the origin.
	Fetcher strategy.Fetcher

	// Origin is the base URL precache paths are resolved against.
	Origin *url.URL

	// Generation is this deployment's version tag (e.g. "v1").
	Generation string

	// Precache is the ordered list of absolute paths that must be
	// present in the static namespace after install.
	Precache []string

	// Concurrency bounds parallel precache fetches. Defaults to 4.
	Concurrency int

	Logger zerolog.Logger
}

// Controller runs the lifecycle and gates interception on it.
type Controller struct {
	store       cache.Store
	fetcher     strategy.Fetcher
	origin      *url.URL
	generation  string
	precache    []string
	concurrency int
	logger      zerolog.Logger

	state atomic.Int32
}

// New creates a controller in the installing state.
func New(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Origin == nil {
		return nil, fmt.Errorf("origin is required")
	}
	if cfg.Generation == "" {
		return nil, fmt.Errorf("generation is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	c := &Controller{
		store:       cfg.Store,
		fetcher:     cfg.Fetcher,
		origin:      cfg.Origin,
		generation:  cfg.Generation,
		precache:    cfg.Precache,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger.With().Str("component", "lifecycle").Logger(),
	}
	c.setState(StateInstalling)
	return c, nil
}

// Generation returns the current deployment's generation tag.
func (c *Controller) Generation() string {
	return c.generation
}

// Namespace returns the current generation's namespace for a family.
func (c *Controller) Namespace(family string) cache.Namespace {
	return cache.Namespace{Family: family, Generation: c.generation}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Ready reports whether interception may begin. The dispatch path
// checks this gate before classifying any request, so no request is
// ever routed against a namespace that is still being populated.
func (c *Controller) Ready() bool {
	return c.State() == StateActive
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
	lifecycleState.Set(float64(s))
}

// Run executes install then activate. The skip-waiting policy applies:
// a successful install proceeds straight to activation instead of
// deferring to existing clients.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Install(ctx); err != nil {
		return err
	}
	c.logger.Debug().Msg("Skip waiting: activating immediately")
	return c.Activate(ctx)
}

// Install populates the static namespace of the current generation
// from the precache list, all-or-nothing. On failure the previous
// generation remains authoritative: nothing switches until a later
// successful activation, and partial writes land in a namespace that
// never becomes current. Re-running install for the same generation is
// idempotent with respect to observable cache contents.
func (c *Controller) Install(ctx context.Context) error {
	c.setState(StateInstalling)
	start := time.Now()

	ns := c.Namespace(cache.FamilyStatic)
	c.logger.Info().
		Str("namespace", ns.String()).
		Int("paths", len(c.precache)).
		Msg("Installing: populating precache")

	entries, err := c.fetchPrecache(ctx)
	if err != nil {
		precacheFailures.Inc()
		return fmt.Errorf("%w: %w", ErrPrecacheFailed, err)
	}

	for _, pe := range entries {
		if err := c.store.Set(ctx, ns, pe.key, pe.entry); err != nil {
			// Unlike write-through, precache writes are load-bearing:
			// a partial namespace must not become current.
			precacheFailures.Inc()
			return fmt.Errorf("%w: store %s: %v", ErrPrecacheFailed, pe.key.String(), err)
		}
	}

	precacheDuration.Observe(time.Since(start).Seconds())
	c.logger.Info().
		Str("namespace", ns.String()).
		Int("entries", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("Install complete")

	c.setState(StateWaitingToActivate)
	return nil
}

// Activate garbage-collects namespaces of prior generations and opens
// the readiness gate. Only known families are swept; unrelated data in
// the same store is left alone.
func (c *Controller) Activate(ctx context.Context) error {
	if c.State() != StateWaitingToActivate {
		return fmt.Errorf("activate from state %s: %w", c.State(), ErrNotActive)
	}

	namespaces, err := c.store.Namespaces(ctx)
	if err != nil {
		return fmt.Errorf("enumerate namespaces: %w", err)
	}

	for _, ns := range namespaces {
		if !cache.KnownFamily(ns.Family) {
			continue
		}
		if ns.Generation == c.generation {
			continue
		}
		if err := c.store.DropNamespace(ctx, ns); err != nil {
			return fmt.Errorf("drop stale namespace %s: %w", ns.String(), err)
		}
		namespacesDropped.Inc()
		c.logger.Info().Str("namespace", ns.String()).Msg("Dropped stale namespace")
	}

	c.setState(StateActive)
	c.logger.Info().Str("generation", c.generation).Msg("Activated")
	return nil
}
