package testutil

import (
	"errors"
	"net/http"
	"sync"
)

// ErrNetwork is the canned failure returned by FailingFetcher.
var ErrNetwork = errors.New("simulated network failure")

// FailingFetcher fails every request with a network-level error.
type FailingFetcher struct {
	Err error
}

// Do implements the fetcher contract.
func (f *FailingFetcher) Do(*http.Request) (*http.Response, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, ErrNetwork
}

// FlakyFetcher fails the first Failures requests with a network-level
// error, then delegates to Next.
type FlakyFetcher struct {
	Failures int
	Next     interface {
		Do(*http.Request) (*http.Response, error)
	}

	mu    sync.Mutex
	calls int
}

// Do implements the fetcher contract.
func (f *FlakyFetcher) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.Failures
	f.mu.Unlock()

	if fail {
		return nil, ErrNetwork
	}
	return f.Next.Do(req)
}

// Calls returns the number of Do invocations seen so far.
func (f *FlakyFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
