package cache

import (
	"net/http"
	"time"
)

// Entry is a byte-accurate snapshot of a successful HTTP response.
// Entries carry no expiry: they live until their owning namespace is
// deleted by a generation sweep.
type Entry struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// Body is the response body
	Body []byte `json:"body"`

	// StoredAt is when this snapshot was written
	StoredAt time.Time `json:"stored_at"`
}

// Clone returns a deep copy of the entry. Callers that hand the body
// to the application must not share the stored byte slice.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return &Entry{
		StatusCode: e.StatusCode,
		Headers:    e.Headers.Clone(),
		Body:       body,
		StoredAt:   e.StoredAt,
	}
}
