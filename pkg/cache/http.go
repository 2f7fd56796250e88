package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ResponseToEntry converts an HTTP response into a storable snapshot.
// It reads the response body and restores it so the caller can still
// serve the response after the snapshot is taken.
func ResponseToEntry(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return &Entry{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now(),
	}, nil
}

// EntryToResponse reconstructs an HTTP response from a snapshot. The
// returned response owns a private copy of the body.
func EntryToResponse(entry *Entry) *http.Response {
	if entry == nil {
		return nil
	}
	clone := entry.Clone()
	return &http.Response{
		Status:        http.StatusText(clone.StatusCode),
		StatusCode:    clone.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        clone.Headers,
		Body:          io.NopCloser(bytes.NewReader(clone.Body)),
		ContentLength: int64(len(clone.Body)),
	}
}
