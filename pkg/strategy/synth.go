package strategy

import (
	"bytes"
	"io"
	"net/http"
)

// Synthesized failure responses. These are the only responses this
// layer fabricates; everything else is a byte-accurate origin response.
const (
	statusUnavailable = "503 Service Unavailable"
	statusOffline     = "503 Offline"
)

func synthesize(status string, body string) *http.Response {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	return &http.Response{
		Status:        status,
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: int64(len(body)),
	}
}

// synthUnavailable is the generic network-failed-and-no-cache response.
func synthUnavailable() *http.Response {
	return synthesize(statusUnavailable, "service unavailable\n")
}

// synthOffline is returned when a navigation's fallback chain is
// exhausted: no cached page and no cached root document.
func synthOffline() *http.Response {
	return synthesize(statusOffline, "offline\n")
}
