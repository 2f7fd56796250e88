package cache

import (
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "simple path no query",
			key:  Key{Method: "GET", Path: "/logo.png"},
			want: "GET /logo.png",
		},
		{
			name: "empty method and path normalize",
			key:  Key{},
			want: "GET /",
		},
		{
			name: "query included",
			key: Key{
				Method: "GET",
				Path:   "/api/items",
				Query:  url.Values{"page": []string{"2"}},
			},
			want: "GET /api/items?page=2",
		},
		{
			name: "query keys sorted",
			key: Key{
				Method: "GET",
				Path:   "/api/items",
				Query: url.Values{
					"page": []string{"2"},
					"kind": []string{"all"},
				},
			},
			want: "GET /api/items?kind=all&page=2",
		},
		{
			name: "repeated query values sorted",
			key: Key{
				Method: "GET",
				Path:   "/api/items",
				Query:  url.Values{"tag": []string{"b", "a"}},
			},
			want: "GET /api/items?tag=a&tag=b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyForRequest_MatchesKeyForPath(t *testing.T) {
	req := httptest.NewRequest("GET", "http://app.local/dashboard?tab=2&view=grid", nil)

	fromReq := KeyForRequest(req).String()
	fromPath := KeyForPath("/dashboard?view=grid&tab=2").String()

	if fromReq != fromPath {
		t.Errorf("key mismatch: request %q, path %q", fromReq, fromPath)
	}
}

func TestKeyForPath_NoQuery(t *testing.T) {
	got := KeyForPath("/").String()
	if got != "GET /" {
		t.Errorf("KeyForPath(\"/\") = %q, want %q", got, "GET /")
	}
}

// Same request must always produce the same key regardless of query
// parameter ordering in the raw URL.
func TestKey_Determinism(t *testing.T) {
	a := httptest.NewRequest("GET", "http://app.local/api?b=2&a=1", nil)
	b := httptest.NewRequest("GET", "http://app.local/api?a=1&b=2", nil)

	if KeyForRequest(a).String() != KeyForRequest(b).String() {
		t.Error("keys differ for equivalent requests")
	}
}
