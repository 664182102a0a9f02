package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		lookup CountryLookup
		want   string
	}{
		{
			name:  "cdn header wins",
			setup: func(r *http.Request) { r.Header.Set("CF-IPCountry", "de") },
			lookup: func(string) (string, error) {
				return "US", nil
			},
			want: "DE",
		},
		{
			name:  "unknown cdn value ignored",
			setup: func(r *http.Request) { r.Header.Set("CF-IPCountry", "XX") },
			want:  "",
		},
		{
			name:  "accept-language region",
			setup: func(r *http.Request) { r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9") },
			want:  "BR",
		},
		{
			name:   "lookup used last",
			lookup: func(string) (string, error) { return "jp", nil },
			want:   "JP",
		},
		{
			name:   "lookup error",
			lookup: func(string) (string, error) { return "", assertError("no db") },
			want:   "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountryMiddlewareStoresValue(t *testing.T) {
	var got string
	h := Country(func(ip string) (string, error) {
		if ip != "203.0.113.5" {
			return "", assertError("unexpected ip " + ip)
		}
		return "fr", nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:4100"
	req.Header.Set("X-Forwarded-For", "198.51.100.77")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "FR" {
		t.Fatalf("country = %q, want FR", got)
	}
}
