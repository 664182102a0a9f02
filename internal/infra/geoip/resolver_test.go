package geoip

import (
	"errors"
	"testing"
)

func TestNewResolverWithoutPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("expected nil resolver, got %v, %v", r, err)
	}
	if r.Lookup() != nil {
		t.Fatalf("nil resolver must not expose a lookup")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close nil resolver: %v", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver(t.TempDir() + "/missing.mmdb"); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestCountryCodeSkipsLocalAddresses(t *testing.T) {
	var r *Resolver
	tests := []struct {
		ip      string
		wantErr error
		invalid bool
	}{
		{ip: "10.1.2.3"},
		{ip: "192.168.0.10"},
		{ip: "127.0.0.1"},
		{ip: "::1"},
		{ip: "0.0.0.0"},
		{ip: "fe80::1"},
		{ip: "8.8.8.8", wantErr: ErrUnavailable},
		{ip: "not-an-ip", invalid: true},
	}
	for _, tc := range tests {
		t.Run(tc.ip, func(t *testing.T) {
			code, err := r.CountryCode(tc.ip)
			switch {
			case tc.invalid:
				if err == nil {
					t.Fatalf("expected error for %q", tc.ip)
				}
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			default:
				if err != nil || code != "" {
					t.Fatalf("expected empty code for %s, got %q, %v", tc.ip, code, err)
				}
			}
		})
	}
}
