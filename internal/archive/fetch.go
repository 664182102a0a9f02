package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bannergen/internal/providers/image"
)

const maxImageBytes = 20 << 20

var (
	ErrHostNotAllowed = errors.New("archive: image host not allowed")
	ErrImageTooLarge  = errors.New("archive: image exceeds size limit")
)

// Fetcher resolves data URLs locally and downloads remote images from an
// allowlist of hosts.
type Fetcher struct {
	client *http.Client
	hosts  map[string]struct{}
}

// NewFetcher builds a Fetcher. An empty allowlist forbids every remote host.
func NewFetcher(client *http.Client, allowlist []string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	hosts := make(map[string]struct{}, len(allowlist))
	for _, h := range allowlist {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts[h] = struct{}{}
		}
	}
	return &Fetcher{client: client, hosts: hosts}
}

// Load returns the bytes and MIME type behind src.
func (f *Fetcher) Load(ctx context.Context, src string) ([]byte, string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, "", errors.New("archive: empty image source")
	}
	if strings.HasPrefix(src, "data:") {
		data, mime, err := image.DecodeReference(src)
		if err != nil {
			return nil, "", fmt.Errorf("archive: decode data url: %w", err)
		}
		return data, mime, nil
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, "", fmt.Errorf("archive: parse image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("archive: unsupported scheme %q", u.Scheme)
	}
	if !f.allowed(u.Hostname()) {
		return nil, "", fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("archive: fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("archive: fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("archive: read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, "", errors.New("archive: empty image body")
	}
	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(mime)
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// allowed matches a host or any of its subdomains against the allowlist.
func (f *Fetcher) allowed(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := f.hosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}
