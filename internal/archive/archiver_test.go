package archive

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"bannergen/internal/domain"
)

type memBlobs struct {
	mu   sync.Mutex
	objs map[string][]byte
	err  error
	gate chan struct{}
}

func (m *memBlobs) Name() string { return "mem" }

func (m *memBlobs) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objs == nil {
		m.objs = map[string][]byte{}
	}
	m.objs[key] = data
	return "https://cdn.test/" + key, nil
}

type memRecords struct {
	mu      sync.Mutex
	records []domain.BannerRecord
	err     error
}

func (m *memRecords) Create(_ context.Context, r domain.BannerRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func dataURL(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC) }

func TestArchiverStoresJobs(t *testing.T) {
	blobs := &memBlobs{}
	records := &memRecords{}
	a := New(Options{Blobs: blobs, Records: records, Workers: 2, QueueSize: 8, Now: fixedNow})
	if !a.Enabled() {
		t.Fatalf("expected archiver to be enabled")
	}

	for _, id := range []string{"a", "b", "c"} {
		job := Job{
			Record: domain.BannerRecord{ID: id, WalletAddress: "Wallet1", OutputType: domain.OutputBanner},
			Image:  dataURL("img-" + id),
		}
		if !a.Submit(job) {
			t.Fatalf("submit %s rejected", id)
		}
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(records.records); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}
	if a.Stored() != 3 || a.Failures() != 0 {
		t.Fatalf("stored=%d failures=%d", a.Stored(), a.Failures())
	}
	for _, r := range records.records {
		want := "banners/Wallet1/2025/03/09/banner-" + r.ID + ".png"
		if r.StorageKey != want {
			t.Fatalf("storage key %q, want %q", r.StorageKey, want)
		}
		if r.ImageURL != "https://cdn.test/"+want {
			t.Fatalf("unexpected url %q", r.ImageURL)
		}
		if string(blobs.objs[want]) != "img-"+r.ID {
			t.Fatalf("unexpected blob for %s", r.ID)
		}
		if !r.CreatedAt.Equal(fixedNow()) {
			t.Fatalf("created_at not stamped: %v", r.CreatedAt)
		}
	}
}

func TestArchiverCountsFailures(t *testing.T) {
	tests := []struct {
		name    string
		blobs   *memBlobs
		records *memRecords
		image   string
	}{
		{name: "upload", blobs: &memBlobs{err: errors.New("s3 down")}, records: &memRecords{}, image: dataURL("x")},
		{name: "record", blobs: &memBlobs{}, records: &memRecords{err: errors.New("db down")}, image: dataURL("x")},
		{name: "load", blobs: &memBlobs{}, records: &memRecords{}, image: "ftp://example.com/a.png"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := New(Options{Blobs: tc.blobs, Records: tc.records, Workers: 1, QueueSize: 4})
			if !a.Submit(Job{Record: domain.BannerRecord{ID: "x"}, Image: tc.image}) {
				t.Fatalf("submit rejected")
			}
			if err := a.Close(context.Background()); err != nil {
				t.Fatalf("close: %v", err)
			}
			if a.Failures() != 1 {
				t.Fatalf("expected 1 failure, got %d", a.Failures())
			}
			if a.Stored() != 0 {
				t.Fatalf("expected nothing stored, got %d", a.Stored())
			}
		})
	}
}

func TestArchiverQueueFullIsReported(t *testing.T) {
	blobs := &memBlobs{gate: make(chan struct{})}
	a := New(Options{Blobs: blobs, Records: &memRecords{}, Workers: 1, QueueSize: 1})

	accepted := 0
	for i := 0; i < 5; i++ {
		if a.Submit(Job{Record: domain.BannerRecord{ID: "q"}, Image: dataURL("x")}) {
			accepted++
		}
	}
	// One job may be held by the worker and one by the queue.
	if accepted < 1 || accepted > 2 {
		t.Fatalf("unexpected accepted count %d", accepted)
	}
	close(blobs.gate)
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := a.Failures(); got != int64(5-accepted) {
		t.Fatalf("expected %d failures, got %d", 5-accepted, got)
	}
	if a.Submit(Job{Image: dataURL("late")}) {
		t.Fatalf("submit after close must be rejected")
	}
}

func TestArchiverCloseHonoursDeadline(t *testing.T) {
	blobs := &memBlobs{gate: make(chan struct{})}
	a := New(Options{Blobs: blobs, Records: &memRecords{}, Workers: 1, QueueSize: 2})
	a.Submit(Job{Record: domain.BannerRecord{ID: "slow"}, Image: dataURL("x")})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if a.Failures() != 1 {
		t.Fatalf("cancelled upload should count as failure, got %d", a.Failures())
	}
}

func TestDisabledArchiver(t *testing.T) {
	var nilArchiver *Archiver
	if nilArchiver.Enabled() || nilArchiver.Submit(Job{}) || nilArchiver.Failures() != 0 {
		t.Fatalf("nil archiver must be inert")
	}
	a := New(Options{Blobs: &memBlobs{}})
	if a.Enabled() {
		t.Fatalf("archiver without record store must be disabled")
	}
	if a.Submit(Job{Image: dataURL("x")}) {
		t.Fatalf("disabled archiver accepted a job")
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("close disabled: %v", err)
	}
}

func TestStorageKey(t *testing.T) {
	created := time.Date(2024, 12, 1, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		name   string
		record domain.BannerRecord
		mime   string
		want   string
	}{
		{
			name:   "banner png",
			record: domain.BannerRecord{ID: "id-1", WalletAddress: "W1", OutputType: domain.OutputBanner, CreatedAt: created},
			mime:   "image/png",
			want:   "banners/W1/2024/12/01/banner-id-1.png",
		},
		{
			name:   "pfp jpeg anonymous",
			record: domain.BannerRecord{ID: "id-2", OutputType: domain.OutputPFP, CreatedAt: created},
			mime:   "image/jpeg",
			want:   "banners/anonymous/2024/12/01/pfp-id-2.jpg",
		},
		{
			name:   "unsafe wallet",
			record: domain.BannerRecord{ID: "id/3", WalletAddress: "../x", CreatedAt: created},
			mime:   "image/svg+xml",
			want:   "banners/x/2024/12/01/banner-id3.svg",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StorageKey(tc.record, tc.mime); got != tc.want {
				t.Fatalf("StorageKey() = %q, want %q", got, tc.want)
			}
		})
	}
}
