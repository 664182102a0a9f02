package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"bannergen/internal/domain"
	"bannergen/internal/infra"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 64
	jobTimeout       = 45 * time.Second
)

// ErrQueueFull is reported when a job cannot be enqueued without blocking.
var ErrQueueFull = errors.New("archive: queue full")

// BlobStore uploads image bytes and returns the URL they are served from.
type BlobStore interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, mime string) (string, error)
}

// RecordStore persists banner rows.
type RecordStore interface {
	Create(ctx context.Context, record domain.BannerRecord) error
}

// Loader turns an image source (data URL or remote URL) into bytes.
type Loader interface {
	Load(ctx context.Context, src string) ([]byte, string, error)
}

// Job is one generated asset to persist. Image is the source returned to the
// client; the record's ImageURL and StorageKey are filled in by the worker.
type Job struct {
	Record domain.BannerRecord
	Image  string
}

type failure struct {
	recordID string
	stage    string
	err      error
}

// Options configures an Archiver.
type Options struct {
	Blobs     BlobStore
	Records   RecordStore
	Loader    Loader
	Workers   int
	QueueSize int
	Logger    *infra.Logger
	Now       func() time.Time
}

// Archiver persists generated assets off the request path. Submitting never
// blocks; every failure is counted and logged by a single reporter goroutine.
// A nil or disabled Archiver accepts nothing.
type Archiver struct {
	blobs   BlobStore
	records RecordStore
	loader  Loader
	logger  *infra.Logger
	now     func() time.Time

	queue chan Job
	errs  chan failure

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool

	workers  sync.WaitGroup
	reporter sync.WaitGroup
	failures atomic.Int64
	stored   atomic.Int64
	once     sync.Once
}

// New starts the worker pool. Without both a blob store and a record store
// the archiver is disabled and starts no goroutines.
func New(opts Options) *Archiver {
	a := &Archiver{
		blobs:   opts.Blobs,
		records: opts.Records,
		loader:  opts.Loader,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		nop := zerolog.Nop()
		a.logger = &nop
	}
	if !a.Enabled() {
		return a
	}
	if a.loader == nil {
		a.loader = NewFetcher(nil, nil)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	a.queue = make(chan Job, size)
	a.errs = make(chan failure, size)
	a.baseCtx, a.cancel = context.WithCancel(context.Background())

	a.reporter.Add(1)
	go a.report()
	for i := 0; i < workers; i++ {
		a.workers.Add(1)
		go a.work()
	}
	a.logger.Info().
		Str("blob_store", a.blobs.Name()).
		Int("workers", workers).
		Int("queue", size).
		Msg("archive: enabled")
	return a
}

// Enabled reports whether submitted jobs are persisted.
func (a *Archiver) Enabled() bool {
	return a != nil && a.blobs != nil && a.records != nil
}

// Failures returns the number of jobs that could not be persisted.
func (a *Archiver) Failures() int64 {
	if a == nil {
		return 0
	}
	return a.failures.Load()
}

// Stored returns the number of jobs persisted successfully.
func (a *Archiver) Stored() int64 {
	if a == nil {
		return 0
	}
	return a.stored.Load()
}

// Submit enqueues a job. It returns false when the archiver is disabled,
// closed, or its queue is full; the latter two count as failures.
func (a *Archiver) Submit(job Job) bool {
	if !a.Enabled() {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.failures.Add(1)
		a.logger.Warn().Str("id", job.Record.ID).Msg("archive: submit after close")
		return false
	}
	select {
	case a.queue <- job:
		return true
	default:
		a.fail(job.Record.ID, "enqueue", ErrQueueFull)
		return false
	}
}

// Close stops accepting jobs and waits for the queue to drain. When ctx
// expires first, in-flight uploads are cancelled and ctx's error returned.
func (a *Archiver) Close(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		a.workers.Wait()
		close(a.errs)
		a.reporter.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.cancel()
		return nil
	case <-ctx.Done():
		a.cancel()
		<-done
		return ctx.Err()
	}
}

func (a *Archiver) work() {
	defer a.workers.Done()
	for job := range a.queue {
		a.process(job)
	}
}

func (a *Archiver) process(job Job) {
	ctx, cancel := context.WithTimeout(a.baseCtx, jobTimeout)
	defer cancel()

	record := job.Record
	data, mime, err := a.loader.Load(ctx, job.Image)
	if err != nil {
		a.fail(record.ID, "load", err)
		return
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = a.now().UTC()
	}
	key := StorageKey(record, mime)
	url, err := a.blobs.Put(ctx, key, data, mime)
	if err != nil {
		a.fail(record.ID, "upload", fmt.Errorf("%s: %w", a.blobs.Name(), err))
		return
	}
	record.StorageKey = key
	record.ImageURL = url
	if err := a.records.Create(ctx, record); err != nil {
		a.fail(record.ID, "record", err)
		return
	}
	a.stored.Add(1)
	a.logger.Debug().
		Str("id", record.ID).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("archive: stored")
}

// fail hands a failure to the reporter. When the reporter is behind the
// failure is counted inline so it is never lost.
func (a *Archiver) fail(id, stage string, err error) {
	select {
	case a.errs <- failure{recordID: id, stage: stage, err: err}:
	default:
		a.failures.Add(1)
		a.logger.Error().Err(err).Str("id", id).Str("stage", stage).Msg("archive: failed")
	}
}

func (a *Archiver) report() {
	defer a.reporter.Done()
	for f := range a.errs {
		a.failures.Add(1)
		a.logger.Error().
			Err(f.err).
			Str("id", f.recordID).
			Str("stage", f.stage).
			Int64("failures", a.failures.Load()).
			Msg("archive: failed")
	}
}
