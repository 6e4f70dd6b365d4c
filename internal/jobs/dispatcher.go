// Package jobs runs best-effort background work (profile refreshes and
// metafield pushes) off the request path, with retries.
package jobs

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	applog "wishlistapp/internal/log"
)

// Job is a unit of background work.
type Job interface {
	// Name labels logs and metrics.
	Name() string
	// Key coalesces pending jobs: enqueuing a job whose key is already waiting
	// replaces the waiting one. Empty means never coalesce.
	Key() string
	Run(ctx context.Context) error
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

func isPermanent(err error) bool {
	var p permanent
	return errors.As(err, &p)
}

type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	RetryMin    time.Duration
	RetryMax    time.Duration
}

var jobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "background_jobs_total",
		Help: "Background jobs by name and result",
	},
	[]string{"job", "result"},
)

func init() {
	prometheus.MustRegister(jobsTotal)
}

// Dispatcher is a bounded queue drained by a fixed pool of workers.
type Dispatcher struct {
	cfg Config

	mu      sync.Mutex
	closed  bool
	pending map[string]Job
	queue   chan string

	seq    atomic.Uint64
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = 100 * time.Millisecond
	}
	if cfg.RetryMax < cfg.RetryMin {
		cfg.RetryMax = cfg.RetryMin
	}
	return &Dispatcher{
		cfg:     cfg,
		pending: map[string]Job{},
		queue:   make(chan string, cfg.QueueSize),
	}
}

// Start launches the workers. Jobs run under ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Enqueue schedules job without blocking. It returns false when the job was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(job Job) bool {
	key := job.Key()
	if key == "" {
		key = "#" + strconv.FormatUint(d.seq.Add(1), 10)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		jobsTotal.WithLabelValues(job.Name(), "dropped").Inc()
		return false
	}
	if _, waiting := d.pending[key]; waiting {
		d.pending[key] = job
		jobsTotal.WithLabelValues(job.Name(), "coalesced").Inc()
		return true
	}
	select {
	case d.queue <- key:
		d.pending[key] = job
		jobsTotal.WithLabelValues(job.Name(), "enqueued").Inc()
		return true
	default:
		jobsTotal.WithLabelValues(job.Name(), "dropped").Inc()
		applog.Fail("jobs.queue.full", errors.New("queue full"), map[string]any{"job": job.Name(), "key": key})
		return false
	}
}

// Close stops intake and waits for queued jobs to finish or ctx to expire.
// On expiry running jobs are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		if d.cancel != nil {
			d.cancel()
		}
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for key := range d.queue {
		d.mu.Lock()
		job := d.pending[key]
		delete(d.pending, key)
		d.mu.Unlock()
		if job != nil {
			d.run(job)
		}
	}
}

func (d *Dispatcher) run(job Job) {
	var err error
retry:
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			jobsTotal.WithLabelValues(job.Name(), "retried").Inc()
			select {
			case <-time.After(d.backoff(attempt)):
			case <-d.ctx.Done():
				err = d.ctx.Err()
				break retry
			}
		}
		err = job.Run(d.ctx)
		if err == nil {
			jobsTotal.WithLabelValues(job.Name(), "succeeded").Inc()
			return
		}
		applog.Warn(nil, "jobs.attempt.fail", err, map[string]any{"job": job.Name(), "key": job.Key(), "attempt": attempt})
		if isPermanent(err) {
			break retry
		}
	}
	jobsTotal.WithLabelValues(job.Name(), "failed").Inc()
	applog.Fail("jobs.fail", err, map[string]any{"job": job.Name(), "key": job.Key()})
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	wait := d.cfg.RetryMin * time.Duration(1<<uint(attempt-2))
	if wait > d.cfg.RetryMax || wait <= 0 {
		wait = d.cfg.RetryMax
	}
	return wait
}

// Func adapts a function to Job.
type Func struct {
	JobName string
	JobKey  string
	Fn      func(ctx context.Context) error
}

func (f Func) Name() string                  { return f.JobName }
func (f Func) Key() string                   { return f.JobKey }
func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }
