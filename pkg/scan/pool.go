// Package scan provides a worker pool that searches trace files for the
// intercepted commands and attributes they exercise.
//
// Each trace file is read and filtered on its own worker so that a large set
// of traces can be checked without serializing on disk reads.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/playback/pkg/intercept"
	"github.com/papercomputeco/playback/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is one trace file to scan.
type Job struct {
	// Index orders results. Results are reported sorted by Index.
	Index int

	// Path is the trace file to read.
	Path string
}

// Result is the outcome of scanning one trace file.
type Result struct {
	Index int      `json:"-" yaml:"-"`
	Path  string   `json:"path" yaml:"path"`
	Items []string `json:"items" yaml:"items"`
	Err   error    `json:"-" yaml:"-"`
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Items are the intercepts searched for in every trace.
	Items []intercept.Item

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool scans trace files asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu      sync.Mutex
	results []Result
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: log.WithGroup("scan"),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job without blocking.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "path", job.Path)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "path", job.Path)
		return false
	}
}

// Submit queues a job, waiting for room in the queue until ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "path", job.Path)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// Results returns every result recorded so far, sorted by job index. Call it
// after Close to get the complete set.
func (p *Pool) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Result, len(p.results))
	copy(out, p.results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Index < out[j].Index
	})
	return out
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("scan worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	items, err := intercept.FilterFile(p.config.Items, job.Path)
	if err != nil {
		p.logger.Error("scanning trace failed", "path", job.Path, "error", err)
	} else {
		p.logger.Debug("trace scanned", "path", job.Path, "found", len(items))
	}

	p.mu.Lock()
	p.results = append(p.results, Result{
		Index: job.Index,
		Path:  job.Path,
		Items: items,
		Err:   err,
	})
	p.mu.Unlock()
}

// Files scans every path with a temporary pool and returns the results in
// input order.
func Files(ctx context.Context, c *Config, paths []string) ([]Result, error) {
	p, err := NewPool(c)
	if err != nil {
		return nil, err
	}

	for i, path := range paths {
		if err := p.Submit(ctx, Job{Index: i, Path: path}); err != nil {
			p.Close()
			return nil, err
		}
	}

	p.Close()
	return p.Results(), nil
}
