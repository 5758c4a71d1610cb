package queue

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

const channelBuffer = 256

const (
	opHash    = "hash"
	opCompare = "compare"
)

// ErrPoolStopped is returned for jobs submitted after the pool shut down.
var ErrPoolStopped = errors.New("hash pool stopped")

type job struct {
	ctx       context.Context
	op        string
	plaintext string
	digest    string
	result    chan<- jobResult
}

type jobResult struct {
	digest string
	match  bool
	err    error
}

// HashPool runs CPU-bound password hashing on a fixed set of worker goroutines
// so request goroutines only wait on a channel. It satisfies ports.PasswordHasher.
type HashPool struct {
	jobs    chan job
	stopped chan struct{}
	workers int
	hasher  ports.PasswordHasher
	log     zerolog.Logger
}

// NewHashPool creates a pool with numWorkers workers delegating to hasher.
// If numWorkers <= 0, runtime.NumCPU() is used.
func NewHashPool(numWorkers int, hasher ports.PasswordHasher, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &HashPool{
		jobs:    make(chan job, channelBuffer),
		stopped: make(chan struct{}),
		workers: numWorkers,
		hasher:  hasher,
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// after which every submission fails with ErrPoolStopped.
func (p *HashPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(p.stopped)
	}()
	p.log.Info().Int("workers", p.workers).Msg("hash pool started")
}

// Hash returns the digest of plaintext computed on a worker.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	res, err := p.submit(ctx, job{op: opHash, plaintext: plaintext})
	if err != nil {
		return "", err
	}
	return res.digest, res.err
}

// Compare checks plaintext against digest on a worker.
func (p *HashPool) Compare(ctx context.Context, digest, plaintext string) (bool, error) {
	res, err := p.submit(ctx, job{op: opCompare, digest: digest, plaintext: plaintext})
	if err != nil {
		return false, err
	}
	return res.match, res.err
}

func (p *HashPool) submit(ctx context.Context, j job) (jobResult, error) {
	result := make(chan jobResult, 1)
	j.ctx = ctx
	j.result = result

	// counted before the send so a fast worker never drives the gauge negative
	metrics.HashQueueDepth.Inc()
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		metrics.HashQueueDepth.Dec()
		return jobResult{}, ctx.Err()
	case <-p.stopped:
		metrics.HashQueueDepth.Dec()
		return jobResult{}, ErrPoolStopped
	}

	select {
	case r := <-result:
		return r, nil
	case <-ctx.Done():
		return jobResult{}, ctx.Err()
	case <-p.stopped:
		return jobResult{}, ErrPoolStopped
	}
}

func (p *HashPool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.HashQueueDepth.Dec()
			// the submitter already gave up
			if j.ctx.Err() != nil {
				continue
			}
			j.result <- p.process(j, id)
		}
	}
}

func (p *HashPool) process(j job, workerID int) jobResult {
	start := time.Now()
	defer func() {
		metrics.HashDuration.WithLabelValues(j.op).Observe(time.Since(start).Seconds())
	}()

	switch j.op {
	case opHash:
		digest, err := p.hasher.Hash(j.ctx, j.plaintext)
		if err != nil {
			p.log.Error().Err(err).Int("worker_id", workerID).Msg("password hashing failed")
		}
		return jobResult{digest: digest, err: err}
	default:
		match, err := p.hasher.Compare(j.ctx, j.digest, j.plaintext)
		return jobResult{match: match, err: err}
	}
}
