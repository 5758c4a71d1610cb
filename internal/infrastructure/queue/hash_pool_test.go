package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/infrastructure/security"
)

// blockingHasher parks every job until release is closed.
type blockingHasher struct {
	release chan struct{}
}

func (b *blockingHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	<-b.release
	return "digest:" + plaintext, nil
}

func (b *blockingHasher) Compare(ctx context.Context, digest, plaintext string) (bool, error) {
	<-b.release
	return digest == "digest:"+plaintext, nil
}

func startedPool(t *testing.T, workers int) *HashPool {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	p := NewHashPool(workers, security.NewBcryptHasher(), zerolog.Nop())
	p.Start(ctx)
	return p
}

func TestHashPool_HashAndCompare(t *testing.T) {
	p := startedPool(t, 2)
	ctx := context.Background()

	digest, err := p.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	ok, err := p.Compare(ctx, digest, "secret1")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = p.Compare(ctx, digest, "wrong")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHashPool_ConcurrentSubmitters(t *testing.T) {
	p := startedPool(t, 4)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := p.Hash(context.Background(), "pw")
			if err != nil {
				errs <- err
				return
			}
			if ok, _ := p.Compare(context.Background(), d, "pw"); !ok {
				errs <- errors.New("digest did not verify")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent hashing failed: %v", err)
	}
}

func TestHashPool_QueueDepthSettles(t *testing.T) {
	inner := &blockingHasher{release: make(chan struct{})}
	poolCtx, stop := context.WithCancel(context.Background())
	defer stop()
	p := NewHashPool(1, inner, zerolog.Nop())
	p.Start(poolCtx)

	baseline := testutil.ToFloat64(metrics.HashQueueDepth)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Hash(context.Background(), "pw")
		}()
	}

	// one job is parked in the worker, the rest wait in the queue
	deadline := time.After(time.Second)
	for testutil.ToFloat64(metrics.HashQueueDepth) != baseline+3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 queued jobs, gauge at %v", testutil.ToFloat64(metrics.HashQueueDepth)-baseline)
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(inner.release)
	wg.Wait()
	if got := testutil.ToFloat64(metrics.HashQueueDepth); got != baseline {
		t.Fatalf("gauge must return to %v after draining, got %v", baseline, got)
	}
}

func TestHashPool_CancelledSubmitDoesNotLeakDepth(t *testing.T) {
	p := NewHashPool(1, security.NewBcryptHasher(), zerolog.Nop())
	// never started and with a full queue, so the only way out is cancellation
	for i := 0; i < cap(p.jobs); i++ {
		p.jobs <- job{}
	}
	baseline := testutil.ToFloat64(metrics.HashQueueDepth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Hash(ctx, "pw"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.HashQueueDepth); got != baseline {
		t.Fatalf("a cancelled submit must not change the gauge, got %v want %v", got, baseline)
	}
}

func TestHashPool_CallerCancellation(t *testing.T) {
	inner := &blockingHasher{release: make(chan struct{})}
	defer close(inner.release)

	poolCtx, stop := context.WithCancel(context.Background())
	defer stop()
	p := NewHashPool(1, inner, zerolog.Nop())
	p.Start(poolCtx)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Hash(ctx, "pw")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHashPool_Stopped(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	p := NewHashPool(1, security.NewBcryptHasher(), zerolog.Nop())
	p.Start(ctx)
	stop()

	deadline := time.After(time.Second)
	for {
		_, err := p.Hash(context.Background(), "pw")
		if errors.Is(err, ErrPoolStopped) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected ErrPoolStopped after shutdown, got %v", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
