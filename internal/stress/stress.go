// Package stress runs a background allocation workload alongside a single
// test invocation.
//
// The worker allocates and discards buffers in a loop so the garbage
// collector runs while the paired test executes. It shares no data with the
// test. Lifecycle:
//
//	h := stress.Start(ctx, opts) // returns immediately
//	outcome := invoke(...)
//	h.Stop()
//	h.Join() // blocks until the worker goroutine has exited
package stress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Defaults used when Options fields are zero.
const (
	DefaultChunkSize = 4096
	DefaultChunks    = 64
)

// Options configures one worker.
type Options struct {
	// Rounds bounds the number of allocation rounds. Zero means run until
	// stopped.
	Rounds int

	// ChunkSize is the size in bytes of each allocated buffer.
	ChunkSize int

	// Chunks is the number of buffers allocated per round.
	Chunks int

	// OnExit, if set, is called from the worker goroutine after its loop
	// ends and before Join unblocks.
	OnExit func(rounds int64)
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Chunks <= 0 {
		o.Chunks = DefaultChunks
	}
	if o.Rounds < 0 {
		o.Rounds = 0
	}
	return o
}

// Handle controls a running worker. The zero value is not usable; obtain one
// from Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	rounds atomic.Int64

	mu  sync.Mutex
	err error
}

// sink keeps the allocations observable so they are not optimized away.
var sink atomic.Value

// Start launches the worker and returns without waiting for it to make
// progress. The worker stops when ctx is cancelled, when Stop is called, or
// after opts.Rounds rounds.
func Start(ctx context.Context, opts Options) *Handle {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.loop(ctx, opts)
	return h
}

func (h *Handle) loop(ctx context.Context, opts Options) {
	defer close(h.done)

	err := h.churn(ctx, opts)
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()

	if opts.OnExit != nil {
		opts.OnExit(h.rounds.Load())
	}
}

func (h *Handle) churn(ctx context.Context, opts Options) error {
	for opts.Rounds == 0 || h.rounds.Load() < int64(opts.Rounds) {
		if err := ctx.Err(); err != nil {
			return err
		}
		bufs := make([][]byte, opts.Chunks)
		for i := range bufs {
			bufs[i] = make([]byte, opts.ChunkSize)
			bufs[i][0] = byte(i)
		}
		sink.Store(bufs)
		h.rounds.Add(1)
	}
	return nil
}

// Stop asks the worker to finish its current round and exit. It does not
// wait; call Join for that. Stop is safe to call more than once.
func (h *Handle) Stop() {
	h.cancel()
}

// Join blocks until the worker goroutine has exited. Cancellation is the
// normal way a worker ends, so it is not reported: Join returns nil for a
// stopped worker. Join is idempotent.
func (h *Handle) Join() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	if errors.Is(h.err, context.Canceled) || errors.Is(h.err, context.DeadlineExceeded) {
		return nil
	}
	return h.err
}

// Done is closed when the worker goroutine exits.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Rounds returns the number of completed allocation rounds.
func (h *Handle) Rounds() int64 {
	return h.rounds.Load()
}
