// ABOUTME: Non-blocking slog handler that hands records to a background worker
// ABOUTME: Drops records when the queue is full and swallows downstream errors and panics
package logging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of records buffered before dropping.
const DefaultQueueSize = 1024

type job struct {
	handler slog.Handler
	record  slog.Record
}

type dispatcher struct {
	queue   chan job
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Int64
}

// AsyncHandler forwards records to another handler on a single worker
// goroutine. Handle never blocks and never returns an error.
type AsyncHandler struct {
	next slog.Handler
	d    *dispatcher
}

// NewAsyncHandler starts the worker. Call Close to flush and stop it.
func NewAsyncHandler(next slog.Handler, queueSize int) *AsyncHandler {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &dispatcher{
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return &AsyncHandler{next: next, d: d}
}

// Enabled reports whether the downstream handler wants the level.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it if the queue is full or closed.
func (h *AsyncHandler) Handle(_ context.Context, r slog.Record) error {
	if h.d.closed.Load() {
		h.d.dropped.Add(1)
		return nil
	}
	select {
	case h.d.queue <- job{handler: h.next, record: r.Clone()}:
	default:
		h.d.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same worker.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), d: h.d}
}

// WithGroup returns a handler sharing the same worker.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), d: h.d}
}

// Dropped returns how many records were discarded.
func (h *AsyncHandler) Dropped() int64 {
	return h.d.dropped.Load()
}

// Close drains queued records and stops the worker. Safe to call repeatedly.
func (h *AsyncHandler) Close() error {
	h.d.once.Do(func() {
		h.d.closed.Store(true)
		close(h.d.done)
	})
	<-h.d.stopped
	return nil
}

func (d *dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case j := <-d.queue:
			d.deliver(j)
		case <-d.done:
			for {
				select {
				case j := <-d.queue:
					d.deliver(j)
				default:
					return
				}
			}
		}
	}
}

func (d *dispatcher) deliver(j job) {
	defer func() {
		_ = recover()
	}()
	_ = j.handler.Handle(context.Background(), j.record)
}
