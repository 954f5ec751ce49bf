package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions configures batching of an AsyncWriter.
type AsyncOptions struct {
	BufferSize     int
	BatchSize      int
	BatchTimeout   time.Duration
	StorageTimeout time.Duration
}

func (o AsyncOptions) withDefaults() AsyncOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = 1000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 100 * time.Millisecond
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = 5 * time.Second
	}
	return o
}

// AsyncWriter queues events and writes them in batches from a background
// goroutine. Store blocks until the batch holding the event is written.
type AsyncWriter struct {
	batch   BatchStorage
	queue   chan queued
	done    chan struct{}
	stopped chan struct{}
	closing sync.Once
	wg      sync.WaitGroup
	opts    AsyncOptions
}

type queued struct {
	event  Event
	result chan error
}

// NewAsyncWriter starts an AsyncWriter over bs.
func NewAsyncWriter(bs BatchStorage, opts AsyncOptions) *AsyncWriter {
	if bs == nil {
		panic("audit: batch storage cannot be nil")
	}
	opts = opts.withDefaults()
	w := &AsyncWriter{
		batch:   bs,
		queue:   make(chan queued, opts.BufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		opts:    opts,
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

// Store queues the event. When the buffer is full the event is written
// synchronously so nothing is dropped.
func (w *AsyncWriter) Store(ctx context.Context, event Event) error {
	select {
	case <-w.done:
		return ErrStorageNotAvailable
	default:
	}

	result := make(chan error, 1)
	select {
	case w.queue <- queued{event: event, result: result}:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return w.batch.StoreBatch(ctx, []Event{event})
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		select {
		case err := <-result:
			return err
		default:
			return ErrStorageNotAvailable
		}
	}
}

func (w *AsyncWriter) worker() {
	defer w.wg.Done()
	defer close(w.stopped)

	events := make([]Event, 0, w.opts.BatchSize)
	waiting := make([]chan error, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(events) == 0 {
			return
		}
		// Storage runs detached from caller contexts.
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.StorageTimeout)
		err := w.batch.StoreBatch(ctx, events)
		cancel()
		for _, ch := range waiting {
			ch <- err
		}
		events = events[:0]
		waiting = waiting[:0]
	}

	for {
		select {
		case q := <-w.queue:
			events = append(events, q.event)
			waiting = append(waiting, q.result)
			if len(events) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case q := <-w.queue:
					events = append(events, q.event)
					waiting = append(waiting, q.result)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the writer after flushing queued events. ctx bounds the wait.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.closing.Do(func() { close(w.done) })

	flushed := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
