package client

import (
	"context"
	"sync"
	"time"
)

// DefaultSearchDelay is the pause after the last keystroke before a search is sent.
const DefaultSearchDelay = 300 * time.Millisecond

// Debouncer runs search-as-you-type queries. Each Trigger cancels the pending
// timer and any in-flight call; only the newest term's result reaches deliver.
type Debouncer[T any] struct {
	delay   time.Duration
	search  func(ctx context.Context, term string) (T, error)
	deliver func(term string, result T, err error)

	mu        sync.Mutex
	seq       uint64
	delivered uint64
	term      string
	runCtx    context.Context
	timer     *time.Timer
	cancel    context.CancelFunc
	closed    bool

	// deliverMu keeps deliveries in sequence order; wg tracks scheduled runs.
	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

// NewDebouncer returns a Debouncer; a non-positive delay uses DefaultSearchDelay.
func NewDebouncer[T any](delay time.Duration, search func(ctx context.Context, term string) (T, error), deliver func(term string, result T, err error)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Debouncer[T]{delay: delay, search: search, deliver: deliver}
}

// Trigger schedules a search for term, superseding every earlier one.
func (d *Debouncer[T]) Trigger(ctx context.Context, term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.seq++
	seq := d.seq

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.term = term
	d.runCtx = runCtx
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.run(runCtx, seq, term)
	})
}

func (d *Debouncer[T]) run(ctx context.Context, seq uint64, term string) {
	if ctx.Err() != nil {
		return
	}
	result, err := d.search(ctx, term)

	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	stale := seq != d.seq || d.closed
	if !stale {
		d.delivered = seq
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
	if stale {
		return
	}
	d.deliver(term, result, err)
}

// Flush runs the pending search immediately instead of waiting out the delay,
// then waits until every started search has finished. It does nothing more when
// the newest term was already delivered. Call it from the goroutine that calls Trigger.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	var (
		runNow bool
		ctx    context.Context
		seq    = d.seq
		term   = d.term
	)
	if !d.closed && seq != 0 && d.delivered != seq && d.timer != nil && d.timer.Stop() {
		// the timer had not fired yet; its run moves onto this goroutine
		d.timer = nil
		runNow = true
		ctx = d.runCtx
	}
	d.mu.Unlock()

	if runNow {
		d.run(ctx, seq, term)
		d.wg.Done()
	}
	d.wg.Wait()
}

// Close stops the pending search, cancels the one in flight and waits for any
// delivery already under way. It must not be called from deliver.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		if d.timer.Stop() {
			d.wg.Done()
		}
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
