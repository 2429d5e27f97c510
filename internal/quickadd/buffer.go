package quickadd

import (
	"errors"
	"sync"
	"time"
)

// DefaultTimeout is how long the buffer waits after the last push before it
// commits.
const DefaultTimeout = 2000 * time.Millisecond

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("quick-add buffer is closed")

// CommitFunc persists the summed total as a single food entry.
type CommitFunc func(total float64) error

// Timer is the part of *time.Timer the buffer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

// Options configures a Buffer.
type Options struct {
	Timeout   time.Duration
	// OnError receives commit failures from the idle timer. FlushNow
	// returns its error directly instead.
	OnError   func(error)
	// OnChange is called after every state change, outside the lock.
	OnChange  func()
	// AfterFunc replaces time.AfterFunc in tests.
	AfterFunc AfterFunc
}

// Buffer collects rapid taps into one food entry. Each push re-arms a single
// idle timer; when it fires, or on FlushNow, the running total is committed
// once and the buffer clears.
type Buffer struct {
	mu       sync.Mutex
	flushing sync.Mutex
	commit   CommitFunc
	opts     Options
	pending  []float64
	total    float64
	timer    Timer
	gen      uint64
	closed   bool
}

// New returns an empty buffer that commits through commit.
func New(commit CommitFunc, opts Options) *Buffer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		}
	}
	return &Buffer{commit: commit, opts: opts}
}

// Push adds amount grams and restarts the idle timer.
func (b *Buffer) Push(amount float64) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.pending = append(b.pending, amount)
	b.total += amount
	b.arm()
	b.mu.Unlock()

	b.changed()
	return nil
}

// arm replaces the running timer. Callers hold mu.
func (b *Buffer) arm() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = b.opts.AfterFunc(b.opts.Timeout, func() { b.fire(gen) })
}

func (b *Buffer) disarm() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

func (b *Buffer) fire(gen uint64) {
	if err := b.flush(&gen); err != nil && b.opts.OnError != nil {
		b.opts.OnError(err)
	}
}

// FlushNow commits immediately. A zero total clears without committing.
// When the commit fails the increments stay pending.
func (b *Buffer) FlushNow() error {
	return b.flush(nil)
}

// flush commits the pending total. A non-nil gen names the timer asking for
// it; the flush is dropped when that timer has since been replaced.
func (b *Buffer) flush(gen *uint64) error {
	b.flushing.Lock()
	defer b.flushing.Unlock()

	b.mu.Lock()
	if gen != nil && (*gen != b.gen || b.closed) {
		b.mu.Unlock()
		return nil
	}
	if len(b.pending) == 0 {
		b.disarm()
		b.mu.Unlock()
		return nil
	}
	pending, total := b.pending, b.total
	b.pending, b.total = nil, 0
	b.disarm()
	b.mu.Unlock()

	var err error
	if total != 0 {
		err = b.commit(total)
	}

	if err != nil {
		b.mu.Lock()
		// pushes that raced the commit go after the restored ones
		b.pending = append(pending, b.pending...)
		b.total += total
		b.mu.Unlock()
	}
	b.changed()
	return err
}

// Discard drops the pending increments without committing.
func (b *Buffer) Discard() {
	b.mu.Lock()
	b.pending, b.total = nil, 0
	b.disarm()
	b.mu.Unlock()
	b.changed()
}

// Close cancels the timer without committing. Pending increments are lost
// unless the caller flushed first.
func (b *Buffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.disarm()
	b.mu.Unlock()
}

// Pending returns a copy of the uncommitted increments in push order.
func (b *Buffer) Pending() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float64(nil), b.pending...)
}

// Total is the sum of the pending increments.
func (b *Buffer) Total() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Armed reports whether a commit is scheduled.
func (b *Buffer) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timer != nil
}

func (b *Buffer) changed() {
	if b.opts.OnChange != nil {
		b.opts.OnChange()
	}
}
