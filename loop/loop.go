package loop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/romshark/periodic/loop/internal/queue"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

type (
	Time     = time.Time
	Duration = time.Duration
)

const (
	Nanosecond  = time.Nanosecond
	Microsecond = time.Microsecond
	Millisecond = time.Millisecond
	Second      = time.Second
	Minute      = time.Minute
	Hour        = time.Hour
)

// ErrRunning is returned by Run when the loop is already being run.
var ErrRunning = errors.New("loop: already running")

type Timer interface {
	Stop() bool
}

type TimeProvider interface {
	Now() Time
	AfterFunc(Duration, func()) Timer
}

// New creates a new loop with the given time offset.
func New(timeOffset Duration) *Loop {
	return NewWith(timeOffset, nil, nil)
}

// NewWith is similar to New but replaces the default time provider
// and logger.
// If t == nil then standard time package is used by default.
// If log == nil then logging is disabled.
func NewWith(
	timeOffset Duration,
	t TimeProvider,
	log *zerolog.Logger,
) *Loop {
	if t == nil {
		t = timeProvider{}
	}
	l := &Loop{
		provider:   t,
		timeOffset: timeOffset,
		queue:      queue.New(),
		wake:       make(chan struct{}, 1),
	}
	if log != nil {
		l.log = log.With().Str("component", "loop").Logger()
	}
	return l
}

// Loop is a cooperative event loop.
type Loop struct {
	provider   TimeProvider
	log        zerolog.Logger
	lock       sync.Mutex
	timeOffset Duration
	queue      *queue.Queue
	ready      []func()
	spare      []func()
	wake       chan struct{}
	running    bool
}

// Arm schedules fn to be called through the loop once d has elapsed
// on the loop's clock. fn is never called before Arm returns.
//
// The returned cancel func requests early delivery: if the wait is
// still pending it is removed and fn(true) is delivered on the next
// dispatch turn. If the wait already expired cancel does nothing
// and fn receives (or has received) false.
func (l *Loop) Arm(d Duration, fn func(canceled bool)) (cancel func()) {
	id := WaitID(ksuid.New())

	l.lock.Lock()
	defer l.lock.Unlock()

	due := l.now().Add(d)
	l.queue.Set(ksuid.KSUID(id), due, fn)
	l.log.Trace().
		Stringer("wait", id).
		Dur("in", d).
		Msg("armed")
	l.signal()

	return func() { l.cancel(id) }
}

// Post makes fn ready to be called on the next dispatch turn.
func (l *Loop) Post(fn func()) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.ready = append(l.ready, fn)
	l.signal()
}

// Dispatch runs a single turn of the loop.
// It first moves all waits that are due on the loop's clock
// to the ready list, then calls everything that was ready when
// the turn began in FIFO order. Work made ready during the turn
// is left for the next turn.
// Returns the number of calls made.
func (l *Loop) Dispatch() int {
	l.lock.Lock()
	now := l.now()
	for {
		id, due, fn := l.queue.Front()
		if fn == nil || due.After(now) {
			break
		}
		l.queue.Remove(id)
		l.ready = append(l.ready, func() { fn(false) })
	}
	batch := l.ready
	l.ready, l.spare = l.spare[:0], nil
	l.lock.Unlock()

	for i, fn := range batch {
		batch[i] = nil
		fn()
	}

	l.lock.Lock()
	l.spare = batch[:0]
	l.lock.Unlock()

	return len(batch)
}

// Run dispatches turns until ctx is canceled.
// While idle it sleeps until the next wait is due or
// until new work is armed, canceled or posted.
// Returns ErrRunning if the loop is already being run.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.running {
		l.lock.Unlock()
		return ErrRunning
	}
	l.running = true
	l.lock.Unlock()

	defer func() {
		l.lock.Lock()
		defer l.lock.Unlock()
		l.running = false
	}()

	l.log.Debug().Msg("running")
	for {
		if err := ctx.Err(); err != nil {
			l.log.Debug().Err(err).Msg("stopped")
			return err
		}
		if l.Dispatch() > 0 {
			continue
		}

		var t Timer
		if d, ok := l.untilNext(); ok {
			t = l.provider.AfterFunc(d, func() {
				l.lock.Lock()
				defer l.lock.Unlock()
				l.signal()
			})
		}

		select {
		case <-ctx.Done():
		case <-l.wake:
		}
		if t != nil {
			t.Stop()
		}
	}
}

// AdvanceTime advances the loop's clock by the given duration.
// Waits that become due are delivered on the next dispatch turn.
func (l *Loop) AdvanceTime(by Duration) (newOffset Duration) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.timeOffset += by
	l.signal()
	return l.timeOffset
}

// AdvanceToNext advances the loop's clock to the due time
// of the next pending wait which is then delivered on the next
// dispatch turn. Does nothing if no waits are pending.
func (l *Loop) AdvanceToNext() (newOffset, advancedBy Duration) {
	l.lock.Lock()
	defer l.lock.Unlock()

	_, due, fn := l.queue.Front()
	if fn == nil {
		return l.timeOffset, 0
	}

	by := due.Sub(l.now())
	if by < 0 {
		by = 0
	}
	l.timeOffset += by
	l.signal()

	return l.timeOffset, by
}

// Now returns the current time of the loop considering the offset.
func (l *Loop) Now() Time {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.now()
}

// Offset returns the loop's time offset.
func (l *Loop) Offset() Duration {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.timeOffset
}

// Len returns the number of pending waits.
// Completions that are ready but not yet delivered are not counted.
func (l *Loop) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.queue.Len()
}

// Scan scans all pending waits after the given wait in due order
// executing fn for each until either the end of the queue is reached
// or fn returns false.
// Starts from the front of the queue if after is zero.
// Returns false if after doesn't exist, otherwise returns true.
func (l *Loop) Scan(
	after WaitID,
	fn func(id WaitID, due Time) bool,
) (ok bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.queue.Scan(
		ksuid.KSUID(after),
		func(id ksuid.KSUID, due Time) bool {
			return fn(WaitID(id), due)
		},
	)
}

func (l *Loop) cancel(id WaitID) {
	l.lock.Lock()
	defer l.lock.Unlock()

	fn := l.queue.Remove(ksuid.KSUID(id))
	if fn == nil {
		// Already expired, the completion is on its way
		return
	}
	l.ready = append(l.ready, func() { fn(true) })
	l.log.Trace().Stringer("wait", id).Msg("canceled")
	l.signal()
}

// untilNext returns the time left until the next wait is due.
func (l *Loop) untilNext() (d Duration, ok bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	_, due, fn := l.queue.Front()
	if fn == nil {
		return 0, false
	}
	return due.Sub(l.now()), true
}

// signal wakes up Run without blocking.
func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// now returns the current time considering the offset.
func (l *Loop) now() Time {
	return l.provider.Now().Add(l.timeOffset)
}

// WaitID is a unique identifier of an armed wait.
type WaitID ksuid.KSUID

// String returns the stringified identifier.
func (id WaitID) String() string {
	return ksuid.KSUID(id).String()
}
