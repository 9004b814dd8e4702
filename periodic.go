package periodic

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrOverlappingTicks is the fault a Timer panics with
// when a completion is delivered while its handler is executing,
// which means two waits were armed at the same time.
var ErrOverlappingTicks = errors.New("periodic: tick delivered while executing")

// Loop arms single-shot waits on a cooperative event loop.
// github.com/romshark/periodic/loop provides an implementation.
type Loop interface {
	// Arm schedules fn to be called once through the loop after d.
	// fn must never be called before Arm returns.
	//
	// Calling cancel requests early delivery. fn is still called
	// exactly once, never before cancel returns, and canceled
	// reports whether the cancellation took effect before the
	// wait expired.
	Arm(d time.Duration, fn func(canceled bool)) (cancel func())
}

// Option configures a Timer created by New.
type Option func(*Timer)

// WithPeriod sets the initial period.
func WithPeriod(d time.Duration) Option {
	return func(t *Timer) { t.period = d }
}

// WithHandler sets the initial handler.
func WithHandler(fn func()) Option {
	return func(t *Timer) { t.handler = fn }
}

// WithLogger makes the timer log its transitions at trace level.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Timer) { t.log = log }
}

// New creates a stopped timer on the given loop.
func New(l Loop, opts ...Option) *Timer {
	t := &Timer{
		loop:      l,
		destroyed: new(bool),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Timer invokes a handler periodically.
// Timers must be created with New.
type Timer struct {
	loop    Loop
	log     zerolog.Logger
	state   State
	period  time.Duration
	handler func()
	cancel  func()

	// destroyed is shared with every completion the timer armed
	// and is set once the timer is closed.
	destroyed *bool
}

// SetPeriod sets the period used by the next wait that is armed.
// A wait that is already armed is not affected.
func (t *Timer) SetPeriod(d time.Duration) { t.period = d }

// Period returns the current period.
func (t *Timer) Period() time.Duration { return t.period }

// SetHandler replaces the handler.
// When called from within the handler the ongoing invocation
// is not affected.
func (t *Timer) SetHandler(fn func()) { t.handler = fn }

// State returns the current state.
func (t *Timer) State() State { return t.state }

// Start makes the handler fire one period from now.
func (t *Timer) Start() {
	if *t.destroyed {
		return
	}
	switch t.state {
	case Stopped:
		t.arm()
	case Running:
		// The armed wait must be retired through the loop first,
		// its completion then arms the new one.
		t.Stop()
		t.Start()
	case Executing:
		t.arm()
	case CancelingToStop:
		t.setState(CancelingToStart)
	case CancelingToStart:
	case CancelingToFastForward:
		t.setState(CancelingToStart)
	default:
		panic(fmt.Errorf("periodic: invalid state %d", t.state))
	}
}

// Stop prevents the handler from being invoked
// until Start or FastForward is called again.
func (t *Timer) Stop() {
	switch t.state {
	case Stopped:
	case Running:
		t.setState(CancelingToStop)
		t.cancel()
	case Executing:
		t.setState(Stopped)
	case CancelingToStop:
	case CancelingToStart:
		t.setState(CancelingToStop)
	case CancelingToFastForward:
		t.setState(CancelingToStop)
	default:
		panic(fmt.Errorf("periodic: invalid state %d", t.state))
	}
}

// FastForward makes the handler fire as soon as the loop delivers
// the next completion. The handler is never invoked by FastForward
// itself.
func (t *Timer) FastForward() {
	if *t.destroyed {
		return
	}
	t.Start()
	t.Stop()
	t.setState(CancelingToFastForward)
}

// Close stops the timer for good. Completions that are still pending
// are ignored once delivered. Close may be called from within
// the handler, in which case the timer is left untouched after
// the handler returns.
func (t *Timer) Close() {
	if *t.destroyed {
		return
	}
	t.Stop()
	*t.destroyed = true
	t.log.Trace().Msg("closed")
}

// arm arms a wait for the period.
func (t *Timer) arm() {
	t.setState(Running)

	destroyed := t.destroyed
	t.cancel = t.loop.Arm(t.period, func(canceled bool) {
		if *destroyed {
			return
		}
		t.tick(canceled)
	})
}

// tick handles the completion of an armed wait.
func (t *Timer) tick(canceled bool) {
	t.log.Trace().
		Stringer("state", t.state).
		Bool("canceled", canceled).
		Msg("tick")

	switch t.state {
	case Stopped:
		return
	case Running:
	case Executing:
		err := fmt.Errorf("%w (canceled: %t)", ErrOverlappingTicks, canceled)
		t.log.Error().Err(err).Msg("invariant violated")
		panic(err)
	case CancelingToStop:
		t.setState(Stopped)
		return
	case CancelingToStart:
		t.arm()
		return
	case CancelingToFastForward:
	default:
		panic(fmt.Errorf("periodic: invalid state %d", t.state))
	}

	t.setState(Executing)
	t.cancel = nil

	if t.handler != nil {
		// The handler may close the timer or replace itself.
		destroyed, handler := t.destroyed, t.handler

		handler()

		if *destroyed {
			return
		}
	}

	if t.state == Executing {
		// The handler left the state alone.
		t.Start()
	}
}

func (t *Timer) setState(s State) {
	t.log.Trace().
		Stringer("from", t.state).
		Stringer("to", s).
		Msg("transition")
	t.state = s
}
