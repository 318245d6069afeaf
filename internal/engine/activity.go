package engine

import "fmt"

// InterruptError is the value an activity observes at its current yield
// point when another activity calls Interrupt on it (§4.1 "interrupt",
// design notes §9 — "interruption as a first-class delivered value rather
// than an out-of-band exception").
type InterruptError struct {
	Reason interface{}
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("engine: activity interrupted: %v", e.Reason)
}

// pendingWait tracks the event an activity is currently suspended on, so
// Interrupt can cancel the subscription before it fires naturally.
type pendingWait struct {
	cancelled bool
}

// Proc is a running activity: a goroutine that suspends only at Yield
// calls. The scheduler hands it exactly one virtual "turn" at a time via
// an unbuffered channel handoff — resumeCh carries control in, yieldCh
// carries it back out — so at most one activity's code is ever actually
// running, matching the "no parallelism" contract of §5.
type Proc struct {
	name      string
	sched     *Scheduler
	yieldCh   chan *Event
	resumeCh  chan result
	pending   *pendingWait
	done      bool
	doneEvent *Event
}

type result struct {
	value interface{}
	err   error
}

// ActivityFunc is the body of a miner activity: the mining loop, the main
// (wait-for-new-block) loop, or the network service loop (§4.3).
type ActivityFunc func(p *Proc)

// Name returns the activity's registered name, used in log lines.
func (p *Proc) Name() string { return p.name }

// DoneEvent returns an event that fires (with nil value) once the activity
// returns. Other activities can `Yield` on it to wait for this one to
// finish, mirroring `yield env.process(...)` in the original simpy port —
// e.g. the main loop waiting for process_new_blocks to drain (§4.3.4)
// before firing continue_mining.
func (p *Proc) DoneEvent() *Event {
	if p.doneEvent == nil {
		p.doneEvent = newEvent("proc_done")
		if p.done {
			p.sched.succeed(p.doneEvent, nil, nil)
		}
	}
	return p.doneEvent
}

// Yield suspends the calling activity until ev fires, then returns its
// value, or an *InterruptError if the activity was interrupted instead of
// ev firing naturally.
func (p *Proc) Yield(ev *Event) (interface{}, error) {
	p.yieldCh <- ev
	r := <-p.resumeCh
	return r.value, r.err
}

// Activity starts fn as a new activity under the scheduler and drives it
// up to its first suspension point before returning (so the caller
// observes a fully "started" process, the same guarantee
// env.process(...) gives in the original simpy port).
func (s *Scheduler) Activity(name string, fn ActivityFunc) *Proc {
	p := &Proc{
		name:     name,
		sched:    s,
		yieldCh:  make(chan *Event),
		resumeCh: make(chan result),
	}
	go func() {
		fn(p)
		p.yieldCh <- nil
	}()
	s.driveUntilYield(p)
	return p
}

func (s *Scheduler) driveUntilYield(p *Proc) {
	ev := <-p.yieldCh
	if ev == nil {
		p.done = true
		if p.doneEvent != nil && !p.doneEvent.Triggered() {
			s.succeed(p.doneEvent, nil, nil)
		}
		return
	}
	wait := &pendingWait{}
	p.pending = wait
	ev.then(func(e *Event) {
		if wait.cancelled {
			return
		}
		s.resumeProc(p, e.Value(), e.Err())
	})
}

func (s *Scheduler) resumeProc(p *Proc, value interface{}, err error) {
	if p.done {
		return
	}
	p.pending = nil
	p.resumeCh <- result{value: value, err: err}
	s.driveUntilYield(p)
}

// Interrupt delivers an asynchronous interruption to p at its current
// suspension point (§4.1). The interrupted activity observes it as an
// *InterruptError returned from Yield and decides whether to resume,
// wait on another event, or return (§5 "Cancellation"). Interrupting a
// Proc that has already finished, or that is not currently suspended, is a
// no-op.
func (s *Scheduler) Interrupt(p *Proc, reason interface{}) {
	if p == nil || p.done || p.pending == nil {
		return
	}
	p.pending.cancelled = true
	p.pending = nil
	ev := newEvent("interrupt")
	ev.triggered = true
	ev.err = &InterruptError{Reason: reason}
	ev.then(func(e *Event) {
		s.resumeProc(p, e.Value(), e.Err())
	})
	s.schedule(s.now, ev)
}

// Done reports whether the activity has returned.
func (p *Proc) Done() bool { return p.done }
