// Package engine implements the single-threaded, cooperative virtual-time
// discrete-event scheduler (spec §4.1, C1): a priority queue of pending
// events keyed by (fire_time, sequence), primitive timeouts, one-shot
// signal events, composite "wait for any" events, and interruptible
// activities.
//
// The priority queue is the same container/heap.Interface pattern
// LarryRuane's minesim.go uses for its eventlist: a slice-backed binary
// heap ordered by fire time, with a monotonic sequence number breaking ties
// so that events scheduled at identical virtual times are always delivered
// in strict registration order (§4.1 "Ordering at equal time").
package engine

import (
	"container/heap"

	"golang.org/x/exp/rand"
)

type queueItem struct {
	time float64
	seq  uint64
	ev   *Event
}

type eventQueue []*queueItem

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x interface{}) {
	*q = append(*q, x.(*queueItem))
}
func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Scheduler is the virtual-time engine. It is not safe for concurrent use
// from multiple real OS threads: by contract (§5), exactly one activity
// (or the driving goroutine itself) ever executes at a time, coordinated
// through channel handoffs in Proc.
type Scheduler struct {
	now   float64
	seq   uint64
	queue eventQueue
	rng   *rand.Rand
}

// New builds a scheduler seeded with a single process-wide RNG stream
// (§5 "RNG"). All miner activities must draw from this same stream, in
// scheduler-fixed order, for the determinism contract (§4.1, L1) to hold.
func New(seed int64) *Scheduler {
	return &Scheduler{
		rng: rand.New(rand.NewSource(uint64(seed))),
	}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 { return s.now }

// Rand returns the scheduler's single shared RNG stream.
func (s *Scheduler) Rand() *rand.Rand { return s.rng }

func (s *Scheduler) schedule(at float64, ev *Event) {
	s.seq++
	heap.Push(&s.queue, &queueItem{time: at, seq: s.seq, ev: ev})
}

// Timeout returns an event that fires after delta virtual seconds.
func (s *Scheduler) Timeout(delta float64) *Event {
	ev := newEvent("timeout")
	s.schedule(s.now+delta, ev)
	return ev
}

// Signal returns a fresh, pending one-shot event. Call Succeed to fire it.
// A fired signal must be discarded; callers allocate a new one to await the
// next occurrence (design notes §9).
func (s *Scheduler) Signal() *Event {
	return newEvent("signal")
}

// Succeed fires a pending event immediately: Triggered becomes true
// synchronously (so any_of siblings observe it within the same tick), and
// its callbacks are scheduled to run on the next matching queue pop.
func (s *Scheduler) Succeed(ev *Event, value interface{}) {
	s.succeed(ev, value, nil)
}

func (s *Scheduler) succeed(ev *Event, value interface{}, err error) {
	if ev.triggered {
		panic("engine: signal fired twice; allocate a fresh Signal() after each Succeed")
	}
	ev.triggered = true
	ev.value = value
	ev.err = err
	s.schedule(s.now, ev)
}

// AnyOf returns an event that fires the instant any sub-event fires. Its
// value is a map from each sub-event that is Triggered at that moment to
// the value it fired with — so sub-events decided within the same tick are
// all delivered in one wake-up (§4.1).
func (s *Scheduler) AnyOf(events ...*Event) *Event {
	any := newEvent("any_of")
	for _, e := range events {
		e.then(func(*Event) {
			if any.triggered {
				return
			}
			result := make(map[*Event]interface{}, len(events))
			for _, sibling := range events {
				if sibling.triggered {
					result[sibling] = sibling.value
				}
			}
			any.triggered = true
			any.value = result
			s.schedule(s.now, any)
		})
	}
	return any
}

func (s *Scheduler) process(item *queueItem) {
	ev := item.ev
	if !ev.triggered {
		ev.triggered = true
	}
	ev.processed = true
	cbs := ev.callbacks
	ev.callbacks = nil
	for _, cb := range cbs {
		cb(ev)
	}
}

// Run advances the engine until now >= until or the queue empties,
// whichever happens first (§4.1 "Termination"). Queue exhaustion before the
// time budget is reached is a clean stop, not an error (§7).
func (s *Scheduler) Run(until float64) {
	for s.queue.Len() > 0 {
		if s.queue[0].time > until {
			return
		}
		item := heap.Pop(&s.queue).(*queueItem)
		s.now = item.time
		s.process(item)
	}
}

// RunUntilEvent advances the engine until ev fires or the queue empties.
func (s *Scheduler) RunUntilEvent(ev *Event) {
	for s.queue.Len() > 0 && !ev.Triggered() {
		item := heap.Pop(&s.queue).(*queueItem)
		s.now = item.time
		s.process(item)
	}
}

// RunUntil advances the engine until now >= until, ev fires, or the queue
// empties — whichever happens first. This is what a scenario with both a
// time budget and an early-stop condition (e.g. "stop on win or lose, but
// no later than N days", spec §4.7) drives itself with.
func (s *Scheduler) RunUntil(until float64, ev *Event) {
	for s.queue.Len() > 0 && !ev.Triggered() {
		if s.queue[0].time > until {
			return
		}
		item := heap.Pop(&s.queue).(*queueItem)
		s.now = item.time
		s.process(item)
	}
}

// Pending reports the number of events still waiting in the queue.
func (s *Scheduler) Pending() int { return s.queue.Len() }
