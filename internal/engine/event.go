package engine

// Event is a tagged, one-shot occurrence activities can wait on: a
// Timeout, a Signal, or the composite AnyOf (§4.1, design notes §9: "tagged
// variant Event = Timeout | Signal | AnyOf").
//
// Triggered becomes true synchronously the instant the event is decided
// (a timeout reaching its fire time, or Succeed being called) — before the
// event's callbacks run. Processed becomes true once those callbacks have
// actually executed, which happens later, when the scheduler pops the
// event's processing entry off the priority queue. Composite events rely on
// this split: AnyOf reads sibling events' Triggered bit, not Processed, so
// that sub-events decided within the same tick are delivered together
// (§4.1 "any_of" contract).
type Event struct {
	name      string
	triggered bool
	processed bool
	value     interface{}
	err       error
	callbacks []func(*Event)
}

func newEvent(name string) *Event {
	return &Event{name: name}
}

// Triggered reports whether the event has been decided (fired), regardless
// of whether its callbacks have run yet.
func (e *Event) Triggered() bool { return e.triggered }

// Processed reports whether the event's callbacks have already executed.
func (e *Event) Processed() bool { return e.processed }

// Value returns the value the event fired with (nil for a plain timeout).
func (e *Event) Value() interface{} { return e.value }

// Err returns a non-nil error if the event represents a delivered
// interruption rather than a normal firing.
func (e *Event) Err() error { return e.err }

// then registers a callback to run when the event is processed. If the
// event has already been processed (a programming error — one-shot events
// must be replaced after firing, design notes §9), the callback runs
// immediately so bugs surface instead of hanging forever.
func (e *Event) then(cb func(*Event)) {
	if e.processed {
		cb(e)
		return
	}
	e.callbacks = append(e.callbacks, cb)
}

// String names the event kind for trace logging.
func (e *Event) String() string { return e.name }

// OnFire registers a callback to run when the event is processed, without
// suspending any activity. This is how side-effect-only scheduling (e.g.
// the message bus's send_event, §4.2) hooks a timeout without needing a
// full Proc/Yield round-trip.
func (e *Event) OnFire(cb func(*Event)) {
	e.then(cb)
}
