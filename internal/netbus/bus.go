package netbus

import "github.com/drewstone/btcsimulator/internal/engine"

// mailbox is the per-destination slice of the shared envelope store (spec
// §4.2: "a single shared FIFO filtered per-receiver: multiple receivers
// coexist without contention; removal is atomic in virtual time"). Each
// destination's mailbox is its own FIFO; there is no reordering beyond the
// delay differences between links, no drops, and no duplicate suppression.
type mailbox struct {
	queue   []Envelope
	waiting *engine.Event
}

// Bus is the shared envelope store every miner's Socket reads from and
// writes into. It is the only cross-actor mutable structure in the
// simulation (§5 "Shared resources"); access is serialized by the
// scheduler's single-threaded execution, so no locking is needed.
type Bus struct {
	sched     *engine.Scheduler
	mailboxes map[int64]*mailbox
}

// NewBus constructs an empty message bus bound to sched.
func NewBus(sched *engine.Scheduler) *Bus {
	return &Bus{sched: sched, mailboxes: make(map[int64]*mailbox)}
}

func (b *Bus) mailboxFor(id int64) *mailbox {
	mb, ok := b.mailboxes[id]
	if !ok {
		mb = &mailbox{}
		b.mailboxes[id] = mb
	}
	return mb
}

// deliver inserts env into its destination's mailbox, waking a pending
// Receive if one is parked there.
func (b *Bus) deliver(env Envelope) {
	mb := b.mailboxFor(env.Destination)
	if mb.waiting != nil {
		w := mb.waiting
		mb.waiting = nil
		b.sched.Succeed(w, env)
		return
	}
	mb.queue = append(mb.queue, env)
}

// Receive returns an event that fires with the next Envelope addressed to
// self. If one is already queued it fires immediately (on the next tick);
// otherwise it parks a waiting signal on that mailbox.
func (b *Bus) Receive(self int64) *engine.Event {
	mb := b.mailboxFor(self)
	if len(mb.queue) > 0 {
		env := mb.queue[0]
		mb.queue = mb.queue[1:]
		ev := b.sched.Signal()
		b.sched.Succeed(ev, env)
		return ev
	}
	if mb.waiting == nil {
		mb.waiting = b.sched.Signal()
	}
	return mb.waiting
}
