// Package pubsub implements the external-facing event notification channel
// (spec §6): a single `/btcsimulator` topic that publishes the event-name
// table at run start and a SIMULATION_ENDED marker at run end, so an
// external observer (a UI, a log tailer) can follow a run without coupling
// to the deterministic core.
//
// Unlike internal/netbus's per-miner mailbox, this sits outside the
// virtual-time scheduler entirely — subscribers drain it at their own
// real-wall-clock pace — so it is safe to back with eapache/channels'
// goroutine-forwarding InfiniteChannel (see SPEC_FULL.md §3).
package pubsub

import "github.com/eapache/channels"

// Topic is the well-known channel name every run publishes to.
const Topic = "/btcsimulator"

// SimulationEnded is published once, after the last scheduled event, to let
// subscribers know no further messages are coming.
const SimulationEnded = "SIMULATION_ENDED"

// Message is one notification delivered on the topic.
type Message struct {
	Topic string
	Kind  string // e.g. an netbus.Action name, or SimulationEnded
	Body  interface{}
}

// Broker is a single-queue publisher: Publish never blocks the caller (the
// underlying InfiniteChannel grows to absorb bursts). There is one outbound
// channel, so each message is received by exactly one reader of Out();
// several readers split the stream rather than each seeing every message.
type Broker struct {
	ch *channels.InfiniteChannel
}

// NewBroker returns an empty broker ready to publish on Topic.
func NewBroker() *Broker {
	return &Broker{ch: channels.NewInfiniteChannel()}
}

// Publish enqueues a Message of the given kind and body on the broker's
// outbound queue.
func (b *Broker) Publish(kind string, body interface{}) {
	b.ch.In() <- Message{Topic: Topic, Kind: kind, Body: body}
}

// Out exposes the broker's outbound channel for subscribers to range over.
func (b *Broker) Out() <-chan interface{} {
	return b.ch.Out()
}

// Close shuts the broker down; subscribers observe Out() closing.
func (b *Broker) Close() {
	b.ch.Close()
}

// EventNames is the table published once at the start of every run (spec
// §6 "publishes the event-name table at run start"), naming every action
// netbus can carry plus the two pub-sub-only markers.
var EventNames = []string{
	"BLOCK_REQUEST",
	"BLOCK_RESPONSE",
	"HEAD_NEW",
	"BLOCK_NEW",
	"ATTACK_WIN",
	"ATTACK_LOSE",
	SimulationEnded,
}
