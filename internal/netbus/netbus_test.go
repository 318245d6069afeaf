package netbus

import (
	"testing"

	"github.com/drewstone/btcsimulator/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEventDeliversAfterDelay(t *testing.T) {
	sched := engine.New(1)
	bus := NewBus(sched)
	a := NewSocket(sched, bus, 1)
	b := NewSocket(sched, bus, 2)
	Connect(a, b, 0.02)

	var got Envelope
	sched.Activity("recv", func(p *engine.Proc) {
		v, err := p.Yield(b.Receive())
		require.NoError(t, err)
		got = v.(Envelope)
	})

	a.SendEvent(2, BlockRequest, "fp1")
	sched.Run(1)

	assert.Equal(t, int64(1), got.Origin)
	assert.Equal(t, BlockRequest, got.Action)
	assert.Equal(t, "fp1", got.Payload)
	assert.Equal(t, 0.02, sched.Now())
}

func TestBroadcastReachesAllPeers(t *testing.T) {
	sched := engine.New(1)
	bus := NewBus(sched)
	a := NewSocket(sched, bus, 1)
	b := NewSocket(sched, bus, 2)
	c := NewSocket(sched, bus, 3)
	Connect(a, b, 0.01)
	Connect(a, c, 0.05)

	var bGot, cGot bool
	sched.Activity("b", func(p *engine.Proc) {
		p.Yield(b.Receive())
		bGot = true
	})
	sched.Activity("c", func(p *engine.Proc) {
		p.Yield(c.Receive())
		cGot = true
	})
	a.Broadcast(HeadNew, "tip")
	sched.Run(1)
	assert.True(t, bGot)
	assert.True(t, cGot)
}

func TestReceiveQueuesWhenNoWaiter(t *testing.T) {
	sched := engine.New(1)
	bus := NewBus(sched)
	a := NewSocket(sched, bus, 1)
	b := NewSocket(sched, bus, 2)
	Connect(a, b, 0.01)

	a.SendEvent(2, BlockRequest, "fp")
	sched.Run(1) // envelope lands in b's mailbox with nobody waiting yet

	var got Envelope
	sched.Activity("late-recv", func(p *engine.Proc) {
		v, _ := p.Yield(b.Receive())
		got = v.(Envelope)
	})
	sched.Run(2)
	assert.Equal(t, "fp", got.Payload)
}
