package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDrain(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	b.Publish("HEAD_NEW", "fp1")
	b.Publish(SimulationEnded, nil)

	select {
	case msg := <-b.Out():
		m := msg.(Message)
		assert.Equal(t, Topic, m.Topic)
		assert.Equal(t, "HEAD_NEW", m.Kind)
		assert.Equal(t, "fp1", m.Body)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first message")
	}

	select {
	case msg := <-b.Out():
		m := msg.(Message)
		assert.Equal(t, SimulationEnded, m.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second message")
	}
}

func TestEventNamesCoversEveryAction(t *testing.T) {
	require.Contains(t, EventNames, "BLOCK_REQUEST")
	require.Contains(t, EventNames, "ATTACK_WIN")
	require.Contains(t, EventNames, SimulationEnded)
}
