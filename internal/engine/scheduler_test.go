package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutOrdering(t *testing.T) {
	s := New(1)
	var order []int
	s.Activity("a", func(p *Proc) {
		p.Yield(s.Timeout(5))
		order = append(order, 1)
	})
	s.Activity("b", func(p *Proc) {
		p.Yield(s.Timeout(1))
		order = append(order, 2)
	})
	s.Run(10)
	assert.Equal(t, []int{2, 1}, order)
}

func TestEqualTimeFIFO(t *testing.T) {
	s := New(1)
	var order []int
	s.Activity("a", func(p *Proc) {
		p.Yield(s.Timeout(1))
		order = append(order, 1)
	})
	s.Activity("b", func(p *Proc) {
		p.Yield(s.Timeout(1))
		order = append(order, 2)
	})
	s.Run(10)
	assert.Equal(t, []int{1, 2}, order, "equal fire times must resolve in registration order")
}

func TestSignalSucceed(t *testing.T) {
	s := New(1)
	sig := s.Signal()
	got := make(chan interface{}, 1)
	s.Activity("waiter", func(p *Proc) {
		v, err := p.Yield(sig)
		require.NoError(t, err)
		got <- v
	})
	s.Succeed(sig, "hello")
	s.Run(1)
	assert.Equal(t, "hello", <-got)
}

func TestAnyOfDeliversCoFiringSiblings(t *testing.T) {
	s := New(1)
	sigA := s.Signal()
	sigB := s.Signal()
	any := s.AnyOf(sigA, sigB)

	var result map[*Event]interface{}
	s.Activity("waiter", func(p *Proc) {
		v, err := p.Yield(any)
		require.NoError(t, err)
		result = v.(map[*Event]interface{})
	})

	// Fire both signals before the scheduler processes either: both
	// become Triggered synchronously, so AnyOf must deliver both.
	s.Succeed(sigA, "a")
	s.Succeed(sigB, "b")
	s.Run(1)

	require.Len(t, result, 2)
	assert.Equal(t, "a", result[sigA])
	assert.Equal(t, "b", result[sigB])
}

func TestAnyOfOnlyFiredSibling(t *testing.T) {
	s := New(1)
	sigA := s.Signal()
	sigB := s.Signal()
	any := s.AnyOf(sigA, sigB)

	var result map[*Event]interface{}
	s.Activity("waiter", func(p *Proc) {
		v, _ := p.Yield(any)
		result = v.(map[*Event]interface{})
	})
	s.Succeed(sigA, "a")
	s.Run(1)

	require.Len(t, result, 1)
	assert.Equal(t, "a", result[sigA])
}

func TestInterruptDeliversError(t *testing.T) {
	s := New(1)
	var gotInterrupt bool
	var proc *Proc
	proc = s.Activity("mining", func(p *Proc) {
		_, err := p.Yield(s.Timeout(100))
		if err != nil {
			gotInterrupt = true
			ie, ok := err.(*InterruptError)
			require.True(t, ok)
			assert.Equal(t, "restart", ie.Reason)
		}
	})
	s.Interrupt(proc, "restart")
	s.Run(1)
	assert.True(t, gotInterrupt)
}

func TestDoneEventFiresOnCompletion(t *testing.T) {
	s := New(1)
	child := s.Activity("child", func(p *Proc) {
		p.Yield(s.Timeout(1))
	})
	var parentSawDone bool
	s.Activity("parent", func(p *Proc) {
		_, err := p.Yield(child.DoneEvent())
		require.NoError(t, err)
		parentSawDone = true
	})
	s.Run(10)
	assert.True(t, parentSawDone)
}

func TestRunUntilEventStopsEarly(t *testing.T) {
	s := New(1)
	sig := s.Signal()
	s.Activity("fires", func(p *Proc) {
		p.Yield(s.Timeout(3))
		s.Succeed(sig, nil)
	})
	later := s.Timeout(1000)
	_ = later
	s.RunUntilEvent(sig)
	assert.True(t, sig.Triggered())
	assert.Less(t, s.Now(), float64(1000))
}

func TestRunUntilStopsAtBudgetWhenEventNeverFires(t *testing.T) {
	s := New(1)
	sig := s.Signal()
	s.Timeout(1000) // never touches sig
	s.RunUntil(5, sig)
	assert.False(t, sig.Triggered())
	assert.Equal(t, float64(0), s.Now(), "queue head (t=1000) exceeds budget, so nothing runs")
}

func TestRunUntilStopsEarlyWhenEventFiresBeforeBudget(t *testing.T) {
	s := New(1)
	sig := s.Signal()
	s.Activity("fires", func(p *Proc) {
		p.Yield(s.Timeout(3))
		s.Succeed(sig, nil)
	})
	s.Timeout(1000)
	s.RunUntil(500, sig)
	assert.True(t, sig.Triggered())
	assert.Less(t, s.Now(), float64(500))
}

func TestDeterministicReplay(t *testing.T) {
	run := func(seed int64) []float64 {
		s := New(seed)
		var times []float64
		for i := 0; i < 5; i++ {
			s.Activity("a", func(p *Proc) {
				d := s.Rand().ExpFloat64()
				p.Yield(s.Timeout(d))
				times = append(times, s.Now())
			})
		}
		s.Run(1000)
		return times
	}
	a := run(42)
	b := run(42)
	assert.Equal(t, a, b)
}
