package netbus

import "github.com/drewstone/btcsimulator/internal/engine"

// Socket is a miner's endpoint onto the shared Bus: its outbound links to
// peers, plus send/broadcast/receive primitives (§4.2).
type Socket struct {
	sched *engine.Scheduler
	bus   *Bus
	id    int64
	links []Link
}

// NewSocket binds a socket for miner id to bus.
func NewSocket(sched *engine.Scheduler, bus *Bus, id int64) *Socket {
	return &Socket{sched: sched, bus: bus, id: id}
}

// AddLink registers an outgoing link from this socket.
func (s *Socket) AddLink(l Link) {
	s.links = append(s.links, l)
}

// Links returns the socket's outgoing links.
func (s *Socket) Links() []Link { return s.links }

func (s *Socket) delayTo(dst int64) (float64, bool) {
	for _, l := range s.links {
		if l.Dst == dst {
			return l.Delay, true
		}
	}
	return 0, false
}

// SendEvent schedules delivery of action/payload to a specific peer after
// that link's propagation delay (§4.2).
func (s *Socket) SendEvent(to int64, action Action, payload interface{}) {
	delay, ok := s.delayTo(to)
	if !ok {
		return
	}
	env := Envelope{Origin: s.id, Destination: to, Action: action, Payload: payload}
	s.sched.Timeout(delay).OnFire(func(*engine.Event) {
		s.bus.deliver(env)
	})
}

// Broadcast sends action/payload to every outgoing link.
func (s *Socket) Broadcast(action Action, payload interface{}) {
	for _, l := range s.links {
		l := l
		env := Envelope{Origin: s.id, Destination: l.Dst, Action: action, Payload: payload}
		s.sched.Timeout(l.Delay).OnFire(func(*engine.Event) {
			s.bus.deliver(env)
		})
	}
}

// Receive yields the next envelope addressed to this socket's miner id.
func (s *Socket) Receive() *engine.Event {
	return s.bus.Receive(s.id)
}

// Connect wires a and b symmetrically with equal delay, matching
// Miner.connect in the original simulator (miner.py).
func Connect(a, b *Socket, delay float64) {
	a.AddLink(Link{Src: a.id, Dst: b.id, Delay: delay})
	b.AddLink(Link{Src: b.id, Dst: a.id, Delay: delay})
}
