package miner

import (
	"github.com/drewstone/btcsimulator/internal/chain"
	"github.com/drewstone/btcsimulator/internal/engine"
	"github.com/drewstone/btcsimulator/internal/netbus"
)

// SPVPolicy (§4.5) tracks two heads: ChainHead (adopted on height alone,
// the way a light client follows the longest header chain without
// validating it) and ChainHeadOthers (adopted only among blocks already
// known valid, the "fully-validating" view the background activity
// reconciles against). Mined blocks inherit the validity bit of the
// current ChainHead rather than always being valid — an SPV miner can
// unknowingly build on top of a chain an attacker has poisoned.
type SPVPolicy struct {
	ValFrac         float64
	ChainHeadOthers chain.Fingerprint
}

func (p *SPVPolicy) Name() string { return "spv" }

// MineBlock builds a zero-size block (§9 Open Question #3, §4.5: "SPV
// miners don't produce payload, only headers") whose validity is
// inherited from the current chain head at mining time.
func (p *SPVPolicy) MineBlock(m *Miner) chain.Block {
	head := m.view.Head()
	return chain.Block{
		Prev:      m.view.ChainHead,
		Height:    head.Height + 1,
		Time:      m.sched.Now(),
		MinerID:   m.ID,
		MinerName: m.Name,
		Size:      0,
		Valid:     head.Valid,
	}
}

// ValidateDelay scales the normal size/verifyrate cost by ValFrac: at
// ValFrac=0 an SPV miner never blocks on validation; at ValFrac=1 it
// behaves exactly like a fully-validating miner (§4.5).
func (p *SPVPolicy) ValidateDelay(m *Miner, b chain.Block) float64 {
	return p.ValFrac * float64(b.Size) / m.Verifyrate
}

// AddBlock updates ChainHead on height alone (never checking Valid — an
// SPV miner can't tell), and separately tracks ChainHeadOthers among only
// the valid blocks it has seen, announcing both as they move.
func (p *SPVPolicy) AddBlock(m *Miner, b chain.Block) {
	fp := m.view.Insert(b)
	if m.view.ChainHead == chain.Genesis {
		m.view.ChainHead = fp
		p.ChainHeadOthers = fp
	}
	if b.Height > m.view.Head().Height {
		m.view.ChainHead = fp
		m.socket.Broadcast(netbus.HeadNew, fp)
	}
	if b.Valid && b.Height > m.view.Height(p.ChainHeadOthers) {
		p.ChainHeadOthers = fp
		m.socket.Broadcast(netbus.HeadNew, fp)
	}
}

// OnMainLoopTick forks a deferred background validation of the current
// chain head (§4.5): once it learns the head's true validity, it switches
// back to ChainHeadOthers if the head turns out invalid. It is a true
// fire-and-forget activity, not awaited by the main loop, matching
// `self.env.process(self.validate_chain_head())` being called without a
// leading yield in the original.
func (p *SPVPolicy) OnMainLoopTick(m *Miner) {
	head := m.view.Head()
	if head.Height == 0 || head.ValidatedYet || p.ValFrac <= 0 {
		return
	}
	headFP := m.view.ChainHead
	m.sched.Activity(m.Name+"-validate-head", func(proc *engine.Proc) {
		delay := p.ValFrac * float64(head.Size) / m.Verifyrate
		if delay > 0 {
			proc.Yield(m.sched.Timeout(delay))
		}
		b, ok := m.view.Blocks[headFP]
		if !ok {
			return
		}
		b.ValidatedYet = true
		m.view.Blocks[headFP] = b
		if !b.Valid && m.view.ChainHead == headFP {
			m.view.ChainHead = p.ChainHeadOthers
		}
	})
}

// OnReset is a no-op: ChainHeadOthers is re-derived when AddBlock re-seeds
// the fresh genesis block right after the view is cleared.
func (p *SPVPolicy) OnReset(m *Miner) {}
