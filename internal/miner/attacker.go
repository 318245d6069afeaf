package miner

import (
	"github.com/drewstone/btcsimulator/internal/chain"
	"github.com/drewstone/btcsimulator/internal/engine"
	"github.com/drewstone/btcsimulator/internal/netbus"
)

// Resettable is implemented by any miner the attacker's full-reset mode
// needs to reseed after a race concludes (SPEC_FULL.md §4, §9 Open
// Question #2). *Miner satisfies it via ResetChain.
type Resettable interface {
	ResetChain()
}

// AttackerPolicy (§4.6) mines a private, always-invalid chain, tracking
// InvalidLen (its own private lead) and HonestLen (confirmations the
// honest network has accumulated since the fork) separately; the race
// against TargetConfirms decides a win (its invalid chain confirms first)
// or a loss (the honest chain confirms first).
type AttackerPolicy struct {
	TargetConfirms int

	// FollowHonestBeforeFork: before the attacker has committed to a fork
	// (InvalidLen == 0), optionally rebase ChainHead onto a new best
	// honest block instead of sitting on a stale private chain (§9 Open
	// Question #1).
	FollowHonestBeforeFork bool

	// FullReset: when true, a race's conclusion resets every peer's chain
	// state (accumulating-races mode); when false, ChainHead/ChainHeadOthers
	// bookkeeping persists and only the race counters reset (single-race
	// mode still reports the same Win/Lose signals, SPEC_FULL.md §9 Open
	// Question #2).
	FullReset bool

	ChainHeadOthers chain.Fingerprint
	InvalidLen      int
	HonestLen       int

	Win  *engine.Event
	Lose *engine.Event
	Wins int
	Loses int

	NumRestarts int
	peers       []Resettable
}

// NewAttackerPolicy constructs a policy ready to race to targetConfirms.
func NewAttackerPolicy(sched *engine.Scheduler, targetConfirms int, followHonestBeforeFork, fullReset bool) *AttackerPolicy {
	return &AttackerPolicy{
		TargetConfirms:         targetConfirms,
		FollowHonestBeforeFork: followHonestBeforeFork,
		FullReset:              fullReset,
		Win:                    sched.Signal(),
		Lose:                   sched.Signal(),
	}
}

func (AttackerPolicy) Name() string { return "attacker" }

// SetPeers registers the other participants a full-reset race watcher must
// reseed once a race concludes (§9 Open Question #2).
func (p *AttackerPolicy) SetPeers(peers []Resettable) { p.peers = peers }

// StartRaceWatcher launches the background activity that, in full-reset
// mode, resets every peer (and the attacker itself) each time a race
// concludes, so successive races are statistically independent (§4.6,
// `wait_for_win_or_lose` in the original).
func (p *AttackerPolicy) StartRaceWatcher(sched *engine.Scheduler, m *Miner) {
	if !p.FullReset {
		return
	}
	sched.Activity(m.Name+"-race-watcher", func(proc *engine.Proc) {
		for {
			proc.Yield(sched.AnyOf(p.Win, p.Lose))
			for _, peer := range p.peers {
				peer.ResetChain()
			}
			m.ResetChain()
		}
	})
}

func (p *AttackerPolicy) MineBlock(m *Miner) chain.Block {
	head := m.view.Head()
	return chain.Block{
		Prev:      m.view.ChainHead,
		Height:    head.Height + 1,
		Time:      m.sched.Now(),
		MinerID:   m.ID,
		MinerName: m.Name,
		Size:      mineSize(m.sched),
		Valid:     false,
	}
}

func (p *AttackerPolicy) ValidateDelay(m *Miner, b chain.Block) float64 {
	return float64(b.Size) / m.Verifyrate
}

// AddBlock implements the race bookkeeping in §4.6 exactly:
//   - an invalid block extending the attacker's own private chain grows
//     InvalidLen and becomes ChainHead unconditionally (the attacker always
//     follows its own longest private chain);
//   - a valid block extending ChainHeadOthers, when FullReset is false,
//     either rebases ChainHead onto it (if the attacker hasn't forked yet
//     and FollowHonestBeforeFork is set) or accumulates HonestLen once the
//     race is underway; when FullReset is true it always accumulates
//     HonestLen, counting from the reset genesis, and ChainHead never moves
//     onto the valid chain;
//   - whichever counter reaches TargetConfirms first fires Win or Lose and
//     resets both counters for the next race.
func (p *AttackerPolicy) AddBlock(m *Miner, b chain.Block) {
	fp := m.view.Insert(b)
	if m.view.ChainHead == chain.Genesis {
		m.view.ChainHead = fp
		p.ChainHeadOthers = fp
	}

	if !b.Valid {
		if b.Height > m.view.Head().Height {
			m.view.ChainHead = fp
			p.InvalidLen++
			m.socket.Broadcast(netbus.HeadNew, fp)
		}
	} else if b.Height > m.view.Height(p.ChainHeadOthers) {
		p.ChainHeadOthers = fp
		if !p.FullReset {
			if p.InvalidLen > 0 {
				p.HonestLen++
			}
			if (b.Height > m.view.Head().Height && p.InvalidLen == 0 && p.FollowHonestBeforeFork) || p.HonestLen == p.TargetConfirms {
				m.view.ChainHead = fp
				m.socket.Broadcast(netbus.HeadNew, fp)
			}
		} else {
			p.HonestLen++
		}
	}

	if p.InvalidLen == p.TargetConfirms || p.HonestLen == p.TargetConfirms {
		if p.InvalidLen == p.TargetConfirms {
			p.Wins++
			ev := p.Win
			p.Win = m.sched.Signal()
			m.sched.Succeed(ev, nil)
		} else {
			p.Loses++
			ev := p.Lose
			p.Lose = m.sched.Signal()
			m.sched.Succeed(ev, nil)
		}
		p.HonestLen = 0
		p.InvalidLen = 0
	}
}

func (AttackerPolicy) OnMainLoopTick(m *Miner) {}

// OnReset drops the race-length counters, matching `AttackMiner.reset`
// incrementing num_restarts and zeroing invalid_len/honest_len before the
// superclass re-seeds genesis. ChainHeadOthers is re-derived by AddBlock
// once the fresh genesis passes through it.
func (p *AttackerPolicy) OnReset(m *Miner) {
	p.InvalidLen = 0
	p.HonestLen = 0
	p.NumRestarts++
}
