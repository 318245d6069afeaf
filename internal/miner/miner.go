// Package miner implements the miner actor (spec §4.3, C4) and its three
// variants (§4.4-§4.6, C5): three concurrent activities per miner — mine,
// wait for a new block, and service the network — coordinated entirely
// through events, never shared mutable state touched outside a yield.
package miner

import (
	"log/slog"
	"strconv"

	"github.com/drewstone/btcsimulator/internal/chain"
	"github.com/drewstone/btcsimulator/internal/engine"
	"github.com/drewstone/btcsimulator/internal/netbus"
	"github.com/drewstone/btcsimulator/internal/store"
)

// Miner is the base actor contract (§4.3): identity, the chain view it
// privately owns, its network socket, and the three signals its activities
// coordinate through. Variant-specific behaviour is delegated entirely to
// Policy; Miner itself never type-switches on variant.
type Miner struct {
	ID         int64
	Name       string
	Hashrate   float64 // blocks/sec this miner mines at
	Verifyrate float64 // bytes/sec this miner validates at

	sched   *engine.Scheduler
	socket  *netbus.Socket
	view    *chain.View
	store   store.Store
	log     *slog.Logger
	policy  Policy
	genesis chain.Block

	blockMined    *engine.Event
	blockReceived *engine.Event
	continueMine  *engine.Event

	totalBlocks int64

	miningProc *engine.Proc
	mainProc   *engine.Proc
	svcProc    *engine.Proc
}

// New constructs a miner bound to sched/socket/genesis, with policy
// governing chain selection and mining content. It does not start any
// activities; call Start for that (mirrors env.process(...) being called
// explicitly per activity in the original simpy port, §4.3).
func New(sched *engine.Scheduler, socket *netbus.Socket, id int64, name string, hashrate, verifyrate float64, genesis chain.Block, st store.Store, policy Policy, log *slog.Logger) *Miner {
	view := chain.NewView()
	if log == nil {
		log = slog.Default()
	}
	m := &Miner{
		ID:            id,
		Name:          name,
		Hashrate:      hashrate,
		Verifyrate:    verifyrate,
		sched:         sched,
		socket:        socket,
		view:          view,
		store:         st,
		log:           log.With("miner_id", id, "miner_name", name, "variant", policy.Name()),
		policy:        policy,
		genesis:       genesis,
		blockMined:    sched.Signal(),
		blockReceived: sched.Signal(),
		continueMine:  sched.Signal(),
	}
	if err := m.store.Record(minerPath(id), map[string]interface{}{
		"name":       name,
		"hashrate":   hashrate,
		"verifyrate": verifyrate,
		"variant":    policy.Name(),
	}); err != nil {
		m.log.Warn("persistence: failed to record miner", "err", err)
	}
	return m
}

func minerPath(id int64) string {
	return "miners:" + strconv.FormatInt(id, 10)
}

// View exposes the miner's private chain view (read-only from the outside;
// tests and the driver use this to inspect outcomes).
func (m *Miner) View() *chain.View { return m.view }

// Socket exposes the miner's network endpoint so the driver can wire
// topology (Connect calls) before Start.
func (m *Miner) Socket() *netbus.Socket { return m.socket }

// TotalBlocksMined returns the count of blocks this miner has produced
// itself, used by L4 (Poisson aggregate rate across miners).
func (m *Miner) TotalBlocksMined() int64 { return m.totalBlocks }

// ResetChain clears the view back to empty, lets the policy drop its own
// bookkeeping (invalid_len/honest_len for the attacker), then re-seeds the
// genesis block through the policy's own AddBlock — exactly as
// `Miner.reset` does in the original (`self.add_block(self.seed_block)`),
// so dual-head variants re-derive chain_head_others from the fresh genesis
// instead of having it force-set out of band.
func (m *Miner) ResetChain() {
	m.totalBlocks = 0
	m.view.Clear()
	m.policy.OnReset(m)
	m.policy.AddBlock(m, m.genesis)
}

// Start seeds the genesis block through the variant's own AddBlock (so
// dual-head variants initialize ChainHeadOthers consistently, exactly as
// `self.add_block(self.seed_block)` does in the original before any
// activity runs) then launches the miner's three activities: mining, the
// main (wait-for-new-block) loop, and the network service loop (§4.3).
func (m *Miner) Start() {
	m.policy.AddBlock(m, m.genesis)
	m.miningProc = m.sched.Activity(m.Name+"-mine", m.mineLoop)
	m.mainProc = m.sched.Activity(m.Name+"-main", m.mainLoop)
	if len(m.socket.Links()) > 0 {
		m.svcProc = m.sched.Activity(m.Name+"-service", m.serviceLoop)
	}
}

// mineLoop is activity C4.1 (§4.3.1): repeatedly sleep an exponential
// inter-arrival time, then produce a block on top of the current head.
// Interrupted (by the main loop, when a competing block arrives) it parks
// on continue_mine and restarts from scratch rather than resuming the
// partially-elapsed timeout — mining "restarts" on every new head.
func (m *Miner) mineLoop(p *engine.Proc) {
	for {
		delay := mineDelay(m.sched, m.Hashrate)
		_, err := p.Yield(m.sched.Timeout(delay))
		if isInterrupt(err) {
			p.Yield(m.continueMine)
			continue
		}
		block := m.policy.MineBlock(m)
		m.notifyNewBlock(block)
	}
}

// notifyNewBlock fires blockMined with block and immediately allocates the
// fresh signal future mining rounds will fire (design notes §9: a fired
// signal is discarded, never reused).
func (m *Miner) notifyNewBlock(block chain.Block) {
	m.totalBlocks++
	m.log.Debug("mined block", "height", block.Height, "size", block.Size, "valid", block.Valid)
	ev := m.blockMined
	m.blockMined = m.sched.Signal()
	m.sched.Succeed(ev, block)
}

// notifyReceivedBlock fires blockReceived with block, analogous to
// notifyNewBlock but for blocks that arrived over the network (§4.3.3).
func (m *Miner) notifyReceivedBlock(block chain.Block) {
	ev := m.blockReceived
	m.blockReceived = m.sched.Signal()
	m.sched.Succeed(ev, block)
}

// mainLoop is activity C4.2 (§4.3.2): wait for either a self-mined or a
// received block, interrupt mining so it restarts on the new head, run
// validation as a nested activity, then let the policy react before
// resuming mining.
func (m *Miner) mainLoop(p *engine.Proc) {
	for {
		mined, received := m.blockMined, m.blockReceived
		v, err := p.Yield(m.sched.AnyOf(mined, received))
		if isInterrupt(err) {
			p.Yield(m.continueMine)
			continue
		}
		// Range over the two candidates in a fixed order rather than the
		// fired map directly: Go's map iteration order is randomized per
		// process, which would make same-tick co-firing (both a self-mined
		// and a received block arriving at the identical virtual time)
		// non-reproducible across runs with the same seed (L1).
		fired := v.(map[*engine.Event]interface{})
		if val, ok := fired[mined]; ok {
			m.view.BlocksNew = append(m.view.BlocksNew, val.(chain.Block))
		}
		if val, ok := fired[received]; ok {
			m.view.BlocksNew = append(m.view.BlocksNew, val.(chain.Block))
		}

		m.sched.Interrupt(m.miningProc, "new-block")

		validation := m.sched.Activity(m.Name+"-validate", m.processNewBlocks)
		p.Yield(validation.DoneEvent())

		m.policy.OnMainLoopTick(m)
		m.fireContinueMine()
	}
}

func (m *Miner) fireContinueMine() {
	ev := m.continueMine
	m.continueMine = m.sched.Signal()
	m.sched.Succeed(ev, nil)
}

// processNewBlocks is the nested validation activity (§4.3.4): classify
// every pending block via verifyBlock, spending validate_delay virtual time
// per block, accepting (policy.AddBlock), requesting the missing parent and
// retrying later, or silently dropping, per the three-way outcome.
func (m *Miner) processNewBlocks(p *engine.Proc) {
	pending := m.view.BlocksNew
	m.view.BlocksNew = nil
	for _, b := range pending {
		delay := m.policy.ValidateDelay(m, b)
		if delay > 0 {
			p.Yield(m.sched.Timeout(delay))
		}
		switch verifyBlock(m.view, m.ID, b) {
		case 1:
			m.policy.AddBlock(m, b)
			m.recordBlock(b)
		case 0:
			m.socket.Broadcast(netbus.BlockRequest, b.Prev)
			m.view.BlocksNew = append(m.view.BlocksNew, b)
		case -1:
			m.log.Debug("rejected block", "height", b.Height, "prev", b.Prev)
		}
	}
}

// serviceLoop is activity C4.3 (§4.3.3): respond to requests for blocks
// this miner knows, forward received blocks into the blockReceived signal,
// and chase down unknown heads announced by peers. A miner with no links
// (isolated in the network topology) never starts this activity at all.
func (m *Miner) serviceLoop(p *engine.Proc) {
	for {
		v, _ := p.Yield(m.socket.Receive())
		env := v.(netbus.Envelope)
		switch env.Action {
		case netbus.BlockRequest:
			fp := env.Payload.(chain.Fingerprint)
			if b, ok := m.view.Blocks[fp]; ok {
				m.socket.SendEvent(env.Origin, netbus.BlockResponse, b)
			}
		case netbus.BlockResponse:
			m.notifyReceivedBlock(env.Payload.(chain.Block))
		case netbus.HeadNew:
			fp := env.Payload.(chain.Fingerprint)
			if !m.view.Known(fp) {
				m.socket.Broadcast(netbus.BlockRequest, fp)
			}
		}
	}
}

// recordBlock archives an accepted block under this miner's blocks index,
// scored by height (§6 "persistence" — `zadd miners:<id>:blocks`).
func (m *Miner) recordBlock(b chain.Block) {
	fp := b.Fingerprint()
	if err := m.store.Record(blockPath(fp), map[string]interface{}{
		"height":     b.Height,
		"miner_id":   b.MinerID,
		"miner_name": b.MinerName,
		"size":       b.Size,
		"valid":      b.Valid,
		"prev":       b.Prev,
	}); err != nil {
		m.log.Warn("persistence: failed to record block", "err", err)
		return
	}
	if err := m.store.RecordIndex(minerPath(m.ID)+":blocks", float64(b.Height), string(fp)); err != nil {
		m.log.Warn("persistence: failed to index block", "err", err)
	}
}

func blockPath(fp chain.Fingerprint) string {
	return "blocks:" + string(fp)
}

func isInterrupt(err error) bool {
	_, ok := err.(*engine.InterruptError)
	return ok
}
