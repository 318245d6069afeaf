package miner

import (
	"github.com/drewstone/btcsimulator/internal/chain"
	"github.com/drewstone/btcsimulator/internal/engine"
	"github.com/drewstone/btcsimulator/internal/netbus"
)

// Policy is the capability set a miner variant implements (design notes §9:
// "a core actor that delegates to a policy capability set — select_head,
// mine_next, validate_delay, on_race_outcome — rather than inheritance").
// A Miner owns exactly one Policy instance; the base actor (mining loop,
// main loop, service loop, verify_block classification) is identical across
// every variant and lives in miner.go.
type Policy interface {
	// Name identifies the variant for logging ("base", "honest", "spv",
	// "attacker").
	Name() string

	// MineBlock builds the candidate block a freshly-completed mining
	// round produces, given the miner's current view (§4.3.1, §4.3.5).
	MineBlock(m *Miner) chain.Block

	// ValidateDelay returns how long process_new_blocks should wait before
	// classifying b (§4.3.4). Zero means no wait.
	ValidateDelay(m *Miner, b chain.Block) float64

	// AddBlock implements the variant's chain-selection policy: insert b
	// into the view and update whatever head(s) the variant tracks
	// (§4.3.5, §4.4, §4.5, §4.6).
	AddBlock(m *Miner, b chain.Block)

	// OnMainLoopTick runs once per main-loop iteration, after
	// process_new_blocks has drained, before continue_mining fires. SPV
	// uses it to fork a deferred background head-revalidation (§4.5); base
	// and honest are no-ops.
	OnMainLoopTick(m *Miner)

	// OnReset runs after the view has been cleared and before the genesis
	// block is re-added through AddBlock (attacker full-reset mode,
	// §4.6/§9). Variants with race counters (invalid_len/honest_len) clear
	// them here; chain_head_others is re-derived when AddBlock re-seeds
	// genesis.
	OnReset(m *Miner)
}

// verifyBlock classifies b against v per the three-way table in spec.md
// §4.3.4: 1 (accept immediately), 0 (parent unknown, request it and retry
// later), -1 (reject — bad height, or a self-mined fork).
func verifyBlock(v *chain.View, selfID int64, b chain.Block) int {
	if b.MinerID == selfID && b.Prev != v.ChainHead {
		return -1
	}
	if !v.Known(b.Prev) {
		return 0
	}
	if b.Height != v.Blocks[b.Prev].Height+1 {
		return -1
	}
	return 1
}

// defaultAddBlock is the base longest-chain policy (§4.3.5): adopt b as the
// new head iff its height strictly exceeds the current head's, announcing
// the change. Ties keep whichever block arrived first. Honest reuses this
// verbatim but gates it on b.Valid.
func defaultAddBlock(m *Miner, b chain.Block, requireValid bool) {
	fp := m.view.Insert(b)
	if m.view.ChainHead == chain.Genesis {
		m.view.ChainHead = fp
	}
	if b.Height > m.view.Head().Height && (!requireValid || b.Valid) {
		m.view.ChainHead = fp
		m.socket.Broadcast(netbus.HeadNew, fp)
	}
}

// mineDelay samples the exponential inter-arrival time common to every
// variant: Exponential(mean = 1/hashrate) (§4.3.1). golang.org/x/exp/rand's
// ExpFloat64 samples Exp(1), so dividing by hashrate rescales the mean.
func mineDelay(sched *engine.Scheduler, hashrate float64) float64 {
	return sched.Rand().ExpFloat64() / hashrate
}

// mineSize samples the uniform block size every honest/base miner (and the
// attacker, which still needs a plausible size to spend validation time on)
// produces: Uniform(0, 200 KiB) (§3 data model).
func mineSize(sched *engine.Scheduler) int64 {
	const maxSize = 200 * 1024
	return int64(sched.Rand().Float64() * maxSize)
}
