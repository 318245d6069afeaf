package miner

import "github.com/drewstone/btcsimulator/internal/chain"

// HonestPolicy (§4.4) mines exactly like BasePolicy but only ever adopts a
// competing block as the new head when that block is valid — it will not
// build on top of an invalid chain even if it is longer.
type HonestPolicy struct{}

func (HonestPolicy) Name() string { return "honest" }

func (HonestPolicy) MineBlock(m *Miner) chain.Block {
	return BasePolicy{}.MineBlock(m)
}

func (HonestPolicy) ValidateDelay(m *Miner, b chain.Block) float64 {
	return BasePolicy{}.ValidateDelay(m, b)
}

func (HonestPolicy) AddBlock(m *Miner, b chain.Block) {
	defaultAddBlock(m, b, true)
}

func (HonestPolicy) OnMainLoopTick(m *Miner) {}

func (HonestPolicy) OnReset(m *Miner) {}
