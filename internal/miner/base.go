package miner

import "github.com/drewstone/btcsimulator/internal/chain"

// BasePolicy is the plain miner used by the standard scenario (§4.7
// "Standard"): no adversarial behaviour, every block it mines is valid, and
// chain selection is the unmodified longest-chain rule (§4.3.5).
type BasePolicy struct{}

func (BasePolicy) Name() string { return "base" }

func (BasePolicy) MineBlock(m *Miner) chain.Block {
	head := m.view.Head()
	return chain.Block{
		Prev:      m.view.ChainHead,
		Height:    head.Height + 1,
		Time:      m.sched.Now(),
		MinerID:   m.ID,
		MinerName: m.Name,
		Size:      mineSize(m.sched),
		Valid:     true,
	}
}

func (BasePolicy) ValidateDelay(m *Miner, b chain.Block) float64 {
	return float64(b.Size) / m.Verifyrate
}

func (BasePolicy) AddBlock(m *Miner, b chain.Block) {
	defaultAddBlock(m, b, false)
}

func (BasePolicy) OnMainLoopTick(m *Miner) {}

func (BasePolicy) OnReset(m *Miner) {}
