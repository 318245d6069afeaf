package simulator

import (
	"log/slog"
	"strconv"

	"github.com/drewstone/btcsimulator/internal/config"
	"github.com/drewstone/btcsimulator/internal/miner"
	"github.com/drewstone/btcsimulator/internal/netbus"
	"github.com/drewstone/btcsimulator/internal/pubsub"
	"github.com/drewstone/btcsimulator/internal/store"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// StandardResult summarizes an n-miner run with no adversarial behaviour
// (spec §4.7 "Standard"): the first miner's final height, every miner's
// total blocks mined, and whether all miners ended on the same chain head,
// used to check L4 (Poisson aggregate rate) and I1-I3 convergence.
type StandardResult struct {
	Elapsed     float64
	HashShares  []float64
	FinalHeight int64
	TotalBlocks []int64
	Converged   bool
}

// Standard runs n base miners, each assigned a Dirichlet-distributed share
// of BlockRate, wired into a random graph where each pair is independently
// connected with probability 0.5 (spec §4.7), for cfg.Days virtual days.
func Standard(cfg config.Standard, st store.Store, broker *pubsub.Broker, log *slog.Logger) (*StandardResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pop := newPopulation(cfg.Seed, st, broker, log)

	shares := dirichletShares(pop.sched.Rand(), cfg.NumMiners)
	miners := make([]*miner.Miner, cfg.NumMiners)
	for i := range miners {
		name := "miner-" + strconv.Itoa(i)
		miners[i] = pop.newMiner(name, shares[i]*BlockRate, miner.BasePolicy{})
	}

	for i := 0; i < cfg.NumMiners; i++ {
		for j := i + 1; j < cfg.NumMiners; j++ {
			if pop.sched.Rand().Float64() < 0.5 {
				netbus.Connect(socketOf(miners[i]), socketOf(miners[j]), LinkDelay)
			}
		}
	}

	for _, m := range miners {
		m.Start()
	}

	pop.sched.Run(cfg.Days * DaySeconds)
	pop.finish()

	result := &StandardResult{
		Elapsed:     pop.sched.Now(),
		HashShares:  shares,
		TotalBlocks: make([]int64, cfg.NumMiners),
	}
	head := miners[0].View().ChainHead
	result.Converged = true
	for i, m := range miners {
		result.TotalBlocks[i] = m.TotalBlocksMined()
		if m.View().ChainHead != head {
			result.Converged = false
		}
	}
	result.FinalHeight = miners[0].View().Head().Height
	return result, nil
}

// dirichletShares samples n hash shares summing to 1 via a symmetric
// Dirichlet(1,...,1) distribution (equivalent to a uniform distribution
// over the simplex) — stdlib has no such sampler, hence gonum (SPEC_FULL.md
// §3 domain stack).
func dirichletShares(rng *rand.Rand, n int) []float64 {
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = 1
	}
	d := distuv.Dirichlet{Alpha: alpha, Src: rng}
	return d.Rand(nil)
}

// socketOf exposes a miner's socket for topology wiring; the driver is the
// only package outside internal/miner and internal/netbus allowed to reach
// into this, since only the topology-building step needs it.
func socketOf(m *miner.Miner) *netbus.Socket { return m.Socket() }
