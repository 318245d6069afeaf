// Package simulator is the driver (spec §4.7, C6): it builds a miner
// population and network topology from scenario parameters, runs the
// scheduler, and reports outcomes. It is the only package that wires
// internal/miner, internal/netbus, internal/store, and internal/pubsub
// together.
package simulator

import (
	"log/slog"

	"github.com/drewstone/btcsimulator/internal/chain"
	"github.com/drewstone/btcsimulator/internal/engine"
	"github.com/drewstone/btcsimulator/internal/miner"
	"github.com/drewstone/btcsimulator/internal/netbus"
	"github.com/drewstone/btcsimulator/internal/pubsub"
	"github.com/drewstone/btcsimulator/internal/store"
)

const (
	// BlockRate is the network-wide target of one block every ten minutes
	// (spec §3 data model), the same constant the original names
	// Miner.BLOCK_RATE. Each miner's Hashrate is its fraction of this.
	BlockRate = 1.0 / 600.0

	// VerifyRate is how many bytes/sec a fully-validating miner processes
	// (spec §3 — "a miner is able to verify 200KB per second").
	VerifyRate = 200 * 1024.0

	// LinkDelay is the fixed propagation delay every connected pair of
	// miners uses (spec §3 data model, `Miner.connect`).
	LinkDelay = 0.02

	// DaySeconds converts a day-denominated run budget into virtual
	// seconds (original `main.py` used the `moment` library for this; a
	// day is just 86400 seconds, no library needed, SPEC_FULL.md §4).
	DaySeconds = 86400.0
)

// population is the shared scaffolding every scenario builds: a scheduler,
// bus, store, pubsub broker, and a genesis block every miner starts from.
type population struct {
	sched  *engine.Scheduler
	bus    *netbus.Bus
	store  store.Store
	pubsub *pubsub.Broker
	log    *slog.Logger
	genesis chain.Block
}

func newPopulation(seed int64, st store.Store, broker *pubsub.Broker, log *slog.Logger) *population {
	if st == nil {
		st = store.NewNoop()
	}
	if broker == nil {
		broker = pubsub.NewBroker()
	}
	if log == nil {
		log = slog.Default()
	}
	st.Clear()
	broker.Publish(pubsub.Topic, pubsub.EventNames)
	sched := engine.New(seed)
	return &population{
		sched:   sched,
		bus:     netbus.NewBus(sched),
		store:   st,
		pubsub:  broker,
		log:     log,
		genesis: chain.NewGenesis("seed"),
	}
}

// newMiner allocates a miner id from the store and wires its socket onto
// the shared bus.
func (p *population) newMiner(name string, hashrate float64, policy miner.Policy) *miner.Miner {
	id, err := p.store.AllocateID("miners")
	if err != nil {
		p.log.Warn("persistence: allocate_id failed, using in-memory counter", "err", err)
	}
	socket := netbus.NewSocket(p.sched, p.bus, id)
	return miner.New(p.sched, socket, id, name, hashrate, VerifyRate, p.genesis, p.store, policy, p.log)
}

// finish publishes the SIMULATION_ENDED marker (spec §6).
func (p *population) finish() {
	p.pubsub.Publish(pubsub.SimulationEnded, p.sched.Now())
}
